package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dentalia/clinic-api/internal/model"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
)

func (r *patientRequestRepository) Create(ctx context.Context, req *model.PatientRequest) error {
	query := `
		INSERT INTO patient_requests (appointment_id, token, kind, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		req.AppointmentID,
		req.Token,
		req.Kind,
		req.Status,
		req.ExpiresAt,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create patient request: %w", err)
	}
	return nil
}

// Consume is the single-use gate: the row is locked, checked and flipped to
// processed in one transaction, so a token presented twice concurrently can
// only win once.
func (r *patientRequestRepository) Consume(ctx context.Context, token string, kind model.PatientRequestKind, now time.Time) (*model.PatientRequest, error) {
	var req model.PatientRequest
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT id, appointment_id, token, kind, status, expires_at, created_at
			FROM patient_requests
			WHERE token = $1 AND kind = $2
			FOR UPDATE
		`
		err := tx.GetContext(ctx, &req, query, token, kind)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.InvalidToken()
		}
		if err != nil {
			return fmt.Errorf("failed to look up patient request: %w", err)
		}

		if req.Status != model.PatientRequestPending {
			return apperrors.InvalidToken()
		}
		if req.Expired(now) {
			return apperrors.ExpiredToken()
		}

		_, err = tx.ExecContext(ctx, `UPDATE patient_requests SET status = $1 WHERE id = $2`,
			model.PatientRequestProcessed, req.ID)
		if err != nil {
			return fmt.Errorf("failed to mark patient request processed: %w", err)
		}
		req.Status = model.PatientRequestProcessed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *patientRequestRepository) IssuedOn(ctx context.Context, appointmentID int64, kind model.PatientRequestKind, day model.Date) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM patient_requests
			WHERE appointment_id = $1
			AND kind = $2
			AND created_at::date = $3
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, appointmentID, kind, day)
	if err != nil {
		return false, fmt.Errorf("failed to check issued requests: %w", err)
	}
	return exists, nil
}
