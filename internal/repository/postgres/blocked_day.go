package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/dentalia/clinic-api/internal/model"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
)

func (r *blockedDayRepository) Create(ctx context.Context, date model.Date) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO blocked_days (date) VALUES ($1)`, date)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperrors.Conflict(fmt.Sprintf("day %s is already blocked", date))
		}
		return fmt.Errorf("failed to block day: %w", err)
	}
	return nil
}

func (r *blockedDayRepository) Delete(ctx context.Context, date model.Date) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blocked_days WHERE date = $1`, date)
	if err != nil {
		return fmt.Errorf("failed to unblock day: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("blocked day", nil)
	}
	return nil
}

func (r *blockedDayRepository) Exists(ctx context.Context, date model.Date) (bool, error) {
	var blocked bool
	err := r.db.GetContext(ctx, &blocked, `SELECT EXISTS (SELECT 1 FROM blocked_days WHERE date = $1)`, date)
	if err != nil {
		return false, fmt.Errorf("failed to check blocked day: %w", err)
	}
	return blocked, nil
}

func (r *blockedDayRepository) List(ctx context.Context) ([]model.Date, error) {
	var dates []model.Date
	err := r.db.SelectContext(ctx, &dates, `SELECT date FROM blocked_days ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked days: %w", err)
	}
	return dates, nil
}

func (r *blockedDayRepository) LastCreatedAt(ctx context.Context) (*time.Time, error) {
	var last sql.NullTime
	err := r.db.GetContext(ctx, &last, `SELECT MAX(created_at) FROM blocked_days`)
	if err != nil {
		return nil, fmt.Errorf("failed to get last blocked day update: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}
