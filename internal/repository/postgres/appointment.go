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

const appointmentColumns = `
	a.id, a.patient_id, a.date, a.start_time, a.end_time,
	a.status, a.notes, a.created_at, a.updated_at,
	p.cedula, p.name AS patient_name
`

// lockDate serializes all writers targeting the same calendar date so the
// conflict check and the row write behave as one atomic unit. The lock is
// released at transaction end.
func lockDate(ctx context.Context, tx *sqlx.Tx, date model.Date) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, date.String())
	if err != nil {
		return fmt.Errorf("failed to lock date: %w", err)
	}
	return nil
}

func dayBlocked(ctx context.Context, tx *sqlx.Tx, date model.Date) (bool, error) {
	var blocked bool
	err := tx.GetContext(ctx, &blocked, `SELECT EXISTS (SELECT 1 FROM blocked_days WHERE date = $1)`, date)
	if err != nil {
		return false, fmt.Errorf("failed to check blocked day: %w", err)
	}
	return blocked, nil
}

// findConflict returns the first non-cancelled appointment on date whose
// half-open interval intersects [start,end), excluding excludeID so in-place
// edits never conflict with themselves. Touching endpoints do not conflict.
func findConflict(ctx context.Context, q sqlx.QueryerContext, date model.Date, start, end model.TimeOfDay, excludeID *int64) (*model.Appointment, error) {
	query := `
		SELECT a.id, a.patient_id, a.date, a.start_time, a.end_time,
		       a.status, a.notes, a.created_at, a.updated_at
		FROM appointments a
		WHERE a.date = $1
		AND a.status != 'cancelled'
		AND a.start_time < $3
		AND a.end_time > $2
	`
	args := []interface{}{date, start, end}

	if excludeID != nil {
		query += " AND a.id != $4"
		args = append(args, *excludeID)
	}

	query += " LIMIT 1"

	var apt model.Appointment
	err := sqlx.GetContext(ctx, q, &apt, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return &apt, nil
}

func conflictError(apt *model.Appointment) error {
	return apperrors.SlotTaken(fmt.Sprintf(
		"slot conflicts with an existing appointment from %s to %s on %s",
		apt.StartTime, apt.EndTime, apt.Date,
	))
}

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockDate(ctx, tx, apt.Date); err != nil {
			return err
		}

		blocked, err := dayBlocked(ctx, tx, apt.Date)
		if err != nil {
			return err
		}
		if blocked {
			return apperrors.DayBlocked(apt.Date.String())
		}

		conflict, err := findConflict(ctx, tx, apt.Date, apt.StartTime, apt.EndTime, nil)
		if err != nil {
			return err
		}
		if conflict != nil {
			return conflictError(conflict)
		}

		query := `
			INSERT INTO appointments (patient_id, date, start_time, end_time, status, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`
		err = tx.QueryRowxContext(ctx, query,
			apt.PatientID,
			apt.Date,
			apt.StartTime,
			apt.EndTime,
			apt.Status,
			apt.Notes,
		).Scan(&apt.ID, &apt.CreatedAt, &apt.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `,
		       p.email AS patient_email, p.phone AS patient_phone
		FROM appointments a
		INNER JOIN patients p ON a.patient_id = p.id
		WHERE a.id = $1
	`
	var apt struct {
		model.Appointment
		NullEmail sql.NullString `db:"patient_email"`
		NullPhone sql.NullString `db:"patient_phone"`
	}
	err := r.db.GetContext(ctx, &apt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	apt.Appointment.PatientEmail = apt.NullEmail.String
	apt.Appointment.PatientPhone = apt.NullPhone.String
	return &apt.Appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, apt *model.Appointment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var current struct {
			Date      model.Date      `db:"date"`
			StartTime model.TimeOfDay `db:"start_time"`
			EndTime   model.TimeOfDay `db:"end_time"`
		}
		err := tx.GetContext(ctx, &current,
			`SELECT date, start_time, end_time FROM appointments WHERE id = $1 FOR UPDATE`, apt.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("appointment", err)
		}
		if err != nil {
			return fmt.Errorf("failed to load appointment: %w", err)
		}

		// Status and notes edits must keep working after the day is blocked;
		// only moving the slot re-runs the booking checks.
		moved := !current.Date.Equal(apt.Date) ||
			current.StartTime != apt.StartTime ||
			current.EndTime != apt.EndTime

		if moved {
			if err := lockDate(ctx, tx, apt.Date); err != nil {
				return err
			}

			blocked, err := dayBlocked(ctx, tx, apt.Date)
			if err != nil {
				return err
			}
			if blocked {
				return apperrors.DayBlocked(apt.Date.String())
			}

			conflict, err := findConflict(ctx, tx, apt.Date, apt.StartTime, apt.EndTime, &apt.ID)
			if err != nil {
				return err
			}
			if conflict != nil {
				return conflictError(conflict)
			}
		}

		query := `
			UPDATE appointments
			SET patient_id = $1, date = $2, start_time = $3, end_time = $4,
			    status = $5, notes = $6, updated_at = NOW()
			WHERE id = $7
		`
		result, err := tx.ExecContext(ctx, query,
			apt.PatientID,
			apt.Date,
			apt.StartTime,
			apt.EndTime,
			apt.Status,
			apt.Notes,
			apt.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("appointment", nil)
		}
		return nil
	})
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, date *model.Date) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		INNER JOIN patients p ON a.patient_id = p.id
	`
	args := []interface{}{}

	if date != nil {
		query += " WHERE a.date = $1"
		args = append(args, *date)
	}

	query += " ORDER BY a.date DESC, a.start_time ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByDateWithContact(ctx context.Context, date model.Date) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `,
		       p.email AS patient_email, p.phone AS patient_phone
		FROM appointments a
		INNER JOIN patients p ON a.patient_id = p.id
		WHERE a.date = $1
		AND a.status NOT IN ('cancelled', 'cancellation_requested')
		AND p.email IS NOT NULL
		AND p.email != ''
		ORDER BY a.start_time ASC
	`
	rows, err := r.db.QueryxContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments with contact: %w", err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		var apt struct {
			model.Appointment
			NullEmail sql.NullString `db:"patient_email"`
			NullPhone sql.NullString `db:"patient_phone"`
		}
		if err := rows.StructScan(&apt); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		apt.Appointment.PatientEmail = apt.NullEmail.String
		apt.Appointment.PatientPhone = apt.NullPhone.String
		appointments = append(appointments, &apt.Appointment)
	}
	return appointments, rows.Err()
}

func (r *appointmentRepository) CheckConflict(ctx context.Context, date model.Date, start, end model.TimeOfDay, excludeID *int64) (*model.Appointment, error) {
	return findConflict(ctx, r.db, date, start, end, excludeID)
}

func (r *appointmentRepository) LastUpdatedAt(ctx context.Context) (*time.Time, error) {
	var last sql.NullTime
	err := r.db.GetContext(ctx, &last, `SELECT MAX(updated_at) FROM appointments`)
	if err != nil {
		return nil, fmt.Errorf("failed to get last appointment update: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}
