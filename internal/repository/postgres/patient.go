package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/dentalia/clinic-api/internal/model"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
)

const patientColumns = `
	id, cedula, name, guardian, birth_date, age, sex, phone, address,
	emergency_contact, email, signature, odontogram, archived,
	created_at, updated_at
`

func (r *patientRepository) Create(ctx context.Context, p *model.Patient) error {
	query := `
		INSERT INTO patients (
			cedula, name, guardian, birth_date, age, sex, phone, address,
			emergency_contact, email, signature, odontogram
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.Cedula,
		p.Name,
		p.Guardian,
		p.BirthDate,
		p.Age,
		p.Sex,
		p.Phone,
		p.Address,
		p.EmergencyContact,
		p.Email,
		p.Signature,
		p.Odontogram,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperrors.Conflict(fmt.Sprintf("a record with cedula %s already exists", p.Cedula))
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id int64) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	var p model.Patient
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &p, nil
}

func (r *patientRepository) Update(ctx context.Context, p *model.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, guardian = $2, birth_date = $3, age = $4, sex = $5,
		    phone = $6, address = $7, emergency_contact = $8, email = $9,
		    signature = $10, odontogram = $11, updated_at = NOW()
		WHERE id = $12
	`
	result, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Guardian,
		p.BirthDate,
		p.Age,
		p.Sex,
		p.Phone,
		p.Address,
		p.EmergencyContact,
		p.Email,
		p.Signature,
		p.Odontogram,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("patient", nil)
	}
	return nil
}

func (r *patientRepository) Archive(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE patients SET archived = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to archive patient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("patient", nil)
	}
	return nil
}

func (r *patientRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check patient: %w", err)
	}
	return exists, nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at DESC`

	var patients []*model.Patient
	err := r.db.SelectContext(ctx, &patients, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) Search(ctx context.Context, term string, limit int) ([]*model.PatientSummary, error) {
	query := `
		SELECT id, cedula, name, phone, email
		FROM patients
		WHERE archived = FALSE
		AND (cedula ILIKE $1 OR name ILIKE $1)
		ORDER BY name ASC
		LIMIT $2
	`
	var results []*model.PatientSummary
	err := r.db.SelectContext(ctx, &results, query, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return results, nil
}

func (r *patientRepository) ReplaceMedicalHistory(ctx context.Context, patientID int64, values map[string]bool) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM patient_medical_history WHERE patient_id = $1`, patientID); err != nil {
			return fmt.Errorf("failed to clear medical history: %w", err)
		}

		query := `
			INSERT INTO patient_medical_history (patient_id, field_key, value)
			VALUES ($1, $2, $3)
		`
		for key, value := range values {
			if _, err := tx.ExecContext(ctx, query, patientID, key, value); err != nil {
				return fmt.Errorf("failed to store medical history value %s: %w", key, err)
			}
		}
		return nil
	})
}

func (r *patientRepository) GetMedicalHistory(ctx context.Context, patientID int64) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT field_key, value FROM patient_medical_history WHERE patient_id = $1`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get medical history: %w", err)
	}
	defer rows.Close()

	values := make(map[string]bool)
	for rows.Next() {
		var key string
		var value bool
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan medical history: %w", err)
		}
		values[key] = value
	}
	return values, rows.Err()
}

func (r *patientRepository) ReplaceTreatments(ctx context.Context, patientID int64, treatments []*model.Treatment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM treatments WHERE patient_id = $1`, patientID); err != nil {
			return fmt.Errorf("failed to clear treatments: %w", err)
		}

		query := `
			INSERT INTO treatments (patient_id, date, tooth_ref, performed, signature)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, t := range treatments {
			if _, err := tx.ExecContext(ctx, query,
				patientID, t.Date, t.ToothRef, t.Performed, t.Signature); err != nil {
				return fmt.Errorf("failed to store treatment: %w", err)
			}
		}
		return nil
	})
}

func (r *patientRepository) GetTreatments(ctx context.Context, patientID int64) ([]*model.Treatment, error) {
	query := `
		SELECT id, patient_id, date, tooth_ref, performed, signature, created_at
		FROM treatments
		WHERE patient_id = $1
		ORDER BY date ASC NULLS LAST, id ASC
	`
	var treatments []*model.Treatment
	err := r.db.SelectContext(ctx, &treatments, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get treatments: %w", err)
	}
	return treatments, nil
}

func (r *patientRepository) UpsertToothSurfaces(ctx context.Context, patientID int64, surfaces []*model.ToothSurface) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO tooth_surfaces (patient_id, tooth, surface, condition, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (patient_id, tooth, surface) DO UPDATE
			SET condition = $4, updated_at = NOW()
		`
		for _, s := range surfaces {
			if _, err := tx.ExecContext(ctx, query, patientID, s.Tooth, s.Surface, s.Condition); err != nil {
				return fmt.Errorf("failed to upsert tooth surface: %w", err)
			}
		}
		return nil
	})
}
