package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/dentalia/clinic-api/internal/model"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
)

func (r *catalogRepository) ListMedicalHistoryFields(ctx context.Context, activeOnly bool) ([]*model.MedicalHistoryField, error) {
	query := `
		SELECT id, field_key, label, field_type, active, display_order, created_at, updated_at
		FROM medical_history_fields
	`
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY display_order ASC, id ASC"

	var fields []*model.MedicalHistoryField
	err := r.db.SelectContext(ctx, &fields, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical history fields: %w", err)
	}
	return fields, nil
}

func (r *catalogRepository) CreateMedicalHistoryField(ctx context.Context, f *model.MedicalHistoryField) error {
	query := `
		INSERT INTO medical_history_fields (field_key, label, field_type, active, display_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		f.FieldKey, f.Label, f.FieldType, f.Active, f.DisplayOrder,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperrors.Conflict(fmt.Sprintf("field %s already exists", f.FieldKey))
		}
		return fmt.Errorf("failed to create medical history field: %w", err)
	}
	return nil
}

func (r *catalogRepository) GetMedicalHistoryField(ctx context.Context, id int64) (*model.MedicalHistoryField, error) {
	query := `
		SELECT id, field_key, label, field_type, active, display_order, created_at, updated_at
		FROM medical_history_fields
		WHERE id = $1
	`
	var f model.MedicalHistoryField
	err := r.db.GetContext(ctx, &f, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("medical history field", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medical history field: %w", err)
	}
	return &f, nil
}

func (r *catalogRepository) UpdateMedicalHistoryField(ctx context.Context, f *model.MedicalHistoryField) error {
	query := `
		UPDATE medical_history_fields
		SET label = $1, active = $2, display_order = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, f.Label, f.Active, f.DisplayOrder, f.ID)
	if err != nil {
		return fmt.Errorf("failed to update medical history field: %w", err)
	}
	return requireRow(result, "medical history field")
}

func (r *catalogRepository) DeleteMedicalHistoryField(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medical_history_fields WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medical history field: %w", err)
	}
	return requireRow(result, "medical history field")
}

func (r *catalogRepository) ListTreatmentOptions(ctx context.Context, activeOnly bool) ([]*model.TreatmentOption, error) {
	query := `
		SELECT id, category, name, active, display_order, created_at, updated_at
		FROM treatment_options
	`
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY category ASC, display_order ASC, id ASC"

	var options []*model.TreatmentOption
	err := r.db.SelectContext(ctx, &options, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list treatment options: %w", err)
	}
	return options, nil
}

func (r *catalogRepository) CreateTreatmentOption(ctx context.Context, o *model.TreatmentOption) error {
	query := `
		INSERT INTO treatment_options (category, name, active, display_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		o.Category, o.Name, o.Active, o.DisplayOrder,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create treatment option: %w", err)
	}
	return nil
}

func (r *catalogRepository) GetTreatmentOption(ctx context.Context, id int64) (*model.TreatmentOption, error) {
	query := `
		SELECT id, category, name, active, display_order, created_at, updated_at
		FROM treatment_options
		WHERE id = $1
	`
	var o model.TreatmentOption
	err := r.db.GetContext(ctx, &o, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("treatment option", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment option: %w", err)
	}
	return &o, nil
}

func (r *catalogRepository) UpdateTreatmentOption(ctx context.Context, o *model.TreatmentOption) error {
	query := `
		UPDATE treatment_options
		SET category = $1, name = $2, active = $3, display_order = $4, updated_at = NOW()
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query, o.Category, o.Name, o.Active, o.DisplayOrder, o.ID)
	if err != nil {
		return fmt.Errorf("failed to update treatment option: %w", err)
	}
	return requireRow(result, "treatment option")
}

func (r *catalogRepository) DeleteTreatmentOption(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM treatment_options WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete treatment option: %w", err)
	}
	return requireRow(result, "treatment option")
}

func requireRow(result sql.Result, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound(resource, nil)
	}
	return nil
}
