package model

import (
	"time"
)

// MedicalHistoryField is an admin-configurable question on the patient
// intake form. Answers live in a per-patient attribute table keyed by
// FieldKey, so adding or retiring a field never mutates the schema.
type MedicalHistoryField struct {
	ID           int64     `db:"id" json:"id"`
	FieldKey     string    `db:"field_key" json:"field_key"`
	Label        string    `db:"label" json:"label"`
	FieldType    string    `db:"field_type" json:"field_type"`
	Active       bool      `db:"active" json:"active"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type CreateMedicalHistoryFieldRequest struct {
	FieldKey     string `json:"field_key" binding:"required"`
	Label        string `json:"label" binding:"required"`
	FieldType    string `json:"field_type"`
	DisplayOrder int    `json:"display_order"`
}

type UpdateMedicalHistoryFieldRequest struct {
	Label        *string `json:"label"`
	Active       *bool   `json:"active"`
	DisplayOrder *int    `json:"display_order"`
}

// TreatmentOption is a catalog entry offered in the treatment log form.
type TreatmentOption struct {
	ID           int64     `db:"id" json:"id"`
	Category     string    `db:"category" json:"category"`
	Name         string    `db:"name" json:"name"`
	Active       bool      `db:"active" json:"active"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type CreateTreatmentOptionRequest struct {
	Category     string `json:"category" binding:"required"`
	Name         string `json:"name" binding:"required"`
	DisplayOrder int    `json:"display_order"`
}

type UpdateTreatmentOptionRequest struct {
	Category     *string `json:"category"`
	Name         *string `json:"name"`
	Active       *bool   `json:"active"`
	DisplayOrder *int    `json:"display_order"`
}
