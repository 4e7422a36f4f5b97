package model

import (
	"encoding/json"
	"time"
)

// Patient is a clinical record ("expediente"). Identity is the national ID
// (cedula); contact fields feed notification targeting. Records are archived,
// never hard-deleted.
type Patient struct {
	ID               int64           `db:"id" json:"id"`
	Cedula           string          `db:"cedula" json:"cedula"`
	Name             string          `db:"name" json:"name"`
	Guardian         *string         `db:"guardian" json:"guardian,omitempty"`
	BirthDate        *Date           `db:"birth_date" json:"birth_date,omitempty"`
	Age              *int            `db:"age" json:"age,omitempty"`
	Sex              *string         `db:"sex" json:"sex,omitempty"`
	Phone            *string         `db:"phone" json:"phone,omitempty"`
	Address          *string         `db:"address" json:"address,omitempty"`
	EmergencyContact *string         `db:"emergency_contact" json:"emergency_contact,omitempty"`
	Email            *string         `db:"email" json:"email,omitempty"`
	Signature        *string         `db:"signature" json:"signature,omitempty"`
	Odontogram       json.RawMessage `db:"odontogram" json:"odontogram,omitempty"`
	Archived         bool            `db:"archived" json:"archived"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`

	// Medical history answers keyed by field_key; populated from the
	// attribute table, not from columns.
	MedicalHistory map[string]bool `db:"-" json:"medical_history,omitempty"`

	Treatments []*Treatment `db:"-" json:"treatments,omitempty"`
}

// PatientSummary is the search-result projection.
type PatientSummary struct {
	ID     int64   `db:"id" json:"id"`
	Cedula string  `db:"cedula" json:"cedula"`
	Name   string  `db:"name" json:"name"`
	Phone  *string `db:"phone" json:"phone,omitempty"`
	Email  *string `db:"email" json:"email,omitempty"`
}

// Treatment is one entry in a patient's treatment log.
type Treatment struct {
	ID        int64     `db:"id" json:"id"`
	PatientID int64     `db:"patient_id" json:"patient_id"`
	Date      *Date     `db:"date" json:"date,omitempty"`
	ToothRef  *string   `db:"tooth_ref" json:"tooth_ref,omitempty"`
	Performed *string   `db:"performed" json:"performed,omitempty"`
	Signature *string   `db:"signature" json:"signature,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ToothSurface is a normalized odontogram condition, one row per
// (patient, tooth, surface), kept for reporting.
type ToothSurface struct {
	PatientID int64  `db:"patient_id" json:"patient_id"`
	Tooth     int    `db:"tooth" json:"tooth"`
	Surface   string `db:"surface" json:"surface"`
	Condition string `db:"condition" json:"condition"`
}

type CreatePatientRequest struct {
	Cedula           string          `json:"cedula" binding:"required,cedula"`
	Name             string          `json:"name" binding:"required"`
	Guardian         *string         `json:"guardian"`
	BirthDate        *Date           `json:"birth_date"`
	Age              *int            `json:"age"`
	Sex              *string         `json:"sex"`
	Phone            *string         `json:"phone"`
	Address          *string         `json:"address"`
	EmergencyContact *string         `json:"emergency_contact"`
	Email            *string         `json:"email" binding:"omitempty,email"`
	Signature        *string         `json:"signature"`
	Odontogram       json.RawMessage `json:"odontogram"`
	MedicalHistory   map[string]bool `json:"medical_history"`
	Treatments       []*Treatment    `json:"treatments"`
}

type UpdatePatientRequest struct {
	Name             *string         `json:"name"`
	Guardian         *string         `json:"guardian"`
	BirthDate        *Date           `json:"birth_date"`
	Age              *int            `json:"age"`
	Sex              *string         `json:"sex"`
	Phone            *string         `json:"phone"`
	Address          *string         `json:"address"`
	EmergencyContact *string         `json:"emergency_contact"`
	Email            *string         `json:"email" binding:"omitempty,email"`
	Signature        *string         `json:"signature"`
	Odontogram       json.RawMessage `json:"odontogram"`
	MedicalHistory   map[string]bool `json:"medical_history"`
	Treatments       []*Treatment    `json:"treatments"`
}
