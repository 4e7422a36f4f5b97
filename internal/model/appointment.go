package model

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled             AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed             AppointmentStatus = "confirmed"
	AppointmentStatusInProgress            AppointmentStatus = "in_progress"
	AppointmentStatusCompleted             AppointmentStatus = "completed"
	AppointmentStatusCancelled             AppointmentStatus = "cancelled"
	AppointmentStatusCancellationRequested AppointmentStatus = "cancellation_requested"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed,
		AppointmentStatusInProgress, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusCancellationRequested:
		return true
	}
	return false
}

// Appointment is a booked slot. Cancellation is a status transition, never a
// row removal; for a given date no two non-cancelled appointments may have
// overlapping [start,end) intervals.
type Appointment struct {
	ID        int64             `db:"id" json:"id"`
	PatientID int64             `db:"patient_id" json:"patient_id"`
	Date      Date              `db:"date" json:"date"`
	StartTime TimeOfDay         `db:"start_time" json:"start_time"`
	EndTime   TimeOfDay         `db:"end_time" json:"end_time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Notes     string            `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`

	// Joined patient columns for listings and notifications.
	PatientCedula string `db:"cedula" json:"cedula,omitempty"`
	PatientName   string `db:"patient_name" json:"patient_name,omitempty"`
	PatientEmail  string `db:"patient_email" json:"patient_email,omitempty"`
	PatientPhone  string `db:"patient_phone" json:"patient_phone,omitempty"`
}

// CreateAppointmentRequest leaves date and times without a required tag: a
// 00:00 start is TimeOfDay zero and must not fail binding. The service
// rejects missing values explicitly.
type CreateAppointmentRequest struct {
	PatientID int64     `json:"patient_id" binding:"required"`
	Date      Date      `json:"date"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
	Notes     string    `json:"notes" binding:"max=1000"`
}

// UpdateAppointmentRequest carries a partial update; nil fields retain the
// stored values.
type UpdateAppointmentRequest struct {
	PatientID *int64             `json:"patient_id"`
	Date      *Date              `json:"date"`
	StartTime *TimeOfDay         `json:"start_time"`
	EndTime   *TimeOfDay         `json:"end_time"`
	Status    *AppointmentStatus `json:"status"`
	Notes     *string            `json:"notes"`
}
