package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationConfirmation NotificationType = "confirmation"
	NotificationRescheduled  NotificationType = "rescheduled"
	NotificationReminder     NotificationType = "reminder"
)

type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusProcessed NotificationStatus = "processed"
	NotificationStatusFailed    NotificationStatus = "failed"
)

// Notification is an outbox row. Writes enqueue these instead of talking to
// SMTP inline; the dispatch worker drains them so a slow or failing mail
// transport never adds latency or failure modes to the booking transaction.
type Notification struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	Type         NotificationType   `db:"type" json:"type"`
	Recipient    string             `db:"recipient" json:"recipient"`
	Payload      json.RawMessage    `db:"payload" json:"payload"`
	Status       NotificationStatus `db:"status" json:"status"`
	ErrorMessage *string            `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int                `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time         `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// NotificationPayload is the appointment snapshot embedded in an outbox row.
// It carries everything the mail templates need so the worker never has to
// re-read scheduling state that may have moved on.
type NotificationPayload struct {
	AppointmentID   int64     `json:"appointment_id"`
	PatientName     string    `json:"patient_name"`
	PatientCedula   string    `json:"patient_cedula"`
	Date            Date      `json:"date"`
	StartTime       TimeOfDay `json:"start_time"`
	EndTime         TimeOfDay `json:"end_time"`
	Notes           string    `json:"notes,omitempty"`
	CancelToken     string    `json:"cancel_token,omitempty"`
	RescheduleToken string    `json:"reschedule_token,omitempty"`
}
