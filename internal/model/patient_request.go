package model

import (
	"time"
)

type PatientRequestKind string

const (
	PatientRequestCancel     PatientRequestKind = "cancel"
	PatientRequestReschedule PatientRequestKind = "reschedule"
)

type PatientRequestStatus string

const (
	PatientRequestPending   PatientRequestStatus = "pending"
	PatientRequestProcessed PatientRequestStatus = "processed"
)

// PatientRequest is a single-use, time-limited credential allowing an
// unauthenticated patient to trigger a cancel or reschedule flow from an
// emailed link. Expiry is derived from expires_at, not stored as a status.
type PatientRequest struct {
	ID            int64                `db:"id" json:"id"`
	AppointmentID int64                `db:"appointment_id" json:"appointment_id"`
	Token         string               `db:"token" json:"-"`
	Kind          PatientRequestKind   `db:"kind" json:"kind"`
	Status        PatientRequestStatus `db:"status" json:"status"`
	ExpiresAt     time.Time            `db:"expires_at" json:"expires_at"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
}

func (r *PatientRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
