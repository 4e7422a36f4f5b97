package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dentalia/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	// AppointmentRepository owns appointment rows. Create and Update run the
	// interval conflict check and the blocked-day check inside the same
	// transaction as the write; a losing concurrent writer gets the conflict
	// error, never a silent overwrite.
	AppointmentRepository interface {
		Create(ctx context.Context, apt *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		Update(ctx context.Context, apt *model.Appointment) error
		UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error
		List(ctx context.Context, date *model.Date) ([]*model.Appointment, error)
		ListByDateWithContact(ctx context.Context, date model.Date) ([]*model.Appointment, error)
		CheckConflict(ctx context.Context, date model.Date, start, end model.TimeOfDay, excludeID *int64) (*model.Appointment, error)
		LastUpdatedAt(ctx context.Context) (*time.Time, error)
	}

	BlockedDayRepository interface {
		Create(ctx context.Context, date model.Date) error
		Delete(ctx context.Context, date model.Date) error
		Exists(ctx context.Context, date model.Date) (bool, error)
		List(ctx context.Context) ([]model.Date, error)
		LastCreatedAt(ctx context.Context) (*time.Time, error)
	}

	PatientRequestRepository interface {
		Create(ctx context.Context, req *model.PatientRequest) error
		// Consume atomically flips a pending, matching request to processed.
		// It reports invalid-token for unknown or already-consumed tokens and
		// expired-token when the request exists but is past expiry.
		Consume(ctx context.Context, token string, kind model.PatientRequestKind, now time.Time) (*model.PatientRequest, error)
		IssuedOn(ctx context.Context, appointmentID int64, kind model.PatientRequestKind, day model.Date) (bool, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, p *model.Patient) error
		Get(ctx context.Context, id int64) (*model.Patient, error)
		Update(ctx context.Context, p *model.Patient) error
		Archive(ctx context.Context, id int64) error
		Exists(ctx context.Context, id int64) (bool, error)
		List(ctx context.Context) ([]*model.Patient, error)
		Search(ctx context.Context, term string, limit int) ([]*model.PatientSummary, error)
		ReplaceMedicalHistory(ctx context.Context, patientID int64, values map[string]bool) error
		GetMedicalHistory(ctx context.Context, patientID int64) (map[string]bool, error)
		ReplaceTreatments(ctx context.Context, patientID int64, treatments []*model.Treatment) error
		GetTreatments(ctx context.Context, patientID int64) ([]*model.Treatment, error)
		UpsertToothSurfaces(ctx context.Context, patientID int64, surfaces []*model.ToothSurface) error
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		ClaimPending(ctx context.Context, limit int) ([]*model.Notification, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		CountPending(ctx context.Context) (int, error)
	}

	UserRepository interface {
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		UpdateLastLogin(ctx context.Context, id int64) error
	}

	CatalogRepository interface {
		ListMedicalHistoryFields(ctx context.Context, activeOnly bool) ([]*model.MedicalHistoryField, error)
		CreateMedicalHistoryField(ctx context.Context, f *model.MedicalHistoryField) error
		UpdateMedicalHistoryField(ctx context.Context, f *model.MedicalHistoryField) error
		GetMedicalHistoryField(ctx context.Context, id int64) (*model.MedicalHistoryField, error)
		DeleteMedicalHistoryField(ctx context.Context, id int64) error
		ListTreatmentOptions(ctx context.Context, activeOnly bool) ([]*model.TreatmentOption, error)
		CreateTreatmentOption(ctx context.Context, o *model.TreatmentOption) error
		UpdateTreatmentOption(ctx context.Context, o *model.TreatmentOption) error
		GetTreatmentOption(ctx context.Context, id int64) (*model.TreatmentOption, error)
		DeleteTreatmentOption(ctx context.Context, id int64) error
	}
)
