package appointment

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/realtime"
	"github.com/dentalia/clinic-api/internal/repository"
	"github.com/dentalia/clinic-api/internal/service/notification"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
	"github.com/dentalia/clinic-api/pkg/metrics"
)

type Service struct {
	repo        repository.AppointmentRepository
	patientRepo repository.PatientRepository
	notifSvc    *notification.Service
	publisher   realtime.Publisher
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func NewService(
	repo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	notifSvc *notification.Service,
	publisher realtime.Publisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		notifSvc:    notifSvc,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
	}
}

func validateWindow(start, end model.TimeOfDay) error {
	if end <= start {
		return apperrors.BadRequest("end_time must be after start_time", nil)
	}
	return nil
}

// Create books a new appointment. The conflict check against every
// non-cancelled appointment on the same date and the blocked-day check run
// inside the repository transaction, so two racing requests for
// overlapping slots cannot both succeed.
func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if req.Date.IsZero() {
		return nil, apperrors.BadRequest("date is required", nil)
	}
	if err := validateWindow(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	exists, err := s.patientRepo.Exists(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.BadRequest("patient does not exist", nil)
	}

	apt := &model.Appointment{
		PatientID: req.PatientID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    model.AppointmentStatusScheduled,
		Notes:     req.Notes,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		if apperrors.Is(err, apperrors.ErrSlotTaken) && s.metrics != nil {
			s.metrics.AppointmentConflicts.Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsCreated.Inc()
	}
	s.notifyConfirmation(ctx, apt)
	s.publisher.Changed(realtime.RoomAppointments)
	return apt, nil
}

// Update applies a partial update. When the date or time window actually
// changes, the patient gets a reschedule notice; status-only or notes-only
// edits stay silent.
func (s *Service) Update(ctx context.Context, id int64, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.PatientID != nil {
		exists, err := s.patientRepo.Exists(ctx, *req.PatientID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.BadRequest("patient does not exist", nil)
		}
		updated.PatientID = *req.PatientID
	}
	if req.Date != nil {
		updated.Date = *req.Date
	}
	if req.StartTime != nil {
		updated.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		updated.EndTime = *req.EndTime
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperrors.BadRequest("unknown status", nil)
		}
		updated.Status = *req.Status
	}
	if req.Notes != nil {
		updated.Notes = *req.Notes
	}

	if err := validateWindow(updated.StartTime, updated.EndTime); err != nil {
		return nil, err
	}

	rescheduled := !updated.Date.Equal(existing.Date) ||
		updated.StartTime != existing.StartTime ||
		updated.EndTime != existing.EndTime

	if err := s.repo.Update(ctx, &updated); err != nil {
		if apperrors.Is(err, apperrors.ErrSlotTaken) && s.metrics != nil {
			s.metrics.AppointmentConflicts.Inc()
		}
		return nil, err
	}

	if rescheduled {
		s.notifyRescheduled(ctx, &updated)
	}
	s.publisher.Changed(realtime.RoomAppointments)
	return &updated, nil
}

// Cancel marks an appointment cancelled. The row stays in place so history
// and listings keep working; the freed interval stops counting toward
// conflicts.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	if err := s.repo.UpdateStatus(ctx, id, model.AppointmentStatusCancelled); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.AppointmentsCancelled.Inc()
	}
	s.publisher.Changed(realtime.RoomAppointments)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// List returns appointments, newest date first, optionally filtered to one date.
func (s *Service) List(ctx context.Context, date *model.Date) ([]*model.Appointment, error) {
	return s.repo.List(ctx, date)
}

// CheckSlot is the read-only availability check used by the booking form. It
// is advisory only; Create re-checks inside its transaction.
func (s *Service) CheckSlot(ctx context.Context, date model.Date, start, end model.TimeOfDay, excludeID *int64) (*model.Appointment, error) {
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}
	return s.repo.CheckConflict(ctx, date, start, end, excludeID)
}

func (s *Service) notifyConfirmation(ctx context.Context, apt *model.Appointment) {
	s.notify(ctx, model.NotificationConfirmation, apt)
}

func (s *Service) notifyRescheduled(ctx context.Context, apt *model.Appointment) {
	s.notify(ctx, model.NotificationRescheduled, apt)
}

func (s *Service) notify(ctx context.Context, typ model.NotificationType, apt *model.Appointment) {
	email := apt.PatientEmail
	if email == "" {
		full, err := s.repo.Get(ctx, apt.ID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("appointment_id", apt.ID).Msg("failed to load appointment for notification")
			return
		}
		*apt = *full
		email = full.PatientEmail
	}
	if email == "" {
		return
	}

	payload := model.NotificationPayload{
		AppointmentID: apt.ID,
		PatientName:   apt.PatientName,
		PatientCedula: apt.PatientCedula,
		Date:          apt.Date,
		StartTime:     apt.StartTime,
		EndTime:       apt.EndTime,
		Notes:         apt.Notes,
	}
	if err := s.notifSvc.Enqueue(ctx, typ, email, payload); err != nil {
		s.logger.Error().Err(err).
			Int64("appointment_id", apt.ID).
			Str("type", string(typ)).
			Msg("failed to enqueue notification")
	}
}
