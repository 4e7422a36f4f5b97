package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/repository"
	"github.com/dentalia/clinic-api/internal/service/notification"
	"github.com/dentalia/clinic-api/internal/service/patientrequest"
	"github.com/dentalia/clinic-api/pkg/metrics"
)

// Entry records the outcome for one appointment in a batch run.
type Entry struct {
	AppointmentID int64  `json:"appointment_id"`
	Outcome       string `json:"outcome"`
	Reason        string `json:"reason,omitempty"`
}

const (
	OutcomeIssued  = "issued"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Result summarizes one reminder batch run, with a per-appointment entry for
// each row the batch touched.
type Result struct {
	Date    model.Date `json:"date"`
	Issued  int        `json:"issued"`
	Skipped int        `json:"skipped"`
	Failed  int        `json:"failed"`
	Entries []Entry    `json:"results"`
}

// Service runs the next-day reminder batch. The batch is idempotent per day:
// an appointment whose reminder tokens were already minted today is skipped,
// so a retried or double-fired cron run never mails a patient twice.
type Service struct {
	aptRepo    repository.AppointmentRepository
	requestSvc *patientrequest.Service
	notifSvc   *notification.Service
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewService(
	aptRepo repository.AppointmentRepository,
	requestSvc *patientrequest.Service,
	notifSvc *notification.Service,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		aptRepo:    aptRepo,
		requestSvc: requestSvc,
		notifSvc:   notifSvc,
		metrics:    m,
		logger:     logger,
	}
}

// Process issues reminders for every active appointment on the day after
// now. Failures are counted and logged per appointment; one bad row never
// aborts the batch.
func (s *Service) Process(ctx context.Context, now time.Time) (*Result, error) {
	tomorrow := model.DateOf(now).AddDays(1)
	result := &Result{Date: tomorrow}

	appointments, err := s.aptRepo.ListByDateWithContact(ctx, tomorrow)
	if err != nil {
		return nil, err
	}

	for _, apt := range appointments {
		issued, err := s.remind(ctx, apt, now)
		switch {
		case err != nil:
			result.Failed++
			result.Entries = append(result.Entries, Entry{
				AppointmentID: apt.ID,
				Outcome:       OutcomeFailed,
				Reason:        err.Error(),
			})
			if s.metrics != nil {
				s.metrics.RemindersFailed.Inc()
			}
			s.logger.Error().Err(err).Int64("appointment_id", apt.ID).Msg("reminder failed")
		case issued:
			result.Issued++
			result.Entries = append(result.Entries, Entry{
				AppointmentID: apt.ID,
				Outcome:       OutcomeIssued,
			})
			if s.metrics != nil {
				s.metrics.RemindersIssued.Inc()
			}
		default:
			result.Skipped++
			result.Entries = append(result.Entries, Entry{
				AppointmentID: apt.ID,
				Outcome:       OutcomeSkipped,
				Reason:        "reminder already issued today",
			})
			if s.metrics != nil {
				s.metrics.RemindersSkipped.Inc()
			}
		}
	}

	s.logger.Info().
		Str("date", tomorrow.String()).
		Int("issued", result.Issued).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("reminder batch finished")
	return result, nil
}

func (s *Service) remind(ctx context.Context, apt *model.Appointment, now time.Time) (bool, error) {
	already, err := s.requestSvc.IssuedToday(ctx, apt.ID, model.PatientRequestCancel, now)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	cancelReq, err := s.requestSvc.Issue(ctx, apt.ID, model.PatientRequestCancel, now)
	if err != nil {
		return false, err
	}
	rescheduleReq, err := s.requestSvc.Issue(ctx, apt.ID, model.PatientRequestReschedule, now)
	if err != nil {
		return false, err
	}

	payload := model.NotificationPayload{
		AppointmentID:   apt.ID,
		PatientName:     apt.PatientName,
		PatientCedula:   apt.PatientCedula,
		Date:            apt.Date,
		StartTime:       apt.StartTime,
		EndTime:         apt.EndTime,
		Notes:           apt.Notes,
		CancelToken:     cancelReq.Token,
		RescheduleToken: rescheduleReq.Token,
	}
	if err := s.notifSvc.Enqueue(ctx, model.NotificationReminder, apt.PatientEmail, payload); err != nil {
		return false, err
	}
	return true, nil
}
