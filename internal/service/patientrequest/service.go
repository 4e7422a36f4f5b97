package patientrequest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/realtime"
	"github.com/dentalia/clinic-api/internal/repository"
	"github.com/dentalia/clinic-api/pkg/token"
)

// TokenTTL is how long an emailed cancel or reschedule link stays valid.
const TokenTTL = 7 * 24 * time.Hour

// Service issues and redeems single-use patient request tokens.
type Service struct {
	repo      repository.PatientRequestRepository
	aptRepo   repository.AppointmentRepository
	publisher realtime.Publisher
	logger    zerolog.Logger
}

func NewService(
	repo repository.PatientRequestRepository,
	aptRepo repository.AppointmentRepository,
	publisher realtime.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		aptRepo:   aptRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// Issue mints a pending request with a fresh random token.
func (s *Service) Issue(ctx context.Context, appointmentID int64, kind model.PatientRequestKind, now time.Time) (*model.PatientRequest, error) {
	tok, err := token.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	req := &model.PatientRequest{
		AppointmentID: appointmentID,
		Token:         tok,
		Kind:          kind,
		Status:        model.PatientRequestPending,
		ExpiresAt:     now.Add(TokenTTL),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// IssuedToday reports whether a request of the given kind was already minted
// for the appointment today. The reminder batch uses this to stay idempotent.
func (s *Service) IssuedToday(ctx context.Context, appointmentID int64, kind model.PatientRequestKind, now time.Time) (bool, error) {
	return s.repo.IssuedOn(ctx, appointmentID, kind, model.DateOf(now))
}

// RedeemCancel consumes a cancel token and flags its appointment as
// cancellation requested. Staff confirm the actual cancellation; the patient
// link never cancels outright. The consume is atomic, so a token pasted twice
// succeeds exactly once.
func (s *Service) RedeemCancel(ctx context.Context, tok string, now time.Time) (*model.Appointment, error) {
	req, err := s.repo.Consume(ctx, tok, model.PatientRequestCancel, now)
	if err != nil {
		return nil, err
	}

	if err := s.aptRepo.UpdateStatus(ctx, req.AppointmentID, model.AppointmentStatusCancellationRequested); err != nil {
		return nil, err
	}

	apt, err := s.aptRepo.Get(ctx, req.AppointmentID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("appointment_id", req.AppointmentID).Msg("failed to reload appointment after redeem")
	}

	s.publisher.Changed(realtime.RoomAppointments)
	return apt, nil
}

// RedeemReschedule consumes a reschedule token. The appointment itself is not
// touched; the clinic follows up with the patient to agree on a new slot.
func (s *Service) RedeemReschedule(ctx context.Context, tok string, now time.Time) (*model.Appointment, error) {
	req, err := s.repo.Consume(ctx, tok, model.PatientRequestReschedule, now)
	if err != nil {
		return nil, err
	}

	apt, err := s.aptRepo.Get(ctx, req.AppointmentID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("appointment_id", req.AppointmentID).Msg("failed to reload appointment after redeem")
	}
	return apt, nil
}
