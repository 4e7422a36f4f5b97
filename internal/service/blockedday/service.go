package blockedday

import (
	"context"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/realtime"
	"github.com/dentalia/clinic-api/internal/repository"
)

// Service manages whole-day booking blocks. Blocking a day never touches
// appointments that already exist on it.
type Service struct {
	repo      repository.BlockedDayRepository
	publisher realtime.Publisher
}

func NewService(repo repository.BlockedDayRepository, publisher realtime.Publisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// Block registers a day as closed for new bookings. Blocking an already
// blocked day is a conflict.
func (s *Service) Block(ctx context.Context, date model.Date) error {
	if err := s.repo.Create(ctx, date); err != nil {
		return err
	}
	s.publisher.Changed(realtime.RoomBlockedDays)
	return nil
}

// Unblock reopens a day for booking.
func (s *Service) Unblock(ctx context.Context, date model.Date) error {
	if err := s.repo.Delete(ctx, date); err != nil {
		return err
	}
	s.publisher.Changed(realtime.RoomBlockedDays)
	return nil
}

func (s *Service) List(ctx context.Context) ([]model.Date, error) {
	return s.repo.List(ctx)
}

func (s *Service) IsBlocked(ctx context.Context, date model.Date) (bool, error) {
	return s.repo.Exists(ctx, date)
}
