package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/repository"
)

// Service enqueues outbound notifications. Delivery happens out of band in
// the worker, so enqueue failures must never fail the write that
// triggered them.
type Service struct {
	repo repository.NotificationRepository
}

func NewService(repo repository.NotificationRepository) *Service {
	return &Service{repo: repo}
}

// Enqueue records a pending notification for the worker to deliver.
func (s *Service) Enqueue(ctx context.Context, typ model.NotificationType, recipient string, payload model.NotificationPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification payload: %w", err)
	}

	n := &model.Notification{
		Type:      typ,
		Recipient: recipient,
		Payload:   raw,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}
