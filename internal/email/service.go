package email

import (
	"context"

	"github.com/dentalia/clinic-api/internal/model"
)

// Service renders and delivers patient-facing mail.
type Service interface {
	SendConfirmation(ctx context.Context, to string, payload model.NotificationPayload) error
	SendRescheduled(ctx context.Context, to string, payload model.NotificationPayload) error
	SendReminder(ctx context.Context, to string, payload model.NotificationPayload) error
}
