package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dentalia/clinic-api/internal/email"
	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/repository"
	"github.com/dentalia/clinic-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// OutboxProcessor drains the notification outbox and hands each row to the
// mail transport. Rows are claimed with a row lock, so multiple worker
// replicas never deliver the same notification twice.
type OutboxProcessor struct {
	repo    repository.NotificationRepository
	mailer  email.Service
	config  OutboxProcessorConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.NotificationRepository,
	mailer email.Service,
	config OutboxProcessorConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}

	return &OutboxProcessor{
		repo:    repo,
		mailer:  mailer,
		config:  config,
		logger:  logger,
		metrics: m,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info().Msg("starting notification dispatcher")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("shutting down notification dispatcher")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error().Err(err).Msg("failed to process notification batch")
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.NotificationLatency)
	defer timer.ObserveDuration()

	notifications, err := p.repo.ClaimPending(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_pending", "error").Inc()
		return fmt.Errorf("failed to claim pending notifications: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_pending", "success").Inc()

	for _, n := range notifications {
		if err := p.dispatch(ctx, n); err != nil {
			p.logger.Error().Err(err).
				Str("notification_id", n.ID.String()).
				Str("type", string(n.Type)).
				Msg("failed to dispatch notification")
		}
	}

	if pending, err := p.repo.CountPending(ctx); err == nil {
		p.metrics.OutboxPendingSize.Set(float64(pending))
	}
	return nil
}

func (p *OutboxProcessor) dispatch(ctx context.Context, n *model.Notification) error {
	var payload model.NotificationPayload
	if err := json.Unmarshal(n.Payload, &payload); err != nil {
		// Unparseable rows are poison; fail them permanently.
		msg := fmt.Sprintf("malformed payload: %v", err)
		if markErr := p.repo.MarkFailed(ctx, n.ID, msg); markErr != nil {
			p.logger.Error().Err(markErr).Str("notification_id", n.ID.String()).Msg("failed to mark notification failed")
		}
		p.metrics.NotificationsFailed.Inc()
		return fmt.Errorf("malformed payload: %w", err)
	}

	err := p.withRetry(n, func() error {
		return p.send(ctx, n, payload)
	})
	if err != nil {
		p.metrics.NotificationsFailed.Inc()
		errStr := err.Error()
		if markErr := p.repo.MarkFailed(ctx, n.ID, errStr); markErr != nil {
			p.logger.Error().Err(markErr).Str("notification_id", n.ID.String()).Msg("failed to mark notification failed")
		}
		return err
	}

	p.metrics.NotificationsSent.Inc()
	if err := p.repo.MarkProcessed(ctx, n.ID); err != nil {
		return fmt.Errorf("failed to mark notification processed: %w", err)
	}
	return nil
}

func (p *OutboxProcessor) send(ctx context.Context, n *model.Notification, payload model.NotificationPayload) error {
	switch n.Type {
	case model.NotificationConfirmation:
		return p.mailer.SendConfirmation(ctx, n.Recipient, payload)
	case model.NotificationRescheduled:
		return p.mailer.SendRescheduled(ctx, n.Recipient, payload)
	case model.NotificationReminder:
		return p.mailer.SendReminder(ctx, n.Recipient, payload)
	default:
		return fmt.Errorf("unknown notification type %q", n.Type)
	}
}

func (p *OutboxProcessor) withRetry(n *model.Notification, fn func() error) error {
	var err error
	for attempt := 0; attempt < p.config.RetryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < p.config.RetryAttempts-1 {
			p.metrics.NotificationRetries.WithLabelValues(string(n.Type)).Inc()
			time.Sleep(p.config.RetryDelay)
		}
	}
	return err
}
