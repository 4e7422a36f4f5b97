package realtime

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dentalia/clinic-api/pkg/messaging"
	"github.com/dentalia/clinic-api/pkg/metrics"
)

// Rooms clients can subscribe to. An event on a room is a bare change
// signal; subscribers react by re-fetching full state.
const (
	RoomAppointments = "appointments"
	RoomBlockedDays  = "blocked-days"
	RoomRecords      = "records"
	RoomConfig       = "config"
)

// EventFor returns the change-event name emitted on a room.
func EventFor(room string) string {
	return room + "-changed"
}

// Publisher announces state changes to subscribed clients.
type Publisher interface {
	Changed(room string)
}

type publisher struct {
	broker  messaging.Broker
	logger  zerolog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewPublisher wraps a broker in fire-and-forget semantics: publishing never
// blocks or fails the write that triggered it.
func NewPublisher(broker messaging.Broker, logger zerolog.Logger, m *metrics.Metrics) Publisher {
	return &publisher{
		broker:  broker,
		logger:  logger,
		metrics: m,
		timeout: 2 * time.Second,
	}
}

func (p *publisher) Changed(room string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.broker.Publish(ctx, room, EventFor(room)); err != nil {
			if p.metrics != nil {
				p.metrics.RealtimePublishErrors.Inc()
			}
			p.logger.Warn().Err(err).Str("room", room).Msg("failed to publish change signal")
		}
	}()
}

// NopPublisher discards all signals; used when the broker is unavailable so
// clients fall back to polling.
type NopPublisher struct{}

func (NopPublisher) Changed(string) {}
