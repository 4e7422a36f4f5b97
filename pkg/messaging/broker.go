package messaging

import (
	"context"
)

// Broker defines the interface for the pub/sub message broker backing the
// realtime fan-out. Events carried over it are bare change signals, not an
// event log; delivery is best-effort.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) (<-chan ChannelMessage, error)
	Close() error
}

// ChannelMessage is a message received from a subscription, tagged with the
// channel it arrived on so one subscriber can multiplex several rooms.
type ChannelMessage struct {
	Channel string
	Payload []byte
}
