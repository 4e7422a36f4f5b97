package events

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dentalia/clinic-api/internal/realtime"
	"github.com/dentalia/clinic-api/pkg/messaging"
)

const heartbeatInterval = 25 * time.Second

var knownRooms = map[string]bool{
	realtime.RoomAppointments: true,
	realtime.RoomBlockedDays:  true,
	realtime.RoomRecords:      true,
	realtime.RoomConfig:       true,
}

// Handler streams change signals to browsers over server-sent events.
// Clients that cannot hold the stream open fall back to polling
// /sync-status.
type Handler struct {
	broker messaging.Broker
	logger zerolog.Logger
}

func NewHandler(broker messaging.Broker, logger zerolog.Logger) *Handler {
	return &Handler{broker: broker, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/events", h.Stream)
}

func (h *Handler) Stream(c *gin.Context) {
	rooms, err := parseRooms(c.Query("rooms"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	messages, err := h.broker.Subscribe(ctx, rooms...)
	if err != nil {
		h.logger.Error().Err(err).Strs("rooms", rooms).Msg("failed to subscribe for event stream")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream unavailable"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			c.SSEvent(msg.Channel, string(msg.Payload))
			return true
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			return true
		}
	})
}

func parseRooms(raw string) ([]string, error) {
	if raw == "" {
		return []string{realtime.RoomAppointments, realtime.RoomBlockedDays}, nil
	}

	var rooms []string
	for _, room := range strings.Split(raw, ",") {
		room = strings.TrimSpace(room)
		if room == "" {
			continue
		}
		if !knownRooms[room] {
			return nil, fmt.Errorf("unknown room %q", room)
		}
		rooms = append(rooms, room)
	}
	if len(rooms) == 0 {
		return nil, fmt.Errorf("no rooms requested")
	}
	return rooms, nil
}
