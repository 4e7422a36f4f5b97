package sync

import (
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dentalia/clinic-api/internal/repository"
	"github.com/dentalia/clinic-api/pkg/httputil"
)

const cacheKey = "sync-status"

// Status carries the last-change markers clients poll when they cannot hold
// an event stream open. A client re-fetches a collection when its marker
// moves.
type Status struct {
	Appointments *time.Time `json:"appointments"`
	BlockedDays  *time.Time `json:"blocked_days"`
	ServerTime   time.Time  `json:"server_time"`
}

// Handler answers sync-status polls. Results are cached briefly so a lobby
// full of polling tablets costs two queries a second, not two per client.
type Handler struct {
	aptRepo repository.AppointmentRepository
	dayRepo repository.BlockedDayRepository
	cache   *gocache.Cache
}

func NewHandler(aptRepo repository.AppointmentRepository, dayRepo repository.BlockedDayRepository) *Handler {
	return &Handler{
		aptRepo: aptRepo,
		dayRepo: dayRepo,
		cache:   gocache.New(time.Second, time.Minute),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/sync-status", h.Status)
}

func (h *Handler) Status(c *gin.Context) {
	if cached, found := h.cache.Get(cacheKey); found {
		httputil.RespondWithSuccess(c, cached)
		return
	}

	ctx := c.Request.Context()
	appointments, err := h.aptRepo.LastUpdatedAt(ctx)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	blockedDays, err := h.dayRepo.LastCreatedAt(ctx)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	status := &Status{
		Appointments: appointments,
		BlockedDays:  blockedDays,
		ServerTime:   time.Now().UTC(),
	}
	h.cache.Set(cacheKey, status, gocache.DefaultExpiration)
	httputil.RespondWithSuccess(c, status)
}
