package reminder

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dentalia/clinic-api/internal/service/reminder"
	"github.com/dentalia/clinic-api/pkg/httputil"
)

// Handler exposes the reminder batch to the external cron scheduler. The
// route is mounted behind the cron-secret middleware.
type Handler struct {
	service *reminder.Service
}

func NewHandler(service *reminder.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/process-reminders", h.Process)
}

func (h *Handler) Process(c *gin.Context) {
	result, err := h.service.Process(c.Request.Context(), time.Now())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}
