package appointment

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/service/appointment"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
	"github.com/dentalia/clinic-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.Create)
		appointments.GET("", h.List)
		appointments.GET("/check", h.CheckSlot)
		appointments.GET("/:id", h.Get)
		appointments.PUT("/:id", h.Update)
		appointments.DELETE("/:id", h.Cancel)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	apt, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) List(c *gin.Context) {
	var date *model.Date
	if raw := c.Query("date"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid date, expected YYYY-MM-DD", err))
			return
		}
		date = &parsed
	}

	appointments, err := h.service.List(c.Request.Context(), date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	apt, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "status": model.AppointmentStatusCancelled})
}

// CheckSlot answers the booking form's availability check without writing
// anything.
func (h *Handler) CheckSlot(c *gin.Context) {
	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid date, expected YYYY-MM-DD", err))
		return
	}
	start, err := model.ParseTimeOfDay(c.Query("start_time"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid start_time, expected HH:MM", err))
		return
	}
	end, err := model.ParseTimeOfDay(c.Query("end_time"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid end_time, expected HH:MM", err))
		return
	}

	var excludeID *int64
	if raw := c.Query("exclude_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid exclude_id", err))
			return
		}
		excludeID = &id
	}

	conflict, err := h.service.CheckSlot(c.Request.Context(), date, start, end, excludeID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{
		"available": conflict == nil,
		"conflict":  conflict,
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment id", err))
		return 0, false
	}
	return id, true
}
