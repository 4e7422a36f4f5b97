package blockedday

import (
	"github.com/gin-gonic/gin"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/service/blockedday"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
	"github.com/dentalia/clinic-api/pkg/httputil"
)

type Handler struct {
	service *blockedday.Service
}

func NewHandler(service *blockedday.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	days := r.Group("/blocked-days")
	{
		days.POST("", h.Block)
		days.GET("", h.List)
		days.DELETE("/:date", h.Unblock)
	}
}

func (h *Handler) Block(c *gin.Context) {
	var req model.BlockDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	if err := h.service.Block(c.Request.Context(), req.Date); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, gin.H{"date": req.Date})
}

func (h *Handler) List(c *gin.Context) {
	days, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, days)
}

func (h *Handler) Unblock(c *gin.Context) {
	date, err := model.ParseDate(c.Param("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid date, expected YYYY-MM-DD", err))
		return
	}

	if err := h.service.Unblock(c.Request.Context(), date); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"date": date})
}
