package catalog

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/service/catalog"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
	"github.com/dentalia/clinic-api/pkg/httputil"
)

// Handler manages the admin catalogs behind the /admin group.
type Handler struct {
	service *catalog.Service
}

func NewHandler(service *catalog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	fields := r.Group("/medical-history-fields")
	{
		fields.GET("", h.ListFields)
		fields.POST("", h.CreateField)
		fields.PUT("/:id", h.UpdateField)
		fields.DELETE("/:id", h.DeleteField)
	}

	options := r.Group("/treatment-options")
	{
		options.GET("", h.ListOptions)
		options.POST("", h.CreateOption)
		options.PUT("/:id", h.UpdateOption)
		options.DELETE("/:id", h.DeleteOption)
	}
}

func (h *Handler) ListFields(c *gin.Context) {
	activeOnly := c.Query("all") != "true"
	fields, err := h.service.ListMedicalHistoryFields(c.Request.Context(), activeOnly)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, fields)
}

func (h *Handler) CreateField(c *gin.Context) {
	var req model.CreateMedicalHistoryFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	field := &model.MedicalHistoryField{
		FieldKey:     req.FieldKey,
		Label:        req.Label,
		FieldType:    req.FieldType,
		DisplayOrder: req.DisplayOrder,
		Active:       true,
	}
	if field.FieldType == "" {
		field.FieldType = "boolean"
	}
	if err := h.service.CreateMedicalHistoryField(c.Request.Context(), field); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, field)
}

func (h *Handler) UpdateField(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req model.UpdateMedicalHistoryFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	field, err := h.service.GetMedicalHistoryField(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if req.Label != nil {
		field.Label = *req.Label
	}
	if req.Active != nil {
		field.Active = *req.Active
	}
	if req.DisplayOrder != nil {
		field.DisplayOrder = *req.DisplayOrder
	}

	if err := h.service.UpdateMedicalHistoryField(c.Request.Context(), field); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, field)
}

func (h *Handler) DeleteField(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteMedicalHistoryField(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "deleted": true})
}

func (h *Handler) ListOptions(c *gin.Context) {
	activeOnly := c.Query("all") != "true"
	options, err := h.service.ListTreatmentOptions(c.Request.Context(), activeOnly)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, options)
}

func (h *Handler) CreateOption(c *gin.Context) {
	var req model.CreateTreatmentOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	option := &model.TreatmentOption{
		Category:     req.Category,
		Name:         req.Name,
		DisplayOrder: req.DisplayOrder,
		Active:       true,
	}
	if err := h.service.CreateTreatmentOption(c.Request.Context(), option); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, option)
}

func (h *Handler) UpdateOption(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req model.UpdateTreatmentOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	option, err := h.service.GetTreatmentOption(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if req.Category != nil {
		option.Category = *req.Category
	}
	if req.Name != nil {
		option.Name = *req.Name
	}
	if req.Active != nil {
		option.Active = *req.Active
	}
	if req.DisplayOrder != nil {
		option.DisplayOrder = *req.DisplayOrder
	}

	if err := h.service.UpdateTreatmentOption(c.Request.Context(), option); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, option)
}

func (h *Handler) DeleteOption(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTreatmentOption(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "deleted": true})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid id", err))
		return 0, false
	}
	return id, true
}
