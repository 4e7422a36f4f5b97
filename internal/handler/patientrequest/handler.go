package patientrequest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dentalia/clinic-api/internal/service/patientrequest"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
)

// Handler serves the unauthenticated pages patients land on from emailed
// links. Responses are small HTML documents, not JSON.
type Handler struct {
	service *patientrequest.Service
}

func NewHandler(service *patientrequest.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	requests := r.Group("/patient-requests")
	{
		requests.GET("/cancel", h.Cancel)
		requests.GET("/reschedule", h.Reschedule)
	}
}

func (h *Handler) Cancel(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.page(c, http.StatusNotFound, invalidPage)
		return
	}

	_, err := h.service.RedeemCancel(c.Request.Context(), token, time.Now())
	switch {
	case err == nil:
		h.page(c, http.StatusOK, successPage)
	case apperrors.Is(err, apperrors.ErrExpiredToken):
		h.page(c, http.StatusGone, expiredPage)
	case apperrors.Is(err, apperrors.ErrInvalidToken):
		h.page(c, http.StatusNotFound, invalidPage)
	default:
		h.page(c, http.StatusInternalServerError, errorPage)
	}
}

func (h *Handler) Reschedule(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.page(c, http.StatusNotFound, invalidPage)
		return
	}

	_, err := h.service.RedeemReschedule(c.Request.Context(), token, time.Now())
	switch {
	case err == nil:
		h.page(c, http.StatusOK, reschedulePage)
	case apperrors.Is(err, apperrors.ErrExpiredToken):
		h.page(c, http.StatusGone, expiredPage)
	case apperrors.Is(err, apperrors.ErrInvalidToken):
		h.page(c, http.StatusNotFound, invalidPage)
	default:
		h.page(c, http.StatusInternalServerError, errorPage)
	}
}

func (h *Handler) page(c *gin.Context, status int, body string) {
	c.Data(status, "text/html; charset=utf-8", []byte(body))
}

const pageShell = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>%s</title>
<style>body{font-family:sans-serif;max-width:32rem;margin:4rem auto;text-align:center}</style>
</head>
<body><h1>%s</h1><p>%s</p></body>
</html>`

var (
	successPage = page("Request received",
		"Cancellation requested",
		"The clinic has been notified and will confirm your cancellation shortly. No further action is needed.")
	reschedulePage = page("Request received",
		"Reschedule requested",
		"The clinic has been notified and will contact you to agree on a new time for your appointment.")
	invalidPage = page("Link not valid",
		"This link is not valid",
		"The link may have already been used. If you still need to change your appointment, please contact the clinic.")
	expiredPage = page("Link expired",
		"This link has expired",
		"Links are valid for 7 days. Please contact the clinic to change your appointment.")
	errorPage = page("Something went wrong",
		"Something went wrong",
		"We could not process your request right now. Please try again later or contact the clinic.")
)

func page(title, heading, text string) string {
	return fmt.Sprintf(pageShell, title, heading, text)
}
