// Package handler exposes the dashboard HTTP endpoints.
package handler

import (
	"admissions_portal_backend/internal/dashboard/service"
	"admissions_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for dashboards.
type Handler struct {
	svc *service.Service
}

// New creates a new dashboard handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Summary returns the caller's dashboard snapshot.
// GET /api/v1/dashboard/summary
func (h *Handler) Summary(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}
