// Package handler exposes the phase transition endpoints.
package handler

import (
	"net/http"

	"admissions_portal_backend/internal/phases/service"
	"admissions_portal_backend/internal/phases/transport"
	"admissions_portal_backend/platform/httpkit"
	"admissions_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgInvalidStudentID = "invalid student ID"
)

// Handler handles HTTP requests for phase transitions.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new phases handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Transition applies a phase change to a student or one of its country profiles.
// PATCH /api/v1/students/:id/phase
func (h *Handler) Transition(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidStudentID, nil)
		return
	}

	var req transport.PhaseChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Transition(c.Request.Context(), studentID, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MissingDocuments previews the document gate for a target phase.
// GET /api/v1/students/:id/phase/missing-documents?phase=APPLICATION_SUBMISSION
func (h *Handler) MissingDocuments(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidStudentID, nil)
		return
	}

	phase := c.Query("phase")
	if phase == "" {
		httpkit.Error(c, http.StatusBadRequest, "phase query parameter is required", nil)
		return
	}

	if identity := httpkit.MustGetIdentity(c); identity == nil {
		return
	}

	result, err := h.svc.PreviewGate(c.Request.Context(), studentID, phase)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
