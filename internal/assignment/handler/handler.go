// Package handler exposes the assignment HTTP endpoints.
package handler

import (
	"net/http"

	"admissions_portal_backend/internal/assignment/service"
	"admissions_portal_backend/internal/assignment/transport"
	"admissions_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for lead assignment.
type Handler struct {
	svc *service.Service
}

// New creates a new assignment handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RequestAssignment offers a lead to a counselor.
// POST /api/v1/students/:id/assign
func (h *Handler) RequestAssignment(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid student ID", nil)
		return
	}

	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	resp, err := h.svc.RequestDirectAssignment(c.Request.Context(), studentID, req.CounselorID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// AcceptAssignment accepts a pending direct assignment for the caller.
// POST /api/v1/students/:id/assign/accept
func (h *Handler) AcceptAssignment(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid student ID", nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	resp, err := h.svc.AcceptDirectAssignment(c.Request.Context(), studentID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// ShareLead offers a lead to a peer counselor.
// POST /api/v1/students/:id/share
func (h *Handler) ShareLead(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid student ID", nil)
		return
	}

	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	resp, err := h.svc.ShareLead(c.Request.Context(), studentID, identity.UserID(), req.CounselorID)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": resp})
}

// AcceptShare accepts a pending share addressed to the caller.
// POST /api/v1/shared-leads/:id/accept
func (h *Handler) AcceptShare(c *gin.Context) {
	h.resolveShare(c, true)
}

// RejectShare declines a pending share addressed to the caller.
// POST /api/v1/shared-leads/:id/reject
func (h *Handler) RejectShare(c *gin.Context) {
	h.resolveShare(c, false)
}

func (h *Handler) resolveShare(c *gin.Context, accept bool) {
	shareID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid shared lead ID", nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var resp transport.SharedLeadResponse
	if accept {
		resp, err = h.svc.AcceptShare(c.Request.Context(), shareID, identity.UserID())
	} else {
		resp, err = h.svc.RejectShare(c.Request.Context(), shareID, identity.UserID())
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// PendingShares lists the caller's open incoming shares.
// GET /api/v1/shared-leads
func (h *Handler) PendingShares(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	resp, err := h.svc.PendingShares(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
