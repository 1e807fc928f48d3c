// Package handler exposes the students HTTP endpoints.
package handler

import (
	"net/http"
	"strconv"

	"admissions_portal_backend/internal/students/service"
	"admissions_portal_backend/internal/students/transport"
	"admissions_portal_backend/platform/httpkit"
	"admissions_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for students.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new students handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create registers a new lead.
// POST /api/v1/students
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if identity := httpkit.MustGetIdentity(c); identity == nil {
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": resp})
}

// Get fetches one student.
// GET /api/v1/students/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid student ID", nil)
		return
	}

	resp, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// List returns a page of students scoped to the caller's role.
// GET /api/v1/students?page=1&pageSize=20
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	resp, err := h.svc.List(c.Request.Context(), identity.UserID(), identity.Roles(), page, pageSize)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// AddDocument records a document for the student.
// POST /api/v1/students/:id/documents
func (h *Handler) AddDocument(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid student ID", nil)
		return
	}

	var req transport.AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	resp, err := h.svc.AddDocument(c.Request.Context(), studentID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": resp})
}

// Documents lists a student's document records.
// GET /api/v1/students/:id/documents
func (h *Handler) Documents(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid student ID", nil)
		return
	}

	resp, err := h.svc.Documents(c.Request.Context(), studentID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// UpdateDocumentStatus changes a document's review status.
// PATCH /api/v1/documents/:id/status
func (h *Handler) UpdateDocumentStatus(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid document ID", nil)
		return
	}

	var req transport.UpdateDocumentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	resp, err := h.svc.SetDocumentStatus(c.Request.Context(), documentID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
