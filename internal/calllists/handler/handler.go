// Package handler exposes the call-list HTTP endpoints.
package handler

import (
	"net/http"
	"strconv"

	"admissions_portal_backend/internal/calllists/service"
	"admissions_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds the CSV upload size.
const maxUploadBytes = 5 << 20

// Handler handles HTTP requests for call lists.
type Handler struct {
	svc *service.Service
}

// New creates a new call-list handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Import ingests a CSV call list.
// POST /api/v1/call-lists/import (multipart: file, batchName)
func (h *Handler) Import(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if file.Size > maxUploadBytes {
		httpkit.Error(c, http.StatusBadRequest, "file is too large", nil)
		return
	}

	batchName := c.PostForm("batchName")
	src, err := file.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}
	defer src.Close()

	result, err := h.svc.ImportCSV(c.Request.Context(), batchName, identity.UserID(), src)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": result})
}

// ListBatch returns a page of a batch's entries.
// GET /api/v1/call-lists/:batch
func (h *Handler) ListBatch(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	entries, total, err := h.svc.ListBatch(c.Request.Context(), c.Param("batch"), page, pageSize)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"entries": entries, "total": total})
}
