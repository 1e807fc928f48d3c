package httpkit

import (
	"errors"
	"net/http"

	"admissions_portal_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error body every endpoint returns. Details is
// populated from apperr.Error.Details when the domain attached one, e.g.
// the missing-documents list on a rejected phase transition.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// OK writes the payload with a 200.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Error writes an ErrorResponse with an explicit status, for handler-level
// failures (binding, malformed IDs) that never reach the service layer.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// HandleError writes the response for a service-layer error and reports
// whether it did so. Typed domain errors pick their status from the Kind.
// Anything untyped is a persistence or infrastructure failure that was never
// classified, so it becomes a 500 with a generic message; the underlying
// error text is only exposed while gin runs in debug mode.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{
			Error:   domainErr.Message,
			Details: domainErr.Details,
		})
		return true
	}

	resp := ErrorResponse{Error: "internal server error"}
	if gin.IsDebugging() {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
	return true
}
