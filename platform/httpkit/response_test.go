package httpkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"admissions_portal_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func handleErr(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	if !HandleError(c, err) {
		t.Fatal("HandleError should report the error as handled")
	}

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return w, body
}

func TestHandleErrorNil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	if HandleError(c, nil) {
		t.Error("nil error must not be handled")
	}
}

func TestHandleErrorTypedKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperr.NotFound("student not found"), http.StatusNotFound},
		{"validation", apperr.Validation("bad phase"), http.StatusBadRequest},
		{"conflict", apperr.Conflict("duplicate"), http.StatusConflict},
		{"forbidden", apperr.Forbidden("nope"), http.StatusForbidden},
		{"internal", apperr.Internal("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := handleErr(t, tc.err)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
			if body.Error == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}

func TestHandleErrorWrappedTypedError(t *testing.T) {
	wrapped := fmt.Errorf("resolve share: %w", apperr.NotFound("shared lead not found"))

	w, body := handleErr(t, wrapped)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if body.Error != "shared lead not found" {
		t.Errorf("error = %q, want the domain message", body.Error)
	}
}

func TestHandleErrorTypedDetails(t *testing.T) {
	err := apperr.Validation("documents missing").WithDetails(map[string]string{"type": "CV_RESUME"})

	_, body := handleErr(t, err)
	details, ok := body.Details.(map[string]interface{})
	if !ok || details["type"] != "CV_RESUME" {
		t.Errorf("details = %v, want the attached payload", body.Details)
	}
}

func TestHandleErrorUntypedIsGeneric500(t *testing.T) {
	driverErr := errors.New(`ERROR: connection refused (SQLSTATE 08006)`)

	w, body := handleErr(t, fmt.Errorf("get student: %w", driverErr))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if body.Error != "internal server error" {
		t.Errorf("error = %q, want the generic message", body.Error)
	}
	// Outside debug mode the driver detail stays server-side.
	if body.Details != nil {
		t.Errorf("details = %v, want none", body.Details)
	}
}
