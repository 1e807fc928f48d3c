// Package transport defines the request/response DTOs for the phases module.
package transport

import (
	"time"

	"admissions_portal_backend/internal/phases/gate"

	"github.com/google/uuid"
)

// PhaseChangeRequest is the inbound phase-transition payload. The phase field
// keeps its legacy name currentPhase: callers send the phase the student
// should now be in. When country is set the transition applies to that
// country profile and never touches the student's global phase.
type PhaseChangeRequest struct {
	CurrentPhase         string   `json:"currentPhase" binding:"required"`
	Remarks              string   `json:"remarks,omitempty"`
	Country              string   `json:"country,omitempty"`
	SelectedUniversities []string `json:"selectedUniversities,omitempty"`
	SelectedUniversity   string   `json:"selectedUniversity,omitempty"`
	InterviewStatus      string   `json:"interviewStatus,omitempty"`
	CASVisaStatus        string   `json:"casVisaStatus,omitempty"`
	VisaStatus           string   `json:"visaStatus,omitempty"`
	FinancialOption      string   `json:"financialOption,omitempty"`
}

// PhaseChangeResponse is returned on a successful transition.
type PhaseChangeResponse struct {
	StudentID        uuid.UUID  `json:"studentId"`
	Phase            string     `json:"phase"`
	CountryProfileID *uuid.UUID `json:"countryProfileId,omitempty"`
	Country          string     `json:"country,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// MissingDocumentsDetails is attached to the validation error when a
// transition fails the document gate.
type MissingDocumentsDetails struct {
	Phase            string                 `json:"phase"`
	PhaseDisplayName string                 `json:"phaseDisplayName"`
	MissingDocuments []gate.MissingDocument `json:"missingDocuments"`
}

// InvalidSelectionDetails is attached to the validation error when a
// university selection references ids outside the referenced payload.
type InvalidSelectionDetails struct {
	Field      string   `json:"field"`
	InvalidIDs []string `json:"invalidIds"`
}

// GatePreviewResponse reports the outcome of a dry-run gate evaluation.
type GatePreviewResponse struct {
	Phase            string                 `json:"phase"`
	PhaseDisplayName string                 `json:"phaseDisplayName"`
	Satisfied        bool                   `json:"satisfied"`
	MissingDocuments []gate.MissingDocument `json:"missingDocuments"`
}
