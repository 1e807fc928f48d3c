// Package transport defines request/response DTOs for the students module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateStudentRequest registers a new lead.
type CreateStudentRequest struct {
	FullName         string     `json:"fullName" binding:"required" validate:"required,min=2,max=200"`
	Email            string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone            string     `json:"phone,omitempty" validate:"omitempty,min=5,max=32"`
	Source           string     `json:"source,omitempty" validate:"omitempty,max=100"`
	TargetCountries  []string   `json:"targetCountries,omitempty" validate:"omitempty,dive,min=2,max=60"`
	CounselorID      *uuid.UUID `json:"counselorId,omitempty"`
	MarketingOwnerID *uuid.UUID `json:"marketingOwnerId,omitempty"`
}

// StudentResponse is the outbound student representation.
type StudentResponse struct {
	ID               uuid.UUID  `json:"id"`
	FullName         string     `json:"fullName"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Source           string     `json:"source,omitempty"`
	CurrentPhase     string     `json:"currentPhase"`
	PhaseDisplayName string     `json:"phaseDisplayName"`
	TargetCountries  []string   `json:"targetCountries,omitempty"`
	CounselorID      *uuid.UUID `json:"counselorId,omitempty"`
	MarketingOwnerID *uuid.UUID `json:"marketingOwnerId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ListStudentsResponse is a page of students.
type ListStudentsResponse struct {
	Students []StudentResponse `json:"students"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// AddDocumentRequest records a document for a student. Storage of the file
// itself lives in a separate upload service; this API tracks type and review
// status only.
type AddDocumentRequest struct {
	Type string `json:"type" binding:"required"`
}

// UpdateDocumentStatusRequest changes a document's review status.
type UpdateDocumentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// DocumentResponse is the outbound document representation.
type DocumentResponse struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"studentId"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
