// Package transport defines request/response DTOs for the assignment module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// AssignRequest targets a counselor for a direct assignment or a share.
type AssignRequest struct {
	CounselorID uuid.UUID `json:"counselorId" binding:"required"`
}

// AssignmentResponse reports a direct-assignment request or acceptance.
type AssignmentResponse struct {
	StudentID          uuid.UUID  `json:"studentId"`
	CounselorID        uuid.UUID  `json:"counselorId"`
	PendingCounselorID *uuid.UUID `json:"pendingCounselorId,omitempty"`
	Accepted           bool       `json:"accepted"`
}

// SharedLeadResponse is the outbound shared-lead representation.
type SharedLeadResponse struct {
	ID           uuid.UUID  `json:"id"`
	StudentID    uuid.UUID  `json:"studentId"`
	StudentName  string     `json:"studentName"`
	SenderID     uuid.UUID  `json:"senderId"`
	SenderName   string     `json:"senderName,omitempty"`
	ReceiverID   uuid.UUID  `json:"receiverId"`
	ReceiverName string     `json:"receiverName,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
}
