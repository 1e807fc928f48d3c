// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"admissions_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Student Domain Events
// =============================================================================

// StudentCreated is published when a new lead is registered.
type StudentCreated struct {
	BaseEvent
	StudentID        uuid.UUID  `json:"studentId"`
	StudentName      string     `json:"studentName"`
	CounselorID      *uuid.UUID `json:"counselorId,omitempty"`
	MarketingOwnerID *uuid.UUID `json:"marketingOwnerId,omitempty"`
	Source           string     `json:"source,omitempty"`
}

func (e StudentCreated) EventName() string { return "students.created" }

// PhaseChanged is published after a phase transition commits, either on the
// student's global phase or on a country profile.
type PhaseChanged struct {
	BaseEvent
	StudentID        uuid.UUID  `json:"studentId"`
	StudentName      string     `json:"studentName"`
	Country          string     `json:"country,omitempty"`
	PreviousPhase    string     `json:"previousPhase"`
	NewPhase         string     `json:"newPhase"`
	NewPhaseDisplay  string     `json:"newPhaseDisplay"`
	Remarks          string     `json:"remarks,omitempty"`
	CounselorID      *uuid.UUID `json:"counselorId,omitempty"`
	MarketingOwnerID *uuid.UUID `json:"marketingOwnerId,omitempty"`
	ActorID          uuid.UUID  `json:"actorId"`
}

func (e PhaseChanged) EventName() string { return "students.phase.changed" }

// =============================================================================
// Assignment Domain Events
// =============================================================================

// AssignmentRequested is published when a lead is offered to a counselor by
// direct assignment. Ownership does not change until the counselor accepts.
type AssignmentRequested struct {
	BaseEvent
	StudentID     uuid.UUID `json:"studentId"`
	StudentName   string    `json:"studentName"`
	CounselorID   uuid.UUID `json:"counselorId"`
	RequestedByID uuid.UUID `json:"requestedById"`
}

func (e AssignmentRequested) EventName() string { return "assignment.requested" }

// LeadAssigned is published when a counselor accepts a direct assignment and
// ownership actually changes.
type LeadAssigned struct {
	BaseEvent
	StudentID           uuid.UUID  `json:"studentId"`
	StudentName         string     `json:"studentName"`
	PreviousCounselorID *uuid.UUID `json:"previousCounselorId,omitempty"`
	NewCounselorID      uuid.UUID  `json:"newCounselorId"`
	MarketingOwnerID    *uuid.UUID `json:"marketingOwnerId,omitempty"`
}

func (e LeadAssigned) EventName() string { return "assignment.lead.assigned" }

// LeadShared is published when a counselor offers a lead to a peer.
type LeadShared struct {
	BaseEvent
	SharedLeadID uuid.UUID `json:"sharedLeadId"`
	StudentID    uuid.UUID `json:"studentId"`
	StudentName  string    `json:"studentName"`
	SenderID     uuid.UUID `json:"senderId"`
	SenderName   string    `json:"senderName"`
	ReceiverID   uuid.UUID `json:"receiverId"`
}

func (e LeadShared) EventName() string { return "assignment.lead.shared" }

// LeadShareAccepted is published when the receiving counselor accepts a
// shared lead and ownership moves to them.
type LeadShareAccepted struct {
	BaseEvent
	SharedLeadID uuid.UUID `json:"sharedLeadId"`
	StudentID    uuid.UUID `json:"studentId"`
	StudentName  string    `json:"studentName"`
	SenderID     uuid.UUID `json:"senderId"`
	ReceiverID   uuid.UUID `json:"receiverId"`
	ReceiverName string    `json:"receiverName"`
}

func (e LeadShareAccepted) EventName() string { return "assignment.lead.share_accepted" }

// LeadShareRejected is published when the receiving counselor declines a
// shared lead. Ownership stays with the sender.
type LeadShareRejected struct {
	BaseEvent
	SharedLeadID uuid.UUID `json:"sharedLeadId"`
	StudentID    uuid.UUID `json:"studentId"`
	StudentName  string    `json:"studentName"`
	SenderID     uuid.UUID `json:"senderId"`
	ReceiverID   uuid.UUID `json:"receiverId"`
	ReceiverName string    `json:"receiverName"`
}

func (e LeadShareRejected) EventName() string { return "assignment.lead.share_rejected" }
