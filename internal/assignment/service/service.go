// Package service implements the lead assignment coordinator: direct
// assignment request/accept and the peer share state machine.
package service

import (
	"context"

	"admissions_portal_backend/internal/assignment/repository"
	"admissions_portal_backend/internal/assignment/transport"
	"admissions_portal_backend/internal/events"
	"admissions_portal_backend/platform/apperr"
	"admissions_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Service coordinates lead ownership changes. Every ownership mutation
// commits first; notifications, emails, and cache invalidation ride on the
// events published afterwards.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates the assignment coordinator.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// RequestDirectAssignment offers a lead to a counselor. Ownership does not
// change until the counselor accepts.
func (s *Service) RequestDirectAssignment(ctx context.Context, studentID, counselorID, actorID uuid.UUID) (transport.AssignmentResponse, error) {
	student, err := s.repo.GetStudentRef(ctx, studentID)
	if err != nil {
		return transport.AssignmentResponse{}, err
	}
	counselor, err := s.repo.GetUser(ctx, counselorID)
	if err != nil {
		return transport.AssignmentResponse{}, err
	}
	if student.CounselorID != nil && *student.CounselorID == counselorID {
		return transport.AssignmentResponse{}, apperr.Validation("lead is already assigned to this counselor")
	}

	if err := s.repo.SetPendingCounselor(ctx, studentID, counselorID, actorID); err != nil {
		return transport.AssignmentResponse{}, err
	}

	s.bus.Publish(ctx, events.AssignmentRequested{
		BaseEvent:     events.NewBaseEvent(),
		StudentID:     studentID,
		StudentName:   student.FullName,
		CounselorID:   counselor.ID,
		RequestedByID: actorID,
	})

	s.log.Info("assignment requested",
		"studentId", studentID, "counselorId", counselorID, "requestedBy", actorID)

	return transport.AssignmentResponse{
		StudentID:          studentID,
		CounselorID:        counselorID,
		PendingCounselorID: &counselor.ID,
	}, nil
}

// AcceptDirectAssignment transfers ownership to the caller, who must be the
// counselor the lead was offered to.
func (s *Service) AcceptDirectAssignment(ctx context.Context, studentID, callerID uuid.UUID) (transport.AssignmentResponse, error) {
	student, err := s.repo.GetStudentRef(ctx, studentID)
	if err != nil {
		return transport.AssignmentResponse{}, err
	}

	previous, err := s.repo.AcceptDirectAssignment(ctx, studentID, callerID)
	if err != nil {
		return transport.AssignmentResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:           events.NewBaseEvent(),
		StudentID:           studentID,
		StudentName:         student.FullName,
		PreviousCounselorID: previous,
		NewCounselorID:      callerID,
		MarketingOwnerID:    student.MarketingOwnerID,
	})

	s.log.Info("assignment accepted", "studentId", studentID, "counselorId", callerID)

	return transport.AssignmentResponse{
		StudentID:   studentID,
		CounselorID: callerID,
		Accepted:    true,
	}, nil
}

// ShareLead offers a lead to a peer counselor. A student can have at most one
// pending share at a time; the database index enforces it.
func (s *Service) ShareLead(ctx context.Context, studentID, senderID, receiverID uuid.UUID) (transport.SharedLeadResponse, error) {
	if senderID == receiverID {
		return transport.SharedLeadResponse{}, apperr.Validation("cannot share a lead with yourself")
	}

	student, err := s.repo.GetStudentRef(ctx, studentID)
	if err != nil {
		return transport.SharedLeadResponse{}, err
	}
	// Only the owning counselor may share a lead. Leads owned by someone
	// else are as good as invisible to the sender.
	if student.CounselorID == nil || *student.CounselorID != senderID {
		return transport.SharedLeadResponse{}, apperr.NotFound("student not found")
	}
	sender, err := s.repo.GetUser(ctx, senderID)
	if err != nil {
		return transport.SharedLeadResponse{}, err
	}
	receiver, err := s.repo.GetUser(ctx, receiverID)
	if err != nil {
		return transport.SharedLeadResponse{}, err
	}

	share, err := s.repo.CreateShare(ctx, studentID, senderID, receiverID)
	if err != nil {
		return transport.SharedLeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadShared{
		BaseEvent:    events.NewBaseEvent(),
		SharedLeadID: share.ID,
		StudentID:    studentID,
		StudentName:  student.FullName,
		SenderID:     senderID,
		SenderName:   sender.FullName,
		ReceiverID:   receiverID,
	})

	s.log.Info("lead shared",
		"studentId", studentID, "sharedLeadId", share.ID, "senderId", senderID, "receiverId", receiverID)

	return toShareResponse(share, student.FullName, sender.FullName, receiver.FullName), nil
}

// AcceptShare resolves a pending share in the receiver's favor: ownership
// moves to the receiver and the sender is notified.
func (s *Service) AcceptShare(ctx context.Context, shareID, callerID uuid.UUID) (transport.SharedLeadResponse, error) {
	share, student, receiver, err := s.loadShareForResolution(ctx, shareID, callerID)
	if err != nil {
		return transport.SharedLeadResponse{}, err
	}

	resolved, err := s.repo.ResolveShare(ctx, shareID, true)
	if err != nil {
		return transport.SharedLeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadShareAccepted{
		BaseEvent:    events.NewBaseEvent(),
		SharedLeadID: shareID,
		StudentID:    share.StudentID,
		StudentName:  student.FullName,
		SenderID:     share.SenderID,
		ReceiverID:   callerID,
		ReceiverName: receiver.FullName,
	})

	s.log.Info("share accepted", "sharedLeadId", shareID, "receiverId", callerID)
	return toShareResponse(resolved, student.FullName, "", receiver.FullName), nil
}

// RejectShare resolves a pending share without touching ownership.
func (s *Service) RejectShare(ctx context.Context, shareID, callerID uuid.UUID) (transport.SharedLeadResponse, error) {
	share, student, receiver, err := s.loadShareForResolution(ctx, shareID, callerID)
	if err != nil {
		return transport.SharedLeadResponse{}, err
	}

	resolved, err := s.repo.ResolveShare(ctx, shareID, false)
	if err != nil {
		return transport.SharedLeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadShareRejected{
		BaseEvent:    events.NewBaseEvent(),
		SharedLeadID: shareID,
		StudentID:    share.StudentID,
		StudentName:  student.FullName,
		SenderID:     share.SenderID,
		ReceiverID:   callerID,
		ReceiverName: receiver.FullName,
	})

	s.log.Info("share rejected", "sharedLeadId", shareID, "receiverId", callerID)
	return toShareResponse(resolved, student.FullName, "", receiver.FullName), nil
}

// PendingShares lists the caller's open incoming shares.
func (s *Service) PendingShares(ctx context.Context, callerID uuid.UUID) ([]transport.SharedLeadResponse, error) {
	shares, err := s.repo.ListPendingForReceiver(ctx, callerID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.SharedLeadResponse, 0, len(shares))
	for _, sl := range shares {
		student, err := s.repo.GetStudentRef(ctx, sl.StudentID)
		if err != nil {
			return nil, err
		}
		sender, err := s.repo.GetUser(ctx, sl.SenderID)
		if err != nil {
			return nil, err
		}
		out = append(out, toShareResponse(sl, student.FullName, sender.FullName, ""))
	}
	return out, nil
}

func (s *Service) loadShareForResolution(ctx context.Context, shareID, callerID uuid.UUID) (repository.SharedLead, repository.StudentRef, repository.User, error) {
	share, err := s.repo.GetShare(ctx, shareID)
	if err != nil {
		return repository.SharedLead{}, repository.StudentRef{}, repository.User{}, err
	}
	// A share is only visible to its receiver; anyone else gets the same
	// answer as for a share that does not exist.
	if share.ReceiverID != callerID {
		return repository.SharedLead{}, repository.StudentRef{}, repository.User{},
			apperr.NotFound("shared lead not found")
	}

	student, err := s.repo.GetStudentRef(ctx, share.StudentID)
	if err != nil {
		return repository.SharedLead{}, repository.StudentRef{}, repository.User{}, err
	}
	receiver, err := s.repo.GetUser(ctx, callerID)
	if err != nil {
		return repository.SharedLead{}, repository.StudentRef{}, repository.User{}, err
	}
	return share, student, receiver, nil
}

func toShareResponse(sl repository.SharedLead, studentName, senderName, receiverName string) transport.SharedLeadResponse {
	return transport.SharedLeadResponse{
		ID:           sl.ID,
		StudentID:    sl.StudentID,
		StudentName:  studentName,
		SenderID:     sl.SenderID,
		SenderName:   senderName,
		ReceiverID:   sl.ReceiverID,
		ReceiverName: receiverName,
		Status:       sl.Status,
		CreatedAt:    sl.CreatedAt,
		ResolvedAt:   sl.ResolvedAt,
	}
}
