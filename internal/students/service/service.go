// Package service implements lead intake and document tracking.
package service

import (
	"context"
	"fmt"
	"strings"

	"admissions_portal_backend/internal/events"
	"admissions_portal_backend/internal/phases/registry"
	"admissions_portal_backend/internal/students/repository"
	"admissions_portal_backend/internal/students/transport"
	"admissions_portal_backend/platform/apperr"
	"admissions_portal_backend/platform/logger"
	"admissions_portal_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service implements the students use cases.
type Service struct {
	repo               repository.Repository
	bus                events.Bus
	log                *logger.Logger
	defaultPhoneRegion string
}

// New creates the students service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger, defaultPhoneRegion string) *Service {
	return &Service{
		repo:               repo,
		bus:                bus,
		log:                log,
		defaultPhoneRegion: defaultPhoneRegion,
	}
}

// Create registers a new lead at the intake phase and publishes the creation
// event for downstream listeners (notifications, dashboard cache).
func (s *Service) Create(ctx context.Context, req transport.CreateStudentRequest) (transport.StudentResponse, error) {
	student := repository.Student{
		FullName:         strings.TrimSpace(req.FullName),
		CurrentPhase:     registry.PhaseIntake,
		TargetCountries:  normalizeCountries(req.TargetCountries),
		CounselorID:      req.CounselorID,
		MarketingOwnerID: req.MarketingOwnerID,
	}
	if email := strings.TrimSpace(strings.ToLower(req.Email)); email != "" {
		student.Email = &email
	}
	if req.Phone != "" {
		normalized := phone.NormalizeE164(req.Phone, s.defaultPhoneRegion)
		student.Phone = &normalized
	}
	if src := strings.TrimSpace(req.Source); src != "" {
		student.Source = &src
	}

	if err := s.repo.Create(ctx, &student); err != nil {
		return transport.StudentResponse{}, err
	}

	s.bus.Publish(ctx, events.StudentCreated{
		BaseEvent:        events.NewBaseEvent(),
		StudentID:        student.ID,
		StudentName:      student.FullName,
		CounselorID:      student.CounselorID,
		MarketingOwnerID: student.MarketingOwnerID,
		Source:           strings.TrimSpace(req.Source),
	})

	s.log.Info("lead created", "studentId", student.ID, "source", req.Source)
	return toResponse(student), nil
}

// Get loads one student.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.StudentResponse, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.StudentResponse{}, err
	}
	return toResponse(student), nil
}

// List returns a page of students. Counselors see only their own leads;
// admins and marketing see everything.
func (s *Service) List(ctx context.Context, callerID uuid.UUID, roles []string, page, pageSize int) (transport.ListStudentsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filter := repository.ListFilter{Page: page, PageSize: pageSize}
	if isCounselorOnly(roles) {
		filter.CounselorID = &callerID
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return transport.ListStudentsResponse{}, err
	}

	out := transport.ListStudentsResponse{
		Students: make([]transport.StudentResponse, 0, len(students)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, st := range students {
		out.Students = append(out.Students, toResponse(st))
	}
	return out, nil
}

// AddDocument records a document for the student. New records start as
// PENDING, which already satisfies phase requirements.
func (s *Service) AddDocument(ctx context.Context, studentID uuid.UUID, req transport.AddDocumentRequest) (transport.DocumentResponse, error) {
	docType := registry.DocumentType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if !registry.IsValidDocumentType(docType) {
		return transport.DocumentResponse{}, apperr.Validation(fmt.Sprintf("unknown document type %q", req.Type))
	}

	if _, err := s.repo.GetByID(ctx, studentID); err != nil {
		return transport.DocumentResponse{}, err
	}

	doc := repository.Document{
		StudentID: studentID,
		Type:      docType,
		Status:    registry.DocStatusPending,
	}
	if err := s.repo.AddDocument(ctx, &doc); err != nil {
		return transport.DocumentResponse{}, err
	}
	return toDocumentResponse(doc), nil
}

// Documents lists the student's document records.
func (s *Service) Documents(ctx context.Context, studentID uuid.UUID) ([]transport.DocumentResponse, error) {
	if _, err := s.repo.GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListDocuments(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return out, nil
}

// SetDocumentStatus moves a document to a new review status.
func (s *Service) SetDocumentStatus(ctx context.Context, documentID uuid.UUID, req transport.UpdateDocumentStatusRequest) (transport.DocumentResponse, error) {
	status := registry.DocumentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	switch status {
	case registry.DocStatusPending, registry.DocStatusApproved, registry.DocStatusRejected,
		registry.DocStatusExpired, registry.DocStatusUnderReview:
	default:
		return transport.DocumentResponse{}, apperr.Validation(fmt.Sprintf("unknown document status %q", req.Status))
	}

	doc, err := s.repo.UpdateDocumentStatus(ctx, documentID, status)
	if err != nil {
		return transport.DocumentResponse{}, err
	}
	return toDocumentResponse(doc), nil
}

func normalizeCountries(countries []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func isCounselorOnly(roles []string) bool {
	counselor := false
	for _, r := range roles {
		switch r {
		case "admin", "marketing":
			return false
		case "counselor":
			counselor = true
		}
	}
	return counselor
}

func toResponse(s repository.Student) transport.StudentResponse {
	resp := transport.StudentResponse{
		ID:               s.ID,
		FullName:         s.FullName,
		CurrentPhase:     string(s.CurrentPhase),
		PhaseDisplayName: s.CurrentPhase.DisplayName(),
		TargetCountries:  s.TargetCountries,
		CounselorID:      s.CounselorID,
		MarketingOwnerID: s.MarketingOwnerID,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.Email != nil {
		resp.Email = *s.Email
	}
	if s.Phone != nil {
		resp.Phone = *s.Phone
	}
	if s.Source != nil {
		resp.Source = *s.Source
	}
	return resp
}

func toDocumentResponse(d repository.Document) transport.DocumentResponse {
	return transport.DocumentResponse{
		ID:        d.ID,
		StudentID: d.StudentID,
		Type:      string(d.Type),
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
