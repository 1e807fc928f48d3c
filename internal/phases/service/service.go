// Package service implements the phase transition engine: gate checks,
// payload validation, atomic persistence, and post-commit side effects.
package service

import (
	"context"
	"fmt"
	"strings"

	"admissions_portal_backend/internal/events"
	"admissions_portal_backend/internal/phases/gate"
	"admissions_portal_backend/internal/phases/registry"
	"admissions_portal_backend/internal/phases/repository"
	"admissions_portal_backend/internal/phases/sidedata"
	"admissions_portal_backend/internal/phases/transport"
	"admissions_portal_backend/platform/apperr"
	"admissions_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Service is the phase transition engine.
type Service struct {
	repo            repository.Repository
	gate            *gate.Gate
	bus             events.Bus
	log             *logger.Logger
	allowRegression bool
}

// New creates the phase transition engine.
func New(repo repository.Repository, g *gate.Gate, bus events.Bus, log *logger.Logger, allowRegression bool) *Service {
	return &Service{
		repo:            repo,
		gate:            g,
		bus:             bus,
		log:             log,
		allowRegression: allowRegression,
	}
}

// Transition validates and applies a phase change for the student, either on
// the global phase or, when req.Country is set, on that country profile.
// All reads and validations happen before any write; the phase change, side
// data, and audit record commit in one transaction, and notification plus
// cache invalidation run only after the commit.
func (s *Service) Transition(ctx context.Context, studentID, actorID uuid.UUID, req transport.PhaseChangeRequest) (transport.PhaseChangeResponse, error) {
	target := registry.Phase(strings.ToUpper(strings.TrimSpace(req.CurrentPhase)))
	if !target.IsValid() {
		return transport.PhaseChangeResponse{}, apperr.Validation(fmt.Sprintf("unknown phase %q", req.CurrentPhase))
	}

	student, err := s.repo.GetStudent(ctx, studentID)
	if err != nil {
		return transport.PhaseChangeResponse{}, err
	}

	var profile *repository.CountryProfile
	current := student.CurrentPhase
	rawSideData := student.SideData
	if req.Country != "" {
		if !targetsCountry(student.TargetCountries, req.Country) {
			return transport.PhaseChangeResponse{}, apperr.NotFound(
				fmt.Sprintf("no profile for country %q", req.Country))
		}
		p, err := s.repo.GetOrCreateCountryProfile(ctx, studentID, req.Country)
		if err != nil {
			return transport.PhaseChangeResponse{}, err
		}
		profile = &p
		current = p.CurrentPhase
		rawSideData = p.SideData
	}

	if !s.allowRegression && target.Index() < current.Index() {
		return transport.PhaseChangeResponse{}, apperr.Validation(
			fmt.Sprintf("transition from %s back to %s is not allowed", current.DisplayName(), target.DisplayName()))
	}

	// Leaving intake requires intake's own document set to be complete,
	// whatever the destination requires.
	if current != target && current == registry.PhaseIntake {
		if err := s.checkGate(ctx, studentID, registry.PhaseIntake); err != nil {
			return transport.PhaseChangeResponse{}, err
		}
	}
	if err := s.checkGate(ctx, studentID, target); err != nil {
		return transport.PhaseChangeResponse{}, err
	}

	envelope, err := sidedata.Parse(rawSideData)
	if err != nil {
		return transport.PhaseChangeResponse{}, err
	}
	if err := s.mergePayload(&envelope, target, req); err != nil {
		return transport.PhaseChangeResponse{}, err
	}
	encoded, err := envelope.Encode()
	if err != nil {
		return transport.PhaseChangeResponse{}, err
	}

	params := repository.ApplyParams{
		StudentID:     studentID,
		Country:       req.Country,
		PreviousPhase: current,
		NewPhase:      target,
		SideData:      encoded,
		Remarks:       req.Remarks,
		ActorID:       actorID,
	}
	if profile != nil {
		params.ProfileID = profile.ID
	}

	result, err := s.repo.ApplyTransition(ctx, params)
	if err != nil {
		return transport.PhaseChangeResponse{}, err
	}

	s.bus.Publish(ctx, events.PhaseChanged{
		BaseEvent:        events.NewBaseEvent(),
		StudentID:        studentID,
		StudentName:      student.FullName,
		Country:          req.Country,
		PreviousPhase:    string(current),
		NewPhase:         string(target),
		NewPhaseDisplay:  target.DisplayName(),
		Remarks:          req.Remarks,
		CounselorID:      student.CounselorID,
		MarketingOwnerID: student.MarketingOwnerID,
		ActorID:          actorID,
	})

	s.log.Info("phase transition applied",
		"studentId", studentID, "from", current, "to", target, "country", req.Country)

	resp := transport.PhaseChangeResponse{
		StudentID: studentID,
		Phase:     string(target),
		UpdatedAt: result.UpdatedAt,
	}
	if profile != nil {
		resp.CountryProfileID = &profile.ID
		resp.Country = profile.Country
	}
	return resp, nil
}

// PreviewGate evaluates the document gate for a target phase without
// mutating anything.
func (s *Service) PreviewGate(ctx context.Context, studentID uuid.UUID, phase string) (transport.GatePreviewResponse, error) {
	target := registry.Phase(strings.ToUpper(strings.TrimSpace(phase)))
	if !target.IsValid() {
		return transport.GatePreviewResponse{}, apperr.Validation(fmt.Sprintf("unknown phase %q", phase))
	}

	if _, err := s.repo.GetStudent(ctx, studentID); err != nil {
		return transport.GatePreviewResponse{}, err
	}

	missing, err := s.gate.Evaluate(ctx, studentID, registry.RequiredDocuments(target))
	if err != nil {
		return transport.GatePreviewResponse{}, err
	}

	return transport.GatePreviewResponse{
		Phase:            string(target),
		PhaseDisplayName: target.DisplayName(),
		Satisfied:        len(missing) == 0,
		MissingDocuments: missing,
	}, nil
}

func (s *Service) checkGate(ctx context.Context, studentID uuid.UUID, phase registry.Phase) error {
	missing, err := s.gate.Evaluate(ctx, studentID, registry.RequiredDocuments(phase))
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	return apperr.Validation("required documents are missing").WithDetails(transport.MissingDocumentsDetails{
		Phase:            string(phase),
		PhaseDisplayName: phase.DisplayName(),
		MissingDocuments: missing,
	})
}

// mergePayload validates and stores the phase-specific payload carried by the
// request, if any. University selections must be subsets of the payload they
// reference; status and financing fields must be members of their enums.
func (s *Service) mergePayload(env *sidedata.Envelope, target registry.Phase, req transport.PhaseChangeRequest) error {
	kind, ok := sidedata.KindForPhase(target)
	if !ok {
		return nil
	}

	switch kind {
	case sidedata.KindShortlist:
		if len(req.SelectedUniversities) == 0 {
			return nil
		}
		return env.Merge(kind, sidedata.UniversityList{UniversityIDs: req.SelectedUniversities})

	case sidedata.KindSubmissions:
		if len(req.SelectedUniversities) == 0 {
			return nil
		}
		if err := s.checkSubset(env, req.SelectedUniversities, "selectedUniversities", sidedata.KindShortlist); err != nil {
			return err
		}
		return env.Merge(kind, sidedata.UniversityList{UniversityIDs: req.SelectedUniversities})

	case sidedata.KindOffers:
		if len(req.SelectedUniversities) == 0 {
			return nil
		}
		if err := s.checkSubset(env, req.SelectedUniversities, "selectedUniversities", sidedata.KindSubmissions, sidedata.KindShortlist); err != nil {
			return err
		}
		return env.Merge(kind, sidedata.UniversityList{UniversityIDs: req.SelectedUniversities})

	case sidedata.KindPayment:
		if req.SelectedUniversity == "" {
			return nil
		}
		selection := []string{req.SelectedUniversity}
		if err := s.checkSubset(env, selection, "selectedUniversity", sidedata.KindOffers, sidedata.KindSubmissions, sidedata.KindShortlist); err != nil {
			return err
		}
		return env.Merge(kind, sidedata.UniversityChoice{UniversityID: req.SelectedUniversity})

	case sidedata.KindInterview:
		return mergeStatus(env, kind, req.InterviewStatus, "interviewStatus")

	case sidedata.KindCAS:
		return mergeStatus(env, kind, req.CASVisaStatus, "casVisaStatus")

	case sidedata.KindVisa:
		return mergeStatus(env, kind, req.VisaStatus, "visaStatus")

	case sidedata.KindFinancing:
		if req.FinancialOption == "" {
			return nil
		}
		if !sidedata.IsValidFinancingOption(req.FinancialOption) {
			return apperr.Validation(fmt.Sprintf("financialOption must be one of LOAN, SELF_AMOUNT, OTHERS; got %q", req.FinancialOption))
		}
		return env.Merge(kind, sidedata.FinancingChoice{Option: req.FinancialOption})
	}

	return nil
}

// checkSubset verifies every selected id appears in the first referenced
// payload that exists in the envelope.
func (s *Service) checkSubset(env *sidedata.Envelope, selected []string, field string, references ...sidedata.Kind) error {
	var allowed []string
	for _, ref := range references {
		ids, ok, err := env.UniversityIDs(ref)
		if err != nil {
			return err
		}
		if ok {
			allowed = ids
			break
		}
	}
	if allowed == nil {
		return apperr.Validation(fmt.Sprintf("%s references a selection, but no earlier university list exists", field))
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = struct{}{}
	}

	var invalid []string
	for _, id := range selected {
		if _, ok := allowedSet[id]; !ok {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return apperr.Validation("selection contains universities outside the referenced list").
			WithDetails(transport.InvalidSelectionDetails{Field: field, InvalidIDs: invalid})
	}
	return nil
}

func mergeStatus(env *sidedata.Envelope, kind sidedata.Kind, value, field string) error {
	if value == "" {
		return nil
	}
	if !sidedata.IsValidStatus(value) {
		return apperr.Validation(fmt.Sprintf("%s must be one of APPROVED, REFUSED, STOPPED; got %q", field, value))
	}
	return env.Merge(kind, sidedata.StatusValue{Status: value})
}

func targetsCountry(countries []string, country string) bool {
	for _, c := range countries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}
