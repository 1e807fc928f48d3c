package service

import (
	"context"
	"errors"
	"testing"
	"time"

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

type fakeRepo struct {
	student      repository.Student
	studentErr   error
	profile      repository.CountryProfile
	applied      []repository.ApplyParams
	applyErr     error
	profileCalls int
}

func (f *fakeRepo) GetStudent(_ context.Context, id uuid.UUID) (repository.Student, error) {
	if f.studentErr != nil {
		return repository.Student{}, f.studentErr
	}
	if id != f.student.ID {
		return repository.Student{}, apperr.NotFound("student not found")
	}
	return f.student, nil
}

func (f *fakeRepo) GetOrCreateCountryProfile(_ context.Context, _ uuid.UUID, _ string) (repository.CountryProfile, error) {
	f.profileCalls++
	return f.profile, nil
}

func (f *fakeRepo) ApplyTransition(_ context.Context, p repository.ApplyParams) (repository.ApplyResult, error) {
	if f.applyErr != nil {
		return repository.ApplyResult{}, f.applyErr
	}
	f.applied = append(f.applied, p)
	return repository.ApplyResult{UpdatedAt: time.Now()}, nil
}

type fakeDocs struct {
	counts map[registry.DocumentType]int
}

func (f *fakeDocs) CountQualifyingDocuments(_ context.Context, _ uuid.UUID, _ []registry.DocumentType) (map[registry.DocumentType]int, error) {
	return f.counts, nil
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, e events.Event)          { b.published = append(b.published, e) }
func (b *captureBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}
func (b *captureBus) Subscribe(string, events.Handler) {}

func allIntakeDocs() map[registry.DocumentType]int {
	counts := make(map[registry.DocumentType]int)
	for _, t := range registry.RequiredDocuments(registry.PhaseIntake) {
		counts[t] = 1
	}
	return counts
}

func encodedEnvelope(t *testing.T, build func(*sidedata.Envelope)) []byte {
	t.Helper()
	env := sidedata.NewEnvelope()
	build(&env)
	data, err := env.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newService(repo repository.Repository, docs gate.DocumentSource, bus events.Bus, allowRegression bool) *Service {
	return New(repo, gate.New(docs), bus, logger.New("development"), allowRegression)
}

func TestTransitionUnknownPhase(t *testing.T) {
	svc := newService(&fakeRepo{}, &fakeDocs{}, &captureBus{}, true)
	_, err := svc.Transition(context.Background(), uuid.New(), uuid.New(), transport.PhaseChangeRequest{CurrentPhase: "LIMBO"})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("unknown phase should be a validation error, got %v", err)
	}
}

func TestTransitionStudentNotFound(t *testing.T) {
	repo := &fakeRepo{student: repository.Student{ID: uuid.New()}}
	svc := newService(repo, &fakeDocs{counts: allIntakeDocs()}, &captureBus{}, true)

	_, err := svc.Transition(context.Background(), uuid.New(), uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase: string(registry.PhaseShortlist),
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestTransitionIntakeToShortlist(t *testing.T) {
	studentID := uuid.New()
	repo := &fakeRepo{student: repository.Student{
		ID:           studentID,
		FullName:     "Asha Verma",
		CurrentPhase: registry.PhaseIntake,
	}}
	bus := &captureBus{}
	svc := newService(repo, &fakeDocs{counts: allIntakeDocs()}, bus, true)

	resp, err := svc.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase:         string(registry.PhaseShortlist),
		SelectedUniversities: []string{"u1", "u2"},
		Remarks:              "shortlist agreed on call",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Phase != string(registry.PhaseShortlist) {
		t.Errorf("response phase = %s", resp.Phase)
	}
	if len(repo.applied) != 1 {
		t.Fatalf("expected one committed transition, got %d", len(repo.applied))
	}
	applied := repo.applied[0]
	if applied.PreviousPhase != registry.PhaseIntake || applied.NewPhase != registry.PhaseShortlist {
		t.Errorf("applied %s -> %s", applied.PreviousPhase, applied.NewPhase)
	}

	env, err := sidedata.Parse(applied.SideData)
	if err != nil {
		t.Fatal(err)
	}
	ids, ok, _ := env.UniversityIDs(sidedata.KindShortlist)
	if !ok || len(ids) != 2 {
		t.Errorf("shortlist payload not persisted, ok=%v ids=%v", ok, ids)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	changed, ok := bus.published[0].(events.PhaseChanged)
	if !ok {
		t.Fatalf("published %T, want PhaseChanged", bus.published[0])
	}
	if changed.NewPhase != string(registry.PhaseShortlist) || changed.StudentID != studentID {
		t.Errorf("event payload wrong: %+v", changed)
	}
}

func TestTransitionBlockedByMissingDocument(t *testing.T) {
	counts := allIntakeDocs()
	delete(counts, registry.DocCVResume)

	studentID := uuid.New()
	repo := &fakeRepo{student: repository.Student{ID: studentID, CurrentPhase: registry.PhaseIntake}}
	bus := &captureBus{}
	svc := newService(repo, &fakeDocs{counts: counts}, bus, true)

	req := transport.PhaseChangeRequest{CurrentPhase: string(registry.PhaseShortlist)}

	for attempt := 0; attempt < 2; attempt++ {
		_, err := svc.Transition(context.Background(), studentID, uuid.New(), req)
		if apperr.GetKind(err) != apperr.KindValidation {
			t.Fatalf("attempt %d: want validation error, got %v", attempt, err)
		}
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			t.Fatalf("attempt %d: error is not an app error", attempt)
		}
		details, ok := appErr.Details.(transport.MissingDocumentsDetails)
		if !ok {
			t.Fatalf("attempt %d: details are %T", attempt, appErr.Details)
		}
		if len(details.MissingDocuments) != 1 || details.MissingDocuments[0].Type != registry.DocCVResume {
			t.Errorf("attempt %d: missing = %v, want [CV_RESUME]", attempt, details.MissingDocuments)
		}
	}

	if len(repo.applied) != 0 {
		t.Error("failed gate must not persist anything")
	}
	if len(bus.published) != 0 {
		t.Error("failed gate must not publish events")
	}
}

func TestLeavingIntakeChecksIntakeSetFirst(t *testing.T) {
	// Offers only requires an English test score; leaving intake must still
	// demand the full intake set.
	counts := map[registry.DocumentType]int{registry.DocEnglishTestScore: 1}
	studentID := uuid.New()
	repo := &fakeRepo{student: repository.Student{
		ID:           studentID,
		CurrentPhase: registry.PhaseIntake,
		SideData: encodedEnvelope(t, func(env *sidedata.Envelope) {
			_ = env.Merge(sidedata.KindShortlist, sidedata.UniversityList{UniversityIDs: []string{"u1"}})
		}),
	}}
	svc := newService(repo, &fakeDocs{counts: counts}, &captureBus{}, true)

	_, err := svc.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase: string(registry.PhaseOffers),
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("want validation error from intake gate, got %v", err)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatal("error is not an app error")
	}
	details, ok := appErr.Details.(transport.MissingDocumentsDetails)
	if !ok {
		t.Fatalf("details are %T", appErr.Details)
	}
	if details.Phase != string(registry.PhaseIntake) {
		t.Errorf("gate failure attributed to %s, want intake", details.Phase)
	}
}

func TestTransitionCountryNotTargeted(t *testing.T) {
	studentID := uuid.New()
	repo := &fakeRepo{student: repository.Student{
		ID:              studentID,
		CurrentPhase:    registry.PhaseShortlist,
		TargetCountries: []string{"UK", "Canada"},
	}}
	svc := newService(repo, &fakeDocs{counts: allIntakeDocs()}, &captureBus{}, true)

	_, err := svc.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase: string(registry.PhaseShortlist),
		Country:      "Australia",
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("untargeted country should be not found, got %v", err)
	}
	if repo.profileCalls != 0 {
		t.Error("profile must not be created for an untargeted country")
	}
}

func TestTransitionOnCountryProfile(t *testing.T) {
	studentID := uuid.New()
	profileID := uuid.New()
	counts := allIntakeDocs()
	counts[registry.DocEnglishTestScore] = 1

	repo := &fakeRepo{
		student: repository.Student{
			ID:              studentID,
			CurrentPhase:    registry.PhaseOffers, // global phase is further along
			TargetCountries: []string{"UK"},
		},
		profile: repository.CountryProfile{
			ID:           profileID,
			StudentID:    studentID,
			Country:      "UK",
			CurrentPhase: registry.PhaseIntake,
		},
	}
	svc := newService(repo, &fakeDocs{counts: counts}, &captureBus{}, true)

	resp, err := svc.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase: string(registry.PhaseShortlist),
		Country:      "UK",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.CountryProfileID == nil || *resp.CountryProfileID != profileID {
		t.Error("response should carry the country profile id")
	}
	if len(repo.applied) != 1 {
		t.Fatal("expected one committed transition")
	}
	applied := repo.applied[0]
	if applied.ProfileID != profileID || applied.Country != "UK" {
		t.Errorf("transition not routed to profile: %+v", applied)
	}
	if applied.PreviousPhase != registry.PhaseIntake {
		t.Errorf("previous phase should come from the profile, got %s", applied.PreviousPhase)
	}
}

func TestRegressionPolicy(t *testing.T) {
	studentID := uuid.New()
	student := repository.Student{ID: studentID, CurrentPhase: registry.PhaseOffers}
	counts := allIntakeDocs()
	counts[registry.DocEnglishTestScore] = 1

	repoBlocked := &fakeRepo{student: student}
	blocked := newService(repoBlocked, &fakeDocs{counts: counts}, &captureBus{}, false)
	_, err := blocked.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase: string(registry.PhaseShortlist),
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("regression should be rejected when disallowed, got %v", err)
	}

	repoAllowed := &fakeRepo{student: student}
	allowed := newService(repoAllowed, &fakeDocs{counts: counts}, &captureBus{}, true)
	if _, err := allowed.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase: string(registry.PhaseShortlist),
	}); err != nil {
		t.Fatalf("regression should pass when allowed: %v", err)
	}
}

func TestSubmissionsMustBeSubsetOfShortlist(t *testing.T) {
	counts := allIntakeDocs()
	counts[registry.DocEnglishTestScore] = 1
	studentID := uuid.New()
	repo := &fakeRepo{student: repository.Student{
		ID:           studentID,
		CurrentPhase: registry.PhaseShortlist,
		SideData: encodedEnvelope(t, func(env *sidedata.Envelope) {
			_ = env.Merge(sidedata.KindShortlist, sidedata.UniversityList{UniversityIDs: []string{"u1", "u2"}})
		}),
	}}
	svc := newService(repo, &fakeDocs{counts: counts}, &captureBus{}, true)

	_, err := svc.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase:         string(registry.PhaseSubmission),
		SelectedUniversities: []string{"u1", "u9"},
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("out-of-shortlist selection should fail, got %v", err)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatal("error is not an app error")
	}
	details, ok := appErr.Details.(transport.InvalidSelectionDetails)
	if !ok {
		t.Fatalf("details are %T", appErr.Details)
	}
	if len(details.InvalidIDs) != 1 || details.InvalidIDs[0] != "u9" {
		t.Errorf("invalid ids = %v, want [u9]", details.InvalidIDs)
	}
}

func TestPaymentSelectionFallsBackThroughLists(t *testing.T) {
	// No offers payload recorded; payment selection validates against the
	// submissions list instead.
	counts := allIntakeDocs()
	counts[registry.DocOfferLetter] = 1
	studentID := uuid.New()
	repo := &fakeRepo{student: repository.Student{
		ID:           studentID,
		CurrentPhase: registry.PhaseOffers,
		SideData: encodedEnvelope(t, func(env *sidedata.Envelope) {
			_ = env.Merge(sidedata.KindShortlist, sidedata.UniversityList{UniversityIDs: []string{"u1", "u2", "u3"}})
			_ = env.Merge(sidedata.KindSubmissions, sidedata.UniversityList{UniversityIDs: []string{"u1", "u2"}})
		}),
	}}
	svc := newService(repo, &fakeDocs{counts: counts}, &captureBus{}, true)

	if _, err := svc.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase:       string(registry.PhaseInitialPayment),
		SelectedUniversity: "u2",
	}); err != nil {
		t.Fatalf("selection within submissions should pass: %v", err)
	}

	repo.applied = nil
	_, err := svc.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase:       string(registry.PhaseInitialPayment),
		SelectedUniversity: "u3", // shortlisted but never submitted
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("selection outside submissions should fail, got %v", err)
	}
}

func TestInterviewStatusEnum(t *testing.T) {
	counts := allIntakeDocs()
	counts[registry.DocOfferLetter] = 1
	counts[registry.DocPaymentReceipt] = 1
	studentID := uuid.New()
	repo := &fakeRepo{student: repository.Student{ID: studentID, CurrentPhase: registry.PhaseInitialPayment}}
	svc := newService(repo, &fakeDocs{counts: counts}, &captureBus{}, true)

	_, err := svc.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase:    string(registry.PhaseInterview),
		InterviewStatus: "PASSED",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("invalid status should fail, got %v", err)
	}

	if _, err := svc.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase:    string(registry.PhaseInterview),
		InterviewStatus: sidedata.StatusApproved,
	}); err != nil {
		t.Fatalf("valid status should pass: %v", err)
	}
}

func TestCorruptSideDataBlocksTransition(t *testing.T) {
	studentID := uuid.New()
	repo := &fakeRepo{student: repository.Student{
		ID:           studentID,
		CurrentPhase: registry.PhaseShortlist,
		SideData:     []byte(`{"legacy":"blob"}`),
	}}
	svc := newService(repo, &fakeDocs{counts: allIntakeDocs()}, &captureBus{}, true)

	_, err := svc.Transition(context.Background(), studentID, uuid.New(), transport.PhaseChangeRequest{
		CurrentPhase: string(registry.PhaseShortlist),
	})
	if apperr.GetKind(err) != apperr.KindInternal {
		t.Fatalf("corrupt side data should fail loudly, got %v", err)
	}
	if len(repo.applied) != 0 {
		t.Error("nothing may be persisted when side data is corrupt")
	}
}

func TestPreviewGate(t *testing.T) {
	counts := allIntakeDocs()
	delete(counts, registry.DocStatementOfPurpose)
	studentID := uuid.New()
	repo := &fakeRepo{student: repository.Student{ID: studentID, CurrentPhase: registry.PhaseIntake}}
	svc := newService(repo, &fakeDocs{counts: counts}, &captureBus{}, true)

	preview, err := svc.PreviewGate(context.Background(), studentID, "university_shortlist")
	if err != nil {
		t.Fatal(err)
	}
	if !preview.Satisfied {
		t.Error("shortlist gate should be satisfied")
	}

	preview, err = svc.PreviewGate(context.Background(), studentID, string(registry.PhaseIntake))
	if err != nil {
		t.Fatal(err)
	}
	if preview.Satisfied {
		t.Error("intake gate should not be satisfied")
	}
	if len(preview.MissingDocuments) != 1 || preview.MissingDocuments[0].Type != registry.DocStatementOfPurpose {
		t.Errorf("missing = %v, want [STATEMENT_OF_PURPOSE]", preview.MissingDocuments)
	}
}
