package service

import (
	"context"
	"testing"
	"time"

	"admissions_portal_backend/internal/assignment/repository"
	"admissions_portal_backend/internal/events"
	"admissions_portal_backend/platform/apperr"
	"admissions_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	users    map[uuid.UUID]repository.User
	students map[uuid.UUID]*repository.StudentRef
	shares   map[uuid.UUID]*repository.SharedLead
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[uuid.UUID]repository.User),
		students: make(map[uuid.UUID]*repository.StudentRef),
		shares:   make(map[uuid.UUID]*repository.SharedLead),
	}
}

func (f *fakeRepo) addUser(name string) uuid.UUID {
	id := uuid.New()
	f.users[id] = repository.User{ID: id, FullName: name, Email: name + "@portal.test", Role: "counselor"}
	return id
}

func (f *fakeRepo) addStudent(name string, counselorID *uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.students[id] = &repository.StudentRef{ID: id, FullName: name, CounselorID: counselorID}
	return id
}

func (f *fakeRepo) GetUser(_ context.Context, id uuid.UUID) (repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, apperr.NotFound("counselor not found")
	}
	return u, nil
}

func (f *fakeRepo) GetStudentRef(_ context.Context, id uuid.UUID) (repository.StudentRef, error) {
	s, ok := f.students[id]
	if !ok {
		return repository.StudentRef{}, apperr.NotFound("student not found")
	}
	return *s, nil
}

func (f *fakeRepo) SetPendingCounselor(_ context.Context, studentID, counselorID, _ uuid.UUID) error {
	s, ok := f.students[studentID]
	if !ok {
		return apperr.NotFound("student not found")
	}
	s.PendingCounselorID = &counselorID
	return nil
}

func (f *fakeRepo) AcceptDirectAssignment(_ context.Context, studentID, counselorID uuid.UUID) (*uuid.UUID, error) {
	s, ok := f.students[studentID]
	if !ok {
		return nil, apperr.NotFound("student not found")
	}
	if s.PendingCounselorID == nil || *s.PendingCounselorID != counselorID {
		return nil, apperr.Validation("no pending assignment for this counselor")
	}
	previous := s.CounselorID
	s.CounselorID = &counselorID
	s.PendingCounselorID = nil
	return previous, nil
}

func (f *fakeRepo) CreateShare(_ context.Context, studentID, senderID, receiverID uuid.UUID) (repository.SharedLead, error) {
	for _, sl := range f.shares {
		if sl.StudentID == studentID && sl.Status == repository.ShareStatusPending {
			return repository.SharedLead{}, apperr.Validation("a pending share already exists for this lead")
		}
	}
	sl := &repository.SharedLead{
		ID:         uuid.New(),
		StudentID:  studentID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     repository.ShareStatusPending,
		CreatedAt:  time.Now(),
	}
	f.shares[sl.ID] = sl
	return *sl, nil
}

func (f *fakeRepo) GetShare(_ context.Context, id uuid.UUID) (repository.SharedLead, error) {
	sl, ok := f.shares[id]
	if !ok {
		return repository.SharedLead{}, apperr.NotFound("shared lead not found")
	}
	return *sl, nil
}

func (f *fakeRepo) ListPendingForReceiver(_ context.Context, receiverID uuid.UUID) ([]repository.SharedLead, error) {
	var out []repository.SharedLead
	for _, sl := range f.shares {
		if sl.ReceiverID == receiverID && sl.Status == repository.ShareStatusPending {
			out = append(out, *sl)
		}
	}
	return out, nil
}

func (f *fakeRepo) ResolveShare(_ context.Context, shareID uuid.UUID, accept bool) (repository.SharedLead, error) {
	sl, ok := f.shares[shareID]
	if !ok {
		return repository.SharedLead{}, apperr.NotFound("shared lead not found")
	}
	if sl.Status != repository.ShareStatusPending {
		return repository.SharedLead{}, apperr.NotFound("no pending share to resolve")
	}
	now := time.Now()
	sl.ResolvedAt = &now
	if accept {
		sl.Status = repository.ShareStatusAccepted
		f.students[sl.StudentID].CounselorID = &sl.ReceiverID
	} else {
		sl.Status = repository.ShareStatusRejected
	}
	return *sl, nil
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }
func (b *captureBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}
func (b *captureBus) Subscribe(string, events.Handler) {}

func (b *captureBus) names() []string {
	out := make([]string, len(b.published))
	for i, e := range b.published {
		out[i] = e.EventName()
	}
	return out
}

func newService(repo repository.Repository, bus events.Bus) *Service {
	return New(repo, bus, logger.New("development"))
}

func TestDirectAssignmentDoesNotChangeOwnership(t *testing.T) {
	repo := newFakeRepo()
	bus := &captureBus{}
	svc := newService(repo, bus)

	marketing := repo.addUser("Marketing")
	counselor := repo.addUser("Counselor A")
	owner := repo.addUser("Current Owner")
	studentID := repo.addStudent("Lead One", &owner)

	resp, err := svc.RequestDirectAssignment(context.Background(), studentID, counselor, marketing)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Accepted {
		t.Error("a request is not an acceptance")
	}

	student := repo.students[studentID]
	if student.CounselorID == nil || *student.CounselorID != owner {
		t.Error("request must not change ownership")
	}
	if student.PendingCounselorID == nil || *student.PendingCounselorID != counselor {
		t.Error("request should record the pending counselor")
	}
	if got := bus.names(); len(got) != 1 || got[0] != "assignment.requested" {
		t.Errorf("events = %v, want [assignment.requested]", got)
	}
}

func TestAcceptDirectAssignment(t *testing.T) {
	repo := newFakeRepo()
	bus := &captureBus{}
	svc := newService(repo, bus)

	marketing := repo.addUser("Marketing")
	counselor := repo.addUser("Counselor A")
	outsider := repo.addUser("Counselor B")
	studentID := repo.addStudent("Lead One", nil)

	if _, err := svc.RequestDirectAssignment(context.Background(), studentID, counselor, marketing); err != nil {
		t.Fatal(err)
	}

	// Only the offered counselor can accept.
	_, err := svc.AcceptDirectAssignment(context.Background(), studentID, outsider)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("outsider accept should fail, got %v", err)
	}

	resp, err := svc.AcceptDirectAssignment(context.Background(), studentID, counselor)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Accepted {
		t.Error("response should report acceptance")
	}
	student := repo.students[studentID]
	if student.CounselorID == nil || *student.CounselorID != counselor {
		t.Error("acceptance should transfer ownership")
	}
	if student.PendingCounselorID != nil {
		t.Error("pending counselor should be cleared")
	}

	// A second accept finds no pending assignment.
	if _, err := svc.AcceptDirectAssignment(context.Background(), studentID, counselor); apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("second accept should fail, got %v", err)
	}

	got := bus.names()
	if len(got) != 2 || got[1] != "assignment.lead.assigned" {
		t.Errorf("events = %v, want assignment.lead.assigned last", got)
	}
}

func TestShareLeadRejectsSelfShare(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &captureBus{})

	counselor := repo.addUser("Counselor A")
	studentID := repo.addStudent("Lead One", &counselor)

	_, err := svc.ShareLead(context.Background(), studentID, counselor, counselor)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("self share should be rejected, got %v", err)
	}
}

func TestShareLeadRequiresOwnership(t *testing.T) {
	repo := newFakeRepo()
	bus := &captureBus{}
	svc := newService(repo, bus)

	owner := repo.addUser("Counselor A")
	interloper := repo.addUser("Counselor B")
	receiver := repo.addUser("Counselor C")
	owned := repo.addStudent("Lead One", &owner)
	unowned := repo.addStudent("Lead Two", nil)

	// A counselor who does not own the lead cannot share it.
	_, err := svc.ShareLead(context.Background(), owned, interloper, receiver)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("share by non-owner should read as not found, got %v", err)
	}

	// Same for a lead that has no counselor yet.
	_, err = svc.ShareLead(context.Background(), unowned, interloper, receiver)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("share of an unassigned lead should read as not found, got %v", err)
	}

	if len(bus.published) != 0 {
		t.Errorf("no events should be published, got %v", bus.names())
	}

	// The owner can.
	if _, err := svc.ShareLead(context.Background(), owned, owner, receiver); err != nil {
		t.Fatalf("share by owner should succeed: %v", err)
	}
}

func TestShareLeadSinglePendingShare(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &captureBus{})

	sender := repo.addUser("Counselor A")
	receiver := repo.addUser("Counselor B")
	third := repo.addUser("Counselor C")
	studentID := repo.addStudent("Lead One", &sender)

	if _, err := svc.ShareLead(context.Background(), studentID, sender, receiver); err != nil {
		t.Fatal(err)
	}
	_, err := svc.ShareLead(context.Background(), studentID, sender, third)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("second pending share should fail, got %v", err)
	}
}

func TestAcceptShareTransfersOwnership(t *testing.T) {
	repo := newFakeRepo()
	bus := &captureBus{}
	svc := newService(repo, bus)

	sender := repo.addUser("Counselor A")
	receiver := repo.addUser("Counselor B")
	studentID := repo.addStudent("Lead One", &sender)

	share, err := svc.ShareLead(context.Background(), studentID, sender, receiver)
	if err != nil {
		t.Fatal(err)
	}

	// Only the receiver can resolve; to anyone else the share is invisible.
	if _, err := svc.AcceptShare(context.Background(), share.ID, sender); apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("sender resolution should read as not found, got %v", err)
	}

	resolved, err := svc.AcceptShare(context.Background(), share.ID, receiver)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Status != repository.ShareStatusAccepted {
		t.Errorf("status = %s, want accepted", resolved.Status)
	}
	if owner := repo.students[studentID].CounselorID; owner == nil || *owner != receiver {
		t.Error("acceptance should transfer ownership to the receiver")
	}

	// Terminal state: the pending share is gone, so a second resolution
	// finds nothing.
	if _, err := svc.RejectShare(context.Background(), share.ID, receiver); apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("resolving a resolved share should read as not found, got %v", err)
	}

	got := bus.names()
	if got[len(got)-1] != "assignment.lead.share_accepted" {
		t.Errorf("events = %v, want share_accepted last", got)
	}
}

func TestRejectShareKeepsOwnership(t *testing.T) {
	repo := newFakeRepo()
	bus := &captureBus{}
	svc := newService(repo, bus)

	sender := repo.addUser("Counselor A")
	receiver := repo.addUser("Counselor B")
	studentID := repo.addStudent("Lead One", &sender)

	share, err := svc.ShareLead(context.Background(), studentID, sender, receiver)
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := svc.RejectShare(context.Background(), share.ID, receiver)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Status != repository.ShareStatusRejected {
		t.Errorf("status = %s, want rejected", resolved.Status)
	}
	if owner := repo.students[studentID].CounselorID; owner == nil || *owner != sender {
		t.Error("rejection must leave ownership with the sender")
	}

	// A new share can be opened after rejection.
	if _, err := svc.ShareLead(context.Background(), studentID, sender, receiver); err != nil {
		t.Errorf("share after rejection should succeed: %v", err)
	}

	got := bus.names()
	if got[len(got)-2] != "assignment.lead.share_rejected" {
		t.Errorf("events = %v, want share_rejected before the reshare", got)
	}
}

func TestPendingSharesListsOnlyCallers(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &captureBus{})

	sender := repo.addUser("Counselor A")
	receiver := repo.addUser("Counselor B")
	other := repo.addUser("Counselor C")
	s1 := repo.addStudent("Lead One", &sender)
	s2 := repo.addStudent("Lead Two", &sender)

	if _, err := svc.ShareLead(context.Background(), s1, sender, receiver); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ShareLead(context.Background(), s2, sender, other); err != nil {
		t.Fatal(err)
	}

	shares, err := svc.PendingShares(context.Background(), receiver)
	if err != nil {
		t.Fatal(err)
	}
	if len(shares) != 1 || shares[0].StudentID != s1 {
		t.Errorf("shares = %+v, want only the share addressed to the caller", shares)
	}
}
