package gate

import (
	"context"
	"errors"
	"testing"

	"admissions_portal_backend/internal/phases/registry"

	"github.com/google/uuid"
)

type fakeDocs struct {
	counts map[registry.DocumentType]int
	err    error
}

func (f *fakeDocs) CountQualifyingDocuments(_ context.Context, _ uuid.UUID, _ []registry.DocumentType) (map[registry.DocumentType]int, error) {
	return f.counts, f.err
}

func TestEvaluateAllPresent(t *testing.T) {
	g := New(&fakeDocs{counts: map[registry.DocumentType]int{
		registry.DocPassport:           1,
		registry.DocAcademicTranscript: 2,
	}})

	missing, err := g.Evaluate(context.Background(), uuid.New(), []registry.DocumentType{
		registry.DocPassport, registry.DocAcademicTranscript,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 0 {
		t.Errorf("expected gate to pass, missing %v", missing)
	}
}

func TestEvaluateReportsMissingInOrder(t *testing.T) {
	g := New(&fakeDocs{counts: map[registry.DocumentType]int{
		registry.DocAcademicTranscript: 1,
	}})

	missing, err := g.Evaluate(context.Background(), uuid.New(), []registry.DocumentType{
		registry.DocPassport, registry.DocAcademicTranscript, registry.DocCVResume,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 2 {
		t.Fatalf("missing = %v, want 2 entries", missing)
	}
	if missing[0].Type != registry.DocPassport || missing[1].Type != registry.DocCVResume {
		t.Errorf("missing order = %v, want [PASSPORT CV_RESUME]", missing)
	}
	if missing[0].Description == "" {
		t.Error("missing entries should carry a description")
	}
}

func TestEvaluateNoRequirementsSkipsSource(t *testing.T) {
	g := New(&fakeDocs{err: errors.New("should not be called")})
	missing, err := g.Evaluate(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("empty requirement set must not hit the source: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
}

func TestEvaluatePropagatesSourceError(t *testing.T) {
	g := New(&fakeDocs{err: errors.New("db down")})
	_, err := g.Evaluate(context.Background(), uuid.New(), []registry.DocumentType{registry.DocPassport})
	if err == nil {
		t.Fatal("source error should propagate")
	}
}
