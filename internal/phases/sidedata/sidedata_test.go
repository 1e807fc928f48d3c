package sidedata

import (
	"testing"

	"admissions_portal_backend/internal/phases/registry"
	"admissions_portal_backend/platform/apperr"
)

func TestParseEmptyYieldsFreshEnvelope(t *testing.T) {
	env, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error: %v", err)
	}
	if env.Version != envelopeVersion {
		t.Errorf("version = %d, want %d", env.Version, envelopeVersion)
	}
	if len(env.Entries) != 0 {
		t.Errorf("fresh envelope should have no entries, got %d", len(env.Entries))
	}
}

func TestParseCorruptFailsLoudly(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	if err == nil {
		t.Fatal("corrupt input should fail")
	}
	if apperr.GetKind(err) != apperr.KindInternal {
		t.Errorf("corruption should be an internal error, got kind %v", apperr.GetKind(err))
	}
}

func TestParseForeignDocumentFailsLoudly(t *testing.T) {
	// Valid JSON, but not an envelope. The old free-form blob must not be
	// silently reinterpreted as empty.
	_, err := Parse([]byte(`{"notes":"call student on friday"}`))
	if err == nil {
		t.Fatal("non-envelope document should fail")
	}
	if apperr.GetKind(err) != apperr.KindInternal {
		t.Errorf("got kind %v, want internal", apperr.GetKind(err))
	}
}

func TestMergePreservesOtherEntries(t *testing.T) {
	env := NewEnvelope()
	if err := env.Merge(KindShortlist, UniversityList{UniversityIDs: []string{"u1", "u2"}}); err != nil {
		t.Fatal(err)
	}
	if err := env.Merge(KindSubmissions, UniversityList{UniversityIDs: []string{"u1"}}); err != nil {
		t.Fatal(err)
	}

	encoded, err := env.Encode()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := Parse(encoded)
	if err != nil {
		t.Fatal(err)
	}

	ids, ok, err := parsed.UniversityIDs(KindShortlist)
	if err != nil || !ok {
		t.Fatalf("shortlist entry lost after round trip (ok=%v err=%v)", ok, err)
	}
	if len(ids) != 2 {
		t.Errorf("shortlist ids = %v, want 2 entries", ids)
	}
	if ids, ok, _ := parsed.UniversityIDs(KindSubmissions); !ok || len(ids) != 1 {
		t.Errorf("submissions entry lost, ok=%v ids=%v", ok, ids)
	}
}

func TestMergeReplacesSlot(t *testing.T) {
	env := NewEnvelope()
	_ = env.Merge(KindShortlist, UniversityList{UniversityIDs: []string{"u1"}})
	_ = env.Merge(KindShortlist, UniversityList{UniversityIDs: []string{"u2", "u3"}})

	ids, _, err := env.UniversityIDs(KindShortlist)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "u2" {
		t.Errorf("merge should replace the slot, got %v", ids)
	}
}

func TestGetMissingEntry(t *testing.T) {
	env := NewEnvelope()
	var status StatusValue
	ok, err := env.Get(KindVisa, &status)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("missing entry should report ok=false")
	}
}

func TestKindForPhase(t *testing.T) {
	if _, ok := KindForPhase(registry.PhaseIntake); ok {
		t.Error("intake carries no payload")
	}
	if _, ok := KindForPhase(registry.PhaseEnrollment); ok {
		t.Error("enrollment carries no payload")
	}
	if k, ok := KindForPhase(registry.PhaseInitialPayment); !ok || k != KindPayment {
		t.Errorf("initial payment slot = %v (ok=%v), want %v", k, ok, KindPayment)
	}
}

func TestStatusAndFinancingEnums(t *testing.T) {
	for _, s := range []string{StatusApproved, StatusRefused, StatusStopped} {
		if !IsValidStatus(s) {
			t.Errorf("%s should be a valid status", s)
		}
	}
	if IsValidStatus("approved") || IsValidStatus("DONE") {
		t.Error("invalid status accepted")
	}
	for _, o := range []string{FinancingLoan, FinancingSelfAmount, FinancingOthers} {
		if !IsValidFinancingOption(o) {
			t.Errorf("%s should be a valid financing option", o)
		}
	}
	if IsValidFinancingOption("CASH") {
		t.Error("invalid financing option accepted")
	}
}
