package registry

import "testing"

func TestPhaseOrdering(t *testing.T) {
	all := All()
	if len(all) != 10 {
		t.Fatalf("expected 10 phases, got %d", len(all))
	}
	if all[0] != PhaseIntake {
		t.Errorf("first phase = %s, want %s", all[0], PhaseIntake)
	}
	if all[len(all)-1] != PhaseEnrollment {
		t.Errorf("last phase = %s, want %s", all[len(all)-1], PhaseEnrollment)
	}
	for i, p := range all {
		if p.Index() != i {
			t.Errorf("phase %s index = %d, want %d", p, p.Index(), i)
		}
	}
}

func TestPhaseIsValid(t *testing.T) {
	for _, p := range All() {
		if !p.IsValid() {
			t.Errorf("phase %s should be valid", p)
		}
	}
	if Phase("NOT_A_PHASE").IsValid() {
		t.Error("unknown phase should be invalid")
	}
	if Phase("intake").IsValid() {
		t.Error("phase names are case sensitive")
	}
}

func TestIntakeRequiredDocuments(t *testing.T) {
	want := []DocumentType{
		DocPassport,
		DocAcademicTranscript,
		DocRecommendationLetter,
		DocStatementOfPurpose,
		DocCVResume,
	}
	got := RequiredDocuments(PhaseIntake)
	if len(got) != len(want) {
		t.Fatalf("intake requires %d documents, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("intake document[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEnrollmentHasNoRequirements(t *testing.T) {
	if got := RequiredDocuments(PhaseEnrollment); len(got) != 0 {
		t.Errorf("enrollment should require no documents, got %v", got)
	}
}

func TestRequiredDocumentsReturnsCopy(t *testing.T) {
	first := RequiredDocuments(PhaseIntake)
	first[0] = DocCASLetter
	second := RequiredDocuments(PhaseIntake)
	if second[0] != DocPassport {
		t.Error("mutating the returned slice must not affect the registry")
	}
}

func TestDescribeDocument(t *testing.T) {
	if desc := DescribeDocument(DocCVResume); desc == "" || desc == string(DocCVResume) {
		t.Errorf("CV_RESUME should have a human description, got %q", desc)
	}
	if desc := DescribeDocument(DocumentType("MYSTERY")); desc != "MYSTERY" {
		t.Errorf("unknown type falls back to its name, got %q", desc)
	}
}
