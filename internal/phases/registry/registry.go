// Package registry defines the application phase registry: the fixed table of
// phases a student moves through, the document types each phase requires, and
// the kind of side data each phase may carry. The table is fixed at
// compile time; it is not user-configurable.
package registry

// Phase is a named stage in a student's application journey, tracked globally
// on the student and independently per target country.
type Phase string

const (
	PhaseIntake         Phase = "INTAKE"
	PhaseShortlist      Phase = "UNIVERSITY_SHORTLIST"
	PhaseSubmission     Phase = "APPLICATION_SUBMISSION"
	PhaseOffers         Phase = "OFFERS_RECEIVED"
	PhaseInitialPayment Phase = "INITIAL_PAYMENT"
	PhaseInterview      Phase = "INTERVIEW"
	PhaseCAS            Phase = "CAS_APPLICATION"
	PhaseVisa           Phase = "VISA_APPLICATION"
	PhaseFinancing      Phase = "FINANCIAL_PLANNING"
	PhaseEnrollment     Phase = "ENROLLMENT"
)

// DocumentType identifies a required-document kind.
type DocumentType string

const (
	DocPassport             DocumentType = "PASSPORT"
	DocAcademicTranscript   DocumentType = "ACADEMIC_TRANSCRIPT"
	DocRecommendationLetter DocumentType = "RECOMMENDATION_LETTER"
	DocStatementOfPurpose   DocumentType = "STATEMENT_OF_PURPOSE"
	DocCVResume             DocumentType = "CV_RESUME"
	DocEnglishTestScore     DocumentType = "ENGLISH_TEST_SCORE"
	DocOfferLetter          DocumentType = "OFFER_LETTER"
	DocPaymentReceipt       DocumentType = "PAYMENT_RECEIPT"
	DocBankStatement        DocumentType = "BANK_STATEMENT"
	DocCASLetter            DocumentType = "CAS_LETTER"
)

// DocumentStatus is the review state of an uploaded document. Only Pending
// and Approved documents satisfy a phase requirement.
type DocumentStatus string

const (
	DocStatusPending     DocumentStatus = "PENDING"
	DocStatusApproved    DocumentStatus = "APPROVED"
	DocStatusRejected    DocumentStatus = "REJECTED"
	DocStatusExpired     DocumentStatus = "EXPIRED"
	DocStatusUnderReview DocumentStatus = "UNDER_REVIEW"
)

// QualifyingStatuses are the document statuses that count toward a phase's
// required-document set.
var QualifyingStatuses = []DocumentStatus{DocStatusPending, DocStatusApproved}

// ordered is the canonical phase ordering, used only by the regression policy.
// The document gates, not this ordering, decide whether a jump is allowed.
var ordered = []Phase{
	PhaseIntake,
	PhaseShortlist,
	PhaseSubmission,
	PhaseOffers,
	PhaseInitialPayment,
	PhaseInterview,
	PhaseCAS,
	PhaseVisa,
	PhaseFinancing,
	PhaseEnrollment,
}

var displayNames = map[Phase]string{
	PhaseIntake:         "Intake",
	PhaseShortlist:      "University Shortlist",
	PhaseSubmission:     "Application Submission",
	PhaseOffers:         "Offers Received",
	PhaseInitialPayment: "Initial Payment",
	PhaseInterview:      "Interview",
	PhaseCAS:            "CAS Application",
	PhaseVisa:           "Visa Application",
	PhaseFinancing:      "Financial Planning",
	PhaseEnrollment:     "Enrollment",
}

// requiredDocuments maps each phase to its ordered required-document set.
var requiredDocuments = map[Phase][]DocumentType{
	PhaseIntake: {
		DocPassport,
		DocAcademicTranscript,
		DocRecommendationLetter,
		DocStatementOfPurpose,
		DocCVResume,
	},
	PhaseShortlist: {
		DocPassport,
		DocAcademicTranscript,
	},
	PhaseSubmission: {
		DocPassport,
		DocAcademicTranscript,
		DocStatementOfPurpose,
		DocEnglishTestScore,
	},
	PhaseOffers: {
		DocEnglishTestScore,
	},
	PhaseInitialPayment: {
		DocOfferLetter,
	},
	PhaseInterview: {
		DocOfferLetter,
		DocPaymentReceipt,
	},
	PhaseCAS: {
		DocPaymentReceipt,
		DocBankStatement,
	},
	PhaseVisa: {
		DocPassport,
		DocCASLetter,
		DocBankStatement,
	},
	PhaseFinancing: {
		DocBankStatement,
	},
	PhaseEnrollment: {},
}

var documentDescriptions = map[DocumentType]string{
	DocPassport:             "Valid passport (photo page)",
	DocAcademicTranscript:   "Academic transcripts and mark sheets",
	DocRecommendationLetter: "Letter of recommendation",
	DocStatementOfPurpose:   "Statement of purpose",
	DocCVResume:             "Curriculum vitae / resume",
	DocEnglishTestScore:     "English proficiency test score report",
	DocOfferLetter:          "University offer letter",
	DocPaymentReceipt:       "Initial payment receipt",
	DocBankStatement:        "Bank statement / proof of funds",
	DocCASLetter:            "CAS letter",
}

// IsValid reports whether p names a known phase.
func (p Phase) IsValid() bool {
	_, ok := displayNames[p]
	return ok
}

// DisplayName returns the human-readable name of the phase.
func (p Phase) DisplayName() string {
	if name, ok := displayNames[p]; ok {
		return name
	}
	return string(p)
}

// Index returns the position of the phase in the canonical ordering, or -1
// for an unknown phase.
func (p Phase) Index() int {
	for i, candidate := range ordered {
		if candidate == p {
			return i
		}
	}
	return -1
}

// All returns the phases in canonical order.
func All() []Phase {
	out := make([]Phase, len(ordered))
	copy(out, ordered)
	return out
}

// RequiredDocuments returns the ordered required-document set for the phase.
// Unknown phases have no requirements.
func RequiredDocuments(p Phase) []DocumentType {
	docs := requiredDocuments[p]
	out := make([]DocumentType, len(docs))
	copy(out, docs)
	return out
}

// DescribeDocument returns the human-readable description of a document type.
func DescribeDocument(t DocumentType) string {
	if desc, ok := documentDescriptions[t]; ok {
		return desc
	}
	return string(t)
}

// IsValidDocumentType reports whether t names a known document type.
func IsValidDocumentType(t DocumentType) bool {
	_, ok := documentDescriptions[t]
	return ok
}
