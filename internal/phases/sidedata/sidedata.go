// Package sidedata stores the phase-specific payloads that accompany a phase
// change (university shortlist, submitted applications, offers, payment
// selection, interview/CAS/visa status, financing choice) in a typed,
// versioned envelope on the owning entity. The envelope replaces the
// free-form notes blob of earlier iterations: corruption fails loudly
// instead of silently resetting the document.
package sidedata

import (
	"encoding/json"
	"fmt"

	"admissions_portal_backend/internal/phases/registry"
	"admissions_portal_backend/platform/apperr"
)

// Kind names a side-data payload slot in the envelope.
type Kind string

const (
	KindShortlist   Kind = "shortlist"
	KindSubmissions Kind = "submissions"
	KindOffers      Kind = "offers"
	KindPayment     Kind = "payment"
	KindInterview   Kind = "interview"
	KindCAS         Kind = "cas"
	KindVisa        Kind = "visa"
	KindFinancing   Kind = "financing"
)

// envelopeVersion is bumped when the envelope layout changes.
const envelopeVersion = 1

// kindForPhase maps each phase to the payload slot its transition request may
// carry. Phases absent from the map accept no payload.
var kindForPhase = map[registry.Phase]Kind{
	registry.PhaseShortlist:      KindShortlist,
	registry.PhaseSubmission:     KindSubmissions,
	registry.PhaseOffers:         KindOffers,
	registry.PhaseInitialPayment: KindPayment,
	registry.PhaseInterview:      KindInterview,
	registry.PhaseCAS:            KindCAS,
	registry.PhaseVisa:           KindVisa,
	registry.PhaseFinancing:      KindFinancing,
}

// KindForPhase returns the side-data slot for the phase, if any.
func KindForPhase(p registry.Phase) (Kind, bool) {
	k, ok := kindForPhase[p]
	return k, ok
}

// UniversityList is the payload for shortlist, submission, and offer slots.
type UniversityList struct {
	UniversityIDs []string `json:"universityIds"`
}

// UniversityChoice is the payload for the initial-payment slot.
type UniversityChoice struct {
	UniversityID string `json:"universityId"`
}

// StatusValue is the payload for interview, CAS, and visa slots.
type StatusValue struct {
	Status string `json:"status"`
}

// FinancingChoice is the payload for the financing slot.
type FinancingChoice struct {
	Option string `json:"option"`
}

// Valid status values for interview/CAS/visa payloads.
const (
	StatusApproved = "APPROVED"
	StatusRefused  = "REFUSED"
	StatusStopped  = "STOPPED"
)

// Valid financing options.
const (
	FinancingLoan       = "LOAN"
	FinancingSelfAmount = "SELF_AMOUNT"
	FinancingOthers     = "OTHERS"
)

// IsValidStatus reports whether s is an accepted status value.
func IsValidStatus(s string) bool {
	return s == StatusApproved || s == StatusRefused || s == StatusStopped
}

// IsValidFinancingOption reports whether s is an accepted financing option.
func IsValidFinancingOption(s string) bool {
	return s == FinancingLoan || s == FinancingSelfAmount || s == FinancingOthers
}

// Envelope is the per-entity side-data document. Merges replace a single slot
// and leave every other slot untouched.
type Envelope struct {
	Version int                      `json:"version"`
	Entries map[Kind]json.RawMessage `json:"entries"`
}

// NewEnvelope returns an empty envelope at the current version.
func NewEnvelope() Envelope {
	return Envelope{Version: envelopeVersion, Entries: map[Kind]json.RawMessage{}}
}

// Parse decodes a stored envelope. Empty input yields a fresh envelope; any
// other parse failure is an internal error so corruption surfaces instead of
// quietly dropping previously stored slots.
func Parse(raw []byte) (Envelope, error) {
	if len(raw) == 0 {
		return NewEnvelope(), nil
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, apperr.Wrap(apperr.KindInternal, "side data document is corrupt", err)
	}
	if env.Version == 0 && env.Entries == nil {
		// Stored value decoded but carries none of the envelope fields:
		// treat as corruption, not as an empty document.
		return Envelope{}, apperr.Internal("side data document has no recognizable envelope")
	}
	if env.Entries == nil {
		env.Entries = map[Kind]json.RawMessage{}
	}
	return env, nil
}

// Merge stores payload under kind, preserving all other entries.
func (e *Envelope) Merge(kind Kind, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, fmt.Sprintf("encode %s payload", kind), err)
	}
	if e.Entries == nil {
		e.Entries = map[Kind]json.RawMessage{}
	}
	e.Entries[kind] = data
	e.Version = envelopeVersion
	return nil
}

// Get decodes the entry stored under kind into out, reporting whether the
// entry exists.
func (e Envelope) Get(kind Kind, out interface{}) (bool, error) {
	raw, ok := e.Entries[kind]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, apperr.Wrap(apperr.KindInternal, fmt.Sprintf("decode %s payload", kind), err)
	}
	return true, nil
}

// UniversityIDs returns the university ids stored under kind, if present.
func (e Envelope) UniversityIDs(kind Kind) ([]string, bool, error) {
	var list UniversityList
	ok, err := e.Get(kind, &list)
	if err != nil || !ok {
		return nil, ok, err
	}
	return list.UniversityIDs, true, nil
}

// Encode serializes the envelope for storage.
func (e Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "encode side data envelope", err)
	}
	return data, nil
}
