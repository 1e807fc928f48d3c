// Package gate implements the document gate: the check that a phase's
// required document types are present in an acceptable status before a
// student may advance.
package gate

import (
	"context"

	"admissions_portal_backend/internal/phases/registry"

	"github.com/google/uuid"
)

// DocumentSource answers which qualifying documents a student has. Qualifying
// means status PENDING or APPROVED; rejected, expired, and under-review
// documents never satisfy a requirement.
type DocumentSource interface {
	CountQualifyingDocuments(ctx context.Context, studentID uuid.UUID, types []registry.DocumentType) (map[registry.DocumentType]int, error)
}

// MissingDocument describes one unsatisfied requirement.
type MissingDocument struct {
	Type        registry.DocumentType `json:"type"`
	Description string              `json:"description"`
}

// Gate evaluates required-document sets against a student's uploads.
type Gate struct {
	docs DocumentSource
}

// New creates a document gate over the given source.
func New(docs DocumentSource) *Gate {
	return &Gate{docs: docs}
}

// Evaluate returns the required types for which the student has no qualifying
// document, in requirement order. An empty result means the gate passes.
func (g *Gate) Evaluate(ctx context.Context, studentID uuid.UUID, required []registry.DocumentType) ([]MissingDocument, error) {
	if len(required) == 0 {
		return nil, nil
	}

	counts, err := g.docs.CountQualifyingDocuments(ctx, studentID, required)
	if err != nil {
		return nil, err
	}

	var missing []MissingDocument
	for _, t := range required {
		if counts[t] == 0 {
			missing = append(missing, MissingDocument{
				Type:        t,
				Description: registry.DescribeDocument(t),
			})
		}
	}
	return missing, nil
}
