// Package service imports telecaller call lists from CSV.
package service

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"admissions_portal_backend/internal/calllists/repository"
	"admissions_portal_backend/platform/apperr"
	"admissions_portal_backend/platform/logger"
	"admissions_portal_backend/platform/phone"

	"github.com/google/uuid"
)

// maxImportRows bounds one upload.
const maxImportRows = 10000

// ImportResult summarizes one CSV import.
type ImportResult struct {
	BatchName string   `json:"batchName"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Service implements call-list use cases.
type Service struct {
	repo               repository.Repository
	log                *logger.Logger
	defaultPhoneRegion string
}

// New creates the call-list service.
func New(repo repository.Repository, log *logger.Logger, defaultPhoneRegion string) *Service {
	return &Service{repo: repo, log: log, defaultPhoneRegion: defaultPhoneRegion}
}

// ImportCSV parses a name,phone CSV (header row required) and inserts the
// valid rows as one batch. Rows without a usable phone are skipped and
// reported, not fatal.
func (s *Service) ImportCSV(ctx context.Context, batchName string, actorID uuid.UUID, r io.Reader) (ImportResult, error) {
	batchName = strings.TrimSpace(batchName)
	if batchName == "" {
		return ImportResult{}, apperr.Validation("batch name is required")
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, apperr.Validation("CSV is empty or unreadable")
	}
	nameIdx, phoneIdx := columnIndexes(header)
	if phoneIdx < 0 {
		return ImportResult{}, apperr.Validation("CSV must have a phone column")
	}

	result := ImportResult{BatchName: batchName}
	var entries []repository.Entry
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, rowError(line, "unparseable row"))
			continue
		}
		if len(entries) >= maxImportRows {
			return ImportResult{}, apperr.Validation("CSV exceeds the import limit")
		}

		rawPhone := ""
		if phoneIdx < len(record) {
			rawPhone = strings.TrimSpace(record[phoneIdx])
		}
		if rawPhone == "" {
			result.Skipped++
			result.Errors = append(result.Errors, rowError(line, "missing phone"))
			continue
		}

		name := ""
		if nameIdx >= 0 && nameIdx < len(record) {
			name = strings.TrimSpace(record[nameIdx])
		}

		entries = append(entries, repository.Entry{
			BatchName:  batchName,
			Name:       name,
			Phone:      phone.NormalizeE164(rawPhone, s.defaultPhoneRegion),
			ImportedBy: actorID,
		})
	}

	if len(entries) == 0 {
		return ImportResult{}, apperr.Validation("CSV contains no importable rows")
	}

	inserted, err := s.repo.InsertEntries(ctx, entries)
	if err != nil {
		return ImportResult{}, err
	}
	result.Imported = inserted
	result.Skipped += len(entries) - inserted

	s.log.Info("call list imported",
		"batch", batchName, "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

// ListBatch returns a page of a batch's entries.
func (s *Service) ListBatch(ctx context.Context, batchName string, page, pageSize int) ([]repository.Entry, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.repo.ListByBatch(ctx, batchName, page, pageSize)
}

func columnIndexes(header []string) (nameIdx, phoneIdx int) {
	nameIdx, phoneIdx = -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name", "full_name", "fullname":
			nameIdx = i
		case "phone", "phone_number", "mobile", "contact":
			phoneIdx = i
		}
	}
	return nameIdx, phoneIdx
}

func rowError(line int, msg string) string {
	return "line " + strconv.Itoa(line) + ": " + msg
}
