// Package repository persists students and their document records.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admissions_portal_backend/internal/phases/registry"
	"admissions_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Student is the full lead record.
type Student struct {
	ID               uuid.UUID
	FullName         string
	Email            *string
	Phone            *string
	Source           *string
	CurrentPhase     registry.Phase
	TargetCountries  []string
	CounselorID      *uuid.UUID
	MarketingOwnerID *uuid.UUID
	SideData         []byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Document is one tracked document record for a student.
type Document struct {
	ID        uuid.UUID
	StudentID uuid.UUID
	Type      registry.DocumentType
	Status    registry.DocumentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter narrows a student listing.
type ListFilter struct {
	CounselorID *uuid.UUID
	Page        int
	PageSize    int
}

// Repository is the persistence contract for the students module.
type Repository interface {
	Create(ctx context.Context, s *Student) error
	GetByID(ctx context.Context, id uuid.UUID) (Student, error)
	List(ctx context.Context, f ListFilter) ([]Student, int, error)
	AddDocument(ctx context.Context, d *Document) error
	ListDocuments(ctx context.Context, studentID uuid.UUID) ([]Document, error)
	UpdateDocumentStatus(ctx context.Context, documentID uuid.UUID, status registry.DocumentStatus) (Document, error)
	CountQualifyingDocuments(ctx context.Context, studentID uuid.UUID, types []registry.DocumentType) (map[registry.DocumentType]int, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new students repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const studentColumns = `id, full_name, email, phone, source, current_phase, target_countries, counselor_id, marketing_owner_id, side_data, created_at, updated_at`

func scanStudent(row pgx.Row) (Student, error) {
	var s Student
	err := row.Scan(
		&s.ID, &s.FullName, &s.Email, &s.Phone, &s.Source, &s.CurrentPhase,
		&s.TargetCountries, &s.CounselorID, &s.MarketingOwnerID, &s.SideData,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// Create inserts a new student and fills in the generated fields.
func (r *Repo) Create(ctx context.Context, s *Student) error {
	query := `
		INSERT INTO students (full_name, email, phone, source, current_phase, target_countries, counselor_id, marketing_owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		s.FullName, s.Email, s.Phone, s.Source, s.CurrentPhase,
		s.TargetCountries, s.CounselorID, s.MarketingOwnerID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// GetByID loads one student.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	s, err := scanStudent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, apperr.NotFound("student not found")
		}
		return Student{}, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

// List returns a page of students, optionally restricted to one counselor.
func (r *Repo) List(ctx context.Context, f ListFilter) ([]Student, int, error) {
	where := ""
	args := []interface{}{}
	if f.CounselorID != nil {
		where = "WHERE counselor_id = $1"
		args = append(args, *f.CounselorID)
	}

	var total int
	countQuery := "SELECT count(*) FROM students " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	offset := (f.Page - 1) * f.PageSize
	listQuery := fmt.Sprintf(
		"SELECT %s FROM students %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		studentColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, f.PageSize, offset)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate students: %w", err)
	}
	return students, total, nil
}

// AddDocument records a document for a student.
func (r *Repo) AddDocument(ctx context.Context, d *Document) error {
	query := `
		INSERT INTO documents (student_id, type, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, d.StudentID, d.Type, d.Status).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// ListDocuments returns all document records for a student, newest first.
func (r *Repo) ListDocuments(ctx context.Context, studentID uuid.UUID) ([]Document, error) {
	query := `
		SELECT id, student_id, type, status, created_at, updated_at
		FROM documents
		WHERE student_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.StudentID, &d.Type, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// UpdateDocumentStatus changes one document's review status.
func (r *Repo) UpdateDocumentStatus(ctx context.Context, documentID uuid.UUID, status registry.DocumentStatus) (Document, error) {
	query := `
		UPDATE documents
		SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING id, student_id, type, status, created_at, updated_at`

	var d Document
	err := r.pool.QueryRow(ctx, query, status, documentID).
		Scan(&d.ID, &d.StudentID, &d.Type, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, apperr.NotFound("document not found")
		}
		return Document{}, fmt.Errorf("update document status: %w", err)
	}
	return d, nil
}

// CountQualifyingDocuments reports, per requested type, how many of the
// student's documents are in a status that satisfies a phase requirement.
func (r *Repo) CountQualifyingDocuments(ctx context.Context, studentID uuid.UUID, types []registry.DocumentType) (map[registry.DocumentType]int, error) {
	counts := make(map[registry.DocumentType]int, len(types))
	if len(types) == 0 {
		return counts, nil
	}

	query := `
		SELECT type, count(*)
		FROM documents
		WHERE student_id = $1
		  AND type = ANY($2)
		  AND status = ANY($3)
		GROUP BY type`

	typeNames := make([]string, len(types))
	for i, t := range types {
		typeNames[i] = string(t)
	}
	statusNames := make([]string, len(registry.QualifyingStatuses))
	for i, s := range registry.QualifyingStatuses {
		statusNames[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, query, studentID, typeNames, statusNames)
	if err != nil {
		return nil, fmt.Errorf("count qualifying documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t registry.DocumentType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan document count: %w", err)
		}
		counts[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document counts: %w", err)
	}
	return counts, nil
}
