// Package repository persists phase state for students and country profiles.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"admissions_portal_backend/internal/phases/registry"
	"admissions_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const studentNotFoundMessage = "student not found"

// Student is the slice of the student aggregate the phase engine needs.
type Student struct {
	ID               uuid.UUID
	FullName         string
	CurrentPhase     registry.Phase
	CounselorID      *uuid.UUID
	MarketingOwnerID *uuid.UUID
	TargetCountries  []string
	SideData         []byte
	UpdatedAt        time.Time
}

// CountryProfile is the per-(student, country) phase tracking record.
type CountryProfile struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	Country      string
	CurrentPhase registry.Phase
	VisaStatus   *string
	SideData     []byte
	UpdatedAt    time.Time
}

// ApplyParams describes one committed phase transition. When Country is empty
// the student's global phase is updated, otherwise the named country profile.
type ApplyParams struct {
	StudentID     uuid.UUID
	ProfileID     uuid.UUID // zero when Country is empty
	Country       string
	PreviousPhase registry.Phase
	NewPhase      registry.Phase
	SideData      []byte
	Remarks       string
	ActorID       uuid.UUID
}

// ApplyResult reports the persisted state after a transition.
type ApplyResult struct {
	UpdatedAt time.Time
}

// Repository is the persistence contract the phase engine depends on.
type Repository interface {
	GetStudent(ctx context.Context, id uuid.UUID) (Student, error)
	GetOrCreateCountryProfile(ctx context.Context, studentID uuid.UUID, country string) (CountryProfile, error)
	ApplyTransition(ctx context.Context, p ApplyParams) (ApplyResult, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new phases repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetStudent loads the phase-relevant slice of a student.
func (r *Repo) GetStudent(ctx context.Context, id uuid.UUID) (Student, error) {
	query := `
		SELECT id, full_name, current_phase, counselor_id, marketing_owner_id, target_countries, side_data, updated_at
		FROM students
		WHERE id = $1`

	var s Student
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.FullName, &s.CurrentPhase, &s.CounselorID, &s.MarketingOwnerID, &s.TargetCountries, &s.SideData, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, apperr.NotFound(studentNotFoundMessage)
		}
		return Student{}, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

// GetOrCreateCountryProfile returns the profile for (studentID, country),
// materializing it lazily at the intake phase on first reference. The insert
// is idempotent under concurrent requests via the unique constraint.
func (r *Repo) GetOrCreateCountryProfile(ctx context.Context, studentID uuid.UUID, country string) (CountryProfile, error) {
	query := `
		INSERT INTO country_profiles (student_id, country, current_phase)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, country) DO UPDATE SET country = EXCLUDED.country
		RETURNING id, student_id, country, current_phase, visa_status, side_data, updated_at`

	var p CountryProfile
	err := r.pool.QueryRow(ctx, query, studentID, country, registry.PhaseIntake).Scan(
		&p.ID, &p.StudentID, &p.Country, &p.CurrentPhase, &p.VisaStatus, &p.SideData, &p.UpdatedAt,
	)
	if err != nil {
		return CountryProfile{}, fmt.Errorf("get or create country profile: %w", err)
	}
	return p, nil
}

// ApplyTransition persists the phase change, the merged side data, and the
// audit activity in a single transaction. Nothing is written if any step
// fails.
func (r *Repo) ApplyTransition(ctx context.Context, p ApplyParams) (ApplyResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	var updatedAt time.Time
	if p.Country == "" {
		err = tx.QueryRow(ctx, `
			UPDATE students
			SET current_phase = $1, side_data = $2, updated_at = now()
			WHERE id = $3
			RETURNING updated_at
		`, p.NewPhase, p.SideData, p.StudentID).Scan(&updatedAt)
	} else {
		err = tx.QueryRow(ctx, `
			UPDATE country_profiles
			SET current_phase = $1, side_data = $2, updated_at = now()
			WHERE id = $3
			RETURNING updated_at
		`, p.NewPhase, p.SideData, p.ProfileID).Scan(&updatedAt)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ApplyResult{}, apperr.NotFound(studentNotFoundMessage)
		}
		return ApplyResult{}, fmt.Errorf("apply phase change: %w", err)
	}

	metadata, err := json.Marshal(map[string]interface{}{
		"previousPhase": p.PreviousPhase,
		"newPhase":      p.NewPhase,
	})
	if err != nil {
		return ApplyResult{}, fmt.Errorf("encode activity metadata: %w", err)
	}

	var country *string
	if p.Country != "" {
		country = &p.Country
	}
	var remarks *string
	if p.Remarks != "" {
		remarks = &p.Remarks
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO activities (student_id, country, action, previous_phase, new_phase, remarks, metadata, actor_id)
		VALUES ($1, $2, 'phase_change', $3, $4, $5, $6, $7)
	`, p.StudentID, country, p.PreviousPhase, p.NewPhase, remarks, metadata, p.ActorID)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("write phase activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ApplyResult{}, fmt.Errorf("commit transition: %w", err)
	}

	return ApplyResult{UpdatedAt: updatedAt}, nil
}
