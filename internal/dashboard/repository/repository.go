// Package repository computes dashboard aggregates from the primary store.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Summary is a counselor's dashboard snapshot.
type Summary struct {
	CounselorID       uuid.UUID      `json:"counselorId"`
	TotalLeads        int            `json:"totalLeads"`
	PendingAssignment int            `json:"pendingAssignment"`
	PendingShares     int            `json:"pendingShares"`
	PhaseCounts       map[string]int `json:"phaseCounts"`
}

// Repository is the read contract for dashboard aggregates.
type Repository interface {
	Summary(ctx context.Context, counselorID uuid.UUID) (Summary, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new dashboard repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Summary aggregates the counselor's lead counts in one round trip per
// statement. Always reads the primary store; caching happens a layer up.
func (r *Repo) Summary(ctx context.Context, counselorID uuid.UUID) (Summary, error) {
	s := Summary{CounselorID: counselorID, PhaseCounts: make(map[string]int)}

	rows, err := r.pool.Query(ctx, `
		SELECT current_phase, count(*)
		FROM students
		WHERE counselor_id = $1
		GROUP BY current_phase
	`, counselorID)
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard phase counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var phase string
		var count int
		if err := rows.Scan(&phase, &count); err != nil {
			return Summary{}, fmt.Errorf("scan phase count: %w", err)
		}
		s.PhaseCounts[phase] = count
		s.TotalLeads += count
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate phase counts: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT count(*) FROM students WHERE pending_counselor_id = $1
	`, counselorID).Scan(&s.PendingAssignment)
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard pending assignments: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT count(*) FROM shared_leads WHERE receiver_id = $1 AND status = 'pending'
	`, counselorID).Scan(&s.PendingShares)
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard pending shares: %w", err)
	}

	return s, nil
}
