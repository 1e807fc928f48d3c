// Package repository persists imported telecaller call-list entries.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry statuses. An entry becomes assigned_to_counselor when a direct
// assignment for a matching lead is accepted.
const (
	StatusNew                 = "new"
	StatusAssignedToCounselor = "assigned_to_counselor"
)

// Entry is one imported call-list row.
type Entry struct {
	ID                  uuid.UUID  `json:"id"`
	BatchName           string     `json:"batchName"`
	Name                string     `json:"name"`
	Phone               string     `json:"phone"`
	Status              string     `json:"status"`
	AssignedCounselorID *uuid.UUID `json:"assignedCounselorId,omitempty"`
	ImportedBy          uuid.UUID  `json:"importedBy"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// Repository is the persistence contract for call lists.
type Repository interface {
	InsertEntries(ctx context.Context, entries []Entry) (int, error)
	ListByBatch(ctx context.Context, batchName string, page, pageSize int) ([]Entry, int, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new call-list repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// InsertEntries writes a batch of entries in one transaction. Duplicate
// phones within the same batch are skipped by the unique constraint.
func (r *Repo) InsertEntries(ctx context.Context, entries []Entry) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin call-list import: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO call_list_entries (batch_name, name, phone, status, imported_by)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (batch_name, phone) DO NOTHING
		`, e.BatchName, e.Name, e.Phone, StatusNew, e.ImportedBy)
	}

	results := tx.SendBatch(ctx, batch)
	inserted := 0
	for range entries {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("insert call-list entry: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close call-list batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit call-list import: %w", err)
	}
	return inserted, nil
}

// ListByBatch returns a page of one batch's entries.
func (r *Repo) ListByBatch(ctx context.Context, batchName string, page, pageSize int) ([]Entry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM call_list_entries WHERE batch_name = $1`, batchName,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count call-list entries: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, batch_name, name, phone, status, assigned_counselor_id, imported_by, created_at
		FROM call_list_entries
		WHERE batch_name = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, batchName, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list call-list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.BatchName, &e.Name, &e.Phone, &e.Status, &e.AssignedCounselorID, &e.ImportedBy, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan call-list entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate call-list entries: %w", err)
	}
	return entries, total, nil
}
