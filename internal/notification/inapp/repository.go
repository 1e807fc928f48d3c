// Package inapp persists and dispatches in-app notifications.
package inapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admissions_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification is one persisted in-app notification.
type Notification struct {
	ID                  uuid.UUID  `json:"id"`
	UserID              uuid.UUID  `json:"userId"`
	Type                string     `json:"type"`
	Title               string     `json:"title"`
	Message             string     `json:"message"`
	Priority            string     `json:"priority"`
	LeadID              *uuid.UUID `json:"leadId,omitempty"`
	SharedByCounselorID *uuid.UUID `json:"sharedByCounselorId,omitempty"`
	SharedLeadID        *uuid.UUID `json:"sharedLeadId,omitempty"`
	IsRead              bool       `json:"isRead"`
	ReadAt              *time.Time `json:"readAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// Repository is the persistence contract for notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, int, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UserContact(ctx context.Context, userID uuid.UUID) (fullName, email string, err error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo creates a new notification repository.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create inserts a notification and fills in the generated fields.
func (r *Repo) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, priority, lead_id, shared_by_counselor_id, shared_lead_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		n.UserID, n.Type, n.Title, n.Message, n.Priority,
		n.LeadID, n.SharedByCounselorID, n.SharedLeadID,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// List returns a page of the user's notifications, newest first.
func (r *Repo) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := `
		SELECT id, user_id, type, title, message, priority, lead_id, shared_by_counselor_id, shared_lead_id, is_read, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Priority,
			&n.LeadID, &n.SharedByCounselorID, &n.SharedLeadID, &n.IsRead, &n.ReadAt, &n.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, total, nil
}

// UnreadCount returns how many unread notifications the user has.
func (r *Repo) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification as read. The user scope prevents reading
// someone else's notification state.
func (r *Repo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = true, read_at = now()
		WHERE id = $1 AND user_id = $2 AND is_read = false
	`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish missing from already-read.
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT true FROM notifications WHERE id = $1 AND user_id = $2`, id, userID,
		).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("notification not found")
			}
			return fmt.Errorf("check notification: %w", err)
		}
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (r *Repo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = true, read_at = now()
		WHERE user_id = $1 AND is_read = false
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UserContact returns the name and email of a portal user, for email
// delivery alongside the in-app notification.
func (r *Repo) UserContact(ctx context.Context, userID uuid.UUID) (string, string, error) {
	var name, email string
	err := r.pool.QueryRow(ctx,
		`SELECT full_name, email FROM users WHERE id = $1`, userID,
	).Scan(&name, &email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", apperr.NotFound("user not found")
		}
		return "", "", fmt.Errorf("get user contact: %w", err)
	}
	return name, email, nil
}
