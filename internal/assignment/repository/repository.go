// Package repository persists lead assignment state: direct assignment
// requests on the student row and the shared_leads state machine.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admissions_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Share statuses. Pending is the only non-terminal state.
const (
	ShareStatusPending  = "pending"
	ShareStatusAccepted = "accepted"
	ShareStatusRejected = "rejected"
)

const pgUniqueViolation = "23505"

// errPendingShareExists is raised when a second pending share is attempted
// for the same student. The database partial unique index is the authority.
var errPendingShareExists = apperr.Validation("a pending share already exists for this lead")

// User is the slice of a portal user the coordinator needs.
type User struct {
	ID       uuid.UUID
	FullName string
	Email    string
	Role     string
}

// StudentRef is the slice of a student the coordinator needs.
type StudentRef struct {
	ID                 uuid.UUID
	FullName           string
	Phone              *string
	CounselorID        *uuid.UUID
	PendingCounselorID *uuid.UUID
	MarketingOwnerID   *uuid.UUID
}

// SharedLead is one row of the share state machine.
type SharedLead struct {
	ID         uuid.UUID
	StudentID  uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Status     string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// Repository is the persistence contract for the assignment coordinator.
type Repository interface {
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	GetStudentRef(ctx context.Context, id uuid.UUID) (StudentRef, error)
	SetPendingCounselor(ctx context.Context, studentID, counselorID, actorID uuid.UUID) error
	AcceptDirectAssignment(ctx context.Context, studentID, counselorID uuid.UUID) (previous *uuid.UUID, err error)
	CreateShare(ctx context.Context, studentID, senderID, receiverID uuid.UUID) (SharedLead, error)
	GetShare(ctx context.Context, id uuid.UUID) (SharedLead, error)
	ListPendingForReceiver(ctx context.Context, receiverID uuid.UUID) ([]SharedLead, error)
	ResolveShare(ctx context.Context, shareID uuid.UUID, accept bool) (SharedLead, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new assignment repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetUser loads a portal user.
func (r *Repo) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	query := `SELECT id, full_name, email, role FROM users WHERE id = $1`

	var u User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.FullName, &u.Email, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("counselor not found")
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetStudentRef loads the assignment-relevant slice of a student.
func (r *Repo) GetStudentRef(ctx context.Context, id uuid.UUID) (StudentRef, error) {
	query := `
		SELECT id, full_name, phone, counselor_id, pending_counselor_id, marketing_owner_id
		FROM students
		WHERE id = $1`

	var s StudentRef
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.FullName, &s.Phone, &s.CounselorID, &s.PendingCounselorID, &s.MarketingOwnerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StudentRef{}, apperr.NotFound("student not found")
		}
		return StudentRef{}, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

// SetPendingCounselor records a direct-assignment request. Ownership does not
// change until the counselor accepts. An activity row records the request.
func (r *Repo) SetPendingCounselor(ctx context.Context, studentID, counselorID, actorID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin assignment request: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE students SET pending_counselor_id = $1, updated_at = now() WHERE id = $2
	`, counselorID, studentID)
	if err != nil {
		return fmt.Errorf("set pending counselor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("student not found")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO activities (student_id, action, metadata, actor_id)
		VALUES ($1, 'assignment_requested', jsonb_build_object('counselorId', $2::text), $3)
	`, studentID, counselorID, actorID)
	if err != nil {
		return fmt.Errorf("write assignment activity: %w", err)
	}

	return tx.Commit(ctx)
}

// AcceptDirectAssignment moves ownership to the pending counselor in one
// transaction and marks the originating call-list entry, if any, as assigned.
// The update is guarded on pending_counselor_id so only the offered counselor
// can accept, and only once.
func (r *Repo) AcceptDirectAssignment(ctx context.Context, studentID, counselorID uuid.UUID) (*uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin assignment accept: %w", err)
	}
	defer tx.Rollback(ctx)

	var previous, pending *uuid.UUID
	var phone *string
	err = tx.QueryRow(ctx, `
		SELECT counselor_id, pending_counselor_id, phone
		FROM students
		WHERE id = $1
		FOR UPDATE
	`, studentID).Scan(&previous, &pending, &phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("student not found")
		}
		return nil, fmt.Errorf("lock student: %w", err)
	}
	if pending == nil || *pending != counselorID {
		return nil, apperr.Validation("no pending assignment for this counselor")
	}

	_, err = tx.Exec(ctx, `
		UPDATE students
		SET counselor_id = $1, pending_counselor_id = NULL, updated_at = now()
		WHERE id = $2
	`, counselorID, studentID)
	if err != nil {
		return nil, fmt.Errorf("accept assignment: %w", err)
	}

	if phone != nil {
		_, err = tx.Exec(ctx, `
			UPDATE call_list_entries
			SET status = 'assigned_to_counselor', assigned_counselor_id = $1, updated_at = now()
			WHERE phone = $2 AND status <> 'assigned_to_counselor'
		`, counselorID, *phone)
		if err != nil {
			return nil, fmt.Errorf("mark call list entry: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO activities (student_id, action, metadata, actor_id)
		VALUES ($1, 'assignment_accepted', jsonb_build_object('counselorId', $2::text), $2)
	`, studentID, counselorID)
	if err != nil {
		return nil, fmt.Errorf("write assignment activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit assignment accept: %w", err)
	}
	return previous, nil
}

// CreateShare opens a pending share. The partial unique index on
// shared_leads(student_id) where status='pending' makes the
// one-pending-share-per-student rule atomic under concurrency.
func (r *Repo) CreateShare(ctx context.Context, studentID, senderID, receiverID uuid.UUID) (SharedLead, error) {
	query := `
		INSERT INTO shared_leads (student_id, sender_id, receiver_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, student_id, sender_id, receiver_id, status, created_at, resolved_at`

	var sl SharedLead
	err := r.pool.QueryRow(ctx, query, studentID, senderID, receiverID).Scan(
		&sl.ID, &sl.StudentID, &sl.SenderID, &sl.ReceiverID, &sl.Status, &sl.CreatedAt, &sl.ResolvedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return SharedLead{}, errPendingShareExists
		}
		return SharedLead{}, fmt.Errorf("create share: %w", err)
	}
	return sl, nil
}

// GetShare loads one shared lead.
func (r *Repo) GetShare(ctx context.Context, id uuid.UUID) (SharedLead, error) {
	query := `
		SELECT id, student_id, sender_id, receiver_id, status, created_at, resolved_at
		FROM shared_leads
		WHERE id = $1`

	var sl SharedLead
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&sl.ID, &sl.StudentID, &sl.SenderID, &sl.ReceiverID, &sl.Status, &sl.CreatedAt, &sl.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SharedLead{}, apperr.NotFound("shared lead not found")
		}
		return SharedLead{}, fmt.Errorf("get share: %w", err)
	}
	return sl, nil
}

// ListPendingForReceiver returns the caller's open incoming shares.
func (r *Repo) ListPendingForReceiver(ctx context.Context, receiverID uuid.UUID) ([]SharedLead, error) {
	query := `
		SELECT id, student_id, sender_id, receiver_id, status, created_at, resolved_at
		FROM shared_leads
		WHERE receiver_id = $1 AND status = 'pending'
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("list pending shares: %w", err)
	}
	defer rows.Close()

	var shares []SharedLead
	for rows.Next() {
		var sl SharedLead
		if err := rows.Scan(&sl.ID, &sl.StudentID, &sl.SenderID, &sl.ReceiverID, &sl.Status, &sl.CreatedAt, &sl.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}
	return shares, nil
}

// ResolveShare moves a pending share to its terminal state. Acceptance also
// reassigns the student to the receiver inside the same transaction. The
// status guard makes a second resolution of the same share a not-found: the
// pending share the caller is addressing no longer exists.
func (r *Repo) ResolveShare(ctx context.Context, shareID uuid.UUID, accept bool) (SharedLead, error) {
	status := ShareStatusRejected
	if accept {
		status = ShareStatusAccepted
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return SharedLead{}, fmt.Errorf("begin share resolution: %w", err)
	}
	defer tx.Rollback(ctx)

	var sl SharedLead
	err = tx.QueryRow(ctx, `
		UPDATE shared_leads
		SET status = $1, resolved_at = now()
		WHERE id = $2 AND status = 'pending'
		RETURNING id, student_id, sender_id, receiver_id, status, created_at, resolved_at
	`, status, shareID).Scan(&sl.ID, &sl.StudentID, &sl.SenderID, &sl.ReceiverID, &sl.Status, &sl.CreatedAt, &sl.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SharedLead{}, apperr.NotFound("no pending share to resolve")
		}
		return SharedLead{}, fmt.Errorf("resolve share: %w", err)
	}

	if accept {
		_, err = tx.Exec(ctx, `
			UPDATE students SET counselor_id = $1, updated_at = now() WHERE id = $2
		`, sl.ReceiverID, sl.StudentID)
		if err != nil {
			return SharedLead{}, fmt.Errorf("reassign student: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO activities (student_id, action, metadata, actor_id)
		VALUES ($1, $2, jsonb_build_object('sharedLeadId', $3::text, 'senderId', $4::text), $5)
	`, sl.StudentID, "share_"+status, sl.ID, sl.SenderID, sl.ReceiverID)
	if err != nil {
		return SharedLead{}, fmt.Errorf("write share activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return SharedLead{}, fmt.Errorf("commit share resolution: %w", err)
	}
	return sl, nil
}
