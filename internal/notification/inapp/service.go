package inapp

import (
	"context"
	"encoding/json"
	"errors"

	"admissions_portal_backend/internal/notification/sse"
	"admissions_portal_backend/platform/cache"
	"admissions_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Notification priorities.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// ListResult is a page of notifications with its paging metadata.
type ListResult struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	Page          int            `json:"page"`
	PageSize      int            `json:"pageSize"`
}

// Service persists notifications and fans them out. The database write is the
// only step that can fail the dispatch; the Redis mirror and the SSE push are
// best-effort.
type Service struct {
	repo      Repository
	cache     *cache.Client
	hub       *sse.Hub
	log       *logger.Logger
	mirrorCap int
}

// NewService creates the notification dispatcher.
func NewService(repo Repository, cacheClient *cache.Client, hub *sse.Hub, log *logger.Logger, mirrorCap int) *Service {
	return &Service{
		repo:      repo,
		cache:     cacheClient,
		hub:       hub,
		log:       log,
		mirrorCap: mirrorCap,
	}
}

// Dispatch persists the notification, then mirrors it to the recipient's
// capped Redis list and pushes it over SSE.
func (s *Service) Dispatch(ctx context.Context, n *Notification) error {
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	payload, err := json.Marshal(n)
	if err != nil {
		s.log.Error("encode notification payload", "error", err, "notificationId", n.ID)
		return nil
	}

	key := cache.NotificationsKey(n.UserID.String())
	if err := s.cache.PrependCapped(ctx, key, payload, s.mirrorCap); err != nil {
		s.log.CacheError("prepend", key, err)
	}

	s.hub.Publish(n.UserID, payload)
	return nil
}

// List returns a page of the user's notifications. The first page is served
// from the Redis mirror when it is populated; everything else reads the
// database.
func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	if page == 1 {
		if result, ok := s.listFromMirror(ctx, userID, pageSize); ok {
			return result, nil
		}
	}

	notifications, total, err := s.repo.List(ctx, userID, page, pageSize)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Notifications: notifications,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *Service) listFromMirror(ctx context.Context, userID uuid.UUID, pageSize int) (ListResult, bool) {
	key := cache.NotificationsKey(userID.String())
	entries, err := s.cache.ListRange(ctx, key, 0, int64(pageSize-1))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.CacheError("range", key, err)
		}
		return ListResult{}, false
	}
	if len(entries) == 0 {
		return ListResult{}, false
	}

	notifications := make([]Notification, 0, len(entries))
	for _, raw := range entries {
		var n Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			s.log.CacheError("decode", key, err)
			return ListResult{}, false
		}
		notifications = append(notifications, n)
	}

	// The mirror holds only the newest entries; the real total still comes
	// from the database.
	_, total, err := s.repo.List(ctx, userID, 1, 1)
	if err != nil {
		return ListResult{}, false
	}
	return ListResult{
		Notifications: notifications,
		Total:         total,
		Page:          1,
		PageSize:      pageSize,
	}, true
}

// UnreadCount returns the user's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks one notification as read and drops the now-stale mirror.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return err
	}
	s.dropMirror(ctx, userID)
	return nil
}

// MarkAllRead marks all of the user's notifications as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.dropMirror(ctx, userID)
	return updated, nil
}

// Hub exposes the SSE hub for the stream handler.
func (s *Service) Hub() *sse.Hub {
	return s.hub
}

// UserContact resolves a recipient's name and email.
func (s *Service) UserContact(ctx context.Context, userID uuid.UUID) (string, string, error) {
	return s.repo.UserContact(ctx, userID)
}

func (s *Service) dropMirror(ctx context.Context, userID uuid.UUID) {
	key := cache.NotificationsKey(userID.String())
	if err := s.cache.Del(ctx, key); err != nil {
		s.log.CacheError("del", key, err)
	}
}
