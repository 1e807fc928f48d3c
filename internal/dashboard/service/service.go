// Package service serves counselor dashboard summaries through a Redis
// read-through cache.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"admissions_portal_backend/internal/dashboard/repository"
	"admissions_portal_backend/platform/cache"
	"admissions_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Service caches dashboard summaries. Cache failures degrade to direct reads;
// they never fail a request.
type Service struct {
	repo  repository.Repository
	cache *cache.Client
	log   *logger.Logger
	ttl   time.Duration
}

// New creates the dashboard service.
func New(repo repository.Repository, cacheClient *cache.Client, log *logger.Logger, ttl time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cacheClient,
		log:   log,
		ttl:   ttl,
	}
}

// Summary returns the counselor's dashboard snapshot, cached for the
// configured TTL.
func (s *Service) Summary(ctx context.Context, counselorID uuid.UUID) (repository.Summary, error) {
	key := cache.DashboardKey(counselorID.String())

	if data, err := s.cache.Get(ctx, key); err == nil {
		var summary repository.Summary
		if err := json.Unmarshal(data, &summary); err == nil {
			return summary, nil
		}
		s.log.CacheError("decode", key, err)
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.CacheError("get", key, err)
	}

	summary, err := s.repo.Summary(ctx, counselorID)
	if err != nil {
		return repository.Summary{}, err
	}

	if data, err := json.Marshal(summary); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.log.CacheError("set", key, err)
		}
	}
	return summary, nil
}

// Invalidate drops the counselor's cached summary.
func (s *Service) Invalidate(ctx context.Context, counselorID uuid.UUID) {
	key := cache.DashboardKey(counselorID.String())
	if err := s.cache.Del(ctx, key); err != nil {
		s.log.CacheError("del", key, err)
	}
}
