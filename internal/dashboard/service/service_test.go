package service

import (
	"context"
	"testing"
	"time"

	"admissions_portal_backend/internal/dashboard/repository"
	"admissions_portal_backend/platform/cache"
	"admissions_portal_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeRepo struct {
	summary repository.Summary
	calls   int
}

func (f *fakeRepo) Summary(_ context.Context, counselorID uuid.UUID) (repository.Summary, error) {
	f.calls++
	s := f.summary
	s.CounselorID = counselorID
	return s, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := &fakeRepo{summary: repository.Summary{
		TotalLeads:  7,
		PhaseCounts: map[string]int{"INTAKE": 4, "UNIVERSITY_SHORTLIST": 3},
	}}
	svc := New(repo, cache.NewFromClient(rdb), logger.New("development"), time.Hour)
	return svc, repo, mr
}

func TestSummaryCachesSecondRead(t *testing.T) {
	svc, repo, _ := newTestService(t)
	counselorID := uuid.New()

	first, err := svc.Summary(context.Background(), counselorID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Summary(context.Background(), counselorID)
	if err != nil {
		t.Fatal(err)
	}

	if repo.calls != 1 {
		t.Errorf("repo calls = %d, want 1 (second read from cache)", repo.calls)
	}
	if first.TotalLeads != second.TotalLeads || second.TotalLeads != 7 {
		t.Errorf("summaries differ: %+v vs %+v", first, second)
	}
	if second.PhaseCounts["INTAKE"] != 4 {
		t.Errorf("phase counts lost in cache round trip: %+v", second.PhaseCounts)
	}
}

func TestInvalidateForcesRecompute(t *testing.T) {
	svc, repo, _ := newTestService(t)
	counselorID := uuid.New()

	if _, err := svc.Summary(context.Background(), counselorID); err != nil {
		t.Fatal(err)
	}
	svc.Invalidate(context.Background(), counselorID)

	repo.summary.TotalLeads = 8
	refreshed, err := svc.Summary(context.Background(), counselorID)
	if err != nil {
		t.Fatal(err)
	}
	if repo.calls != 2 {
		t.Errorf("repo calls = %d, want 2 after invalidation", repo.calls)
	}
	if refreshed.TotalLeads != 8 {
		t.Errorf("stale summary served after invalidation: %+v", refreshed)
	}
}

func TestSummarySurvivesRedisOutage(t *testing.T) {
	svc, repo, mr := newTestService(t)
	mr.Close()

	summary, err := svc.Summary(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("cache outage must not fail the read: %v", err)
	}
	if summary.TotalLeads != 7 || repo.calls != 1 {
		t.Error("summary should come straight from the repository")
	}
}
