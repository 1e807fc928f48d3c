// Package dashboard provides counselor dashboard summaries and keeps their
// cache coherent by listening for count-affecting domain events.
package dashboard

import (
	"context"
	"time"

	"admissions_portal_backend/internal/dashboard/handler"
	"admissions_portal_backend/internal/dashboard/repository"
	"admissions_portal_backend/internal/dashboard/service"
	"admissions_portal_backend/internal/events"
	apphttp "admissions_portal_backend/internal/http"
	"admissions_portal_backend/platform/cache"
	"admissions_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the dashboard bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates and initializes the dashboard module.
func NewModule(pool *pgxpool.Pool, cacheClient *cache.Client, log *logger.Logger, ttl time.Duration) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cacheClient, log, ttl)
	h := handler.New(svc)

	return &Module{handler: h, svc: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dashboard"
}

// RegisterRoutes mounts dashboard routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/dashboard/summary", m.handler.Summary)
}

// RegisterHandlers subscribes cache invalidation to every event that changes
// a counselor's counts.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.StudentCreated{}.EventName(), events.HandlerFunc(m.onStudentCreated))
	bus.Subscribe(events.LeadAssigned{}.EventName(), events.HandlerFunc(m.onLeadAssigned))
	bus.Subscribe(events.LeadShareAccepted{}.EventName(), events.HandlerFunc(m.onShareAccepted))
	bus.Subscribe(events.PhaseChanged{}.EventName(), events.HandlerFunc(m.onPhaseChanged))
}

func (m *Module) onStudentCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.StudentCreated)
	if !ok {
		return nil
	}
	if e.CounselorID != nil {
		m.svc.Invalidate(ctx, *e.CounselorID)
	}
	return nil
}

func (m *Module) onLeadAssigned(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadAssigned)
	if !ok {
		return nil
	}
	m.svc.Invalidate(ctx, e.NewCounselorID)
	if e.PreviousCounselorID != nil {
		m.svc.Invalidate(ctx, *e.PreviousCounselorID)
	}
	return nil
}

func (m *Module) onShareAccepted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadShareAccepted)
	if !ok {
		return nil
	}
	m.svc.Invalidate(ctx, e.SenderID)
	m.svc.Invalidate(ctx, e.ReceiverID)
	return nil
}

func (m *Module) onPhaseChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.PhaseChanged)
	if !ok {
		return nil
	}
	if e.CounselorID != nil {
		m.svc.Invalidate(ctx, *e.CounselorID)
	}
	return nil
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
