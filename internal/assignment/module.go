// Package assignment provides the lead assignment bounded context: direct
// assignment offers and peer lead sharing.
package assignment

import (
	"admissions_portal_backend/internal/assignment/handler"
	"admissions_portal_backend/internal/assignment/repository"
	"admissions_portal_backend/internal/assignment/service"
	"admissions_portal_backend/internal/events"
	apphttp "admissions_portal_backend/internal/http"
	"admissions_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the assignment bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the assignment module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assignment"
}

// RegisterRoutes mounts assignment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/students/:id/assign", m.handler.RequestAssignment)
	ctx.Protected.POST("/students/:id/assign/accept", m.handler.AcceptAssignment)
	ctx.Protected.POST("/students/:id/share", m.handler.ShareLead)
	ctx.Protected.GET("/shared-leads", m.handler.PendingShares)
	ctx.Protected.POST("/shared-leads/:id/accept", m.handler.AcceptShare)
	ctx.Protected.POST("/shared-leads/:id/reject", m.handler.RejectShare)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
