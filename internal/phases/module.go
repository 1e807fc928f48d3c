// Package phases provides the phase tracking bounded context: the phase
// registry, the document gate, and the transition engine.
package phases

import (
	"admissions_portal_backend/internal/events"
	apphttp "admissions_portal_backend/internal/http"
	phasegate "admissions_portal_backend/internal/phases/gate"
	"admissions_portal_backend/internal/phases/handler"
	"admissions_portal_backend/internal/phases/repository"
	"admissions_portal_backend/internal/phases/service"
	"admissions_portal_backend/platform/logger"
	"admissions_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the phases bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the phases module. The document source
// comes from the students module, which owns document storage.
func NewModule(pool *pgxpool.Pool, bus events.Bus, docs phasegate.DocumentSource, val *validator.Validator, log *logger.Logger, allowRegression bool) *Module {
	repo := repository.New(pool)
	g := phasegate.New(docs)
	svc := service.New(repo, g, bus, log, allowRegression)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "phases"
}

// Service returns the transition engine for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts phase routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.PATCH("/students/:id/phase", m.handler.Transition)
	ctx.Protected.GET("/students/:id/phase/missing-documents", m.handler.MissingDocuments)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
