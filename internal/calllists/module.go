// Package calllists provides the telecaller call-list bounded context:
// CSV batch import and batch inspection. Entries link to lead assignment:
// accepting a direct assignment marks the matching entry as assigned.
package calllists

import (
	"admissions_portal_backend/internal/calllists/handler"
	"admissions_portal_backend/internal/calllists/repository"
	"admissions_portal_backend/internal/calllists/service"
	apphttp "admissions_portal_backend/internal/http"
	"admissions_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the call-list bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the call-list module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger, defaultPhoneRegion string) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log, defaultPhoneRegion)
	h := handler.New(svc)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calllists"
}

// RegisterRoutes mounts call-list routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/call-lists/import", ctx.UploadRateLimiter.RateLimit(), m.handler.Import)
	ctx.Protected.GET("/call-lists/:batch", m.handler.ListBatch)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
