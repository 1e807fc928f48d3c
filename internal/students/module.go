// Package students provides the lead intake bounded context: student
// registration, document tracking, and the document source the phase gate
// evaluates against.
package students

import (
	"admissions_portal_backend/internal/events"
	apphttp "admissions_portal_backend/internal/http"
	"admissions_portal_backend/internal/phases/gate"
	"admissions_portal_backend/internal/students/handler"
	"admissions_portal_backend/internal/students/repository"
	"admissions_portal_backend/internal/students/service"
	"admissions_portal_backend/platform/logger"
	"admissions_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the students bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the students module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger, defaultPhoneRegion string) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log, defaultPhoneRegion)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "students"
}

// DocumentSource exposes document counting for the phase gate.
func (m *Module) DocumentSource() gate.DocumentSource {
	return m.repo
}

// RegisterRoutes mounts student routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/students", m.handler.Create)
	ctx.Protected.GET("/students", m.handler.List)
	ctx.Protected.GET("/students/:id", m.handler.Get)
	ctx.Protected.POST("/students/:id/documents", m.handler.AddDocument)
	ctx.Protected.GET("/students/:id/documents", m.handler.Documents)
	ctx.Protected.PATCH("/documents/:id/status", m.handler.UpdateDocumentStatus)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
