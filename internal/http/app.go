package http

import (
	"context"

	"admissions_portal_backend/internal/events"
	"admissions_portal_backend/platform/config"
	"admissions_portal_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router needs: HTTP
// settings for CORS and JWT settings for the auth middleware.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs the readiness endpoint, typically the pgx pool.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what the composition root hands to the router: configuration,
// shared infrastructure, and the modules to mount.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}
