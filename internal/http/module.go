// Package http defines the contract between the router and the domain
// modules: each bounded context implements Module and mounts its own
// routes on the groups the router provides.
package http

import (
	"admissions_portal_backend/platform/config"
	"admissions_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context with an HTTP surface.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// RegisterRoutes mounts the module's endpoints.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the route groups and shared middleware a module
// can mount on, so RegisterRoutes needs no other parameters.
type RouterContext struct {
	// Engine is the root engine, for modules needing engine-level access.
	Engine *gin.Engine
	// V1 is /api/v1, unauthenticated.
	V1 *gin.RouterGroup
	// Protected is /api/v1 behind the auth middleware.
	Protected *gin.RouterGroup
	// Admin is /api/v1/admin, auth plus the admin role.
	Admin *gin.RouterGroup
	// Config exposes the JWT settings for modules that mount
	// AuthMiddleware on custom groups.
	Config config.JWTConfig
	// AuthMiddleware is the shared JWT middleware.
	AuthMiddleware gin.HandlerFunc
	// UploadRateLimiter is the stricter limiter for bulk upload routes.
	UploadRateLimiter *httpkit.UploadRateLimiter
}
