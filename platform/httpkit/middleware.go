// Package httpkit holds the transport-layer plumbing shared by every
// module: request logging, security headers, JWT auth, role checks, and
// per-IP rate limiting.
package httpkit

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"admissions_portal_backend/platform/config"
	"admissions_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Gin context keys the auth middleware populates for downstream handlers.
const (
	ContextUserIDKey = "userID"
	ContextRolesKey  = "roles"
)

var errInvalidToken = errors.New("invalid token")

// RequestLogger emits one structured log line per completed request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		log.HTTPRequest(c.Request.Method, path, c.Writer.Status(), float64(latency.Milliseconds()), c.ClientIP())
	}
}

// SecurityHeaders sets the standard hardening headers on every response.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		if c.Request.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// IPRateLimiter keeps a token-bucket limiter per client IP. Buckets are
// never evicted; the process restarts often enough that this has not
// mattered in practice.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{rate: r, burst: burst, log: log}
}

func (i *IPRateLimiter) limiterFor(ip string) *rate.Limiter {
	if existing, ok := i.limiters.Load(ip); ok {
		return existing.(*rate.Limiter)
	}
	created, _ := i.limiters.LoadOrStore(ip, rate.NewLimiter(i.rate, i.burst))
	return created.(*rate.Limiter)
}

// RateLimit rejects requests over the per-IP budget with a 429.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !i.limiterFor(ip).Allow() {
			if i.log != nil {
				i.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// UploadRateLimiter is a stricter limiter for bulk upload endpoints such
// as call-list imports, which hold a transaction open per request.
type UploadRateLimiter struct {
	*IPRateLimiter
}

func NewUploadRateLimiter(log *logger.Logger) *UploadRateLimiter {
	// 10 imports per minute per IP, bursting to 3.
	return &UploadRateLimiter{IPRateLimiter: NewIPRateLimiter(rate.Limit(10.0/60.0), 3, log)}
}

// AuthRequired validates the JWT access token and stores the caller's ID
// and roles on the context. The token comes from the Authorization header,
// or from the "token" query parameter for EventSource connections, which
// cannot set headers.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := bearerToken(c.GetHeader("Authorization"))
		if rawToken == "" {
			rawToken = c.Query("token")
		}
		if rawToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		userID, roles, err := verifyAccessToken(rawToken, cfg.GetJWTAccessSecret())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRolesKey, roles)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated caller holds the
// given role. Must be mounted after AuthRequired.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func verifyAccessToken(rawToken, secret string) (uuid.UUID, []string, error) {
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, nil, errInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, nil, errInvalidToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return uuid.Nil, nil, errInvalidToken
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, nil, errInvalidToken
	}

	return userID, claimedRoles(claims["roles"]), nil
}

func claimedRoles(value interface{}) []string {
	roles := make([]string, 0)
	switch typed := value.(type) {
	case []string:
		roles = append(roles, typed...)
	case []interface{}:
		for _, item := range typed {
			if text, ok := item.(string); ok {
				roles = append(roles, text)
			}
		}
	}
	return roles
}
