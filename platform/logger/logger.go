// Package logger wraps log/slog with the handful of structured logging
// helpers the rest of the application uses.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger embeds *slog.Logger, so Info/Warn/Error/Debug are available
// directly alongside the domain-specific helpers below.
type Logger struct {
	*slog.Logger
}

// New returns a logger for the given environment: human-readable text at
// debug level in development, JSON at info level everywhere else.
func New(env string) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// HTTPRequest logs one completed request, emitted by the request logging
// middleware after the handler chain returns.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// CacheError logs a failed Redis operation. The cache is best-effort
// (dashboard summaries, notification mirrors), so these are warnings.
func (l *Logger) CacheError(operation, key string, err error) {
	l.Warn("cache_error",
		slog.String("operation", operation),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs a request rejected by the rate limiter.
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
