// The api binary runs the admissions portal HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admissions_portal_backend/internal/assignment"
	"admissions_portal_backend/internal/calllists"
	"admissions_portal_backend/internal/dashboard"
	"admissions_portal_backend/internal/events"
	apphttp "admissions_portal_backend/internal/http"
	"admissions_portal_backend/internal/http/router"
	"admissions_portal_backend/internal/notification"
	"admissions_portal_backend/internal/phases"
	"admissions_portal_backend/internal/scheduler"
	"admissions_portal_backend/internal/students"
	"admissions_portal_backend/platform/cache"
	"admissions_portal_backend/platform/config"
	"admissions_portal_backend/platform/db"
	"admissions_portal_backend/platform/logger"
	"admissions_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	startupRetries  = 5
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Error("configuration error", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := connectWithRetry(ctx, cfg, log)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg, "migrations"); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	if cfg.RedisURL == "" {
		log.Error("REDIS_URL is required")
		os.Exit(1)
	}
	cacheClient, err := cache.New(cfg.RedisURL, cfg.RedisTLSInsecure)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer cacheClient.Close()

	tasks, err := scheduler.NewClient(cfg.RedisURL, cfg.RedisTLSInsecure, log)
	if err != nil {
		log.Error("task queue client failed", "error", err)
		os.Exit(1)
	}
	defer tasks.Close()

	bus := events.NewInMemoryBus(log)
	val := validator.New()

	studentsModule := students.NewModule(pool, bus, val, log, cfg.DefaultPhoneRegion)
	phasesModule := phases.NewModule(pool, bus, studentsModule.DocumentSource(), val, log, cfg.PhaseAllowRegression)
	assignmentModule := assignment.NewModule(pool, bus, log)
	notificationModule := notification.NewModule(pool, cacheClient, tasks, log, cfg.NotificationMirrorCap)
	dashboardModule := dashboard.NewModule(pool, cacheClient, log, cfg.DashboardCacheTTL)
	calllistsModule := calllists.NewModule(pool, log, cfg.DefaultPhoneRegion)

	notificationModule.RegisterHandlers(bus)
	dashboardModule.RegisterHandlers(bus)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: bus,
		Modules: []apphttp.Module{
			studentsModule,
			phasesModule,
			assignmentModule,
			notificationModule,
			dashboardModule,
			calllistsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// connectWithRetry gives the database a few seconds to come up, which smooths
// over container orchestration ordering.
func connectWithRetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error
	for attempt := 1; attempt <= startupRetries; attempt++ {
		pool, err = db.NewPool(ctx, cfg)
		if err == nil {
			return pool, nil
		}
		log.Warn("database not ready, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, err
}
