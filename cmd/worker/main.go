// The worker binary processes queued tasks, currently notification email
// delivery.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"admissions_portal_backend/internal/email"
	"admissions_portal_backend/internal/scheduler"
	"admissions_portal_backend/platform/config"
	"admissions_portal_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Error("configuration error", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	if cfg.RedisURL == "" {
		log.Error("REDIS_URL is required")
		os.Exit(1)
	}

	var sender email.Sender
	if cfg.EmailEnabled {
		sender = email.NewSMTPSender(cfg, log)
	} else {
		sender = email.NewNopSender(log)
	}

	worker, err := scheduler.NewWorker(cfg.RedisURL, cfg.RedisTLSInsecure, cfg.AsynqConcurrency, sender, log)
	if err != nil {
		log.Error("worker setup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("shutting down worker")
		worker.Shutdown()
	}()

	log.Info("worker started", "concurrency", cfg.AsynqConcurrency)
	if err := worker.Run(); err != nil {
		log.Error("worker error", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}
