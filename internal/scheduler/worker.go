package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"admissions_portal_backend/internal/email"
	"admissions_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes queued tasks and executes them.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker creates the asynq server with the email handler registered.
func NewWorker(redisURL string, tlsInsecure bool, concurrency int, sender email.Sender, log *logger.Logger) (*Worker, error) {
	opt, err := redisConnOpt(redisURL, tlsInsecure)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueEmails: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Error("task failed", "type", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotificationEmail, notificationEmailHandler(sender))

	return &Worker{server: server, mux: mux}, nil
}

// Run starts processing tasks and blocks until Shutdown.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker, waiting for in-flight tasks.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func notificationEmailHandler(sender email.Sender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p NotificationEmailPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("decode notification email payload: %w", err)
		}
		return sender.SendNotification(ctx, p.To, p.Name, p.Subject, p.Title, p.Message)
	}
}
