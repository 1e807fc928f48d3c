package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"admissions_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Client enqueues tasks for the worker process.
type Client struct {
	client *asynq.Client
	log    *logger.Logger
}

// NewClient creates a task queue client over Redis.
func NewClient(redisURL string, tlsInsecure bool, log *logger.Logger) (*Client, error) {
	opt, err := redisConnOpt(redisURL, tlsInsecure)
	if err != nil {
		return nil, err
	}
	return &Client{client: asynq.NewClient(opt), log: log}, nil
}

// EnqueueNotificationEmail queues one notification email for delivery.
func (c *Client) EnqueueNotificationEmail(ctx context.Context, p NotificationEmailPayload) error {
	task, err := NewNotificationEmailTask(p)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueEmails),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue notification email: %w", err)
	}

	c.log.Debug("notification email enqueued", "taskId", info.ID, "to", p.To)
	return nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// redisConnOpt parses the Redis URL into an asynq connection option,
// optionally relaxing TLS verification for managed Redis with self-signed
// certificates.
func redisConnOpt(redisURL string, tlsInsecure bool) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if clientOpt, ok := opt.(asynq.RedisClientOpt); ok && clientOpt.TLSConfig != nil && tlsInsecure {
		clientOpt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		return clientOpt, nil
	}
	return opt, nil
}
