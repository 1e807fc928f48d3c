// Package cache provides the Redis cache client used for dashboard summaries
// and per-user notification mirrors.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// Key families. Callers build keys through these helpers so the key scheme
// stays in one place.

// DashboardKey returns the cache key for a counselor's dashboard summary.
func DashboardKey(counselorID string) string {
	return "dashboard:" + counselorID
}

// NotificationsKey returns the mirror-list key for a user's notifications.
func NotificationsKey(userID string) string {
	return "notifications:" + userID
}

// Client wraps go-redis with the small surface the application needs.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis using a redis:// or rediss:// URL.
func New(redisURL string, tlsInsecure bool) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	if opt.TLSConfig != nil && tlsInsecure {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &Client{rdb: rdb}, nil
}

// NewFromClient wraps an existing go-redis client. Used by tests with miniredis.
func NewFromClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Get retrieves the value at key, returning ErrMiss when absent.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set stores value at key with the given TTL. A zero TTL means no expiry.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del removes the given key.
func (c *Client) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// PrependCapped pushes value to the head of the list at key and trims the
// list to at most cap entries. Used for the notification mirror.
func (c *Client) PrependCapped(ctx context.Context, key string, value []byte, cap int) error {
	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, key, value)
	if cap > 0 {
		pipe.LTrim(ctx, key, 0, int64(cap-1))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// ListRange returns list entries in [start, stop] at key.
func (c *Client) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	values, err := c.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(values))
	for _, v := range values {
		out = append(out, []byte(v))
	}
	return out, nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
