// Package redis connects to the Redis instance that backs the ontology cache and the
// resource event bus.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	"github.com/zatekoja/notefhir/pkg/config"
	"github.com/zatekoja/notefhir/pkg/retry"
)

const (
	clientName     = "notefhir"
	connectTimeout = 3 * time.Second
	ioTimeout      = 2 * time.Second
	connectTries   = 3
)

// Client wraps a go-redis client shared by the cache adapter and the event bus.
type Client struct {
	client *redis.Client
	addr   string
}

// NewClient connects and pings Redis, retrying a few times with backoff. Redis is
// optional, so the caller decides whether a failure is fatal.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	return newClient(ctx, cfg, retry.LookupConfig(connectTries))
}

func newClient(ctx context.Context, cfg *config.RedisConfig, retryConfig retry.Config) (*Client, error) {
	addr := cfg.RedisAddr()
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  connectTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	logger := observability.LoggerFromContext(ctx)
	err := retry.DoWithLog(
		ctx,
		retryConfig,
		"Redis",
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
			defer cancel()
			return client.Ping(pingCtx).Err()
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).Str("addr", addr).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Redis connection attempt failed")
		},
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info().Str("addr", addr).Int("db", cfg.DB).Msg("connected to Redis")
	return &Client{client: client, addr: addr}, nil
}

// Client returns the underlying go-redis client.
func (c *Client) Client() *redis.Client {
	return c.client
}

// Addr is the host:port the client is connected to.
func (c *Client) Addr() string {
	return c.addr
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping backs the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", c.addr, err)
	}
	return nil
}
