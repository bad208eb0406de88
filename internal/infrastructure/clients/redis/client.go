package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
	"github.com/zatekoja/postnatalcare/backend/pkg/config"
	"github.com/zatekoja/postnatalcare/backend/pkg/retry"
)

// Client owns the connection pool shared by the cache adapter and the
// event bus.
type Client struct {
	client *redis.Client
}

// startupRetry is shorter than the database policy because Redis is optional
// and the service starts without it.
func startupRetry() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 5
	cfg.MaxTotalTimeout = 20 * time.Second
	return cfg
}

func options(cfg *config.RedisConfig) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 20
	}
	return &redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

// NewClient connects and waits for the server to answer PING.
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(options(cfg))

	logger := observability.GetLogger()
	err := retry.DoWithLog(context.Background(), startupRetry(), "Redis",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(ctx).Err()
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Redis connection attempt failed")
		},
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().Str("addr", cfg.RedisAddr()).Int("pool_size", client.Options().PoolSize).Msg("connected to Redis")
	return &Client{client: client}, nil
}

// NewClientFromRedis wraps an already configured go-redis client.
func NewClientFromRedis(client *redis.Client) *Client {
	return &Client{client: client}
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping verifies the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
