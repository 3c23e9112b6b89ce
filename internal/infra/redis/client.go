// Package redis provides the Redis client backing the analytics cache
// and the asynq job queue.
package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/phishsim/api/internal/config"
	"github.com/phishsim/api/pkg/logger"
)

// Client wraps redis.Client with additional functionality.
type Client struct {
	client *redis.Client
	logger *logger.Logger
}

// New creates a new Redis client and verifies the connection.
func New(cfg *config.RedisConfig, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("redis config is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(errors.New("redis connection failed"), err)
	}

	log.Info("redis connected", "addr", cfg.Addr(), "pool_size", cfg.PoolSize)
	return &Client{client: client, logger: log}, nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
