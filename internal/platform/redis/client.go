// Package redis connects the student enrollment cache to a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"campus/internal/platform/config"
)

const (
	clientName    = "campus"
	healthTimeout = time.Second
)

// Client is the connection handed to the enrollment cache.
type Client struct {
	*redis.Client
}

// Open connects using cfg and confirms the server answers. It returns a nil
// client when no URL is configured.
func Open(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{Client: redis.NewClient(opts)}
	if err := c.Health(ctx); err != nil {
		_ = c.Client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return c, nil
}

// options applies the pool and timeout settings on top of the URL.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize < 0 || cfg.MinIdleConns < 0 {
		return nil, errors.New("redis pool sizes must not be negative")
	}
	if cfg.PoolSize > 0 && cfg.MinIdleConns > cfg.PoolSize {
		return nil, fmt.Errorf("redis min idle conns %d exceeds pool size %d", cfg.MinIdleConns, cfg.PoolSize)
	}

	opts.ClientName = clientName
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	// cache calls carry the request deadline
	opts.ContextTimeoutEnabled = true
	return opts, nil
}

// Health pings the server, giving up after a second.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
