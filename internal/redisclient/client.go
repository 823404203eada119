// Package redisclient owns the shared go-redis connection behind the todo
// list cache.
package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 2 * time.Second

type Config struct {
	Addr     string
	Password string
	DB       int

	// Timeout caps dial, read and write; zero means 2s. The cache is
	// best-effort, so a slow redis must degrade to a miss quickly.
	Timeout time.Duration
}

type Client struct {
	rdb  *redis.Client
	addr string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		// one retry is enough for a cache; failures fall through to postgres
		MaxRetries: 1,
	})

	return &Client{rdb: rdb, addr: cfg.Addr}
}

// Ping backs the redis readiness check.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", c.addr, err)
	}
	return nil
}

func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Raw hands the go-redis client to the cache store.
func (c *Client) Raw() *redis.Client {
	return c.rdb
}
