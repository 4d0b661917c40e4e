// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis opens the go-redis client behind the shared object cache.

The cache stores hierarchy maps, term query results, cross-site post lists and
the per-group "last changed" tokens. All of them can be rebuilt from
PostgreSQL, so the client favours short timeouts over retries: a slow Redis
degrades to cache misses instead of stalling requests.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout  = 3 * time.Second
	ioTimeout    = 500 * time.Millisecond
	pingTimeout  = 2 * time.Second
	maxRetries   = 1
	defaultPool  = 10
	clientPrefix = "multitax"
)

// Settings selects the server and sizes the pool.
type Settings struct {
	URL      string
	PoolSize int
}

/*
NewClient connects to Redis and pings it once.

Parameters:
  - context: stdctx.Context (bounds the initial ping)
  - settings: Settings
  - logger: *slog.Logger

Returns:
  - *redis.Client: A connected client; the caller closes it
  - error: An invalid URL or an unreachable server
*/
func NewClient(context stdctx.Context, settings Settings, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(settings.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.ClientName = clientPrefix
	options.PoolSize = settings.PoolSize
	if options.PoolSize <= 0 {
		options.PoolSize = defaultPool
	}
	options.MinIdleConns = max(1, options.PoolSize/5)
	options.MaxRetries = maxRetries
	options.DialTimeout = dialTimeout
	options.ReadTimeout = ioTimeout
	options.WriteTimeout = ioTimeout

	client := redis.NewClient(options)
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
	)
	return client, nil
}

// Ping fails when Redis does not answer within two seconds.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}
