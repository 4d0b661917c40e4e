// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch bounds the number of keys fetched per SCAN round-trip.
const scanBatch = 500

// Redis stores cache entries in a shared Redis instance.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed cache. Every key is namespaced by prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (c *Redis) key(group, key string) string {
	return c.prefix + group + ":" + key
}

// Get implements [Cache].
func (c *Redis) Get(ctx context.Context, group, key string, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, c.key(group, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: redis get %s/%s: %w", group, key, err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		// A value written by an older layout is treated as a miss.
		return false, nil
	}
	return true, nil
}

// Set implements [Cache].
func (c *Redis) Set(ctx context.Context, group, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s/%s: %w", group, key, err)
	}

	if err := c.client.Set(ctx, c.key(group, key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s/%s: %w", group, key, err)
	}
	return nil
}

// Delete implements [Cache].
func (c *Redis) Delete(ctx context.Context, group, key string) error {
	if err := c.client.Del(ctx, c.key(group, key)).Err(); err != nil {
		return fmt.Errorf("cache: redis delete %s/%s: %w", group, key, err)
	}
	return nil
}

// InvalidateGroup implements [Cache] by scanning the group's key space.
func (c *Redis) InvalidateGroup(ctx context.Context, group string) error {
	pattern := c.prefix + group + ":*"
	var cursor uint64

	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("cache: redis scan %s: %w", group, err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache: redis invalidate %s: %w", group, err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
