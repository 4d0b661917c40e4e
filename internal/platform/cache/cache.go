// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cache provides the group-scoped object cache shared by the query layer.

Values are stored JSON-encoded under "{group}:{key}". Two implementations exist:

  - [Redis]: shared across processes, used whenever REDIS_URL is configured.
  - [Memory]: process-local, used in development and by unit tests.

Coherence:

The only invalidation mechanism is the per-group "last changed" token. Writers call
[Bump]; readers fold [LastChanged] into every derived key via [Key], so one term edit
retires every cached query of the namespace at once.
*/
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taibuivan/multitax/internal/platform/constants"
)

// Cache is the key-value contract consumed by the hierarchy, term query and
// cross-site post components.
type Cache interface {
	// Get decodes the value stored under group/key into dest and reports whether it was found.
	Get(ctx context.Context, group, key string, dest any) (bool, error)

	// Set stores value under group/key. A zero ttl never expires.
	Set(ctx context.Context, group, key string, value any, ttl time.Duration) error

	// Delete removes one entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, group, key string) error

	// InvalidateGroup drops every entry of group.
	InvalidateGroup(ctx context.Context, group string) error
}

// # Key Derivation

// Key hashes parts into a compact, stable cache key.
//
// Parts are JSON-encoded first, so struct field order defines the key and
// map keys are sorted by encoding/json.
func Key(parts ...any) (string, error) {
	payload, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("cache: encode key parts: %w", err)
	}

	return strconv.FormatUint(xxhash.Sum64(payload), 16), nil
}

// # Last Changed Tokens

var sequence atomic.Uint64

// LastChanged returns the change token of group, creating one on first use.
func LastChanged(ctx context.Context, c Cache, group string) (string, error) {
	var token string
	found, err := c.Get(ctx, group, constants.LastChangedKey, &token)
	if err != nil {
		return "", err
	}
	if found && token != "" {
		return token, nil
	}

	token = newToken()
	if err := c.Set(ctx, group, constants.LastChangedKey, token, 0); err != nil {
		return "", err
	}
	return token, nil
}

// Bump replaces the change token of group so that every key derived from the
// previous token is never read again.
func Bump(ctx context.Context, c Cache, group string) error {
	return c.Set(ctx, group, constants.LastChangedKey, newToken(), 0)
}

// newToken is unique within the process even when the clock does not advance.
func newToken() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10) + "." + strconv.FormatUint(sequence.Add(1), 10)
}

// # Instrumentation

// Instrumented decorates a [Cache] with hit/miss counters.
type Instrumented struct {
	inner Cache
	total *prometheus.CounterVec
}

// Instrument wraps inner. total carries the labels "group" and "result"; nil disables counting.
func Instrument(inner Cache, total *prometheus.CounterVec) *Instrumented {
	return &Instrumented{inner: inner, total: total}
}

// Get implements [Cache].
func (c *Instrumented) Get(ctx context.Context, group, key string, dest any) (bool, error) {
	found, err := c.inner.Get(ctx, group, key, dest)
	if err == nil && c.total != nil && key != constants.LastChangedKey {
		result := "miss"
		if found {
			result = "hit"
		}
		c.total.WithLabelValues(group, result).Inc()
	}
	return found, err
}

// Set implements [Cache].
func (c *Instrumented) Set(ctx context.Context, group, key string, value any, ttl time.Duration) error {
	return c.inner.Set(ctx, group, key, value, ttl)
}

// Delete implements [Cache].
func (c *Instrumented) Delete(ctx context.Context, group, key string) error {
	return c.inner.Delete(ctx, group, key)
}

// InvalidateGroup implements [Cache].
func (c *Instrumented) InvalidateGroup(ctx context.Context, group string) error {
	return c.inner.InvalidateGroup(ctx, group)
}
