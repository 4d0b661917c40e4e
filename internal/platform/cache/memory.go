// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	payload []byte
	expires time.Time
}

// Memory is a process-local [Cache]. Values are stored encoded so callers
// never share mutable state with the cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func memoryKey(group, key string) string {
	return group + ":" + key
}

// Get implements [Cache].
func (c *Memory) Get(_ context.Context, group, key string, dest any) (bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[memoryKey(group, key)]
	c.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if !entry.expires.IsZero() && !c.now().Before(entry.expires) {
		c.mu.Lock()
		delete(c.entries, memoryKey(group, key))
		c.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return false, fmt.Errorf("cache: decode %s/%s: %w", group, key, err)
	}
	return true, nil
}

// Set implements [Cache].
func (c *Memory) Set(_ context.Context, group, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s/%s: %w", group, key, err)
	}

	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[memoryKey(group, key)] = entry
	c.mu.Unlock()
	return nil
}

// Delete implements [Cache].
func (c *Memory) Delete(_ context.Context, group, key string) error {
	c.mu.Lock()
	delete(c.entries, memoryKey(group, key))
	c.mu.Unlock()
	return nil
}

// InvalidateGroup implements [Cache].
func (c *Memory) InvalidateGroup(_ context.Context, group string) error {
	prefix := group + ":"

	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
