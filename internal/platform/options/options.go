// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package options persists small network-wide settings, most notably the
// flattened hierarchy map of every hierarchical taxonomy.
//
// Unlike the object cache, options survive restarts and cache flushes.
package options

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Store is the persisted key-value contract.
type Store interface {
	// Get decodes the option into dest and reports whether it exists.
	Get(ctx context.Context, name string, dest any) (bool, error)

	// Set creates or replaces the option.
	Set(ctx context.Context, name string, value any) error

	// Delete removes the option. Missing options are not an error.
	Delete(ctx context.Context, name string) error
}

// Memory is an in-process [Store] for development and tests.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory creates an empty in-process option store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Get implements [Store].
func (s *Memory) Get(_ context.Context, name string, dest any) (bool, error) {
	s.mu.RLock()
	payload, ok := s.values[name]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("options: decode %s: %w", name, err)
	}
	return true, nil
}

// Set implements [Store].
func (s *Memory) Set(_ context.Context, name string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("options: encode %s: %w", name, err)
	}

	s.mu.Lock()
	s.values[name] = payload
	s.mu.Unlock()
	return nil
}

// Delete implements [Store].
func (s *Memory) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	delete(s.values, name)
	s.mu.Unlock()
	return nil
}
