// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadiness(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		deps   HealthDependencies
		status int
		body   string
	}{
		{
			name:   "all_healthy",
			deps:   HealthDependencies{CheckDatabase: func(context.Context) error { return nil }},
			status: http.StatusOK,
			body:   `"status":"ready"`,
		},
		{
			name: "cache_down",
			deps: HealthDependencies{
				CheckDatabase: func(context.Context) error { return nil },
				CheckCache:    func(context.Context) error { return errors.New("connection refused") },
			},
			status: http.StatusServiceUnavailable,
			body:   `"status":"degraded"`,
		},
		{
			name: "schema_dirty",
			deps: HealthDependencies{
				CheckDatabase: func(context.Context) error { return nil },
				CheckSchema:   func(context.Context) error { return errors.New("migration: schema is dirty at version 2") },
			},
			status: http.StatusServiceUnavailable,
			body:   `"name":"schema","ok":false`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, readiness := NewHealthHandlers(tt.deps, logger)

			recorder := httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.status, recorder.Code)
			assert.Contains(t, recorder.Body.String(), tt.body)
		})
	}
}
