// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/multitax/internal/platform/config"
	"github.com/taibuivan/multitax/internal/platform/constants"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	liveness, readiness := NewHealthHandlers(HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
	}, logger)

	cfg := &config.Config{
		ServerPort:          "0",
		Environment:         "production",
		AllowedOriginSuffix: ".network.example",
		RateLimitRPS:        100,
		RateLimitBurst:      100,
	}
	return NewServer(ctx, cfg, logger, nil, Handlers{Liveness: liveness, Readiness: readiness}).Handler()
}

func TestServer_Probes(t *testing.T) {
	handler := newTestServer(t)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.NotEmpty(t, recorder.Header().Get(constants.HeaderXRequestID))
		})
	}
}

func TestServer_RejectsMalformedToken(t *testing.T) {
	handler := newTestServer(t)

	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	request.Header.Set("Authorization", "Token abc")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"code":"UNAUTHORIZED"`)
}

func TestServer_PreflightSkipsAuthentication(t *testing.T) {
	handler := newTestServer(t)

	request := httptest.NewRequest(http.MethodOptions, "/api/v1/taxonomies", nil)
	request.Header.Set(constants.HeaderOrigin, "https://blog.network.example")
	request.Header.Set("Authorization", "Token abc")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://blog.network.example", recorder.Header().Get("Access-Control-Allow-Origin"))
}
