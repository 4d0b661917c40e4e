// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api is the composition root of the HTTP transport.

It builds the chi router, applies the middleware chain and mounts the
probes, the Prometheus scrape endpoint and the catalog routes under
/api/v1. Nothing below this package knows about [http.Server].
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/multitax/internal/core/catalog"
	"github.com/taibuivan/multitax/internal/platform/config"
	"github.com/taibuivan/multitax/internal/platform/constants"
	"github.com/taibuivan/multitax/internal/platform/metrics"
	"github.com/taibuivan/multitax/internal/platform/middleware"
)

// Handlers are the route sets mounted by [NewServer].
type Handlers struct {
	// Liveness answers /health while the process runs.
	Liveness http.HandlerFunc

	// Readiness answers /ready once PostgreSQL, the cache and the schema
	// are usable.
	Readiness http.HandlerFunc

	// Catalog serves /api/v1. Nil leaves the API unmounted.
	Catalog *catalog.Handler
}

// Server owns the router and the listening [http.Server].
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

/*
NewServer assembles the router.

Middleware order matters: request IDs and logging wrap everything so a
rejected request is still traced; CORS answers preflights before the rate
limiter and token check see them; panic recovery sits inside the limiter
so a crash still counts against the caller.

Parameters:
  - context: context.Context (stops the rate limiter sweeper when cancelled)
  - cfg: *config.Config
  - log: *slog.Logger
  - verifier: middleware.TokenVerifier
  - handlers: Handlers

Returns:
  - *Server
*/
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, handlers Handlers) *Server {
	router := chi.NewRouter()

	router.Use(
		middleware.RequestID(),
		middleware.StructuredLogger(log),
		metrics.Middleware(),
		middleware.CORS(cfg),
		chimw.CleanPath,
		chimw.Timeout(constants.GlobalRequestTimeout),
		middleware.RateLimit(context, middleware.RateLimitConfig{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}),
		middleware.PanicRecovery(log),
		middleware.Authenticate(verifier),
	)

	// # Probes
	router.Get("/health", handlers.Liveness)
	router.Get("/ready", handlers.Readiness)
	router.Handle("/metrics", promhttp.Handler())

	// # Taxonomy API
	if handlers.Catalog != nil {
		router.Mount("/api/v1", handlers.Catalog.Routes())
	}

	return &Server{
		log: log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
		},
	}
}

// Handler exposes the assembled router.
func (server *Server) Handler() http.Handler {
	return server.httpServer.Handler
}

// ListenAndServe blocks until the server stops. After [Server.Shutdown] it
// returns [http.ErrServerClosed].
func (server *Server) ListenAndServe() error {
	server.log.Info("api_listening", slog.String("addr", server.httpServer.Addr))
	return server.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests for at most timeout.
func (server *Server) Shutdown(timeout time.Duration) error {
	drainCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.httpServer.Shutdown(drainCtx)
}
