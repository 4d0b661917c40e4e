// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point of the multisite taxonomy HTTP API.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Select the object cache (Redis when configured, in-process otherwise).
//  5. Activate the taxonomy schema (idempotent).
//  6. Load and seal the taxonomy registry.
//  7. Wire repositories, query builders and the catalog.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/multitax/internal/api"
	"github.com/taibuivan/multitax/internal/core/catalog"
	"github.com/taibuivan/multitax/internal/core/crosssite"
	"github.com/taibuivan/multitax/internal/core/hierarchy"
	"github.com/taibuivan/multitax/internal/core/taxonomy"
	"github.com/taibuivan/multitax/internal/core/taxquery"
	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/core/termquery"
	"github.com/taibuivan/multitax/internal/platform/cache"
	"github.com/taibuivan/multitax/internal/platform/config"
	"github.com/taibuivan/multitax/internal/platform/constants"
	"github.com/taibuivan/multitax/internal/platform/metrics"
	"github.com/taibuivan/multitax/internal/platform/migration"
	"github.com/taibuivan/multitax/internal/platform/options"
	pgstore "github.com/taibuivan/multitax/internal/platform/postgres"
	redisstore "github.com/taibuivan/multitax/internal/platform/redis"
	"github.com/taibuivan/multitax/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	log := rawLog.With(slog.String("app", constants.AppName), slog.String("version", constants.AppVersion))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName), slog.String("version", constants.AppVersion))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Root context of background workers such as the rate limiter janitor.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	metrics.Register()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, pgstore.Settings{DSN: cfg.DatabaseURL, MaxConns: cfg.DatabaseMaxConns}, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	health := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
	}

	// ── 4. Object Cache ───────────────────────────────────────────────────
	var backend cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, redisstore.Settings{URL: cfg.RedisURL, PoolSize: cfg.RedisPoolSize}, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()

		backend = cache.NewRedis(rdb, cfg.CachePrefix)
		health.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	} else {
		log.Warn("redis_not_configured", slog.String("cache", "memory"))
	}
	objectCache := cache.Instrument(backend, metrics.CacheRequestsTotal)

	// ── 5. Schema Activation ──────────────────────────────────────────────
	schema := migration.Source{DSN: cfg.DatabaseURL, Path: cfg.MigrationPath}
	_, err = migration.Activate(schema, log)
	must(log, err, "activate schema")
	health.CheckSchema = func(context.Context) error { return migration.Check(schema, log) }

	// ── 6. Taxonomy Registry ──────────────────────────────────────────────
	registry := taxonomy.NewRegistry(log)
	must(log, registry.LoadFile(cfg.TaxonomyConfigPath), "load taxonomies")
	registry.Seal()
	log.Info("taxonomies_registered", slog.Any("taxonomies", registry.Names()))

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService("", cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	terms := term.NewPostgresRepository(pool)
	tree := hierarchy.NewService(registry, terms, options.NewPostgresStore(pool), objectCache, metrics.HierarchyRebuildsTotal, log)
	postStore := crosssite.NewPostgresStore(pool)

	catalogService := catalog.NewService(catalog.Dependencies{
		Taxonomies: registry,
		Repository: terms,
		Hierarchy:  tree,
		Terms:      termquery.NewService(registry, terms, tree, objectCache, cfg.TermQueryCacheTTL, metrics.QueryDuration, log),
		TaxQueries: taxquery.NewBuilder(registry, terms, tree),
		Posts: crosssite.NewService(terms, postStore, objectCache, nil, crosssite.Config{
			TablePrefix: cfg.BlogTablePrefix,
			Scheme:      cfg.SiteScheme,
			TTL:         cfg.PostQueryCacheTTL,
		}, metrics.QueryDuration, log),
		PostStore:   postStore,
		Cache:       objectCache,
		TablePrefix: cfg.BlogTablePrefix,
	}, log)

	liveness, readiness := api.NewHealthHandlers(health, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(appCtx, cfg, log, jwtSvc, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Catalog:   catalog.NewHandler(catalogService),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
// Limited to startup wiring; after startup every error is returned.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
