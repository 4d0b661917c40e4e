// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration installs the network taxonomy schema with golang-migrate.
//
// Activation creates the network-wide term, term-taxonomy, relationship, meta,
// options and blogs tables. It runs once at startup, before the registry is
// loaded, and is safe to repeat. [Check] reports whether the schema is usable
// and backs the readiness probe.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Registers the "pgx5" database scheme.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// Registers the "file" source scheme.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrDirty reports a schema left half-applied by an interrupted activation.
var ErrDirty = errors.New("migration: schema is dirty")

// Status describes the installed schema.
type Status struct {
	Version uint
	Dirty   bool
}

// Source locates the migrations and the database they apply to.
type Source struct {
	DSN  string
	Path string
}

/*
Activate applies every pending migration.

Parameters:
  - source: Source
  - logger: *slog.Logger

Returns:
  - Status: The schema after activation
  - error: ErrDirty when a previous run was interrupted, or the migrate failure
*/
func Activate(source Source, logger *slog.Logger) (Status, error) {
	var status Status
	err := withMigrator(source, logger, func(migrator *migrate.Migrate) error {
		before, err := version(migrator)
		if err != nil {
			return err
		}
		if before.Dirty {
			return fmt.Errorf("%w at version %d", ErrDirty, before.Version)
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration: up: %w", err)
		}

		status, err = version(migrator)
		if err != nil {
			return err
		}
		logger.Info("schema_activated",
			slog.Uint64("from_version", uint64(before.Version)),
			slog.Uint64("to_version", uint64(status.Version)),
		)
		return nil
	})
	return status, err
}

// Check fails when the schema was never installed or is dirty.
func Check(source Source, logger *slog.Logger) error {
	return withMigrator(source, logger, func(migrator *migrate.Migrate) error {
		status, err := version(migrator)
		if err != nil {
			return err
		}
		if status.Dirty {
			return fmt.Errorf("%w at version %d", ErrDirty, status.Version)
		}
		if status.Version == 0 {
			return errors.New("migration: schema not installed")
		}
		return nil
	})
}

func withMigrator(source Source, logger *slog.Logger, run func(*migrate.Migrate) error) error {
	migrator, err := migrate.New("file://"+source.Path, pgx5DSN(source.DSN))
	if err != nil {
		return fmt.Errorf("migration: init: %w", err)
	}
	defer func() {
		sourceErr, databaseErr := migrator.Close()
		if closeErr := errors.Join(sourceErr, databaseErr); closeErr != nil {
			logger.Warn("migration_close_failed", slog.Any("error", closeErr))
		}
	}()

	migrator.Log = slogBridge{logger: logger}
	return run(migrator)
}

func version(migrator *migrate.Migrate) (Status, error) {
	current, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("migration: version: %w", err)
	}
	return Status{Version: current, Dirty: dirty}, nil
}

// pgx5DSN rewrites postgres:// and postgresql:// URLs to the pgx5:// scheme
// the migrate driver registers. Other values are returned unchanged.
func pgx5DSN(dsn string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

// slogBridge sends migrate's progress lines to the debug level.
type slogBridge struct {
	logger *slog.Logger
}

func (bridge slogBridge) Printf(format string, args ...any) {
	bridge.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (bridge slogBridge) Verbose() bool {
	return false
}
