// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/multitax/internal/platform/database/schema"
	"github.com/taibuivan/multitax/internal/platform/dberr"
	"github.com/taibuivan/multitax/internal/platform/postgres"
)

// PostgresStore keeps options as JSONB rows in network.options.
type PostgresStore struct {
	db postgres.Querier
}

// NewPostgresStore creates a new [PostgresStore].
func NewPostgresStore(db postgres.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get implements [Store].
func (store *PostgresStore) Get(context context.Context, name string, dest any) (bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.NetworkOptions.Value, schema.NetworkOptions.Table, schema.NetworkOptions.Name)

	var payload []byte
	err := store.db.QueryRow(context, query, name).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, dberr.Wrap(err, "get_option")
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("options: decode %s: %w", name, err)
	}
	return true, nil
}

// Set implements [Store] as an upsert.
func (store *PostgresStore) Set(context context.Context, name string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("options: encode %s: %w", name, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, NOW())
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = NOW()
	`,
		schema.NetworkOptions.Table, schema.NetworkOptions.Name, schema.NetworkOptions.Value, schema.NetworkOptions.UpdatedAt,
		schema.NetworkOptions.Name, schema.NetworkOptions.Value, schema.NetworkOptions.Value, schema.NetworkOptions.UpdatedAt,
	)

	if _, err := store.db.Exec(context, query, name, payload); err != nil {
		return dberr.Wrap(err, "set_option")
	}
	return nil
}

// Delete implements [Store].
func (store *PostgresStore) Delete(context context.Context, name string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.NetworkOptions.Table, schema.NetworkOptions.Name)

	if _, err := store.db.Exec(context, query, name); err != nil {
		return dberr.Wrap(err, "delete_option")
	}
	return nil
}
