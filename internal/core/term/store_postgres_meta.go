// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package term

import (
	"context"
	"fmt"

	"github.com/taibuivan/multitax/internal/platform/database/schema"
	"github.com/taibuivan/multitax/internal/platform/dberr"
)

// # Meta Store

// ListMeta implements [MetaStore].
func (repository *PostgresRepository) ListMeta(context context.Context, termID int64, key string) ([]Meta, error) {
	m := schema.NetworkTermMeta
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1`,
		m.MetaID, m.TermID, m.MetaKey, m.MetaValue, m.Table, m.TermID)
	args := []any{termID}

	if key != "" {
		query += fmt.Sprintf(` AND %s = $2`, m.MetaKey)
		args = append(args, key)
	}
	query += fmt.Sprintf(` ORDER BY %s`, m.MetaID)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_term_meta")
	}
	defer rows.Close()

	metas := make([]Meta, 0)
	for rows.Next() {
		var meta Meta
		if err := rows.Scan(&meta.MetaID, &meta.TermID, &meta.Key, &meta.Value); err != nil {
			return nil, dberr.Wrap(err, "scan_term_meta")
		}
		metas = append(metas, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_term_meta")
	}
	return metas, nil
}

// AddMeta implements [MetaStore].
func (repository *PostgresRepository) AddMeta(context context.Context, termID int64, key, value string) (int64, error) {
	m := schema.NetworkTermMeta
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3) RETURNING %s`,
		m.Table, m.TermID, m.MetaKey, m.MetaValue, m.MetaID)

	var metaID int64
	if err := repository.db.QueryRow(context, query, termID, key, value).Scan(&metaID); err != nil {
		return 0, dberr.Wrap(err, "add_term_meta")
	}
	return metaID, nil
}

// UpdateMeta implements [MetaStore].
func (repository *PostgresRepository) UpdateMeta(context context.Context, termID int64, key, value string, previous *string) (int64, error) {
	m := schema.NetworkTermMeta
	query := fmt.Sprintf(`UPDATE %s SET %s = $3 WHERE %s = $1 AND %s = $2`, m.Table, m.MetaValue, m.TermID, m.MetaKey)
	args := []any{termID, key, value}

	if previous != nil {
		query += fmt.Sprintf(` AND %s = $4`, m.MetaValue)
		args = append(args, *previous)
	}

	tag, err := repository.db.Exec(context, query, args...)
	if err != nil {
		return 0, dberr.Wrap(err, "update_term_meta")
	}
	return tag.RowsAffected(), nil
}

// DeleteMeta implements [MetaStore].
func (repository *PostgresRepository) DeleteMeta(context context.Context, termID int64, key string, value *string) (int64, error) {
	m := schema.NetworkTermMeta
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, m.Table, m.TermID, m.MetaKey)
	args := []any{termID, key}

	if value != nil {
		query += fmt.Sprintf(` AND %s = $3`, m.MetaValue)
		args = append(args, *value)
	}

	tag, err := repository.db.Exec(context, query, args...)
	if err != nil {
		return 0, dberr.Wrap(err, "delete_term_meta")
	}
	return tag.RowsAffected(), nil
}

// DeleteAllMeta implements [MetaStore].
func (repository *PostgresRepository) DeleteAllMeta(context context.Context, termID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.NetworkTermMeta.Table, schema.NetworkTermMeta.TermID)

	if _, err := repository.db.Exec(context, query, termID); err != nil {
		return dberr.Wrap(err, "delete_all_term_meta")
	}
	return nil
}
