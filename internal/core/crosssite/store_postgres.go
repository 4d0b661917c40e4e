// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package crosssite

import (
	"context"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/multitax/internal/platform/database/schema"
	"github.com/taibuivan/multitax/internal/platform/dberr"
	"github.com/taibuivan/multitax/internal/platform/postgres"
)

// PostgresStore reads per-site posts tables and the site registry.
type PostgresStore struct {
	db postgres.Querier
}

// NewPostgresStore constructs a PostgreSQL backed [Store].
func NewPostgresStore(db postgres.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

// Posts implements [Store]. Rows are expected in the column order of [SiteSelect].
func (store *PostgresStore) Posts(context context.Context, query string, args []any) ([]Post, error) {
	rows, err := store.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "query_cross_site_posts")
	}

	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Post, error) {
		var post Post
		err := row.Scan(&post.BlogID, &post.ID, &post.Title, &post.Content, &post.Excerpt, &post.Date, &post.Name, &post.Type)
		return post, err
	})
	if err != nil {
		return nil, dberr.Wrap(err, "scan_cross_site_posts")
	}
	return posts, nil
}

// Sites implements [Store].
func (store *PostgresStore) Sites(context context.Context, blogIDs []int64) ([]Site, error) {
	if len(blogIDs) == 0 {
		return []Site{}, nil
	}
	b := schema.NetworkBlogs

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(b.Columns()...).From(b.Table)
	sb.Where(sb.In(b.BlogID, sqlbuilder.Flatten(blogIDs)...))
	sb.OrderBy(b.BlogID)

	query, args := sb.Build()
	rows, err := store.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_sites")
	}

	sites, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Site])
	if err != nil {
		return nil, dberr.Wrap(err, "scan_sites")
	}
	return sites, nil
}
