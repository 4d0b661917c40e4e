// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package term

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/multitax/internal/platform/database/schema"
	"github.com/taibuivan/multitax/internal/platform/dberr"
)

// # Query Store

// ListParents implements [QueryStore].
func (repository *PostgresRepository) ListParents(context context.Context, taxonomy string) ([]ParentLink, error) {
	tt := schema.NetworkTermTaxonomy
	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = $1 AND %s > 0 ORDER BY %s`,
		tt.TermID, tt.Parent, tt.Table, tt.Taxonomy, tt.Parent, tt.TermID)

	rows, err := repository.db.Query(context, query, taxonomy)
	if err != nil {
		return nil, dberr.Wrap(err, "list_parents")
	}
	defer rows.Close()

	links := make([]ParentLink, 0)
	for rows.Next() {
		var link ParentLink
		if err := rows.Scan(&link.TermID, &link.Parent); err != nil {
			return nil, dberr.Wrap(err, "scan_parent")
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_parents")
	}
	return links, nil
}

// Resolve implements [QueryStore].
func (repository *PostgresRepository) Resolve(context context.Context, taxonomy string, field Field, values []string, resulting Field) ([]int64, error) {
	if len(values) == 0 {
		return []int64{}, nil
	}
	if resulting != FieldTermID && resulting != FieldMtmtID {
		return nil, fmt.Errorf("term: cannot resolve into %q", resulting)
	}
	tt := schema.NetworkTermTaxonomy

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(qualified(AliasTermTaxonomy, string(resulting)))

	switch field {
	case FieldSlug, FieldName:
		sb.From(FromJoined())
		sb.Where(
			sb.Equal(qualified(AliasTermTaxonomy, tt.Taxonomy), taxonomy),
			sb.In(qualified(AliasTerms, string(field)), sqlbuilder.Flatten(values)...),
		)
	case FieldMtmtID:
		sb.From(fmt.Sprintf("%s AS %s", tt.Table, AliasTermTaxonomy))
		sb.Where(sb.In(qualified(AliasTermTaxonomy, tt.MtmtID), sqlbuilder.Flatten(ParseIDs(values))...))
		if taxonomy != "" {
			sb.Where(sb.Equal(qualified(AliasTermTaxonomy, tt.Taxonomy), taxonomy))
		}
	case FieldTermID:
		sb.From(fmt.Sprintf("%s AS %s", tt.Table, AliasTermTaxonomy))
		sb.Where(
			sb.Equal(qualified(AliasTermTaxonomy, tt.Taxonomy), taxonomy),
			sb.In(qualified(AliasTermTaxonomy, tt.TermID), sqlbuilder.Flatten(ParseIDs(values))...),
		)
	default:
		return nil, fmt.Errorf("term: unknown lookup field %q", field)
	}

	query, args := sb.Build()
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "resolve_terms")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, dberr.Wrap(err, "resolve_terms")
	}
	return ids, nil
}

// Select implements [QueryStore].
func (repository *PostgresRepository) Select(context context.Context, query string, args []any, withObject bool) ([]*Term, error) {
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "select_terms")
	}
	return collectTerms(rows, withObject, "select_terms")
}

// SelectCount implements [QueryStore].
func (repository *PostgresRepository) SelectCount(context context.Context, query string, args []any) (int64, error) {
	var count int64
	if err := repository.db.QueryRow(context, query, args...).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "select_term_count")
	}
	return count, nil
}

// Counts implements [QueryStore].
func (repository *PostgresRepository) Counts(context context.Context, taxonomy string, termIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(termIDs))
	if len(termIDs) == 0 {
		return counts, nil
	}
	tt := schema.NetworkTermTaxonomy

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(tt.TermID, tt.Count).From(tt.Table)
	sb.Where(sb.Equal(tt.Taxonomy, taxonomy), sb.In(tt.TermID, sqlbuilder.Flatten(termIDs)...))

	query, args := sb.Build()
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "term_counts")
	}
	defer rows.Close()

	for rows.Next() {
		var termID, count int64
		if err := rows.Scan(&termID, &count); err != nil {
			return nil, dberr.Wrap(err, "scan_term_count")
		}
		counts[termID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "term_counts")
	}
	return counts, nil
}
