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

// # Relationship Store

func qualified(alias, column string) string {
	return alias + "." + column
}

// ObjectMtmtIDs implements [RelationshipStore].
func (repository *PostgresRepository) ObjectMtmtIDs(context context.Context, blogID, objectID int64, taxonomies []string) ([]int64, error) {
	tr, tt := schema.NetworkTermRelationships, schema.NetworkTermTaxonomy

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(qualified(AliasRelationships, tr.MtmtID)).
		From(fmt.Sprintf("%s AS %s", tr.Table, AliasRelationships))
	sb.Where(
		sb.Equal(qualified(AliasRelationships, tr.BlogID), blogID),
		sb.Equal(qualified(AliasRelationships, tr.ObjectID), objectID),
	)

	if len(taxonomies) > 0 {
		sb.Join(fmt.Sprintf("%s AS %s", tt.Table, AliasTermTaxonomy),
			fmt.Sprintf("%s = %s", qualified(AliasTermTaxonomy, tt.MtmtID), qualified(AliasRelationships, tr.MtmtID)))
		sb.Where(sb.In(qualified(AliasTermTaxonomy, tt.Taxonomy), sqlbuilder.Flatten(taxonomies)...))
	}
	sb.OrderBy(qualified(AliasRelationships, tr.TermOrder), qualified(AliasRelationships, tr.MtmtID))

	query, args := sb.Build()
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "object_mtmt_ids")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, dberr.Wrap(err, "object_mtmt_ids")
	}
	return ids, nil
}

// AddRelationships implements [RelationshipStore].
func (repository *PostgresRepository) AddRelationships(context context.Context, relationships []Relationship) error {
	if len(relationships) == 0 {
		return nil
	}

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(schema.NetworkTermRelationships.Table).Cols(schema.NetworkTermRelationships.Columns()...)
	for _, relationship := range relationships {
		ib.Values(relationship.BlogID, relationship.ObjectID, relationship.MtmtID, relationship.TermOrder)
	}
	ib.SQL("ON CONFLICT DO NOTHING")

	query, args := ib.Build()
	if _, err := repository.db.Exec(context, query, args...); err != nil {
		return dberr.Wrap(err, "add_relationships")
	}
	return nil
}

// RemoveRelationships implements [RelationshipStore].
func (repository *PostgresRepository) RemoveRelationships(context context.Context, blogID, objectID int64, mtmtIDs []int64) (int64, error) {
	if len(mtmtIDs) == 0 {
		return 0, nil
	}
	tr := schema.NetworkTermRelationships

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(tr.Table).Where(
		db.Equal(tr.BlogID, blogID),
		db.Equal(tr.ObjectID, objectID),
		db.In(tr.MtmtID, sqlbuilder.Flatten(mtmtIDs)...),
	)

	query, args := db.Build()
	tag, err := repository.db.Exec(context, query, args...)
	if err != nil {
		return 0, dberr.Wrap(err, "remove_relationships")
	}
	return tag.RowsAffected(), nil
}

// ListRelationships implements [RelationshipStore].
func (repository *PostgresRepository) ListRelationships(context context.Context, mtmtIDs []int64) ([]Relationship, error) {
	if len(mtmtIDs) == 0 {
		return []Relationship{}, nil
	}
	tr := schema.NetworkTermRelationships

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(tr.Columns()...).From(tr.Table)
	sb.Where(sb.In(tr.MtmtID, sqlbuilder.Flatten(mtmtIDs)...))
	sb.OrderBy(tr.BlogID, tr.ObjectID, tr.MtmtID)

	query, args := sb.Build()
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_relationships")
	}
	defer rows.Close()

	relationships := make([]Relationship, 0)
	for rows.Next() {
		var relationship Relationship
		if err := rows.Scan(&relationship.BlogID, &relationship.ObjectID, &relationship.MtmtID, &relationship.TermOrder); err != nil {
			return nil, dberr.Wrap(err, "scan_relationship")
		}
		relationships = append(relationships, relationship)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_relationships")
	}
	return relationships, nil
}

// CountObjects implements [RelationshipStore]. The primary key makes every
// (blog_id, object_id) pair unique per pairing.
func (repository *PostgresRepository) CountObjects(context context.Context, mtmtID int64) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`,
		schema.NetworkTermRelationships.Table, schema.NetworkTermRelationships.MtmtID)

	var count int64
	if err := repository.db.QueryRow(context, query, mtmtID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count_objects")
	}
	return count, nil
}

// SetCount implements [RelationshipStore].
func (repository *PostgresRepository) SetCount(context context.Context, mtmtID, count int64) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		schema.NetworkTermTaxonomy.Table, schema.NetworkTermTaxonomy.Count, schema.NetworkTermTaxonomy.MtmtID)

	if _, err := repository.db.Exec(context, query, mtmtID, count); err != nil {
		return dberr.Wrap(err, "set_count")
	}
	return nil
}
