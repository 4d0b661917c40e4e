// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package term

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/multitax/internal/platform/database/schema"
	"github.com/taibuivan/multitax/internal/platform/dberr"
	"github.com/taibuivan/multitax/internal/platform/postgres"
)

// # PostgreSQL Repository

// PostgresRepository implements [Repository] on the network schema.
//
// It accepts any [postgres.Querier], so the same code runs on the pool or
// inside a caller-managed transaction.
type PostgresRepository struct {
	db postgres.Querier
}

// NewPostgresRepository constructs a PostgreSQL backed term store.
func NewPostgresRepository(db postgres.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

// Table aliases used by every term read.
const (
	AliasTerms         = "t"
	AliasTermTaxonomy  = "tt"
	AliasRelationships = "tr"
)

// Columns returns the select list every term read scans with [scanTerm].
func Columns(withObject bool) []string {
	t, tt := schema.NetworkTerms, schema.NetworkTermTaxonomy
	columns := []string{
		AliasTerms + "." + t.TermID,
		AliasTerms + "." + t.Name,
		AliasTerms + "." + t.Slug,
		AliasTerms + "." + t.TermGroup,
		AliasTermTaxonomy + "." + tt.MtmtID,
		AliasTermTaxonomy + "." + tt.Taxonomy,
		AliasTermTaxonomy + "." + tt.Description,
		AliasTermTaxonomy + "." + tt.Parent,
		AliasTermTaxonomy + "." + tt.Count,
	}
	if withObject {
		columns = append(columns,
			AliasRelationships+"."+schema.NetworkTermRelationships.BlogID,
			AliasRelationships+"."+schema.NetworkTermRelationships.ObjectID,
		)
	}
	return columns
}

// FromJoined is the FROM clause joining terms with their taxonomy pairings.
func FromJoined() string {
	return fmt.Sprintf("%s AS %s INNER JOIN %s AS %s ON %s.%s = %s.%s",
		schema.NetworkTerms.Table, AliasTerms,
		schema.NetworkTermTaxonomy.Table, AliasTermTaxonomy,
		AliasTerms, schema.NetworkTerms.TermID, AliasTermTaxonomy, schema.NetworkTermTaxonomy.TermID,
	)
}

func selectJoined() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(Columns(false), ", "), FromJoined())
}

func scanTerm(row pgx.Row, withObject bool) (*Term, error) {
	term := &Term{}
	dest := []any{
		&term.TermID, &term.Name, &term.Slug, &term.TermGroup,
		&term.MtmtID, &term.Taxonomy, &term.Description, &term.Parent, &term.Count,
	}
	if withObject {
		dest = append(dest, &term.BlogID, &term.ObjectID)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return term, nil
}

func collectTerms(rows pgx.Rows, withObject bool, action string) ([]*Term, error) {
	defer rows.Close()

	terms := make([]*Term, 0)
	for rows.Next() {
		term, err := scanTerm(rows, withObject)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_"+action)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return terms, nil
}

// # Reader

// FindByTermID implements [Reader].
func (repository *PostgresRepository) FindByTermID(context context.Context, termID int64) ([]*Term, error) {
	query := fmt.Sprintf(`%s WHERE %s.%s = $1 ORDER BY %s.%s`,
		selectJoined(), AliasTerms, schema.NetworkTerms.TermID, AliasTermTaxonomy, schema.NetworkTermTaxonomy.Taxonomy)

	rows, err := repository.db.Query(context, query, termID)
	if err != nil {
		return nil, dberr.Wrap(err, "find_term_by_id")
	}
	return collectTerms(rows, false, "find_term_by_id")
}

// FindBy implements [Reader].
func (repository *PostgresRepository) FindBy(context context.Context, taxonomy string, field Field, value string) (*Term, error) {
	column, arg, err := lookupColumn(field, value)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`%s WHERE %s.%s = $1 AND %s = $2 ORDER BY %s.%s LIMIT 1`,
		selectJoined(), AliasTermTaxonomy, schema.NetworkTermTaxonomy.Taxonomy, column,
		AliasTerms, schema.NetworkTerms.TermID)

	term, err := scanTerm(repository.db.QueryRow(context, query, taxonomy, arg), false)
	if err != nil {
		return nil, dberr.Wrap(err, "find_term_by_"+string(field))
	}
	return term, nil
}

// lookupColumn maps a lookup field to its qualified column and typed argument.
func lookupColumn(field Field, value string) (string, any, error) {
	switch field {
	case FieldSlug:
		return AliasTerms + "." + schema.NetworkTerms.Slug, value, nil
	case FieldName:
		return AliasTerms + "." + schema.NetworkTerms.Name, value, nil
	case FieldTermID:
		return AliasTerms + "." + schema.NetworkTerms.TermID, ParseIDs([]string{value})[0], nil
	case FieldMtmtID:
		return AliasTermTaxonomy + "." + schema.NetworkTermTaxonomy.MtmtID, ParseIDs([]string{value})[0], nil
	}
	return "", nil, fmt.Errorf("term: unknown lookup field %q", field)
}

// FindByName implements [Reader].
func (repository *PostgresRepository) FindByName(context context.Context, taxonomy, name string, parent *int64) ([]*Term, error) {
	query := fmt.Sprintf(`%s WHERE %s.%s = $1 AND LOWER(%s.%s) = LOWER($2)`,
		selectJoined(), AliasTermTaxonomy, schema.NetworkTermTaxonomy.Taxonomy, AliasTerms, schema.NetworkTerms.Name)
	args := []any{taxonomy, name}

	if parent != nil {
		query += fmt.Sprintf(` AND %s.%s = $3`, AliasTermTaxonomy, schema.NetworkTermTaxonomy.Parent)
		args = append(args, *parent)
	}
	query += fmt.Sprintf(` ORDER BY %s.%s`, AliasTerms, schema.NetworkTerms.TermID)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "find_term_by_name")
	}
	return collectTerms(rows, false, "find_term_by_name")
}

// ListChildren implements [Reader].
func (repository *PostgresRepository) ListChildren(context context.Context, taxonomy string, parent int64) ([]*Term, error) {
	query := fmt.Sprintf(`%s WHERE %s.%s = $1 AND %s.%s = $2 ORDER BY %s.%s`,
		selectJoined(),
		AliasTermTaxonomy, schema.NetworkTermTaxonomy.Taxonomy,
		AliasTermTaxonomy, schema.NetworkTermTaxonomy.Parent,
		AliasTerms, schema.NetworkTerms.TermID)

	rows, err := repository.db.Query(context, query, taxonomy, parent)
	if err != nil {
		return nil, dberr.Wrap(err, "list_term_children")
	}
	return collectTerms(rows, false, "list_term_children")
}

// SlugExists implements [Reader].
func (repository *PostgresRepository) SlugExists(context context.Context, slug string, excludeTermID int64) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s <> $2)`,
		schema.NetworkTerms.Table, schema.NetworkTerms.Slug, schema.NetworkTerms.TermID)

	var exists bool
	if err := repository.db.QueryRow(context, query, slug, excludeTermID).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "slug_exists")
	}
	return exists, nil
}

// FindMtmtID implements [Reader].
func (repository *PostgresRepository) FindMtmtID(context context.Context, termID int64, taxonomy string) (int64, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		schema.NetworkTermTaxonomy.MtmtID, schema.NetworkTermTaxonomy.Table,
		schema.NetworkTermTaxonomy.TermID, schema.NetworkTermTaxonomy.Taxonomy)

	var mtmtID int64
	err := repository.db.QueryRow(context, query, termID, taxonomy).Scan(&mtmtID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, dberr.Wrap(err, "find_mtmt_id")
	}
	return mtmtID, nil
}

// CountPairings implements [Reader].
func (repository *PostgresRepository) CountPairings(context context.Context, termID int64) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`,
		schema.NetworkTermTaxonomy.Table, schema.NetworkTermTaxonomy.TermID)

	var count int
	if err := repository.db.QueryRow(context, query, termID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count_pairings")
	}
	return count, nil
}

// # Writer

// CreateTerm implements [Writer].
func (repository *PostgresRepository) CreateTerm(context context.Context, name, slug string, group int64) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3) RETURNING %s`,
		schema.NetworkTerms.Table, schema.NetworkTerms.Name, schema.NetworkTerms.Slug, schema.NetworkTerms.TermGroup,
		schema.NetworkTerms.TermID)

	var termID int64
	if err := repository.db.QueryRow(context, query, name, slug, group).Scan(&termID); err != nil {
		return 0, dberr.Wrap(err, "create_term")
	}
	return termID, nil
}

// CreatePairing implements [Writer].
func (repository *PostgresRepository) CreatePairing(context context.Context, termID int64, taxonomy, description string, parent int64) (int64, error) {
	tt := schema.NetworkTermTaxonomy
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, 0) RETURNING %s`,
		tt.Table, tt.TermID, tt.Taxonomy, tt.Description, tt.Parent, tt.Count, tt.MtmtID)

	var mtmtID int64
	if err := repository.db.QueryRow(context, query, termID, taxonomy, description, parent).Scan(&mtmtID); err != nil {
		return 0, dberr.Wrap(err, "create_pairing")
	}
	return mtmtID, nil
}

// UpdateTerm implements [Writer].
func (repository *PostgresRepository) UpdateTerm(context context.Context, termID int64, name, slug string, group int64) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4 WHERE %s = $1`,
		schema.NetworkTerms.Table, schema.NetworkTerms.Name, schema.NetworkTerms.Slug, schema.NetworkTerms.TermGroup,
		schema.NetworkTerms.TermID)

	tag, err := repository.db.Exec(context, query, termID, name, slug, group)
	if err != nil {
		return dberr.Wrap(err, "update_term")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// UpdatePairing implements [Writer].
func (repository *PostgresRepository) UpdatePairing(context context.Context, mtmtID int64, description string, parent int64) error {
	tt := schema.NetworkTermTaxonomy
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`, tt.Table, tt.Description, tt.Parent, tt.MtmtID)

	tag, err := repository.db.Exec(context, query, mtmtID, description, parent)
	if err != nil {
		return dberr.Wrap(err, "update_pairing")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// NextTermGroup implements [Writer].
func (repository *PostgresRepository) NextTermGroup(context context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(%s), 0) + 1 FROM %s`, schema.NetworkTerms.TermGroup, schema.NetworkTerms.Table)

	var group int64
	if err := repository.db.QueryRow(context, query).Scan(&group); err != nil {
		return 0, dberr.Wrap(err, "next_term_group")
	}
	return group, nil
}

// Reparent implements [Writer].
func (repository *PostgresRepository) Reparent(context context.Context, taxonomy string, from, to int64) ([]int64, error) {
	tt := schema.NetworkTermTaxonomy
	query := fmt.Sprintf(`UPDATE %s SET %s = $3 WHERE %s = $1 AND %s = $2 RETURNING %s`,
		tt.Table, tt.Parent, tt.Taxonomy, tt.Parent, tt.TermID)

	rows, err := repository.db.Query(context, query, taxonomy, from, to)
	if err != nil {
		return nil, dberr.Wrap(err, "reparent_terms")
	}
	moved, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, dberr.Wrap(err, "reparent_terms")
	}
	return moved, nil
}

// DeletePairing implements [Writer].
func (repository *PostgresRepository) DeletePairing(context context.Context, mtmtID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.NetworkTermTaxonomy.Table, schema.NetworkTermTaxonomy.MtmtID)

	if _, err := repository.db.Exec(context, query, mtmtID); err != nil {
		return dberr.Wrap(err, "delete_pairing")
	}
	return nil
}

// DeleteTerm implements [Writer].
func (repository *PostgresRepository) DeleteTerm(context context.Context, termID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.NetworkTerms.Table, schema.NetworkTerms.TermID)

	if _, err := repository.db.Exec(context, query, termID); err != nil {
		return dberr.Wrap(err, "delete_term")
	}
	return nil
}
