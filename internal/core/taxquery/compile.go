// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxquery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/taibuivan/multitax/internal/core/taxonomy"
	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/database/schema"
)

// relationshipAlias is the alias of the first relationship join; later joins add a counter.
const relationshipAlias = "tr"

// compiler holds the state of one GetSQL call.
type compiler struct {
	query         *TaxQuery
	primary       string
	aliases       int
	unsatisfiable bool
}

/*
GetSQL compiles the tree against the primary table of the caller's statement.

Parameters:
  - context: context.Context
  - primaryTable: string (table name or alias of the outer statement)
  - primaryIDColumn: string (column holding the object ID)

Returns:
  - Clauses: The join and where fragments
  - error: ErrInvalidTaxonomy, ErrInexistentTerms, validation or storage failures
*/
func (query *TaxQuery) GetSQL(context context.Context, primaryTable, primaryIDColumn string) (Clauses, error) {
	state := &compiler{query: query, primary: primaryTable + "." + primaryIDColumn}

	joins, where, err := state.group(context, query.root)
	if err != nil {
		return Clauses{}, err
	}

	if state.unsatisfiable {
		return Clauses{Join: emptyFragment(), Where: sqlbuilder.Buildf(" AND 0 = 1")}, nil
	}

	clauses := Clauses{Join: emptyFragment(), Where: emptyFragment()}
	if len(joins) > 0 {
		clauses.Join = concat("", "", "", joins)
	}
	if where != nil {
		clauses.Where = sqlbuilder.Buildf(" AND %v", where)
	}
	return clauses, nil
}

// concat joins builders with sep and wraps the result in prefix and suffix.
func concat(prefix, sep, suffix string, parts []sqlbuilder.Builder) sqlbuilder.Builder {
	placeholders := make([]string, len(parts))
	args := make([]any, len(parts))
	for i, part := range parts {
		placeholders[i] = "%v"
		args[i] = part
	}
	return sqlbuilder.Buildf(prefix+strings.Join(placeholders, sep)+suffix, args...)
}

// dedupe drops builders whose rendered SQL and arguments repeat an earlier one.
func dedupe(parts []sqlbuilder.Builder) []sqlbuilder.Builder {
	seen := make(map[string]bool, len(parts))
	result := make([]sqlbuilder.Builder, 0, len(parts))
	for _, part := range parts {
		sql, args := part.BuildWithFlavor(sqlbuilder.PostgreSQL)
		key := sql + fmt.Sprint(args)
		if !seen[key] {
			seen[key] = true
			result = append(result, part)
		}
	}
	return result
}

// # Groups

func (state *compiler) group(context context.Context, group Group) ([]sqlbuilder.Builder, sqlbuilder.Builder, error) {
	joins := make([]sqlbuilder.Builder, 0)
	wheres := make([]sqlbuilder.Builder, 0)
	sharedAlias := ""

	for _, child := range group.Children {
		switch node := child.(type) {
		case Clause:
			join, where, alias, err := state.clause(context, node, group.Relation, sharedAlias)
			if err != nil {
				return nil, nil, err
			}
			if sharedAlias == "" && alias != "" {
				sharedAlias = alias
			}
			if join != nil {
				joins = append(joins, join)
			}
			if where != nil {
				wheres = append(wheres, where)
			}

		case Group:
			nestedJoins, where, err := state.group(context, node)
			if err != nil {
				return nil, nil, err
			}
			joins = append(joins, nestedJoins...)
			if where != nil {
				wheres = append(wheres, where)
			}
		}
	}

	joins = dedupe(joins)
	if len(wheres) == 0 {
		return joins, nil, nil
	}
	return joins, concat("( ", " "+string(group.Relation)+" ", " )", wheres), nil
}

// # Clauses

// clause compiles one first-order clause. The returned alias is set when the
// clause opened a relationship join that later IN siblings under OR may share.
func (state *compiler) clause(context context.Context, clause Clause, relation Relation, sharedAlias string) (sqlbuilder.Builder, sqlbuilder.Builder, string, error) {
	if !clause.Operator.valid() {
		return nil, nil, "", apperr.ValidationError("Invalid tax query operator",
			apperr.FieldError{Field: "operator", Message: fmt.Sprintf("unsupported operator %q", clause.Operator)})
	}
	if !clause.Field.Valid() {
		return nil, nil, "", apperr.ValidationError("Invalid tax query field",
			apperr.FieldError{Field: "field", Message: fmt.Sprintf("unsupported field %q", clause.Field)})
	}

	ids, err := state.resolve(context, clause)
	if err != nil {
		return nil, nil, "", err
	}

	relationships := schema.NetworkTermRelationships
	switch clause.Operator {
	case OpIn:
		if len(ids) == 0 {
			state.unsatisfiable = true
			return nil, nil, "", nil
		}

		var join sqlbuilder.Builder
		alias := sharedAlias
		if relation != RelationOr || alias == "" {
			alias = relationshipAlias
			if state.aliases > 0 {
				alias += strconv.Itoa(state.aliases)
			}
			state.aliases++

			join = sqlbuilder.Buildf(" LEFT JOIN %v AS %v ON (%v = %v.%v%v)",
				sqlbuilder.Raw(relationships.Table), sqlbuilder.Raw(alias),
				sqlbuilder.Raw(state.primary), sqlbuilder.Raw(alias), sqlbuilder.Raw(relationships.ObjectID),
				state.blogScope(alias))
		}

		where := sqlbuilder.Buildf("%v.%v IN (%v)", sqlbuilder.Raw(alias), sqlbuilder.Raw(relationships.MtmtID), sqlbuilder.List(ids))
		if join == nil {
			return nil, where, "", nil
		}
		return join, where, alias, nil

	case OpNotIn:
		if len(ids) == 0 {
			return nil, nil, "", nil
		}
		where := sqlbuilder.Buildf("%v NOT IN (SELECT %v FROM %v WHERE %v IN (%v)%v)",
			sqlbuilder.Raw(state.primary), sqlbuilder.Raw(relationships.ObjectID), sqlbuilder.Raw(relationships.Table),
			sqlbuilder.Raw(relationships.MtmtID), sqlbuilder.List(ids), state.blogScope(""))
		return nil, where, "", nil

	case OpAnd:
		if len(ids) == 0 {
			return nil, nil, "", nil
		}
		where := sqlbuilder.Buildf("(SELECT COUNT(1) FROM %v WHERE %v IN (%v) AND %v = %v%v) = %v",
			sqlbuilder.Raw(relationships.Table), sqlbuilder.Raw(relationships.MtmtID), sqlbuilder.List(ids),
			sqlbuilder.Raw(relationships.ObjectID), sqlbuilder.Raw(state.primary), state.blogScope(""),
			sqlbuilder.Raw(strconv.Itoa(len(ids))))
		return nil, where, "", nil

	default:
		pairings := schema.NetworkTermTaxonomy
		where := sqlbuilder.Buildf("%v (SELECT 1 FROM %v INNER JOIN %v ON %v.%v = %v.%v WHERE %v.%v = %v AND %v.%v = %v%v)",
			sqlbuilder.Raw(string(clause.Operator)),
			sqlbuilder.Raw(relationships.Table), sqlbuilder.Raw(pairings.Table),
			sqlbuilder.Raw(pairings.Table), sqlbuilder.Raw(pairings.MtmtID),
			sqlbuilder.Raw(relationships.Table), sqlbuilder.Raw(relationships.MtmtID),
			sqlbuilder.Raw(pairings.Table), sqlbuilder.Raw(pairings.Taxonomy), clause.Taxonomy,
			sqlbuilder.Raw(relationships.Table), sqlbuilder.Raw(relationships.ObjectID), sqlbuilder.Raw(state.primary),
			state.blogScope(relationships.Table))
		return nil, where, "", nil
	}
}

// blogScope restricts relationship rows to the query's site. An empty alias
// leaves the column unqualified.
func (state *compiler) blogScope(alias string) sqlbuilder.Builder {
	if state.query.blogID <= 0 {
		return emptyFragment()
	}
	column := schema.NetworkTermRelationships.BlogID
	if alias != "" {
		column = alias + "." + column
	}
	return sqlbuilder.Buildf(" AND %v = %v", sqlbuilder.Raw(column), state.query.blogID)
}

// # Term Resolution

// resolve turns the clause's terms into term-taxonomy IDs.
func (state *compiler) resolve(context context.Context, clause Clause) ([]int64, error) {
	builder := state.query.builder
	includeChildren := clause.IncludeChildren == nil || *clause.IncludeChildren

	switch {
	case clause.Taxonomy == "":
		if clause.Field != term.FieldMtmtID {
			return nil, taxonomy.Invalid(clause.Taxonomy)
		}
		includeChildren = false
	case !builder.taxonomies.Exists(clause.Taxonomy):
		return nil, taxonomy.Invalid(clause.Taxonomy)
	}

	values, field := clause.Terms, clause.Field

	if includeChildren && builder.taxonomies.IsHierarchical(clause.Taxonomy) {
		var err error
		values, field, err = state.transform(context, clause, values, field, term.FieldTermID)
		if err != nil {
			return nil, err
		}

		expanded := make([]int64, 0, len(values))
		for _, id := range term.ParseIDs(values) {
			descendants, err := builder.hierarchy.Descendants(context, id, clause.Taxonomy)
			if err != nil {
				return nil, err
			}
			expanded = append(expanded, descendants...)
			expanded = append(expanded, id)
		}
		values = term.IDs(unique(expanded)...)
	}

	values, _, err := state.transform(context, clause, values, field, term.FieldMtmtID)
	if err != nil {
		return nil, err
	}
	return term.ParseIDs(values), nil
}

// transform re-expresses values in the resulting field. Only AND clauses fail
// when some values do not resolve, and they are always checked against the
// clause taxonomy even when the field is already the resulting one.
func (state *compiler) transform(context context.Context, clause Clause, values []string, field, resulting term.Field) ([]string, term.Field, error) {
	strict := clause.Operator == OpAnd && clause.Taxonomy != ""
	if len(values) == 0 || (field == resulting && !strict) {
		return values, field, nil
	}

	values = unique(values)
	ids, err := state.query.builder.resolver.Resolve(context, clause.Taxonomy, field, values, resulting)
	if err != nil {
		return nil, field, err
	}

	if clause.Operator == OpAnd && len(ids) < len(values) {
		return nil, field, apperr.New(term.ErrInexistentTerms.Code, term.ErrInexistentTerms.HTTPStatus,
			fmt.Sprintf("Inexistent terms in taxonomy %s: %d of %d resolved", clause.Taxonomy, len(ids), len(values)))
	}
	return term.IDs(ids...), resulting, nil
}
