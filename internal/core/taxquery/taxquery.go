// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package taxquery compiles a nested tree of taxonomy clauses into the JOIN and
WHERE fragments a post or term query splices into its own statement.

Tree:

  - [Clause]: one taxonomy, a list of terms, the field they are expressed in and an
    operator (IN, NOT IN, AND, EXISTS, NOT EXISTS).
  - [Group]: an AND/OR relation over clauses and nested groups.

Compilation:

Term values are resolved to term-taxonomy IDs before any SQL is emitted. Hierarchical
taxonomies expand every term to its descendants unless the clause opts out. IN clauses
join the relationship table; sibling IN clauses under OR share one join. NOT IN, AND and
EXISTS clauses compile to correlated subqueries.

An IN clause that resolves to no terms makes the whole query unsatisfiable: the result
is the single predicate "0 = 1" and no joins.

Every value reaches the datastore as a bind parameter of [sqlbuilder]; identifiers come
from the caller's code, never from request data.
*/
package taxquery

import (
	"context"
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/taibuivan/multitax/internal/core/term"
)

// # Clause Tree

// Operator selects how a clause matches its terms.
type Operator string

const (
	OpIn        Operator = "IN"
	OpNotIn     Operator = "NOT IN"
	OpAnd       Operator = "AND"
	OpExists    Operator = "EXISTS"
	OpNotExists Operator = "NOT EXISTS"
)

func (o Operator) valid() bool {
	switch o {
	case OpIn, OpNotIn, OpAnd, OpExists, OpNotExists:
		return true
	}
	return false
}

// Relation joins the children of a [Group].
type Relation string

const (
	RelationAnd Relation = "AND"
	RelationOr  Relation = "OR"
)

// Node is a [Clause] or a [Group].
type Node interface {
	node()
}

// Clause is a first-order condition on one taxonomy.
type Clause struct {
	Taxonomy string     `json:"taxonomy"`
	Terms    []string   `json:"terms"`
	Field    term.Field `json:"field,omitempty"`
	Operator Operator   `json:"operator,omitempty"`

	// IncludeChildren defaults to true.
	IncludeChildren *bool `json:"include_children,omitempty"`
}

// Group is a relation over nested nodes.
type Group struct {
	Relation Relation `json:"relation,omitempty"`
	Children []Node   `json:"queries"`
}

func (Clause) node() {}
func (Group) node() {}

// And groups nodes under AND.
func And(children ...Node) Group {
	return Group{Relation: RelationAnd, Children: children}
}

// Or groups nodes under OR.
func Or(children ...Node) Group {
	return Group{Relation: RelationOr, Children: children}
}

// QueriedTerm is the first term list and field seen for a taxonomy.
type QueriedTerm struct {
	Terms []string   `json:"terms,omitempty"`
	Field term.Field `json:"field,omitempty"`
}

// # Dependencies

// Taxonomies is the part of the registry the compiler consults.
type Taxonomies interface {
	Exists(name string) bool
	IsHierarchical(name string) bool
}

// Resolver maps lookup values to identifiers.
type Resolver interface {
	Resolve(context context.Context, taxonomy string, field term.Field, values []string, resulting term.Field) ([]int64, error)
}

// Hierarchy lists the descendants of a term.
type Hierarchy interface {
	Descendants(context context.Context, termID int64, taxonomy string) ([]int64, error)
}

// Builder creates [TaxQuery] values bound to shared dependencies.
type Builder struct {
	taxonomies Taxonomies
	resolver   Resolver
	hierarchy  Hierarchy
}

// NewBuilder creates a new [Builder].
func NewBuilder(taxonomies Taxonomies, resolver Resolver, hierarchy Hierarchy) *Builder {
	return &Builder{taxonomies: taxonomies, resolver: resolver, hierarchy: hierarchy}
}

// # Query

// TaxQuery is a sanitized clause tree ready to compile.
type TaxQuery struct {
	builder *Builder
	root    Group
	queried map[string]QueriedTerm
	blogID  int64
}

// New sanitizes root into a [TaxQuery].
func (builder *Builder) New(root Group) *TaxQuery {
	query := &TaxQuery{builder: builder, queried: make(map[string]QueriedTerm)}
	query.root = query.sanitizeGroup(root)
	return query
}

// WithBlog scopes every relationship lookup to one site.
func (query *TaxQuery) WithBlog(blogID int64) *TaxQuery {
	query.blogID = blogID
	return query
}

// Queries returns the sanitized tree.
func (query *TaxQuery) Queries() Group {
	return query.root
}

// QueriedTerms returns the first positive term list per taxonomy. NOT IN
// clauses are not recorded.
func (query *TaxQuery) QueriedTerms() map[string]QueriedTerm {
	return query.queried
}

func sanitizeRelation(relation Relation) Relation {
	if strings.EqualFold(string(relation), string(RelationOr)) {
		return RelationOr
	}
	return RelationAnd
}

func (query *TaxQuery) sanitizeGroup(group Group) Group {
	cleaned := Group{Relation: sanitizeRelation(group.Relation), Children: make([]Node, 0, len(group.Children))}

	for _, child := range group.Children {
		switch node := child.(type) {
		case Clause:
			cleaned.Children = append(cleaned.Children, query.sanitizeClause(node))
		case *Clause:
			if node != nil {
				cleaned.Children = append(cleaned.Children, query.sanitizeClause(*node))
			}
		case Group:
			if nested := query.sanitizeGroup(node); len(nested.Children) > 0 {
				cleaned.Children = append(cleaned.Children, nested)
			}
		case *Group:
			if node == nil {
				continue
			}
			if nested := query.sanitizeGroup(*node); len(nested.Children) > 0 {
				cleaned.Children = append(cleaned.Children, nested)
			}
		}
	}
	return cleaned
}

func (query *TaxQuery) sanitizeClause(clause Clause) Clause {
	if clause.Field == "" {
		clause.Field = term.FieldTermID
	}
	clause.Field = clause.Field.Canonical()
	if clause.Operator == "" {
		clause.Operator = OpIn
	}
	clause.Operator = Operator(strings.ToUpper(strings.TrimSpace(string(clause.Operator))))
	if clause.IncludeChildren == nil {
		include := true
		clause.IncludeChildren = &include
	}
	clause.Terms = unique(clause.Terms)

	if clause.Taxonomy != "" && clause.Operator != OpNotIn {
		seen := query.queried[clause.Taxonomy]
		if len(clause.Terms) > 0 && seen.Terms == nil {
			seen.Terms = clause.Terms
		}
		if seen.Field == "" {
			seen.Field = clause.Field
		}
		query.queried[clause.Taxonomy] = seen
	}
	return clause
}

func unique[T comparable](values []T) []T {
	seen := make(map[T]bool, len(values))
	result := make([]T, 0, len(values))
	for _, value := range values {
		if !seen[value] {
			seen[value] = true
			result = append(result, value)
		}
	}
	return result
}

// # Compiled Fragments

// Clauses is the compiled output. Join starts with a space when not empty;
// Where starts with " AND " when not empty.
type Clauses struct {
	Join  sqlbuilder.Builder
	Where sqlbuilder.Builder
}

func emptyFragment() sqlbuilder.Builder {
	return sqlbuilder.Buildf("")
}

// JoinSQL renders the join fragment alone in PostgreSQL syntax.
func (clauses Clauses) JoinSQL() (string, []any) {
	return clauses.Join.BuildWithFlavor(sqlbuilder.PostgreSQL)
}

// WhereSQL renders the where fragment alone in PostgreSQL syntax.
func (clauses Clauses) WhereSQL() (string, []any) {
	return clauses.Where.BuildWithFlavor(sqlbuilder.PostgreSQL)
}

// IsEmpty reports whether the query restricts nothing.
func (clauses Clauses) IsEmpty() bool {
	join, _ := clauses.JoinSQL()
	where, _ := clauses.WhereSQL()
	return join == "" && where == ""
}
