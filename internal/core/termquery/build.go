// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package termquery

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/platform/database/schema"
	"github.com/taibuivan/multitax/pkg/slice"
	"github.com/taibuivan/multitax/pkg/slug"
)

// statement is one compiled term query.
type statement struct {
	SQL        string `json:"sql"`
	Args       []any  `json:"args"`
	WithObject bool   `json:"with_object"`
	Count      bool   `json:"count"`

	// MetaJoined reports rows that may repeat because of meta joins.
	MetaJoined bool `json:"-"`

	// PageInMemory moves number/offset after deduplication and the
	// hierarchy stages; the SQL then carries no LIMIT.
	PageInMemory bool `json:"page_in_memory"`
}

// orderColumns is the allowlist of plain "orderby" values.
var orderColumns = map[string]string{
	"term_id":     term.AliasTerms + "." + schema.NetworkTerms.TermID,
	"id":          term.AliasTerms + "." + schema.NetworkTerms.TermID,
	"name":        term.AliasTerms + "." + schema.NetworkTerms.Name,
	"slug":        term.AliasTerms + "." + schema.NetworkTerms.Slug,
	"term_group":  term.AliasTerms + "." + schema.NetworkTerms.TermGroup,
	"count":       term.AliasTermTaxonomy + "." + schema.NetworkTermTaxonomy.Count,
	"parent":      term.AliasTermTaxonomy + "." + schema.NetworkTermTaxonomy.Parent,
	"taxonomy":    term.AliasTermTaxonomy + "." + schema.NetworkTermTaxonomy.Taxonomy,
	"mtmt_id":     term.AliasTermTaxonomy + "." + schema.NetworkTermTaxonomy.MtmtID,
	"description": term.AliasTermTaxonomy + "." + schema.NetworkTermTaxonomy.Description,
	"term_order":  term.AliasRelationships + "." + schema.NetworkTermRelationships.TermOrder,
}

// postFiltered reports whether rows may be dropped after the SELECT.
func postFiltered(args Args) bool {
	return args.ChildOf > 0 || (args.Hierarchical && args.HideEmpty)
}

// pageInMemory reports whether SQL paging would count rows that the
// in-memory stages later drop or merge: post-filtered terms, duplicate rows
// from meta joins, and one row per object collapsed into one per term.
func pageInMemory(args Args, metaJoined, withObject bool) bool {
	return postFiltered(args) || metaJoined || (withObject && args.Fields != FieldsAllWithObjectID)
}

// build composes the SELECT for already normalized arguments.
func (service *Service) build(context context.Context, args Args) (statement, error) {
	t, tt, tr := schema.NetworkTerms, schema.NetworkTermTaxonomy, schema.NetworkTermRelationships
	col := func(alias, column string) string { return alias + "." + column }

	withObject := len(args.ObjectIDs) > 0
	count := args.Fields == FieldsCount

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.From(term.FromJoined())
	if withObject {
		sb.Join(fmt.Sprintf("%s AS %s", tr.Table, term.AliasRelationships),
			fmt.Sprintf("%s = %s", col(term.AliasTermTaxonomy, tt.MtmtID), col(term.AliasRelationships, tr.MtmtID)))
	}

	// 1. Taxonomy and identity filters
	if len(args.Taxonomies) > 0 {
		sb.Where(sb.In(col(term.AliasTermTaxonomy, tt.Taxonomy), sqlbuilder.Flatten(args.Taxonomies)...))
	}

	if len(args.Include) > 0 {
		sb.Where(sb.In(col(term.AliasTerms, t.TermID), sqlbuilder.Flatten(args.Include)...))
	} else {
		exclusions, err := service.exclusions(context, args)
		if err != nil {
			return statement{}, err
		}
		if len(exclusions) > 0 {
			sb.Where(sb.NotIn(col(term.AliasTerms, t.TermID), sqlbuilder.Flatten(exclusions)...))
		}
	}

	if len(args.Names) > 0 {
		sb.Where(sb.In(col(term.AliasTerms, t.Name), sqlbuilder.Flatten(args.Names)...))
	}
	slugs := sanitizedSlugs(args.Slugs)
	if len(slugs) > 0 {
		sb.Where(sb.In(col(term.AliasTerms, t.Slug), sqlbuilder.Flatten(slugs)...))
	}
	if len(args.MtmtIDs) > 0 {
		sb.Where(sb.In(col(term.AliasTermTaxonomy, tt.MtmtID), sqlbuilder.Flatten(args.MtmtIDs)...))
	}

	// 2. Text filters
	if args.NameLike != "" {
		sb.Where(fmt.Sprintf("%s ILIKE %s", col(term.AliasTerms, t.Name), sb.Var(likePattern(args.NameLike))))
	}
	if args.DescriptionLike != "" {
		sb.Where(fmt.Sprintf("%s ILIKE %s", col(term.AliasTermTaxonomy, tt.Description), sb.Var(likePattern(args.DescriptionLike))))
	}
	if search := strings.TrimSpace(args.Search); search != "" {
		pattern := likePattern(search)
		sb.Where(fmt.Sprintf("(%s ILIKE %s OR %s ILIKE %s)",
			col(term.AliasTerms, t.Name), sb.Var(pattern), col(term.AliasTerms, t.Slug), sb.Var(pattern)))
	}

	// 3. Object, parent and emptiness filters
	if withObject {
		sb.Where(sb.In(col(term.AliasRelationships, tr.ObjectID), sqlbuilder.Flatten(args.ObjectIDs)...))
		if args.BlogID > 0 {
			sb.Where(sb.Equal(col(term.AliasRelationships, tr.BlogID), args.BlogID))
		}
	}
	if args.Parent != nil {
		sb.Where(sb.Equal(col(term.AliasTermTaxonomy, tt.Parent), *args.Parent))
	}
	if args.HideEmpty && !args.Hierarchical {
		sb.Where(col(term.AliasTermTaxonomy, tt.Count) + " > 0")
	}

	// 4. Meta filters
	meta, err := applyMeta(sb, args.Meta)
	if err != nil {
		return statement{}, err
	}

	// 5. Projection, ordering and limits
	inMemory := pageInMemory(args, meta.joined, withObject)
	if count {
		if meta.joined || withObject {
			sb.Select(fmt.Sprintf("COUNT(DISTINCT %s)", col(term.AliasTermTaxonomy, tt.MtmtID)))
		} else {
			sb.Select("COUNT(*)")
		}
	} else {
		sb.Select(term.Columns(withObject)...)

		if expression := orderExpression(sb, args, meta); expression != "" {
			sb.OrderBy(expression)
			if parseOrder(args.Order) == "ASC" {
				sb.Asc()
			} else {
				sb.Desc()
			}
		}

		if args.Number > 0 && !inMemory {
			sb.Limit(args.Number)
			if args.Offset > 0 {
				sb.Offset(args.Offset)
			}
		}
	}

	query, queryArgs := sb.Build()
	return statement{
		SQL:          query,
		Args:         queryArgs,
		WithObject:   withObject,
		Count:        count,
		MetaJoined:   meta.joined,
		PageInMemory: inMemory && !count,
	}, nil
}

// orderExpression maps "orderby" to a SQL expression, "" meaning no ORDER BY.
func orderExpression(sb *sqlbuilder.SelectBuilder, args Args, meta metaJoins) string {
	orderby := strings.ToLower(strings.TrimSpace(args.Orderby))

	switch orderby {
	case "none":
		return ""
	case "":
		return orderColumns["term_id"]
	case "include":
		if len(args.Include) > 0 {
			return fmt.Sprintf("array_position(%s::bigint[], %s)", sb.Var(args.Include), orderColumns["term_id"])
		}
	case "slug__in":
		if slugs := sanitizedSlugs(args.Slugs); len(slugs) > 0 {
			return fmt.Sprintf("array_position(%s::text[], %s)", sb.Var(slugs), orderColumns["slug"])
		}
	}

	if column, ok := orderColumns[orderby]; ok {
		return column
	}
	if expression := meta.orderExpression(args.Orderby); expression != "" {
		return expression
	}
	return orderColumns["name"]
}

// exclusions collects the term IDs removed by exclude, exclude_tree and childless.
func (service *Service) exclusions(context context.Context, args Args) ([]int64, error) {
	excluded := make([]int64, 0, len(args.Exclude))

	if len(args.ExcludeTree) > 0 && len(args.Taxonomies) > 0 {
		for _, root := range args.ExcludeTree {
			descendants, err := service.hierarchy.Descendants(context, root, args.Taxonomies[0])
			if err != nil {
				return nil, err
			}
			excluded = append(excluded, root)
			excluded = append(excluded, descendants...)
		}
	} else {
		excluded = append(excluded, args.ExcludeTree...)
	}
	excluded = append(excluded, args.Exclude...)

	if args.Childless {
		for _, taxonomy := range args.Taxonomies {
			if !service.taxonomies.IsHierarchical(taxonomy) {
				continue
			}
			children, err := service.hierarchy.Get(context, taxonomy)
			if err != nil {
				return nil, err
			}
			for parent := range children {
				excluded = append(excluded, parent)
			}
		}
	}

	excluded = slice.Unique(slice.Filter(excluded, func(id int64) bool { return id > 0 }))
	slices.Sort(excluded)
	return excluded, nil
}

func sanitizedSlugs(values []string) []string {
	slugs := make([]string, 0, len(values))
	for _, value := range values {
		if sanitized := slug.From(value); sanitized != "" {
			slugs = append(slugs, sanitized)
		}
	}
	return slice.Unique(slugs)
}
