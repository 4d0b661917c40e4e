// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/taibuivan/multitax/internal/core/crosssite"
	"github.com/taibuivan/multitax/internal/core/taxquery"
	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/database/schema"
)

// postsAlias is the alias of the posts table in [Service.FindPosts].
const postsAlias = "p"

// # Post Queries

// NewTaxQuery sanitizes a taxonomy query tree for [Service.FindPosts].
func (service *Service) NewTaxQuery(root taxquery.Group) *taxquery.TaxQuery {
	return service.taxQueries.New(root)
}

/*
FindPosts lists the published posts of one site matching a taxonomy query.

Parameters:
  - context: context.Context
  - blogID: int64
  - query: *taxquery.TaxQuery
  - limit: int (0 for no limit)
  - offset: int

Returns:
  - []crosssite.Post: Newest first, without permalinks
  - error: Compile or storage failures
*/
func (service *Service) FindPosts(context context.Context, blogID int64, query *taxquery.TaxQuery, limit, offset int) ([]crosssite.Post, error) {
	if blogID <= 0 {
		return nil, apperr.ValidationError("blog ID is required",
			apperr.FieldError{Field: "blog_id", Message: "must be positive"})
	}

	clauses, err := query.WithBlog(blogID).GetSQL(context, postsAlias, schema.SitePosts.ID)
	if err != nil {
		return nil, err
	}

	statement, args := postsStatement(service.tablePrefix, blogID, clauses, limit, offset)
	return service.postStore.Posts(context, statement, args)
}

// QueryPosts runs a cross-site post query.
func (service *Service) QueryPosts(context context.Context, opts crosssite.Options) ([]crosssite.Post, error) {
	return service.posts.Query(context, opts)
}

// postsStatement wraps the compiled clauses in the single-site posts SELECT.
func postsStatement(prefix string, blogID int64, clauses taxquery.Clauses, limit, offset int) (string, []any) {
	p := schema.SitePosts
	columns := make([]string, 0, 7)
	for _, column := range []string{p.ID, p.Title, p.Content, p.Excerpt, p.Date, p.Name, p.Type} {
		columns = append(columns, postsAlias+"."+column)
	}

	format := "SELECT %v AS blog_id, %v FROM %v AS %v%v WHERE %v = %v%v GROUP BY %v ORDER BY %v DESC, %v ASC"
	args := []any{
		sqlbuilder.Raw(strconv.FormatInt(blogID, 10)),
		sqlbuilder.Raw(strings.Join(columns, ", ")),
		sqlbuilder.Raw(p.Table(prefix, blogID)),
		sqlbuilder.Raw(postsAlias),
		clauses.Join,
		sqlbuilder.Raw(postsAlias + "." + p.Status),
		"publish",
		clauses.Where,
		sqlbuilder.Raw(postsAlias + "." + p.ID),
		sqlbuilder.Raw(postsAlias + "." + p.Date),
		sqlbuilder.Raw(postsAlias + "." + p.ID),
	}
	if limit > 0 {
		format += " LIMIT %v OFFSET %v"
		args = append(args, limit, offset)
	}

	return sqlbuilder.Buildf(format, args...).BuildWithFlavor(sqlbuilder.PostgreSQL)
}
