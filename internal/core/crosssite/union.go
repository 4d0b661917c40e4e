// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package crosssite

import (
	"strconv"
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/taibuivan/multitax/internal/platform/database/schema"
)

// publishStatus is the only status listed across sites.
const publishStatus = "publish"

// orderColumns maps "orderby" values to columns of the union.
var orderColumns = map[string]string{
	"post_date":  schema.SitePosts.Date,
	"post_title": schema.SitePosts.Title,
	"post_name":  schema.SitePosts.Name,
	"post_type":  schema.SitePosts.Type,
	"id":         schema.SitePosts.ID,
	"blog_id":    "blog_id",
}

// SiteSelect builds the SELECT of one site's posts, tagged with its blog ID.
func SiteSelect(prefix string, group BlogObjects) sqlbuilder.Builder {
	p := schema.SitePosts
	columns := strings.Join([]string{p.ID, p.Title, p.Content, p.Excerpt, p.Date, p.Name, p.Type}, ", ")

	return sqlbuilder.Buildf("SELECT %v AS blog_id, %v FROM %v WHERE %v IN (%v) AND %v = %v",
		sqlbuilder.Raw(strconv.FormatInt(group.BlogID, 10)),
		sqlbuilder.Raw(columns),
		sqlbuilder.Raw(p.Table(prefix, group.BlogID)),
		sqlbuilder.Raw(p.ID),
		sqlbuilder.List(group.ObjectIDs),
		sqlbuilder.Raw(p.Status),
		publishStatus,
	)
}

/*
Union combines the per-site SELECTs into one ordered, paginated statement.

Parameters:
  - prefix: string (posts table prefix)
  - groups: []BlogObjects (ascending blog IDs)
  - opts: Options (normalized)

Returns:
  - string: PostgreSQL statement
  - []any: Bound arguments
*/
func Union(prefix string, groups []BlogObjects, opts Options) (string, []any) {
	selects := make([]any, 0, len(groups))
	for _, group := range groups {
		selects = append(selects, SiteSelect(prefix, group))
	}

	format := strings.TrimSuffix(strings.Repeat("(%v) UNION ALL ", len(selects)), " UNION ALL ")

	column, ok := orderColumns[opts.Orderby]
	if !ok {
		column = orderColumns["post_date"]
	}
	format += " ORDER BY " + column + " " + opts.Order + ", blog_id ASC, " + schema.SitePosts.ID + " ASC"

	args := selects
	if opts.PostsPerPage > 0 {
		format += " LIMIT %v OFFSET %v"
		args = append(args, opts.PostsPerPage, opts.Offset)
	}

	return sqlbuilder.Buildf(format, args...).BuildWithFlavor(sqlbuilder.PostgreSQL)
}
