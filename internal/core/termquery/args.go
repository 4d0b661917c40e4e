// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package termquery lists terms across taxonomies with filtering, ordering,
hierarchy-aware post-processing and result caching.

Flow of [Service.Query]:

 1. Normalize arguments: "parent" overrides "child_of", get=all disables every
    hierarchy-aware filter, and hierarchical handling needs exactly one
    hierarchical taxonomy.
 2. Return early when the requested parent has no descendants.
 3. Compose one SELECT and look it up in the cache under a key derived from the
    arguments, the SQL and the "last changed" token of the terms group.
 4. On a miss, run it and post-process: child_of filtering, count padding,
    hide-empty override for parents, de-duplication, field shaping and
    in-memory pagination where SQL paging would miscount.

Hierarchical, meta-joined and per-object queries are never limited in SQL:
post-processing may drop rows or merge duplicates.
*/
package termquery

import (
	"strings"
)

// # Output Shapes

// Fields selects the shape of a [Result].
type Fields string

const (
	FieldsAll             Fields = "all"
	FieldsAllWithObjectID Fields = "all_with_object_id"
	FieldsIDs             Fields = "ids"
	FieldsMtmtIDs         Fields = "mtmt_ids"
	FieldsIDParent        Fields = "id=>parent"
	FieldsNames           Fields = "names"
	FieldsSlugs           Fields = "slugs"
	FieldsIDName          Fields = "id=>name"
	FieldsIDSlug          Fields = "id=>slug"
	FieldsCount           Fields = "count"
)

func (f Fields) valid() bool {
	switch f {
	case FieldsAll, FieldsAllWithObjectID, FieldsIDs, FieldsMtmtIDs, FieldsIDParent,
		FieldsNames, FieldsSlugs, FieldsIDName, FieldsIDSlug, FieldsCount:
		return true
	}
	return false
}

// GetAll is the value of [Args.Get] that returns every term regardless of hierarchy or usage.
const GetAll = "all"

// # Meta Filtering

// MetaClause filters terms by one meta key.
type MetaClause struct {
	// Name lets "orderby" refer to this clause.
	Name    string   `json:"name,omitempty"`
	Key     string   `json:"key,omitempty"`
	Value   string   `json:"value,omitempty"`
	Values  []string `json:"values,omitempty"`
	Compare string   `json:"compare,omitempty"`
	Type    string   `json:"type,omitempty"`
}

// MetaQuery combines meta clauses under one relation.
type MetaQuery struct {
	Relation string       `json:"relation,omitempty"`
	Clauses  []MetaClause `json:"clauses,omitempty"`
}

// # Arguments

// Args are the inputs of a term query. Start from [DefaultArgs]; the zero value
// differs from the defaults for HideEmpty, Hierarchical, Orderby, Order and Fields.
type Args struct {
	Taxonomies []string `json:"taxonomy,omitempty"`

	// ObjectIDs restricts the result to terms attached to these posts of BlogID.
	ObjectIDs []int64 `json:"object_ids,omitempty"`
	BlogID    int64   `json:"blog_id,omitempty"`

	Orderby string `json:"orderby"`
	Order   string `json:"order"`

	HideEmpty   bool    `json:"hide_empty"`
	Include     []int64 `json:"include,omitempty"`
	Exclude     []int64 `json:"exclude,omitempty"`
	ExcludeTree []int64 `json:"exclude_tree,omitempty"`

	// Number of terms to return; 0 means all.
	Number int `json:"number"`
	Offset int `json:"offset"`

	Fields Fields `json:"fields"`

	Names   []string `json:"name,omitempty"`
	Slugs   []string `json:"slug,omitempty"`
	MtmtIDs []int64  `json:"mtmt_id,omitempty"`

	Hierarchical    bool   `json:"hierarchical"`
	Search          string `json:"search,omitempty"`
	NameLike        string `json:"name__like,omitempty"`
	DescriptionLike string `json:"description__like,omitempty"`
	PadCounts       bool   `json:"pad_counts"`
	Get             string `json:"get,omitempty"`
	ChildOf         int64  `json:"child_of,omitempty"`

	// Parent restricts the result to direct children; 0 selects top-level terms.
	Parent    *int64 `json:"parent,omitempty"`
	Childless bool   `json:"childless"`

	Meta MetaQuery `json:"meta_query,omitempty"`

	// SkipCache bypasses the result cache for both reads and writes.
	SkipCache bool `json:"-"`
}

// DefaultArgs returns the defaults of a term query.
func DefaultArgs() Args {
	return Args{
		Orderby:      "name",
		Order:        "ASC",
		HideEmpty:    true,
		Hierarchical: true,
		Fields:       FieldsAll,
	}
}

// parseOrder accepts "ASC" case-insensitively; everything else is descending.
func parseOrder(order string) string {
	if strings.EqualFold(strings.TrimSpace(order), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// likePattern escapes LIKE wildcards in value and wraps it for a contains match.
func likePattern(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(value) + "%"
}
