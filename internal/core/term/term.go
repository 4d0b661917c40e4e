// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package term defines the network-wide term model and its storage contract.

Data model:

  - Term: a named node (term_id, name, slug, term_group). The same term_id may be
    shared by several taxonomies.
  - Term-Taxonomy ("mtmt") row: binds one term to one taxonomy and carries the
    hierarchy pointer (parent term_id, 0 = root) and the cached usage count.
  - Relationship: binds a post, identified by (blog_id, object_id), to an mtmt row.
  - Meta: free-form key/value rows attached to a term_id.

The [Term] value returned by every read is the join of a term row and one of its
mtmt rows, so it always names exactly one taxonomy.
*/
package term

import (
	"fmt"
	"strconv"
)

// Term is a term as seen through one taxonomy.
type Term struct {
	TermID      int64  `json:"term_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	TermGroup   int64  `json:"term_group"`
	MtmtID      int64  `json:"mtmt_id"`
	Taxonomy    string `json:"taxonomy"`
	Description string `json:"description"`
	Parent      int64  `json:"parent"`
	Count       int64  `json:"count"`

	// BlogID and ObjectID are set only by object-scoped term queries.
	BlogID   int64 `json:"blog_id,omitempty"`
	ObjectID int64 `json:"object_id,omitempty"`

	// Filter is the sanitization context the value was prepared for. Never persisted.
	Filter string `json:"filter,omitempty"`
}

// Ref identifies one term-taxonomy pairing.
type Ref struct {
	TermID int64 `json:"term_id"`
	MtmtID int64 `json:"mtmt_id"`

	// Existing is set when an insert matched a term that was already stored.
	Existing bool `json:"existing,omitempty"`
}

// ParentLink is one (term_id, parent) edge of a taxonomy.
type ParentLink struct {
	TermID int64
	Parent int64
}

// Relationship associates a post of one site with an mtmt row.
type Relationship struct {
	BlogID    int64 `json:"blog_id"`
	ObjectID  int64 `json:"object_id"`
	MtmtID    int64 `json:"mtmt_id"`
	TermOrder int   `json:"term_order"`
}

// Meta is one term meta row.
type Meta struct {
	MetaID int64  `json:"meta_id"`
	TermID int64  `json:"term_id"`
	Key    string `json:"meta_key"`
	Value  string `json:"meta_value"`
}

// # Lookup Fields

// Field names the column a lookup value is matched against.
type Field string

const (
	FieldTermID Field = "term_id"
	FieldSlug   Field = "slug"
	FieldName   Field = "name"
	FieldMtmtID Field = "mtmt_id"

	// FieldTermTaxonomyID is the single-site name of [FieldMtmtID].
	FieldTermTaxonomyID Field = "term_taxonomy_id"
)

// Valid reports whether f is a known lookup field.
func (f Field) Valid() bool {
	switch f {
	case FieldTermID, FieldSlug, FieldName, FieldMtmtID, FieldTermTaxonomyID:
		return true
	}
	return false
}

// Canonical folds aliases onto the column name used in SQL.
func (f Field) Canonical() Field {
	if f == FieldTermTaxonomyID {
		return FieldMtmtID
	}
	return f
}

// Numeric reports whether values of f are identifiers.
func (f Field) Numeric() bool {
	return f == FieldTermID || f == FieldMtmtID
}

// IDs renders identifiers as lookup values.
func IDs(ids ...int64) []string {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = strconv.FormatInt(id, 10)
	}
	return values
}

// ParseIDs converts lookup values to identifiers. Values that are not
// positive integers map to 0, which never matches a row.
func ParseIDs(values []string) []int64 {
	ids := make([]int64, len(values))
	for i, value := range values {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id < 0 {
			id = 0
		}
		ids[i] = id
	}
	return ids
}

// String implements [fmt.Stringer] for log output.
func (t *Term) String() string {
	return fmt.Sprintf("%s:%d(%s)", t.Taxonomy, t.TermID, t.Slug)
}
