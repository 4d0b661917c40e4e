// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package term

import "context"

// # Term Data Access

// Reader looks terms up by identity.
type Reader interface {

	/*
		FindByTermID returns every taxonomy pairing of termID.

		Parameters:
		  - context: context.Context
		  - termID: int64

		Returns:
		  - []*Term: One entry per taxonomy, ordered by taxonomy name; empty when unknown
		  - error: Database retrieval failures
	*/
	FindByTermID(context context.Context, termID int64) ([]*Term, error)

	/*
		FindBy returns the term of taxonomy whose field equals value.

		Parameters:
		  - context: context.Context
		  - taxonomy: string
		  - field: Field (slug, name, term_id or mtmt_id)
		  - value: string

		Returns:
		  - *Term: The first match by term_id
		  - error: dberr.ErrNotFound when nothing matches
	*/
	FindBy(context context.Context, taxonomy string, field Field, value string) (*Term, error)

	// FindByName returns the terms of taxonomy whose name matches case-insensitively.
	// A non-nil parent restricts the match to one level of the hierarchy.
	FindByName(context context.Context, taxonomy, name string, parent *int64) ([]*Term, error)

	// ListChildren returns the direct children of parent in taxonomy.
	ListChildren(context context.Context, taxonomy string, parent int64) ([]*Term, error)

	// SlugExists reports whether any term other than excludeTermID uses slug.
	SlugExists(context context.Context, slug string, excludeTermID int64) (bool, error)

	// FindMtmtID returns the pairing of termID with taxonomy, or 0 when absent.
	FindMtmtID(context context.Context, termID int64, taxonomy string) (int64, error)

	// CountPairings returns how many taxonomies share termID.
	CountPairings(context context.Context, termID int64) (int, error)
}

// Writer mutates term and term-taxonomy rows.
type Writer interface {

	/*
		CreateTerm inserts a term row.

		Parameters:
		  - context: context.Context
		  - name: string
		  - slug: string (already unique)
		  - group: int64 (alias group, 0 for none)

		Returns:
		  - int64: The new term_id
		  - error: Conflict when the slug raced with another insert
	*/
	CreateTerm(context context.Context, name, slug string, group int64) (int64, error)

	// CreatePairing binds termID to taxonomy and returns the new mtmt_id.
	CreatePairing(context context.Context, termID int64, taxonomy, description string, parent int64) (int64, error)

	UpdateTerm(context context.Context, termID int64, name, slug string, group int64) error
	UpdatePairing(context context.Context, mtmtID int64, description string, parent int64) error

	// NextTermGroup returns one past the highest alias group in use.
	NextTermGroup(context context.Context) (int64, error)

	// Reparent moves every child of from in taxonomy under to and returns the moved term IDs.
	Reparent(context context.Context, taxonomy string, from, to int64) ([]int64, error)

	DeletePairing(context context.Context, mtmtID int64) error
	DeleteTerm(context context.Context, termID int64) error
}

// RelationshipStore maintains post to term associations.
type RelationshipStore interface {

	// ObjectMtmtIDs returns the pairings attached to one post, restricted to
	// taxonomies when given, in term_order.
	ObjectMtmtIDs(context context.Context, blogID, objectID int64, taxonomies []string) ([]int64, error)

	// AddRelationships inserts rows, ignoring ones that already exist.
	AddRelationships(context context.Context, relationships []Relationship) error

	// RemoveRelationships detaches mtmtIDs from one post and returns the rows removed.
	RemoveRelationships(context context.Context, blogID, objectID int64, mtmtIDs []int64) (int64, error)

	/*
		ListRelationships returns every association of the given pairings.

		Parameters:
		  - context: context.Context
		  - mtmtIDs: []int64

		Returns:
		  - []Relationship: Ordered by blog_id then object_id
		  - error: Database retrieval failures
	*/
	ListRelationships(context context.Context, mtmtIDs []int64) ([]Relationship, error)

	// CountObjects counts the distinct posts attached to mtmtID.
	CountObjects(context context.Context, mtmtID int64) (int64, error)

	SetCount(context context.Context, mtmtID, count int64) error
}

// MetaStore keeps term meta rows.
type MetaStore interface {
	// ListMeta returns the rows of termID, restricted to key when it is not empty.
	ListMeta(context context.Context, termID int64, key string) ([]Meta, error)
	AddMeta(context context.Context, termID int64, key, value string) (int64, error)

	// UpdateMeta rewrites every row of key, restricted to rows holding
	// previous when it is not nil, and returns the rows changed.
	UpdateMeta(context context.Context, termID int64, key, value string, previous *string) (int64, error)

	// DeleteMeta removes the rows of key, restricted to value when it is not nil.
	DeleteMeta(context context.Context, termID int64, key string, value *string) (int64, error)
	DeleteAllMeta(context context.Context, termID int64) error
}

// QueryStore serves the read side of the query builders.
type QueryStore interface {

	// ListParents returns the (term_id, parent) edges of taxonomy with a parent, ordered by term_id.
	ListParents(context context.Context, taxonomy string) ([]ParentLink, error)

	/*
		Resolve maps lookup values to identifiers.

		Parameters:
		  - context: context.Context
		  - taxonomy: string (may be empty when field is mtmt_id)
		  - field: Field the values are expressed in
		  - values: []string
		  - resulting: Field (term_id or mtmt_id)

		Returns:
		  - []int64: The resolved identifiers, possibly fewer than values
		  - error: Database retrieval failures
	*/
	Resolve(context context.Context, taxonomy string, field Field, values []string, resulting Field) ([]int64, error)

	// Select runs a composed term query. Rows carry blog_id and object_id when withObject is set.
	Select(context context.Context, query string, args []any, withObject bool) ([]*Term, error)

	// SelectCount runs a composed COUNT query.
	SelectCount(context context.Context, query string, args []any) (int64, error)

	// Counts returns the stored usage count of each term of taxonomy.
	Counts(context context.Context, taxonomy string, termIDs []int64) (map[int64]int64, error)
}

// Repository is the complete term data access contract.
type Repository interface {
	Reader
	Writer
	RelationshipStore
	MetaStore
	QueryStore
}
