// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/core/termquery"
	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/cache"
	"github.com/taibuivan/multitax/internal/platform/constants"
	"github.com/taibuivan/multitax/internal/platform/dberr"
	"github.com/taibuivan/multitax/pkg/pointer"
	"github.com/taibuivan/multitax/pkg/slug"
)

// # Request Models

// InsertArgs are the optional settings of [Service.InsertTerm].
type InsertArgs struct {
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Parent      int64  `json:"parent"`

	// AliasOf is the slug of a term whose group the new term joins.
	AliasOf string `json:"alias_of"`
}

// UpdateArgs lists the fields [Service.UpdateTerm] changes; nil keeps the current value.
type UpdateArgs struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Parent      *int64  `json:"parent"`
	AliasOf     *string `json:"alias_of"`
}

// # Term Lookups

/*
TermExists looks a term up by ID, slug or name.

Description: Numeric values are term IDs; anything else is tried as a slug,
then as a name. An empty taxonomy searches every pairing of an ID, and
parent, when set, restricts name and slug matches to that parent.

Returns:
  - *term.Term: The match, or nil when there is none
  - error: ErrInvalidTaxonomy or storage failures
*/
func (service *Service) TermExists(context context.Context, value, taxonomy string, parent *int64) (*term.Term, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if taxonomy != "" {
		if err := service.taxonomies.Validate(taxonomy); err != nil {
			return nil, err
		}
	}

	// 1. Identity lookup
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		if id <= 0 {
			return nil, nil
		}
		if taxonomy == "" {
			matches, err := service.repo.FindByTermID(context, id)
			if err != nil || len(matches) == 0 {
				return nil, err
			}
			return matches[0], nil
		}
		return service.findOptional(context, taxonomy, term.FieldTermID, value)
	}

	if taxonomy == "" {
		return nil, nil
	}

	// 2. Slug, then name
	found, err := service.findOptional(context, taxonomy, term.FieldSlug, slug.From(value))
	if err != nil {
		return nil, err
	}
	if found != nil && (parent == nil || found.Parent == *parent) {
		return found, nil
	}

	matches, err := service.repo.FindByName(context, taxonomy, value, parent)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

/*
GetTerm returns one term pairing.

Description: Without a taxonomy, a term shared by several taxonomies cannot be
answered and yields an ambiguous-term error. Results are cached in the terms
group until the next write.

Returns:
  - *term.Term: The pairing
  - error: ErrInvalidTerm, ErrAmbiguousTerm, ErrInvalidTaxonomy
*/
func (service *Service) GetTerm(context context.Context, termID int64, taxonomy string) (*term.Term, error) {
	if termID <= 0 {
		return nil, term.NotFound(termID, taxonomy)
	}
	if taxonomy != "" {
		if err := service.taxonomies.Validate(taxonomy); err != nil {
			return nil, err
		}
	}

	key := service.termCacheKey(context, termID, taxonomy)
	if key != "" {
		var cached term.Term
		if found, err := service.cache.Get(context, constants.CacheGroupTerms, key, &cached); err == nil && found {
			return &cached, nil
		}
	}

	var result *term.Term
	if taxonomy == "" {
		matches, err := service.repo.FindByTermID(context, termID)
		if err != nil {
			return nil, err
		}
		switch len(matches) {
		case 0:
			return nil, term.NotFound(termID, "")
		case 1:
			result = matches[0]
		default:
			names := make([]string, 0, len(matches))
			for _, match := range matches {
				names = append(names, match.Taxonomy)
			}
			return nil, term.Ambiguous(termID, names)
		}
	} else {
		found, err := service.findOptional(context, taxonomy, term.FieldTermID, strconv.FormatInt(termID, 10))
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, term.NotFound(termID, taxonomy)
		}
		result = found
	}

	if key != "" {
		if err := service.cache.Set(context, constants.CacheGroupTerms, key, result, 0); err != nil {
			service.logger.WarnContext(context, "term_cache_write_failed", slog.Any("error", err))
		}
	}
	return result, nil
}

/*
GetTermBy returns the term of taxonomy whose field equals value.

Parameters:
  - context: context.Context
  - field: term.Field (slug, name, term_id, mtmt_id or term_taxonomy_id)
  - value: string (slugs are sanitized first)
  - taxonomy: string

Returns:
  - *term.Term: The pairing
  - error: ErrInvalidTerm when nothing matches, validation errors on a bad field
*/
func (service *Service) GetTermBy(context context.Context, field term.Field, value, taxonomy string) (*term.Term, error) {
	if !field.Valid() {
		return nil, apperr.ValidationError("unknown term field "+string(field),
			apperr.FieldError{Field: "field", Message: "must be slug, name, term_id or mtmt_id"})
	}
	field = field.Canonical()
	if err := service.taxonomies.Validate(taxonomy); err != nil {
		return nil, err
	}

	if field == term.FieldSlug {
		value = slug.From(value)
	}
	if field.Numeric() && term.ParseIDs([]string{value})[0] <= 0 {
		return nil, term.NotFound(0, taxonomy)
	}

	found, err := service.findOptional(context, taxonomy, field, value)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperr.New(term.ErrInvalidTerm.Code, term.ErrInvalidTerm.HTTPStatus,
			"No term with "+string(field)+" "+value+" in taxonomy "+taxonomy)
	}
	return found, nil
}

// GetTerms runs a term query.
func (service *Service) GetTerms(context context.Context, args termquery.Args) (*termquery.Result, error) {
	return service.terms.Query(context, args)
}

// # Hierarchy Lookups

// GetAncestors returns the ancestors of termID, nearest first. Flat
// taxonomies have none; a corrupt parent loop ends the walk.
func (service *Service) GetAncestors(context context.Context, termID int64, taxonomy string) ([]int64, error) {
	if err := service.taxonomies.Validate(taxonomy); err != nil {
		return nil, err
	}
	ancestors := make([]int64, 0)
	if !service.taxonomies.IsHierarchical(taxonomy) {
		return ancestors, nil
	}

	children, err := service.tree.Get(context, taxonomy)
	if err != nil {
		return nil, err
	}
	parents := children.Parents()

	visited := map[int64]bool{termID: true}
	for current := parents[termID]; current > 0 && !visited[current]; current = parents[current] {
		visited[current] = true
		ancestors = append(ancestors, current)
	}
	return ancestors, nil
}

// GetTermChildren returns every descendant ID of termID.
func (service *Service) GetTermChildren(context context.Context, termID int64, taxonomy string) ([]int64, error) {
	if err := service.taxonomies.Validate(taxonomy); err != nil {
		return nil, err
	}
	return service.tree.Descendants(context, termID, taxonomy)
}

// # Term Management

/*
InsertTerm adds a term to taxonomy.

Description: Inserting a name that already exists at the same parent returns
the existing identity with Existing set, so repeated calls are idempotent. A
slug taken by another term is made unique, first with the parent's slug and
then with a numeric suffix.

Parameters:
  - context: context.Context
  - name: string
  - taxonomy: string
  - args: InsertArgs

Returns:
  - term.Ref: The new or existing identity
  - error: ErrEmptyName, ErrMissingParent, ErrTermExists, ErrInvalidTaxonomy
*/
func (service *Service) InsertTerm(context context.Context, name, taxonomy string, args InsertArgs) (term.Ref, error) {
	if err := service.taxonomies.Validate(taxonomy); err != nil {
		return term.Ref{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return term.Ref{}, term.ErrEmptyName
	}

	hierarchical := service.taxonomies.IsHierarchical(taxonomy)
	if !hierarchical {
		args.Parent = 0
	}

	// 1. Parent must exist in the same taxonomy
	var parent *term.Term
	if args.Parent > 0 {
		found, err := service.findOptional(context, taxonomy, term.FieldTermID, strconv.FormatInt(args.Parent, 10))
		if err != nil {
			return term.Ref{}, err
		}
		if found == nil {
			return term.Ref{}, term.ErrMissingParent
		}
		parent = found
	}

	// 2. Same name at the same level is the same term
	level := &args.Parent
	if !hierarchical {
		level = nil
	}
	existing, err := service.repo.FindByName(context, taxonomy, name, level)
	if err != nil {
		return term.Ref{}, err
	}
	for _, candidate := range existing {
		if strings.EqualFold(candidate.Name, name) {
			return term.Ref{TermID: candidate.TermID, MtmtID: candidate.MtmtID, Existing: true}, nil
		}
	}

	// 3. An explicit slug already used in the taxonomy is a conflict
	base := slug.From(args.Slug)
	if base != "" {
		taken, err := service.findOptional(context, taxonomy, term.FieldSlug, base)
		if err != nil {
			return term.Ref{}, err
		}
		if taken != nil {
			return term.Ref{}, term.Exists(term.Ref{TermID: taken.TermID, MtmtID: taken.MtmtID})
		}
	} else {
		base = slug.From(name)
	}

	unique, err := service.uniqueSlug(context, base, parent, 0)
	if err != nil {
		return term.Ref{}, err
	}

	group, err := service.aliasGroup(context, taxonomy, args.AliasOf)
	if err != nil {
		return term.Ref{}, err
	}

	// 4. Persist the term row and its pairing
	termID, err := service.repo.CreateTerm(context, name, unique, group)
	if err != nil {
		return term.Ref{}, err
	}
	mtmtID, err := service.repo.CreatePairing(context, termID, taxonomy, args.Description, args.Parent)
	if err != nil {
		return term.Ref{}, err
	}

	service.changed(context, taxonomy)
	service.logger.InfoContext(context, "term_created",
		slog.Int64("term_id", termID),
		slog.Int64("mtmt_id", mtmtID),
		slog.String("taxonomy", taxonomy),
	)
	return term.Ref{TermID: termID, MtmtID: mtmtID}, nil
}

/*
UpdateTerm changes the fields of a term pairing set in args.

Description: A new parent must exist and must not be the term itself or one
of its descendants. A slug used by another term is rejected rather than
made unique.

Returns:
  - term.Ref: The identity of the updated pairing
  - error: ErrInvalidTerm, ErrEmptyName, ErrMissingParent, ErrHierarchyLoop, ErrDuplicateSlug
*/
func (service *Service) UpdateTerm(context context.Context, termID int64, taxonomy string, args UpdateArgs) (term.Ref, error) {
	if err := service.taxonomies.Validate(taxonomy); err != nil {
		return term.Ref{}, err
	}
	current, err := service.findOptional(context, taxonomy, term.FieldTermID, strconv.FormatInt(termID, 10))
	if err != nil {
		return term.Ref{}, err
	}
	if current == nil {
		return term.Ref{}, term.NotFound(termID, taxonomy)
	}

	name, description, parent := current.Name, current.Description, current.Parent
	if args.Name != nil {
		name = strings.TrimSpace(*args.Name)
		if name == "" {
			return term.Ref{}, term.ErrEmptyName
		}
	}
	description = pointer.Fallback(args.Description, description)

	// 1. Reparenting must keep the hierarchy acyclic
	if args.Parent != nil && service.taxonomies.IsHierarchical(taxonomy) {
		parent = *args.Parent
		if err := service.checkParent(context, termID, parent, taxonomy); err != nil {
			return term.Ref{}, err
		}
	}

	// 2. Slug changes must not collide
	nextSlug := current.Slug
	if args.Slug != nil {
		nextSlug = slug.From(*args.Slug)
		if nextSlug == "" {
			nextSlug = slug.From(name)
		}
	}
	if nextSlug != current.Slug {
		taken, err := service.repo.SlugExists(context, nextSlug, termID)
		if err != nil {
			return term.Ref{}, err
		}
		if taken {
			return term.Ref{}, term.ErrDuplicateSlug
		}
	}

	group := current.TermGroup
	if args.AliasOf != nil {
		if group, err = service.aliasGroup(context, taxonomy, *args.AliasOf); err != nil {
			return term.Ref{}, err
		}
	}

	// 3. Persist
	if err := service.repo.UpdateTerm(context, termID, name, nextSlug, group); err != nil {
		return term.Ref{}, err
	}
	if err := service.repo.UpdatePairing(context, current.MtmtID, description, parent); err != nil {
		return term.Ref{}, err
	}

	service.changed(context, taxonomy)
	return term.Ref{TermID: termID, MtmtID: current.MtmtID}, nil
}

/*
DeleteTerm removes a term from taxonomy.

Description: Children move up to the deleted term's own parent. The term's
object relationships and pairing go next, then its meta and term row once no
other taxonomy shares it. Steps are not atomic.

Returns:
  - error: ErrInvalidTerm, ErrInvalidTaxonomy or the first failing step
*/
func (service *Service) DeleteTerm(context context.Context, termID int64, taxonomy string) error {
	if err := service.taxonomies.Validate(taxonomy); err != nil {
		return err
	}
	current, err := service.findOptional(context, taxonomy, term.FieldTermID, strconv.FormatInt(termID, 10))
	if err != nil {
		return err
	}
	if current == nil {
		return term.NotFound(termID, taxonomy)
	}

	// 1. Reattach children to the grandparent
	if service.taxonomies.IsHierarchical(taxonomy) {
		moved, err := service.repo.Reparent(context, taxonomy, termID, current.Parent)
		if err != nil {
			return err
		}
		if len(moved) > 0 {
			service.logger.DebugContext(context, "term_children_reparented",
				slog.Int64("term_id", termID), slog.Int64("parent", current.Parent), slog.Int("children", len(moved)))
		}
	}

	// 2. Detach every object
	relationships, err := service.repo.ListRelationships(context, []int64{current.MtmtID})
	if err != nil {
		return err
	}
	for _, relationship := range relationships {
		if _, err := service.repo.RemoveRelationships(context, relationship.BlogID, relationship.ObjectID, []int64{current.MtmtID}); err != nil {
			return err
		}
	}

	// 3. Drop the pairing, then the term when nothing shares it
	if err := service.repo.DeletePairing(context, current.MtmtID); err != nil {
		return err
	}
	remaining, err := service.repo.CountPairings(context, termID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if err := service.repo.DeleteAllMeta(context, termID); err != nil {
			return err
		}
		if err := service.repo.DeleteTerm(context, termID); err != nil {
			return err
		}
	}

	service.changed(context, taxonomy)
	service.logger.InfoContext(context, "term_deleted",
		slog.Int64("term_id", termID),
		slog.String("taxonomy", taxonomy),
		slog.Int("relationships", len(relationships)),
	)
	return nil
}

// # Helpers

// findOptional is FindBy with not-found mapped to nil.
func (service *Service) findOptional(context context.Context, taxonomy string, field term.Field, value string) (*term.Term, error) {
	found, err := service.repo.FindBy(context, taxonomy, field, value)
	if dberr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return found, nil
}

// checkParent rejects a missing parent or one below termID.
func (service *Service) checkParent(context context.Context, termID, parent int64, taxonomy string) error {
	if parent == 0 {
		return nil
	}
	if parent == termID {
		return term.ErrHierarchyLoop
	}

	found, err := service.findOptional(context, taxonomy, term.FieldTermID, strconv.FormatInt(parent, 10))
	if err != nil {
		return err
	}
	if found == nil {
		return term.ErrMissingParent
	}

	descendants, err := service.tree.Descendants(context, termID, taxonomy)
	if err != nil {
		return err
	}
	for _, id := range descendants {
		if id == parent {
			return term.ErrHierarchyLoop
		}
	}
	return nil
}

// uniqueSlug returns base, or base suffixed with the parent slug and then a counter.
func (service *Service) uniqueSlug(context context.Context, base string, parent *term.Term, excludeTermID int64) (string, error) {
	taken, err := service.repo.SlugExists(context, base, excludeTermID)
	if err != nil || !taken {
		return base, err
	}

	if parent != nil && parent.Slug != "" {
		candidate := base + "-" + parent.Slug
		if taken, err = service.repo.SlugExists(context, candidate, excludeTermID); err != nil || !taken {
			return candidate, err
		}
		base = candidate
	}

	for n := 2; ; n++ {
		candidate := slug.WithSuffix(base, n)
		taken, err := service.repo.SlugExists(context, candidate, excludeTermID)
		if err != nil || !taken {
			return candidate, err
		}
	}
}

// aliasGroup returns the term group of the term with slug aliasOf, creating one when needed.
func (service *Service) aliasGroup(context context.Context, taxonomy, aliasOf string) (int64, error) {
	aliasOf = slug.From(aliasOf)
	if aliasOf == "" {
		return 0, nil
	}

	alias, err := service.findOptional(context, taxonomy, term.FieldSlug, aliasOf)
	if err != nil || alias == nil {
		return 0, err
	}
	if alias.TermGroup > 0 {
		return alias.TermGroup, nil
	}

	group, err := service.repo.NextTermGroup(context)
	if err != nil {
		return 0, err
	}
	if err := service.repo.UpdateTerm(context, alias.TermID, alias.Name, alias.Slug, group); err != nil {
		return 0, err
	}
	return group, nil
}

// termCacheKey is the per-term object cache key, or "" when caching is off.
func (service *Service) termCacheKey(context context.Context, termID int64, taxonomy string) string {
	if service.cache == nil {
		return ""
	}
	lastChanged, err := cache.LastChanged(context, service.cache, constants.CacheGroupTerms)
	if err != nil {
		return ""
	}
	digest, err := cache.Key("term", termID, taxonomy)
	if err != nil {
		return ""
	}
	return "term:" + digest + ":" + lastChanged
}
