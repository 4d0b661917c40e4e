// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/core/termquery"
	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/pkg/slice"
)

// # Object Relationships

/*
GetObjectTerms returns the terms attached to posts of one site.

Parameters:
  - context: context.Context
  - blogID: int64
  - objectIDs: []int64
  - taxonomies: []string
  - args: termquery.Args (object, site and taxonomy fields are overwritten)

Returns:
  - *termquery.Result: The shaped result
  - error: Validation or query failures
*/
func (service *Service) GetObjectTerms(context context.Context, blogID int64, objectIDs []int64, taxonomies []string, args termquery.Args) (*termquery.Result, error) {
	if blogID <= 0 || len(objectIDs) == 0 {
		return nil, apperr.ValidationError("blog and object IDs are required",
			apperr.FieldError{Field: "object_ids", Message: "must not be empty"})
	}
	args.BlogID = blogID
	args.ObjectIDs = objectIDs
	args.Taxonomies = taxonomies
	return service.terms.Query(context, args)
}

/*
SetObjectTerms attaches terms to a post.

Description: Terms are given as IDs or as names/slugs; unknown names are
created. Without appendMode, pairings of taxonomy no longer listed are
detached. Usage counts of every touched pairing are recomputed.

Parameters:
  - context: context.Context
  - blogID: int64
  - objectID: int64
  - terms: []string
  - taxonomy: string
  - appendMode: bool

Returns:
  - []int64: The mtmt IDs of the requested terms, in request order
  - error: ErrInvalidTaxonomy, ErrInvalidTerm for unknown IDs, storage failures
*/
func (service *Service) SetObjectTerms(context context.Context, blogID, objectID int64, terms []string, taxonomy string, appendMode bool) ([]int64, error) {
	if err := service.taxonomies.Validate(taxonomy); err != nil {
		return nil, err
	}
	if blogID <= 0 || objectID <= 0 {
		return nil, apperr.ValidationError("blog and object IDs are required",
			apperr.FieldError{Field: "object_id", Message: "must be positive"})
	}

	// 1. Current state
	previous, err := service.repo.ObjectMtmtIDs(context, blogID, objectID, []string{taxonomy})
	if err != nil {
		return nil, err
	}

	// 2. Resolve or create the requested terms
	requested := make([]int64, 0, len(terms))
	for _, value := range terms {
		mtmtID, err := service.resolveForObject(context, value, taxonomy)
		if err != nil {
			return nil, err
		}
		if mtmtID > 0 && !slices.Contains(requested, mtmtID) {
			requested = append(requested, mtmtID)
		}
	}

	// 3. Diff and apply
	added := make([]term.Relationship, 0, len(requested))
	for order, mtmtID := range requested {
		if slices.Contains(previous, mtmtID) {
			continue
		}
		added = append(added, term.Relationship{BlogID: blogID, ObjectID: objectID, MtmtID: mtmtID, TermOrder: order})
	}
	if len(added) > 0 {
		if err := service.repo.AddRelationships(context, added); err != nil {
			return nil, err
		}
	}

	var removed []int64
	if !appendMode {
		removed = slice.Diff(previous, requested)
		if len(removed) > 0 {
			if _, err := service.repo.RemoveRelationships(context, blogID, objectID, removed); err != nil {
				return nil, err
			}
		}
	}

	// 4. Counts and caches
	touched := make([]int64, 0, len(added)+len(removed))
	for _, relationship := range added {
		touched = append(touched, relationship.MtmtID)
	}
	touched = append(touched, removed...)

	if len(touched) > 0 {
		if err := service.UpdateTermCount(context, touched); err != nil {
			return nil, err
		}
		service.changed(context, taxonomy)
	}

	service.logger.DebugContext(context, "object_terms_set",
		slog.Int64("blog_id", blogID),
		slog.Int64("object_id", objectID),
		slog.String("taxonomy", taxonomy),
		slog.Int("added", len(added)),
		slog.Int("removed", len(removed)),
	)
	return requested, nil
}

// AddObjectTerms attaches terms without detaching existing ones.
func (service *Service) AddObjectTerms(context context.Context, blogID, objectID int64, terms []string, taxonomy string) ([]int64, error) {
	return service.SetObjectTerms(context, blogID, objectID, terms, taxonomy, true)
}

// RemoveObjectTerms detaches terms given as IDs, slugs or names. Unknown terms are skipped.
func (service *Service) RemoveObjectTerms(context context.Context, blogID, objectID int64, terms []string, taxonomy string) (int64, error) {
	if err := service.taxonomies.Validate(taxonomy); err != nil {
		return 0, err
	}

	mtmtIDs := make([]int64, 0, len(terms))
	for _, value := range terms {
		found, err := service.TermExists(context, value, taxonomy, nil)
		if err != nil {
			return 0, err
		}
		if found != nil {
			mtmtIDs = append(mtmtIDs, found.MtmtID)
		}
	}
	if len(mtmtIDs) == 0 {
		return 0, nil
	}

	removed, err := service.repo.RemoveRelationships(context, blogID, objectID, mtmtIDs)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		if err := service.UpdateTermCount(context, mtmtIDs); err != nil {
			return removed, err
		}
		service.changed(context, taxonomy)
	}
	return removed, nil
}

// DeleteObjectTermRelationships detaches every term of taxonomies from one post.
func (service *Service) DeleteObjectTermRelationships(context context.Context, blogID, objectID int64, taxonomies []string) error {
	if err := service.taxonomies.Validate(taxonomies...); err != nil {
		return err
	}

	mtmtIDs, err := service.repo.ObjectMtmtIDs(context, blogID, objectID, taxonomies)
	if err != nil || len(mtmtIDs) == 0 {
		return err
	}
	if _, err := service.repo.RemoveRelationships(context, blogID, objectID, mtmtIDs); err != nil {
		return err
	}
	if err := service.UpdateTermCount(context, mtmtIDs); err != nil {
		return err
	}
	service.changed(context, taxonomies...)
	return nil
}

// # Usage Counts

// UpdateTermCount recomputes the usage count of each pairing. While counting
// is deferred the pairings are queued instead.
func (service *Service) UpdateTermCount(context context.Context, mtmtIDs []int64) error {
	service.counting.mu.Lock()
	if service.counting.deferred {
		for _, mtmtID := range mtmtIDs {
			service.counting.queue[mtmtID] = true
		}
		service.counting.mu.Unlock()
		return nil
	}
	service.counting.mu.Unlock()

	return service.recount(context, mtmtIDs)
}

// DeferCounting toggles deferred counting and reports the new state. Turning
// it off recounts every queued pairing.
func (service *Service) DeferCounting(context context.Context, deferred bool) (bool, error) {
	service.counting.mu.Lock()
	service.counting.deferred = deferred

	var pending []int64
	if !deferred {
		for mtmtID := range service.counting.queue {
			pending = append(pending, mtmtID)
		}
		clear(service.counting.queue)
	}
	service.counting.mu.Unlock()

	if len(pending) == 0 {
		return deferred, nil
	}
	slices.Sort(pending)
	if err := service.recount(context, pending); err != nil {
		return deferred, err
	}
	service.changed(context)
	return deferred, nil
}

/*
RecountTaxonomy recomputes the stored count of every term of taxonomy,
ignoring deferred counting.

Returns:
  - int: The number of pairings recounted
  - error: INVALID_TAXONOMY or datastore failures
*/
func (service *Service) RecountTaxonomy(context context.Context, taxonomy string) (int, error) {
	if err := service.taxonomies.Validate(taxonomy); err != nil {
		return 0, err
	}

	args := termquery.DefaultArgs()
	args.Taxonomies = []string{taxonomy}
	args.Fields = termquery.FieldsMtmtIDs
	args.Get = termquery.GetAll
	args.SkipCache = true

	pairings, err := service.terms.Query(context, args)
	if err != nil {
		return 0, err
	}
	if err := service.recount(context, pairings.IDs); err != nil {
		return 0, err
	}

	service.changed(context)
	service.logger.InfoContext(context, "taxonomy_recounted",
		slog.String("taxonomy", taxonomy),
		slog.Int("terms", len(pairings.IDs)),
	)
	return len(pairings.IDs), nil
}

func (service *Service) recount(context context.Context, mtmtIDs []int64) error {
	for _, mtmtID := range mtmtIDs {
		count, err := service.repo.CountObjects(context, mtmtID)
		if err != nil {
			return err
		}
		if err := service.repo.SetCount(context, mtmtID, count); err != nil {
			return err
		}
	}
	return nil
}

// resolveForObject maps one requested value to an mtmt ID, creating the term
// when a name is unknown. Unknown numeric IDs are an error.
func (service *Service) resolveForObject(context context.Context, value, taxonomy string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		found, err := service.findOptional(context, taxonomy, term.FieldTermID, value)
		if err != nil {
			return 0, err
		}
		if found == nil {
			return 0, term.NotFound(id, taxonomy)
		}
		return found.MtmtID, nil
	}

	found, err := service.TermExists(context, value, taxonomy, nil)
	if err != nil {
		return 0, err
	}
	if found != nil {
		return found.MtmtID, nil
	}

	created, err := service.InsertTerm(context, value, taxonomy, InsertArgs{})
	if err != nil {
		return 0, err
	}
	return created.MtmtID, nil
}
