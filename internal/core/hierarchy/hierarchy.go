// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package hierarchy maintains the parent to children map of every hierarchical
taxonomy and answers descendant questions from it.

Storage:

The map of a taxonomy is persisted as the option "{taxonomy}_children" and mirrored
in the object cache. A miss on both rebuilds it from the term-taxonomy rows; concurrent
misses for the same taxonomy share a single rebuild.

Every term write that touches a hierarchical taxonomy must call [Service.Invalidate].
The next read rebuilds the map. A map read or rebuilt before an Invalidate is
still returned to its caller but never stored.
*/
package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/platform/cache"
	"github.com/taibuivan/multitax/internal/platform/constants"
	"github.com/taibuivan/multitax/internal/platform/options"
)

// Map lists the direct children of every term that has any, keyed by parent term_id.
// Children are ordered by term_id.
type Map map[int64][]int64

// Taxonomies is the part of the registry the hierarchy consults.
type Taxonomies interface {
	Exists(name string) bool
	IsHierarchical(name string) bool
}

// Store is the data access the hierarchy needs.
type Store interface {
	ListParents(context context.Context, taxonomy string) ([]term.ParentLink, error)
	ListRelationships(context context.Context, mtmtIDs []int64) ([]term.Relationship, error)
}

// Service builds, persists and queries hierarchy maps.
type Service struct {
	taxonomies Taxonomies
	store      Store
	options    options.Store
	cache      cache.Cache
	rebuilds   *prometheus.CounterVec
	logger     *slog.Logger
	flight     singleflight.Group

	// mu orders Invalidate against storing a map; generations counts the
	// invalidations of each taxonomy.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewService creates a hierarchy [Service]. A nil rebuilds counter disables the metric.
func NewService(taxonomies Taxonomies, store Store, opts options.Store, c cache.Cache, rebuilds *prometheus.CounterVec, logger *slog.Logger) *Service {
	return &Service{
		taxonomies:  taxonomies,
		store:       store,
		options:     opts,
		cache:       c,
		rebuilds:    rebuilds,
		logger:      logger,
		generations: make(map[string]uint64),
	}
}

// OptionName is the option key holding the persisted map of taxonomy.
func OptionName(taxonomy string) string {
	return taxonomy + constants.HierarchyOptionSuffix
}

// # Map Lifecycle

/*
Get returns the hierarchy map of taxonomy.

Description: Flat and unknown taxonomies have no hierarchy and yield an empty map.
Otherwise the object cache is consulted first, then the persisted option, and only
then the datastore.

Parameters:
  - context: context.Context
  - taxonomy: string

Returns:
  - Map: Shared value; callers must not modify it
  - error: Storage failures
*/
func (service *Service) Get(context context.Context, taxonomy string) (Map, error) {
	if !service.taxonomies.IsHierarchical(taxonomy) {
		return Map{}, nil
	}
	generation := service.generation(taxonomy)

	var children Map
	found, err := service.cache.Get(context, constants.CacheGroupHierarchy, taxonomy, &children)
	if err != nil {
		service.logger.WarnContext(context, "hierarchy_cache_read_failed",
			slog.String("taxonomy", taxonomy), slog.Any("error", err))
	}
	if found && children != nil {
		return children, nil
	}

	found, err = service.options.Get(context, OptionName(taxonomy), &children)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: read option of %s: %w", taxonomy, err)
	}
	if found && children != nil {
		if err := service.keep(context, taxonomy, generation, children, false); err != nil {
			return nil, err
		}
		return children, nil
	}

	result, err, _ := service.flight.Do(taxonomy, func() (any, error) {
		return service.rebuild(context, taxonomy, generation)
	})
	if err != nil {
		return nil, err
	}
	return result.(Map), nil
}

func (service *Service) rebuild(context context.Context, taxonomy string, generation uint64) (Map, error) {
	links, err := service.store.ListParents(context, taxonomy)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: rebuild %s: %w", taxonomy, err)
	}

	children := make(Map)
	for _, link := range links {
		if link.Parent > 0 {
			children[link.Parent] = append(children[link.Parent], link.TermID)
		}
	}
	for parent := range children {
		sort.Slice(children[parent], func(i, j int) bool { return children[parent][i] < children[parent][j] })
	}

	if err := service.keep(context, taxonomy, generation, children, true); err != nil {
		return nil, err
	}

	if service.rebuilds != nil {
		service.rebuilds.WithLabelValues(taxonomy).Inc()
	}
	service.logger.DebugContext(context, "hierarchy_rebuilt",
		slog.String("taxonomy", taxonomy), slog.Int("parents", len(children)))

	return children, nil
}

func (service *Service) generation(taxonomy string) uint64 {
	service.mu.Lock()
	defer service.mu.Unlock()
	return service.generations[taxonomy]
}

// keep caches children, and persists them as the option when persist is set,
// unless taxonomy was invalidated after generation was read.
func (service *Service) keep(context context.Context, taxonomy string, generation uint64, children Map, persist bool) error {
	service.mu.Lock()
	defer service.mu.Unlock()

	if service.generations[taxonomy] != generation {
		service.logger.DebugContext(context, "hierarchy_stale_map_dropped", slog.String("taxonomy", taxonomy))
		return nil
	}
	if persist {
		if err := service.options.Set(context, OptionName(taxonomy), children); err != nil {
			return fmt.Errorf("hierarchy: persist %s: %w", taxonomy, err)
		}
	}
	if err := service.cache.Set(context, constants.CacheGroupHierarchy, taxonomy, children, 0); err != nil {
		service.logger.WarnContext(context, "hierarchy_cache_write_failed",
			slog.String("taxonomy", taxonomy), slog.Any("error", err))
	}
	return nil
}

// Invalidate discards the persisted and cached map of taxonomy.
func (service *Service) Invalidate(context context.Context, taxonomy string) error {
	service.mu.Lock()
	defer service.mu.Unlock()

	service.generations[taxonomy]++
	service.flight.Forget(taxonomy)

	if err := service.options.Delete(context, OptionName(taxonomy)); err != nil {
		return fmt.Errorf("hierarchy: drop option of %s: %w", taxonomy, err)
	}
	if err := service.cache.Delete(context, constants.CacheGroupHierarchy, taxonomy); err != nil {
		return fmt.Errorf("hierarchy: drop cache of %s: %w", taxonomy, err)
	}
	return nil
}

// # Descendants

// Descendants returns every term below termID in taxonomy, direct children first.
// The result never contains termID itself, even when the stored parents form a cycle.
func (service *Service) Descendants(context context.Context, termID int64, taxonomy string) ([]int64, error) {
	if !service.taxonomies.Exists(taxonomy) {
		return []int64{}, nil
	}

	children, err := service.Get(context, taxonomy)
	if err != nil {
		return nil, err
	}
	return children.Descendants(termID), nil
}

// Descendants walks the map from termID.
func (children Map) Descendants(termID int64) []int64 {
	visited := map[int64]bool{termID: true}
	result := make([]int64, 0)

	var walk func(int64)
	walk = func(id int64) {
		direct := make([]int64, 0, len(children[id]))
		for _, child := range children[id] {
			if visited[child] {
				continue
			}
			visited[child] = true
			direct = append(direct, child)
		}
		result = append(result, direct...)
		for _, child := range direct {
			if _, ok := children[child]; ok {
				walk(child)
			}
		}
	}
	walk(termID)

	return result
}

// HasChildren reports whether termID is a parent in the map.
func (children Map) HasChildren(termID int64) bool {
	_, ok := children[termID]
	return ok
}

// Parents inverts the map into a child to parent lookup.
func (children Map) Parents() map[int64]int64 {
	parents := make(map[int64]int64)
	for parent, ids := range children {
		for _, id := range ids {
			parents[id] = parent
		}
	}
	return parents
}
