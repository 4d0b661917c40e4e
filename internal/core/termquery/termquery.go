// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package termquery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taibuivan/multitax/internal/core/hierarchy"
	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/cache"
	"github.com/taibuivan/multitax/internal/platform/constants"
)

// # Dependencies

// Taxonomies is the registry subset the query needs.
type Taxonomies interface {
	Validate(names ...string) error
	IsHierarchical(name string) bool
}

// Store runs the composed statements.
type Store interface {
	Select(ctx context.Context, query string, args []any, withObject bool) ([]*term.Term, error)
	SelectCount(ctx context.Context, query string, args []any) (int64, error)
	Counts(ctx context.Context, taxonomy string, termIDs []int64) (map[int64]int64, error)
}

// Hierarchy answers parent/child questions about hierarchical taxonomies.
type Hierarchy interface {
	Get(ctx context.Context, taxonomy string) (hierarchy.Map, error)
	Descendants(ctx context.Context, termID int64, taxonomy string) ([]int64, error)
	SubsetOfDescendants(ctx context.Context, rootID int64, candidates []*term.Term, taxonomy string) ([]*term.Term, error)
	PadCounts(ctx context.Context, terms []*term.Term, taxonomy string) error
}

// # Service

// Service runs term queries.
type Service struct {
	taxonomies Taxonomies
	store      Store
	hierarchy  Hierarchy
	cache      cache.Cache
	ttl        time.Duration
	duration   *prometheus.HistogramVec
	logger     *slog.Logger
}

/*
NewService wires a term query service.

Parameters:
  - taxonomies: Taxonomies
  - store: Store
  - hierarchy: Hierarchy
  - c: cache.Cache
  - ttl: time.Duration (expiry of non-empty results, 0 keeps them until the next write)
  - duration: *prometheus.HistogramVec (optional, labelled by component)
  - logger: *slog.Logger
*/
func NewService(taxonomies Taxonomies, store Store, hierarchy Hierarchy, c cache.Cache, ttl time.Duration, duration *prometheus.HistogramVec, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		taxonomies: taxonomies,
		store:      store,
		hierarchy:  hierarchy,
		cache:      c,
		ttl:        ttl,
		duration:   duration,
		logger:     logger,
	}
}

/*
Query lists terms matching args.

Returns:
  - *Result: Shaped according to args.Fields
  - error: ErrInvalidTaxonomy, validation or storage failures
*/
func (service *Service) Query(context context.Context, args Args) (*Result, error) {
	if err := service.normalize(&args); err != nil {
		return nil, err
	}

	// 1. Nothing can match below a root without children
	empty, err := service.rootWithoutChildren(context, args)
	if err != nil {
		return nil, err
	}
	if empty {
		return emptyResult(args.Fields), nil
	}

	// 2. Compose the statement and consult the cache
	stmt, err := service.build(context, args)
	if err != nil {
		return nil, err
	}

	key, err := service.cacheKey(context, args, stmt)
	if err != nil {
		return nil, err
	}
	if key != "" {
		var cached Result
		found, err := service.cache.Get(context, constants.CacheGroupTermQueries, key, &cached)
		if err != nil {
			service.logger.WarnContext(context, "term_query_cache_read_failed", slog.Any("error", err))
		} else if found {
			return &cached, nil
		}
	}

	// 3. Run and post-process
	result, err := service.execute(context, args, stmt)
	if err != nil {
		return nil, err
	}

	if key != "" {
		ttl := service.ttl
		if result.Len() == 0 {
			ttl = constants.EmptyResultTTL
		}
		if err := service.cache.Set(context, constants.CacheGroupTermQueries, key, result, ttl); err != nil {
			service.logger.WarnContext(context, "term_query_cache_write_failed", slog.Any("error", err))
		}
	}
	return result, nil
}

// normalize validates args and resolves interactions between them.
func (service *Service) normalize(args *Args) error {
	if err := service.taxonomies.Validate(args.Taxonomies...); err != nil {
		return err
	}

	if args.Fields == "" {
		args.Fields = FieldsAll
	}
	if !args.Fields.valid() {
		return apperr.ValidationError(fmt.Sprintf("unknown fields %q", args.Fields),
			apperr.FieldError{Field: "fields", Message: "unsupported value"})
	}
	if args.Number < 0 {
		args.Number = 0
	}
	if args.Offset < 0 {
		args.Offset = 0
	}
	args.Order = parseOrder(args.Order)

	// 1. Hierarchy handling needs exactly one taxonomy, and a hierarchical one
	if len(args.Taxonomies) != 1 || !service.taxonomies.IsHierarchical(args.Taxonomies[0]) {
		args.Hierarchical = false
		args.PadCounts = false
	}

	// 2. A direct parent wins over a subtree
	if args.Parent != nil && *args.Parent > 0 {
		args.ChildOf = 0
	}

	// 3. "all" returns everything regardless of structure and usage
	if args.Get == GetAll {
		args.Childless = false
		args.ChildOf = 0
		args.HideEmpty = false
		args.Hierarchical = false
		args.PadCounts = false
	}

	if args.Fields == FieldsCount {
		args.Hierarchical = false
	}
	if len(args.ObjectIDs) > 0 {
		args.HideEmpty = false
	} else if args.Orderby == "term_order" {
		args.Orderby = "term_id"
	}
	if len(args.Include) > 0 {
		args.Exclude = nil
		args.ExcludeTree = nil
	}
	return nil
}

// rootWithoutChildren reports whether child_of or parent names a term with no children.
func (service *Service) rootWithoutChildren(context context.Context, args Args) (bool, error) {
	root := args.ChildOf
	if args.Parent != nil && *args.Parent > 0 {
		root = *args.Parent
	}
	if root == 0 || len(args.Taxonomies) == 0 {
		return false, nil
	}

	for _, taxonomy := range args.Taxonomies {
		if !service.taxonomies.IsHierarchical(taxonomy) {
			continue
		}
		children, err := service.hierarchy.Get(context, taxonomy)
		if err != nil {
			return false, err
		}
		if children.HasChildren(root) {
			return false, nil
		}
	}
	return true, nil
}

// cacheKey derives the result key, or "" when caching is off for this call.
func (service *Service) cacheKey(context context.Context, args Args, stmt statement) (string, error) {
	if service.cache == nil || args.SkipCache {
		return "", nil
	}

	lastChanged, err := cache.LastChanged(context, service.cache, constants.CacheGroupTerms)
	if err != nil {
		service.logger.WarnContext(context, "term_query_last_changed_failed", slog.Any("error", err))
		return "", nil
	}

	digest, err := cache.Key("get_terms", args, stmt)
	if err != nil {
		return "", fmt.Errorf("termquery: cache key: %w", err)
	}
	return digest + ":" + lastChanged, nil
}

// execute runs the statement and applies the in-memory stages.
func (service *Service) execute(context context.Context, args Args, stmt statement) (*Result, error) {
	started := time.Now()
	defer func() {
		if service.duration != nil {
			service.duration.WithLabelValues("term_query").Observe(time.Since(started).Seconds())
		}
	}()

	if stmt.Count {
		total, err := service.store.SelectCount(context, stmt.SQL, stmt.Args)
		if err != nil {
			return nil, err
		}
		return &Result{Fields: FieldsCount, Count: total}, nil
	}

	terms, err := service.store.Select(context, stmt.SQL, stmt.Args, stmt.WithObject)
	if err != nil {
		return nil, err
	}
	if stmt.MetaJoined {
		terms = distinct(terms, pairingKey(stmt.WithObject))
	}

	// 1. Keep only descendants of child_of
	if args.ChildOf > 0 {
		if terms, err = service.descendantsOf(context, args.ChildOf, terms); err != nil {
			return nil, err
		}
	}

	// 2. Pad counts with descendant usage
	if args.PadCounts && args.Fields == FieldsAll {
		for _, taxonomy := range taxonomiesOf(terms) {
			if err := service.hierarchy.PadCounts(context, terms, taxonomy); err != nil {
				return nil, err
			}
		}
	}

	// 3. Keep empty parents whose descendants are in use
	if args.Hierarchical && args.HideEmpty {
		if terms, err = service.dropEmpty(context, terms); err != nil {
			return nil, err
		}
	}

	// 4. One row per term unless the object is part of the answer
	if stmt.WithObject && args.Fields != FieldsAllWithObjectID {
		terms = distinct(terms, termKey)
	}

	if args.Number > 0 && stmt.PageInMemory {
		terms = paginate(terms, args.Offset, args.Number)
	}
	return shape(terms, args.Fields), nil
}

// descendantsOf filters terms down to descendants of root, per taxonomy.
func (service *Service) descendantsOf(context context.Context, root int64, terms []*term.Term) ([]*term.Term, error) {
	keep := make(map[int64]bool, len(terms))
	for _, taxonomy := range taxonomiesOf(terms) {
		candidates := make([]*term.Term, 0, len(terms))
		for _, candidate := range terms {
			if candidate.Taxonomy == taxonomy {
				candidates = append(candidates, candidate)
			}
		}

		subset, err := service.hierarchy.SubsetOfDescendants(context, root, candidates, taxonomy)
		if err != nil {
			return nil, err
		}
		for _, kept := range subset {
			keep[kept.MtmtID] = true
		}
	}

	filtered := make([]*term.Term, 0, len(keep))
	for _, candidate := range terms {
		if keep[candidate.MtmtID] {
			filtered = append(filtered, candidate)
		}
	}
	return filtered, nil
}

// dropEmpty removes unused terms unless one of their descendants is used.
func (service *Service) dropEmpty(context context.Context, terms []*term.Term) ([]*term.Term, error) {
	kept := make([]*term.Term, 0, len(terms))
	for _, candidate := range terms {
		if candidate.Count > 0 {
			kept = append(kept, candidate)
			continue
		}

		descendants, err := service.hierarchy.Descendants(context, candidate.TermID, candidate.Taxonomy)
		if err != nil {
			return nil, err
		}
		if len(descendants) == 0 {
			continue
		}

		counts, err := service.store.Counts(context, candidate.Taxonomy, descendants)
		if err != nil {
			return nil, err
		}
		for _, count := range counts {
			if count > 0 {
				kept = append(kept, candidate)
				break
			}
		}
	}
	return kept, nil
}

// taxonomiesOf lists the distinct taxonomies of terms in first-seen order.
func taxonomiesOf(terms []*term.Term) []string {
	seen := make(map[string]bool)
	taxonomies := make([]string, 0, 1)
	for _, item := range terms {
		if !seen[item.Taxonomy] {
			seen[item.Taxonomy] = true
			taxonomies = append(taxonomies, item.Taxonomy)
		}
	}
	return taxonomies
}

type rowKey struct{ id, blogID, objectID int64 }

func termKey(item *term.Term) rowKey { return rowKey{id: item.TermID} }

func pairingKey(withObject bool) func(*term.Term) rowKey {
	return func(item *term.Term) rowKey {
		if withObject {
			return rowKey{id: item.MtmtID, blogID: item.BlogID, objectID: item.ObjectID}
		}
		return rowKey{id: item.MtmtID}
	}
}

// distinct drops rows whose key was already seen, keeping the first occurrence.
func distinct(terms []*term.Term, key func(*term.Term) rowKey) []*term.Term {
	seen := make(map[rowKey]bool, len(terms))
	unique := make([]*term.Term, 0, len(terms))
	for _, item := range terms {
		k := key(item)
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, item)
	}
	return unique
}

func paginate(terms []*term.Term, offset, number int) []*term.Term {
	if offset >= len(terms) {
		return []*term.Term{}
	}
	end := offset + number
	if end > len(terms) {
		end = len(terms)
	}
	return terms[offset:end]
}
