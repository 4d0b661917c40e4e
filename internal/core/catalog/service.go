// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog is the stable API other code calls to read and manage terms.

It sits on top of the term repository, the hierarchy maps and the query
builders, and owns the cache coherence protocol: every write invalidates the
hierarchy map of the touched taxonomy and bumps the "last changed" token of the
terms cache group, which retires every cached term and post query at once.

Multi-step writes such as [Service.DeleteTerm] run statement by statement
without a transaction. Each step's failure is returned as-is.
*/
package catalog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/taibuivan/multitax/internal/core/crosssite"
	"github.com/taibuivan/multitax/internal/core/hierarchy"
	"github.com/taibuivan/multitax/internal/core/taxonomy"
	"github.com/taibuivan/multitax/internal/core/taxquery"
	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/core/termquery"
	"github.com/taibuivan/multitax/internal/platform/cache"
	"github.com/taibuivan/multitax/internal/platform/constants"
)

// # Dependencies

// Taxonomies is the registry subset the catalog needs.
type Taxonomies interface {
	Get(name string) (*taxonomy.Taxonomy, error)
	Validate(names ...string) error
	IsHierarchical(name string) bool
	All() []*taxonomy.Taxonomy
}

// Hierarchy reads and invalidates the parent/child maps.
type Hierarchy interface {
	Get(ctx context.Context, taxonomy string) (hierarchy.Map, error)
	Descendants(ctx context.Context, termID int64, taxonomy string) ([]int64, error)
	Invalidate(ctx context.Context, taxonomy string) error
}

// TermQuerier runs term queries.
type TermQuerier interface {
	Query(ctx context.Context, args termquery.Args) (*termquery.Result, error)
}

// PostQuerier runs cross-site post queries.
type PostQuerier interface {
	Query(ctx context.Context, opts crosssite.Options) ([]crosssite.Post, error)
}

// TaxQueryBuilder sanitizes taxonomy query trees.
type TaxQueryBuilder interface {
	New(root taxquery.Group) *taxquery.TaxQuery
}

// PostStore executes single-site post statements.
type PostStore interface {
	Posts(ctx context.Context, query string, args []any) ([]crosssite.Post, error)
}

// Dependencies groups the collaborators of [Service].
type Dependencies struct {
	Taxonomies Taxonomies
	Repository term.Repository
	Hierarchy  Hierarchy
	Terms      TermQuerier
	TaxQueries TaxQueryBuilder
	Posts      PostQuerier
	PostStore  PostStore
	Cache      cache.Cache

	// TablePrefix prefixes the per-site posts tables read by [Service.FindPosts].
	TablePrefix string
}

// # Service

// Service implements the catalog operations.
type Service struct {
	taxonomies  Taxonomies
	repo        term.Repository
	tree        Hierarchy
	terms       TermQuerier
	taxQueries  TaxQueryBuilder
	posts       PostQuerier
	postStore   PostStore
	cache       cache.Cache
	tablePrefix string
	logger      *slog.Logger

	counting struct {
		mu       sync.Mutex
		deferred bool
		queue    map[int64]bool
	}
}

// NewService constructs the catalog [Service].
func NewService(deps Dependencies, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	service := &Service{
		taxonomies:  deps.Taxonomies,
		repo:        deps.Repository,
		tree:        deps.Hierarchy,
		terms:       deps.Terms,
		taxQueries:  deps.TaxQueries,
		posts:       deps.Posts,
		postStore:   deps.PostStore,
		cache:       deps.Cache,
		tablePrefix: deps.TablePrefix,
		logger:      logger,
	}
	service.counting.queue = make(map[int64]bool)
	return service
}

// # Taxonomies

// ListTaxonomies returns every registered taxonomy ordered by name.
func (service *Service) ListTaxonomies() []*taxonomy.Taxonomy {
	return service.taxonomies.All()
}

// GetTaxonomy returns one taxonomy or [taxonomy.ErrInvalidTaxonomy].
func (service *Service) GetTaxonomy(name string) (*taxonomy.Taxonomy, error) {
	return service.taxonomies.Get(name)
}

// # Cache Coherence

// changed invalidates the hierarchy maps of taxonomies and retires every
// cached query. Invalidation failures are logged: the datastore write already
// happened and must not be reported as failed.
func (service *Service) changed(context context.Context, taxonomies ...string) {
	for _, name := range taxonomies {
		if name == "" || !service.taxonomies.IsHierarchical(name) {
			continue
		}
		if err := service.tree.Invalidate(context, name); err != nil {
			service.logger.WarnContext(context, "hierarchy_invalidate_failed",
				slog.String("taxonomy", name), slog.Any("error", err))
		}
	}

	if service.cache == nil {
		return
	}
	if err := cache.Bump(context, service.cache, constants.CacheGroupTerms); err != nil {
		service.logger.WarnContext(context, "terms_last_changed_bump_failed", slog.Any("error", err))
	}
}
