// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package crosssite finds the posts of every site in the network that are
attached to a set of term pairings.

Every site owns a physically separate posts table, so the query fans out: the
relationship rows are grouped by blog, one SELECT is built per site, and the
per-site SELECTs are combined into a single UNION ALL statement. Site metadata
is loaded next to it to drop posts of missing, archived, spam or deleted sites
and to build permalinks.
*/
package crosssite

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/cache"
	"github.com/taibuivan/multitax/internal/platform/constants"
)

// # Models

// Post is the summary of one post, tagged with the site it lives on.
type Post struct {
	BlogID    int64     `json:"blog_id"`
	ID        int64     `json:"id"`
	Title     string    `json:"post_title"`
	Content   string    `json:"post_content"`
	Excerpt   string    `json:"post_excerpt"`
	Date      time.Time `json:"post_date"`
	Name      string    `json:"post_name"`
	Type      string    `json:"post_type"`
	Permalink string    `json:"permalink"`
}

// Site is the registry row of one network site.
type Site struct {
	BlogID   int64  `json:"blog_id"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Public   bool   `json:"public"`
	Archived bool   `json:"archived"`
	Spam     bool   `json:"spam"`
	Deleted  bool   `json:"deleted"`
}

// Active reports whether posts of the site may be listed.
func (site Site) Active() bool {
	return !site.Archived && !site.Spam && !site.Deleted
}

// Permalink builds the canonical "?p=" link of a post on the site.
func (site Site) Permalink(scheme string, postID int64) string {
	path := site.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	link := url.URL{
		Scheme:   scheme,
		Host:     site.Domain,
		Path:     path,
		RawQuery: "p=" + strconv.FormatInt(postID, 10),
	}
	return link.String()
}

// # Options

// Options drive one cross-site query.
type Options struct {
	// TermIDs are term pairing IDs (mtmt_id).
	TermIDs []int64 `json:"term_ids"`

	Orderby string `json:"orderby"`
	Order   string `json:"order"`

	// PostsPerPage caps the result; 0 or less returns every post.
	PostsPerPage int `json:"posts_per_page"`
	Offset       int `json:"offset"`

	// Cache allows reading a cached result; UpdateCache allows storing one.
	Cache       bool `json:"-"`
	UpdateCache bool `json:"-"`
}

// DefaultOptions returns the newest ten posts with caching enabled.
func DefaultOptions() Options {
	return Options{
		Orderby:      "post_date",
		Order:        "DESC",
		PostsPerPage: 10,
		Cache:        true,
		UpdateCache:  true,
	}
}

// # Dependencies

// Relationships lists the objects attached to term pairings.
type Relationships interface {
	ListRelationships(ctx context.Context, mtmtIDs []int64) ([]term.Relationship, error)
}

// Store reads posts and sites.
type Store interface {
	Posts(ctx context.Context, query string, args []any) ([]Post, error)
	Sites(ctx context.Context, blogIDs []int64) ([]Site, error)
}

// Renderer applies output filters to a post before it is returned.
type Renderer interface {
	Render(ctx context.Context, post *Post)
}

// RendererFunc adapts a function to [Renderer].
type RendererFunc func(ctx context.Context, post *Post)

// Render implements [Renderer].
func (fn RendererFunc) Render(ctx context.Context, post *Post) { fn(ctx, post) }

// # Service

// Config holds the deployment settings of the query.
type Config struct {
	// TablePrefix prefixes every per-site posts table.
	TablePrefix string
	Scheme      string
	TTL         time.Duration
}

// Service runs cross-site queries.
type Service struct {
	relationships Relationships
	store         Store
	cache         cache.Cache
	renderer      Renderer
	config        Config
	duration      *prometheus.HistogramVec
	logger        *slog.Logger
}

// NewService creates a cross-site query service. A nil renderer returns posts unchanged.
func NewService(relationships Relationships, store Store, c cache.Cache, renderer Renderer, config Config, duration *prometheus.HistogramVec, logger *slog.Logger) *Service {
	if renderer == nil {
		renderer = RendererFunc(func(context.Context, *Post) {})
	}
	if config.Scheme == "" {
		config.Scheme = "https"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		relationships: relationships,
		store:         store,
		cache:         c,
		renderer:      renderer,
		config:        config,
		duration:      duration,
		logger:        logger,
	}
}

/*
Query returns the posts attached to opts.TermIDs across every active site.

Returns:
  - []Post: Ordered and paginated as requested
  - error: VALIDATION_ERROR when no term ID is given, storage failures otherwise
*/
func (service *Service) Query(context context.Context, opts Options) ([]Post, error) {
	opts, err := normalize(opts)
	if err != nil {
		return nil, err
	}

	// 1. Cached result
	key := service.cacheKey(context, opts)
	if key != "" && opts.Cache {
		var cached []Post
		found, err := service.cache.Get(context, constants.CacheGroupPosts, key, &cached)
		if err != nil {
			service.logger.WarnContext(context, "cross_site_cache_read_failed", slog.Any("error", err))
		} else if found {
			return cached, nil
		}
	}

	started := time.Now()
	posts, err := service.execute(context, opts)
	if service.duration != nil {
		service.duration.WithLabelValues("cross_site_query").Observe(time.Since(started).Seconds())
	}
	if err != nil {
		return nil, err
	}

	// 2. Store for the next identical call
	if key != "" && opts.UpdateCache {
		if err := service.cache.Set(context, constants.CacheGroupPosts, key, posts, service.config.TTL); err != nil {
			service.logger.WarnContext(context, "cross_site_cache_write_failed", slog.Any("error", err))
		}
	}
	return posts, nil
}

func (service *Service) execute(context context.Context, opts Options) ([]Post, error) {
	relationships, err := service.relationships.ListRelationships(context, opts.TermIDs)
	if err != nil {
		return nil, err
	}

	groups := groupByBlog(relationships)
	if len(groups) == 0 {
		return []Post{}, nil
	}
	blogIDs := make([]int64, 0, len(groups))
	for _, group := range groups {
		blogIDs = append(blogIDs, group.BlogID)
	}

	// 1. Sites and posts are independent reads
	var (
		sites map[int64]Site
		rows  []Post
	)
	group, ctx := errgroup.WithContext(context)
	group.Go(func() error {
		var err error
		sites, err = service.sites(ctx, blogIDs)
		return err
	})
	group.Go(func() error {
		query, args := Union(service.config.TablePrefix, groups, opts)
		var err error
		rows, err = service.store.Posts(ctx, query, args)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// 2. Drop posts of unavailable sites, then render
	posts := make([]Post, 0, len(rows))
	for _, post := range rows {
		site, ok := sites[post.BlogID]
		if !ok || !site.Active() {
			continue
		}
		post.Permalink = site.Permalink(service.config.Scheme, post.ID)
		service.renderer.Render(context, &post)
		posts = append(posts, post)
	}
	return posts, nil
}

// sites loads the metadata of blogIDs, cached under the sorted ID set.
func (service *Service) sites(context context.Context, blogIDs []int64) (map[int64]Site, error) {
	var key string
	if service.cache != nil {
		digest, err := cache.Key("blog_details", blogIDs)
		if err == nil {
			key = digest
			var cached []Site
			if found, err := service.cache.Get(context, constants.CacheGroupBlogs, key, &cached); err == nil && found {
				return indexSites(cached), nil
			}
		}
	}

	sites, err := service.store.Sites(context, blogIDs)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := service.cache.Set(context, constants.CacheGroupBlogs, key, sites, service.config.TTL); err != nil {
			service.logger.WarnContext(context, "blog_cache_write_failed", slog.Any("error", err))
		}
	}
	return indexSites(sites), nil
}

// cacheKey derives the result key from the normalized options and the terms change token.
func (service *Service) cacheKey(context context.Context, opts Options) string {
	if service.cache == nil || (!opts.Cache && !opts.UpdateCache) {
		return ""
	}

	lastChanged, err := cache.LastChanged(context, service.cache, constants.CacheGroupTerms)
	if err != nil {
		service.logger.WarnContext(context, "cross_site_last_changed_failed", slog.Any("error", err))
		return ""
	}
	digest, err := cache.Key("multisite_wp_query", service.config.TablePrefix, opts)
	if err != nil {
		return ""
	}
	return digest + ":" + lastChanged
}

// # Helpers

// BlogObjects are the object IDs of one site.
type BlogObjects struct {
	BlogID    int64
	ObjectIDs []int64
}

// groupByBlog groups object IDs by site, both in ascending order without duplicates.
func groupByBlog(relationships []term.Relationship) []BlogObjects {
	byBlog := make(map[int64][]int64)
	for _, relationship := range relationships {
		byBlog[relationship.BlogID] = append(byBlog[relationship.BlogID], relationship.ObjectID)
	}

	groups := make([]BlogObjects, 0, len(byBlog))
	for blogID, objectIDs := range byBlog {
		slices.Sort(objectIDs)
		groups = append(groups, BlogObjects{BlogID: blogID, ObjectIDs: slices.Compact(objectIDs)})
	}
	slices.SortFunc(groups, func(a, b BlogObjects) int {
		switch {
		case a.BlogID < b.BlogID:
			return -1
		case a.BlogID > b.BlogID:
			return 1
		}
		return 0
	})
	return groups
}

func indexSites(sites []Site) map[int64]Site {
	index := make(map[int64]Site, len(sites))
	for _, site := range sites {
		index[site.BlogID] = site
	}
	return index
}

// normalize rejects empty or invalid term IDs and sanitizes ordering.
func normalize(opts Options) (Options, error) {
	if len(opts.TermIDs) == 0 {
		return opts, apperr.ValidationError("term IDs are required",
			apperr.FieldError{Field: "term_ids", Message: "must not be empty"})
	}
	for _, id := range opts.TermIDs {
		if id <= 0 {
			return opts, apperr.ValidationError(fmt.Sprintf("invalid term ID %d", id),
				apperr.FieldError{Field: "term_ids", Message: "must be positive integers"})
		}
	}

	ids := slices.Clone(opts.TermIDs)
	slices.Sort(ids)
	opts.TermIDs = slices.Compact(ids)

	if _, ok := orderColumns[strings.ToLower(opts.Orderby)]; !ok {
		opts.Orderby = "post_date"
	}
	opts.Orderby = strings.ToLower(opts.Orderby)

	if strings.EqualFold(strings.TrimSpace(opts.Order), "ASC") {
		opts.Order = "ASC"
	} else {
		opts.Order = "DESC"
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts, nil
}
