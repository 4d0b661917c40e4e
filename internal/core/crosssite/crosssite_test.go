// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package crosssite_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/multitax/internal/core/crosssite"
	"github.com/taibuivan/multitax/internal/core/term/termtest"
	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/cache"
	"github.com/taibuivan/multitax/internal/platform/constants"
)

type fakeStore struct {
	mu         sync.Mutex
	sites      []crosssite.Site
	posts      []crosssite.Post
	query      string
	args       []any
	postCalls  int
	siteCalls  int
	askedSites []int64
}

func (store *fakeStore) Posts(_ context.Context, query string, args []any) ([]crosssite.Post, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.postCalls++
	store.query, store.args = query, args
	return append([]crosssite.Post(nil), store.posts...), nil
}

func (store *fakeStore) Sites(_ context.Context, blogIDs []int64) ([]crosssite.Site, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.siteCalls++
	store.askedSites = blogIDs
	return store.sites, nil
}

type fixture struct {
	service *crosssite.Service
	terms   *termtest.Memory
	store   *fakeStore
	cache   *cache.Memory
	mtmtID  int64
}

// newFixture attaches one term pairing to posts on blogs 2 (10, 11), 5 (20),
// 7 (30, archived) and 9 (40, deleted).
func newFixture(t *testing.T) *fixture {
	t.Helper()

	terms := termtest.NewMemory()
	ref := terms.Seed("genre", "Rock", "rock", 0)
	terms.Attach(ref.MtmtID, 2, 10, 11)
	terms.Attach(ref.MtmtID, 5, 20)
	terms.Attach(ref.MtmtID, 7, 30)
	terms.Attach(ref.MtmtID, 9, 40)

	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		sites: []crosssite.Site{
			{BlogID: 2, Domain: "music.example.com", Path: "/", Public: true},
			{BlogID: 5, Domain: "example.com", Path: "/jazz/", Public: true},
			{BlogID: 7, Domain: "example.com", Path: "/old/", Archived: true},
			{BlogID: 9, Domain: "example.com", Path: "/gone/", Deleted: true},
		},
		posts: []crosssite.Post{
			{BlogID: 5, ID: 20, Title: "Blue", Date: day.Add(3 * time.Hour)},
			{BlogID: 2, ID: 11, Title: "Loud", Date: day.Add(2 * time.Hour)},
			{BlogID: 7, ID: 30, Title: "Archived", Date: day.Add(time.Hour)},
			{BlogID: 2, ID: 10, Title: "Fast", Date: day},
			{BlogID: 9, ID: 40, Title: "Deleted", Date: day},
		},
	}

	f := &fixture{terms: terms, store: store, cache: cache.NewMemory(), mtmtID: ref.MtmtID}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	config := crosssite.Config{TablePrefix: "wp_", Scheme: "https", TTL: time.Hour}
	f.service = crosssite.NewService(terms, store, f.cache, nil, config, nil, logger)
	return f
}

func TestQuery_FansOutAndDropsUnavailableSites(t *testing.T) {
	f := newFixture(t)

	opts := crosssite.DefaultOptions()
	opts.TermIDs = []int64{f.mtmtID}

	posts, err := f.service.Query(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	assert.Equal(t, int64(5), posts[0].BlogID)
	assert.Equal(t, "https://example.com/jazz/?p=20", posts[0].Permalink)
	assert.Equal(t, int64(2), posts[1].BlogID)
	assert.Equal(t, "https://music.example.com/?p=11", posts[1].Permalink)
	assert.Equal(t, "https://music.example.com/?p=10", posts[2].Permalink)

	assert.Equal(t, []int64{2, 5, 7, 9}, f.store.askedSites)
	assert.Contains(t, f.store.query, "FROM wp_2_posts")
	assert.Contains(t, f.store.query, "FROM wp_9_posts")
}

func TestQuery_CachesPostsAndSites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opts := crosssite.DefaultOptions()
	opts.TermIDs = []int64{f.mtmtID}

	_, err := f.service.Query(ctx, opts)
	require.NoError(t, err)
	_, err = f.service.Query(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.postCalls)

	// Bypassing the read still refreshes posts, but sites stay cached
	opts.Cache = false
	_, err = f.service.Query(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.postCalls)
	assert.Equal(t, 1, f.store.siteCalls)

	// A term write retires the cached list
	opts.Cache = true
	require.NoError(t, cache.Bump(ctx, f.cache, constants.CacheGroupTerms))
	_, err = f.service.Query(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, f.store.postCalls)
}

func TestQuery_RequiresTermIDs(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Query(context.Background(), crosssite.DefaultOptions())
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))

	opts := crosssite.DefaultOptions()
	opts.TermIDs = []int64{f.mtmtID, -3}
	_, err = f.service.Query(context.Background(), opts)
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))

	assert.Zero(t, f.store.postCalls)
	assert.Zero(t, f.terms.Calls["ListRelationships"])
}

func TestQuery_NoRelationshipsSkipsPosts(t *testing.T) {
	f := newFixture(t)
	unused := f.terms.Seed("genre", "Jazz", "jazz", 0)

	opts := crosssite.DefaultOptions()
	opts.TermIDs = []int64{unused.MtmtID}

	posts, err := f.service.Query(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Zero(t, f.store.postCalls)
}

func TestQuery_RendererRunsPerPost(t *testing.T) {
	f := newFixture(t)
	renderer := crosssite.RendererFunc(func(_ context.Context, post *crosssite.Post) {
		post.Title = "<b>" + post.Title + "</b>"
	})
	f.service = crosssite.NewService(f.terms, f.store, nil, renderer, crosssite.Config{TablePrefix: "wp_"}, nil, nil)

	opts := crosssite.DefaultOptions()
	opts.TermIDs = []int64{f.mtmtID}

	posts, err := f.service.Query(context.Background(), opts)
	require.NoError(t, err)
	require.NotEmpty(t, posts)
	assert.Equal(t, "<b>Blue</b>", posts[0].Title)
}

func TestUnion_Statement(t *testing.T) {
	groups := []crosssite.BlogObjects{
		{BlogID: 1, ObjectIDs: []int64{3}},
		{BlogID: 5, ObjectIDs: []int64{20, 21}},
	}
	opts := crosssite.Options{Orderby: "post_title", Order: "ASC", PostsPerPage: 5, Offset: 10}

	query, args := crosssite.Union("wp_", groups, opts)

	columns := "id, post_title, post_content, post_excerpt, post_date, post_name, post_type"
	expected := "(SELECT 1 AS blog_id, " + columns + " FROM wp_posts WHERE id IN ($1) AND post_status = $2)" +
		" UNION ALL (SELECT 5 AS blog_id, " + columns + " FROM wp_5_posts WHERE id IN ($3, $4) AND post_status = $5)" +
		" ORDER BY post_title ASC, blog_id ASC, id ASC LIMIT $6 OFFSET $7"
	assert.Equal(t, expected, query)
	assert.Equal(t, []any{int64(3), "publish", int64(20), int64(21), "publish", 5, 10}, args)
}

func TestUnion_UnlimitedHasNoLimit(t *testing.T) {
	groups := []crosssite.BlogObjects{{BlogID: 2, ObjectIDs: []int64{1}}}

	query, _ := crosssite.Union("wp_", groups, crosssite.Options{Orderby: "post_date", Order: "DESC"})
	assert.NotContains(t, query, "LIMIT")
	assert.Contains(t, query, "ORDER BY post_date DESC")
}

func TestSite_Permalink(t *testing.T) {
	site := crosssite.Site{Domain: "example.com", Path: "blog"}
	assert.Equal(t, "http://example.com/blog/?p=7", site.Permalink("http", 7))
	assert.True(t, site.Active())
	assert.False(t, crosssite.Site{Spam: true}.Active())
}
