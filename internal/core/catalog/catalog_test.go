// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/multitax/internal/core/catalog"
	"github.com/taibuivan/multitax/internal/core/crosssite"
	"github.com/taibuivan/multitax/internal/core/hierarchy"
	"github.com/taibuivan/multitax/internal/core/taxonomy"
	"github.com/taibuivan/multitax/internal/core/taxquery"
	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/core/term/termtest"
	"github.com/taibuivan/multitax/internal/core/termquery"
	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/cache"
	"github.com/taibuivan/multitax/internal/platform/options"
	"github.com/taibuivan/multitax/pkg/pointer"
)

type postStore struct {
	query string
	args  []any
}

func (store *postStore) Posts(_ context.Context, query string, args []any) ([]crosssite.Post, error) {
	store.query, store.args = query, args
	return []crosssite.Post{{BlogID: 3, ID: 10, Title: "Hello"}}, nil
}

// postQuerier records the options of cross-site queries.
type postQuerier struct {
	opts  crosssite.Options
	calls int
}

func (querier *postQuerier) Query(_ context.Context, opts crosssite.Options) ([]crosssite.Post, error) {
	querier.opts = opts
	querier.calls++
	return []crosssite.Post{{BlogID: 2, ID: 7, Title: "Shared"}}, nil
}

type fixture struct {
	service *catalog.Service
	store   *termtest.Memory
	posts   *postStore
	queried *postQuerier
	refs    map[string]term.Ref
}

// newFixture seeds genre: rock(1) > punk(2) > hardcore(3), jazz(4); mood: calm(5).
func newFixture(t *testing.T) *fixture {
	t.Helper()

	registry := taxonomy.NewRegistry(nil)
	_, err := registry.Register("genre", []string{"post"}, taxonomy.Options{Hierarchical: true})
	require.NoError(t, err)
	_, err = registry.Register("mood", []string{"post"}, taxonomy.Options{})
	require.NoError(t, err)

	f := &fixture{store: termtest.NewMemory(), posts: &postStore{}, queried: &postQuerier{}, refs: map[string]term.Ref{}}
	f.refs["rock"] = f.store.Seed("genre", "Rock", "rock", 0)
	f.refs["punk"] = f.store.Seed("genre", "Punk", "punk", f.refs["rock"].TermID)
	f.refs["hardcore"] = f.store.Seed("genre", "Hardcore", "hardcore", f.refs["punk"].TermID)
	f.refs["jazz"] = f.store.Seed("genre", "Jazz", "jazz", 0)
	f.refs["calm"] = f.store.Seed("mood", "Calm", "calm", 0)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	shared := cache.NewMemory()
	tree := hierarchy.NewService(registry, f.store, options.NewMemory(), shared, nil, logger)

	f.service = catalog.NewService(catalog.Dependencies{
		Taxonomies:  registry,
		Repository:  f.store,
		Hierarchy:   tree,
		Terms:       termquery.NewService(registry, f.store, tree, shared, time.Hour, nil, logger),
		TaxQueries:  taxquery.NewBuilder(registry, f.store, tree),
		Posts:       f.queried,
		PostStore:   f.posts,
		Cache:       shared,
		TablePrefix: "wp_",
	}, logger)
	return f
}

func TestInsertTerm_IsIdempotentByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rows := f.store.TermRows()

	created, err := f.service.InsertTerm(ctx, "Blues", "genre", catalog.InsertArgs{})
	require.NoError(t, err)
	assert.False(t, created.Existing)
	assert.Equal(t, "blues", f.store.Pairing(created.MtmtID).Slug)

	again, err := f.service.InsertTerm(ctx, "blues", "genre", catalog.InsertArgs{})
	require.NoError(t, err)
	assert.True(t, again.Existing)
	assert.Equal(t, created.TermID, again.TermID)
	assert.Equal(t, created.MtmtID, again.MtmtID)
	assert.Equal(t, rows+1, f.store.TermRows())
}

func TestInsertTerm_SameNameUnderOtherParentGetsUniqueSlug(t *testing.T) {
	f := newFixture(t)

	ref, err := f.service.InsertTerm(context.Background(), "Rock", "genre", catalog.InsertArgs{Parent: f.refs["jazz"].TermID})
	require.NoError(t, err)
	assert.False(t, ref.Existing)

	created := f.store.Pairing(ref.MtmtID)
	assert.Equal(t, "rock-jazz", created.Slug)
	assert.Equal(t, f.refs["jazz"].TermID, created.Parent)
}

func TestInsertTerm_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.InsertTerm(ctx, "Other", "genre", catalog.InsertArgs{Slug: "jazz"})
	assert.True(t, errors.Is(err, term.ErrTermExists))

	_, err = f.service.InsertTerm(ctx, "Orphan", "genre", catalog.InsertArgs{Parent: 99})
	assert.True(t, errors.Is(err, term.ErrMissingParent))

	_, err = f.service.InsertTerm(ctx, "   ", "genre", catalog.InsertArgs{})
	assert.True(t, errors.Is(err, term.ErrEmptyName))

	_, err = f.service.InsertTerm(ctx, "Anything", "nope", catalog.InsertArgs{})
	assert.True(t, errors.Is(err, taxonomy.ErrInvalidTaxonomy))
}

func TestInsertTerm_FlatTaxonomyIgnoresParent(t *testing.T) {
	f := newFixture(t)

	ref, err := f.service.InsertTerm(context.Background(), "Happy", "mood", catalog.InsertArgs{Parent: f.refs["calm"].TermID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.store.Pairing(ref.MtmtID).Parent)
}

func TestDeleteTerm_ReparentsChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.Attach(f.refs["punk"].MtmtID, 2, 10)
	rows := f.store.TermRows()

	// Prime the hierarchy map so the delete has to retire it.
	children, err := f.service.GetTermChildren(ctx, f.refs["rock"].TermID, "genre")
	require.NoError(t, err)
	assert.Equal(t, []int64{f.refs["punk"].TermID, f.refs["hardcore"].TermID}, children)

	require.NoError(t, f.service.DeleteTerm(ctx, f.refs["punk"].TermID, "genre"))

	assert.Equal(t, f.refs["rock"].TermID, f.store.Pairing(f.refs["hardcore"].MtmtID).Parent)
	assert.Nil(t, f.store.Pairing(f.refs["punk"].MtmtID))
	assert.Equal(t, rows-1, f.store.TermRows())

	children, err = f.service.GetTermChildren(ctx, f.refs["rock"].TermID, "genre")
	require.NoError(t, err)
	assert.Equal(t, []int64{f.refs["hardcore"].TermID}, children)

	ancestors, err := f.service.GetAncestors(ctx, f.refs["hardcore"].TermID, "genre")
	require.NoError(t, err)
	assert.Equal(t, []int64{f.refs["rock"].TermID}, ancestors)

	relationships, err := f.store.ListRelationships(ctx, []int64{f.refs["punk"].MtmtID})
	require.NoError(t, err)
	assert.Empty(t, relationships)
}

func TestDeleteTerm_SharedTermKeepsRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	calm := f.refs["calm"]
	f.store.Share(calm.TermID, "genre", 0)
	rows := f.store.TermRows()

	require.NoError(t, f.service.DeleteTerm(ctx, calm.TermID, "mood"))
	assert.Equal(t, rows, f.store.TermRows())

	remaining, err := f.service.GetTerm(ctx, calm.TermID, "")
	require.NoError(t, err)
	assert.Equal(t, "genre", remaining.Taxonomy)
}

func TestDeleteTerm_Unknown(t *testing.T) {
	f := newFixture(t)

	err := f.service.DeleteTerm(context.Background(), 99, "genre")
	assert.True(t, errors.Is(err, term.ErrInvalidTerm))
}

func TestGetTerm_SharedIdentityNeedsTaxonomy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	calm := f.refs["calm"]
	f.store.Share(calm.TermID, "genre", 0)

	_, err := f.service.GetTerm(ctx, calm.TermID, "")
	assert.True(t, errors.Is(err, term.ErrAmbiguousTerm))

	found, err := f.service.GetTerm(ctx, calm.TermID, "mood")
	require.NoError(t, err)
	assert.Equal(t, calm.MtmtID, found.MtmtID)

	_, err = f.service.GetTerm(ctx, 99, "genre")
	assert.True(t, errors.Is(err, term.ErrInvalidTerm))
}

func TestGetTerm_CachedUntilWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jazz := f.refs["jazz"]

	first, err := f.service.GetTerm(ctx, jazz.TermID, "genre")
	require.NoError(t, err)
	calls := f.store.Calls["FindBy"]

	second, err := f.service.GetTerm(ctx, jazz.TermID, "genre")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, calls, f.store.Calls["FindBy"])

	_, err = f.service.UpdateTerm(ctx, jazz.TermID, "genre", catalog.UpdateArgs{Name: pointer.To("Smooth Jazz")})
	require.NoError(t, err)

	third, err := f.service.GetTerm(ctx, jazz.TermID, "genre")
	require.NoError(t, err)
	assert.Equal(t, "Smooth Jazz", third.Name)
}

func TestGetTermBy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	found, err := f.service.GetTermBy(ctx, term.FieldSlug, " Jazz ", "genre")
	require.NoError(t, err)
	assert.Equal(t, f.refs["jazz"].TermID, found.TermID)

	_, err = f.service.GetTermBy(ctx, term.FieldName, "Nope", "genre")
	assert.True(t, errors.Is(err, term.ErrInvalidTerm))

	_, err = f.service.GetTermBy(ctx, term.Field("color"), "red", "genre")
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}

func TestTermExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	byID, err := f.service.TermExists(ctx, "4", "genre", nil)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Jazz", byID.Name)

	byName, err := f.service.TermExists(ctx, "hardcore", "genre", pointer.To(f.refs["punk"].TermID))
	require.NoError(t, err)
	require.NotNil(t, byName)

	wrongLevel, err := f.service.TermExists(ctx, "Hardcore", "genre", pointer.To(int64(0)))
	require.NoError(t, err)
	assert.Nil(t, wrongLevel)

	missing, err := f.service.TermExists(ctx, "Blues", "genre", nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateTerm_HierarchyRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rock := f.refs["rock"].TermID

	_, err := f.service.UpdateTerm(ctx, rock, "genre", catalog.UpdateArgs{Parent: pointer.To(f.refs["hardcore"].TermID)})
	assert.True(t, errors.Is(err, term.ErrHierarchyLoop))

	_, err = f.service.UpdateTerm(ctx, rock, "genre", catalog.UpdateArgs{Parent: pointer.To(rock)})
	assert.True(t, errors.Is(err, term.ErrHierarchyLoop))

	_, err = f.service.UpdateTerm(ctx, rock, "genre", catalog.UpdateArgs{Parent: pointer.To(int64(99))})
	assert.True(t, errors.Is(err, term.ErrMissingParent))

	_, err = f.service.UpdateTerm(ctx, f.refs["jazz"].TermID, "genre", catalog.UpdateArgs{Slug: pointer.To("rock")})
	assert.True(t, errors.Is(err, term.ErrDuplicateSlug))

	_, err = f.service.UpdateTerm(ctx, f.refs["jazz"].TermID, "genre", catalog.UpdateArgs{Name: pointer.To("")})
	assert.True(t, errors.Is(err, term.ErrEmptyName))

	moved, err := f.service.UpdateTerm(ctx, f.refs["jazz"].TermID, "genre", catalog.UpdateArgs{Parent: pointer.To(rock)})
	require.NoError(t, err)
	assert.Equal(t, rock, f.store.Pairing(moved.MtmtID).Parent)

	children, err := f.service.GetTermChildren(ctx, rock, "genre")
	require.NoError(t, err)
	assert.Contains(t, children, f.refs["jazz"].TermID)
}

func TestUpdateTerm_TermQueryIsNotStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jazz := f.refs["jazz"]
	f.store.SelectFunc = func(string, []any, bool) ([]*term.Term, error) {
		return []*term.Term{f.store.Pairing(jazz.MtmtID)}, nil
	}

	args := termquery.DefaultArgs()
	args.Taxonomies = []string{"genre"}
	args.Fields = termquery.FieldsNames
	args.HideEmpty = false

	before, err := f.service.GetTerms(ctx, args)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jazz"}, before.Labels)

	_, err = f.service.UpdateTerm(ctx, jazz.TermID, "genre", catalog.UpdateArgs{Name: pointer.To("Bebop")})
	require.NoError(t, err)

	after, err := f.service.GetTerms(ctx, args)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bebop"}, after.Labels)
	assert.Equal(t, 2, f.store.Calls["Select"])
}

func TestGetAncestors_FlatTaxonomy(t *testing.T) {
	f := newFixture(t)

	ancestors, err := f.service.GetAncestors(context.Background(), f.refs["calm"].TermID, "mood")
	require.NoError(t, err)
	assert.Empty(t, ancestors)
}

func TestSetObjectTerms_DiffAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rock, jazz := f.refs["rock"], f.refs["jazz"]

	mtmtIDs, err := f.service.SetObjectTerms(ctx, 2, 10, []string{"rock", "4", "Blues"}, "genre", false)
	require.NoError(t, err)
	require.Len(t, mtmtIDs, 3)
	assert.Equal(t, []int64{rock.MtmtID, jazz.MtmtID}, mtmtIDs[:2])

	blues := f.store.Pairing(mtmtIDs[2])
	require.NotNil(t, blues)
	assert.Equal(t, "Blues", blues.Name)
	assert.Equal(t, int64(1), blues.Count)
	assert.Equal(t, int64(1), f.store.Pairing(rock.MtmtID).Count)

	_, err = f.service.SetObjectTerms(ctx, 2, 10, []string{"jazz"}, "genre", false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.store.Pairing(rock.MtmtID).Count)
	assert.Equal(t, int64(0), f.store.Pairing(blues.MtmtID).Count)
	assert.Equal(t, int64(1), f.store.Pairing(jazz.MtmtID).Count)

	_, err = f.service.AddObjectTerms(ctx, 2, 10, []string{"rock"}, "genre")
	require.NoError(t, err)
	attached, err := f.store.ObjectMtmtIDs(ctx, 2, 10, []string{"genre"})
	require.NoError(t, err)
	assert.Equal(t, []int64{rock.MtmtID, jazz.MtmtID}, attached)

	_, err = f.service.SetObjectTerms(ctx, 2, 10, []string{"99"}, "genre", true)
	assert.True(t, errors.Is(err, term.ErrInvalidTerm))
}

func TestRemoveObjectTerms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rock, calm := f.refs["rock"], f.refs["calm"]

	_, err := f.service.SetObjectTerms(ctx, 2, 10, []string{"rock", "jazz"}, "genre", false)
	require.NoError(t, err)
	_, err = f.service.SetObjectTerms(ctx, 2, 10, []string{"calm"}, "mood", false)
	require.NoError(t, err)

	removed, err := f.service.RemoveObjectTerms(ctx, 2, 10, []string{"rock", "unknown"}, "genre")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, int64(0), f.store.Pairing(rock.MtmtID).Count)

	require.NoError(t, f.service.DeleteObjectTermRelationships(ctx, 2, 10, []string{"genre"}))
	attached, err := f.store.ObjectMtmtIDs(ctx, 2, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{calm.MtmtID}, attached)
}

func TestDeferCounting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jazz := f.refs["jazz"]

	deferred, err := f.service.DeferCounting(ctx, true)
	require.NoError(t, err)
	assert.True(t, deferred)

	_, err = f.service.AddObjectTerms(ctx, 2, 10, []string{"jazz"}, "genre")
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.store.Pairing(jazz.MtmtID).Count)

	deferred, err = f.service.DeferCounting(ctx, false)
	require.NoError(t, err)
	assert.False(t, deferred)
	assert.Equal(t, int64(1), f.store.Pairing(jazz.MtmtID).Count)
}

func TestRecountTaxonomy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rock, jazz := f.refs["rock"], f.refs["jazz"]

	f.store.Attach(rock.MtmtID, 2, 10)
	f.store.Attach(rock.MtmtID, 3, 10)
	f.store.SetStoredCount(jazz.MtmtID, 7)
	f.store.SelectFunc = func(string, []any, bool) ([]*term.Term, error) {
		return []*term.Term{f.store.Pairing(rock.MtmtID), f.store.Pairing(jazz.MtmtID)}, nil
	}

	recounted, err := f.service.RecountTaxonomy(ctx, "genre")
	require.NoError(t, err)
	assert.Equal(t, 2, recounted)
	assert.Equal(t, int64(2), f.store.Pairing(rock.MtmtID).Count)
	assert.Equal(t, int64(0), f.store.Pairing(jazz.MtmtID).Count)

	_, err = f.service.RecountTaxonomy(ctx, "nope")
	assert.True(t, errors.Is(err, taxonomy.ErrInvalidTaxonomy))
}

func TestGetObjectTerms_RequiresObjects(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetObjectTerms(context.Background(), 2, nil, []string{"genre"}, termquery.DefaultArgs())
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}

func TestTermMeta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jazz := f.refs["jazz"].TermID

	_, err := f.service.AddTermMeta(ctx, jazz, "color", "blue", true)
	require.NoError(t, err)

	_, err = f.service.AddTermMeta(ctx, jazz, "color", "red", true)
	assert.True(t, apperr.HasCode(err, "CONFLICT"))

	updated, err := f.service.UpdateTermMeta(ctx, jazz, "icon", "sax", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	updated, err = f.service.UpdateTermMeta(ctx, jazz, "color", "green", pointer.To("red"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)

	rows, err := f.service.GetTermMeta(ctx, jazz, "")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	deleted, err := f.service.DeleteTermMeta(ctx, jazz, "color", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = f.service.AddTermMeta(ctx, 99, "color", "blue", false)
	assert.True(t, errors.Is(err, term.ErrInvalidTerm))

	_, err = f.service.AddTermMeta(ctx, jazz, " ", "blue", false)
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}

func TestFindPosts_WrapsCompiledClauses(t *testing.T) {
	f := newFixture(t)

	query := f.service.NewTaxQuery(taxquery.And(taxquery.Clause{
		Taxonomy: "genre",
		Field:    term.FieldSlug,
		Terms:    []string{"jazz"},
	}))

	posts, err := f.service.FindPosts(context.Background(), 3, query, 10, 0)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	assert.Equal(t,
		"SELECT 3 AS blog_id, p.id, p.post_title, p.post_content, p.post_excerpt, p.post_date, p.post_name, p.post_type "+
			"FROM wp_3_posts AS p LEFT JOIN network.term_relationships AS tr ON (p.id = tr.object_id AND tr.blog_id = $1) "+
			"WHERE p.post_status = $2 AND ( tr.mtmt_id IN ($3) ) GROUP BY p.id ORDER BY p.post_date DESC, p.id ASC LIMIT $4 OFFSET $5",
		f.posts.query)
	assert.Equal(t, []any{int64(3), "publish", f.refs["jazz"].MtmtID, 10, 0}, f.posts.args)
}

func TestFindPosts_RequiresBlog(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.FindPosts(context.Background(), 0, f.service.NewTaxQuery(taxquery.And()), 10, 0)
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}
