// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hierarchy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/multitax/internal/core/term"
)

func TestService_SubsetOfDescendants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	refs := seedTree(f)

	candidates := []*term.Term{
		f.store.Pairing(refs["jazz"].MtmtID),
		f.store.Pairing(refs["hardcore"].MtmtID),
		f.store.Pairing(refs["metal"].MtmtID),
		f.store.Pairing(refs["punk"].MtmtID),
	}

	subset, err := f.service.SubsetOfDescendants(ctx, refs["rock"].TermID, candidates, "genre")
	require.NoError(t, err)

	slugs := make([]string, 0, len(subset))
	for _, t := range subset {
		slugs = append(slugs, t.Slug)
	}
	assert.Equal(t, []string{"metal", "punk", "hardcore"}, slugs)

	none, err := f.service.SubsetOfDescendants(ctx, refs["jazz"].TermID, candidates, "genre")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_SubsetOfDescendantIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	refs := seedTree(f)

	ids, err := f.service.SubsetOfDescendantIDs(ctx, refs["punk"].TermID,
		[]int64{refs["hardcore"].TermID, refs["metal"].TermID, refs["jazz"].TermID}, "genre")
	require.NoError(t, err)
	assert.Equal(t, []int64{refs["hardcore"].TermID}, ids)
}

func TestService_SubsetStopsOnLoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a := f.store.Seed("genre", "A", "a", 0)
	b := f.store.Seed("genre", "B", "b", a.TermID)
	f.store.SetParent(a.MtmtID, b.TermID)

	candidates := []*term.Term{f.store.Pairing(a.MtmtID), f.store.Pairing(b.MtmtID)}
	subset, err := f.service.SubsetOfDescendants(ctx, a.TermID, candidates, "genre")
	require.NoError(t, err)
	require.Len(t, subset, 1)
	assert.Equal(t, "b", subset[0].Slug)
}

func TestService_PadCounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	refs := seedTree(f)

	// Post 7 of blog 1 is tagged both punk and hardcore and must count once for rock.
	f.store.Attach(refs["punk"].MtmtID, 1, 7)
	f.store.Attach(refs["hardcore"].MtmtID, 1, 7, 8)
	f.store.Attach(refs["hardcore"].MtmtID, 2, 7)
	f.store.Attach(refs["metal"].MtmtID, 1, 9)

	terms := []*term.Term{
		f.store.Pairing(refs["rock"].MtmtID),
		f.store.Pairing(refs["punk"].MtmtID),
		f.store.Pairing(refs["metal"].MtmtID),
		f.store.Pairing(refs["hardcore"].MtmtID),
	}
	require.NoError(t, f.service.PadCounts(ctx, terms, "genre"))

	assert.Equal(t, int64(4), terms[0].Count) // (1,7) (1,8) (2,7) (1,9)
	assert.Equal(t, int64(3), terms[1].Count)
	assert.Equal(t, int64(1), terms[2].Count)
	assert.Equal(t, int64(3), terms[3].Count)
}

func TestService_PadCountsIgnoresFlatTaxonomy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	calm := f.store.Seed("mood", "Calm", "calm", 0)
	f.store.Attach(calm.MtmtID, 1, 1, 2)

	terms := []*term.Term{f.store.Pairing(calm.MtmtID)}
	require.NoError(t, f.service.PadCounts(ctx, terms, "mood"))
	assert.Zero(t, terms[0].Count)
	assert.Zero(t, f.store.Calls["ListRelationships"])
}
