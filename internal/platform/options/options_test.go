// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package options

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	hierarchy := map[int64][]int64{0: {1, 2}, 1: {3}}
	require.NoError(t, store.Set(ctx, "genre_children", hierarchy))

	var got map[int64][]int64
	found, err := store.Get(ctx, "genre_children", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, hierarchy, got)

	require.NoError(t, store.Delete(ctx, "genre_children"))
	found, err = store.Get(ctx, "genre_children", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
