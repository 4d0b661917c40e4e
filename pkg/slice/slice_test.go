// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	ids := []int64{1, 2, 3, 4}

	assert.Equal(t, []int64{2, 4}, Filter(ids, func(v int64) bool { return v%2 == 0 }))
	assert.Nil(t, Filter(ids, func(int64) bool { return false }))
	assert.Nil(t, Filter[int64](nil, nil))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, Unique([]int64{3, 1, 3, 2, 1}))
}

func TestDiff(t *testing.T) {
	assert.Equal(t, []int64{1, 4}, Diff([]int64{1, 2, 3, 4}, []int64{3, 2}))
	assert.Nil(t, Diff([]int64{1}, []int64{1}))
}
