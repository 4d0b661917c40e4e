// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDs(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []int64
	}{
		{"comma separated", []string{"3, 4"}, []int64{3, 4}},
		{"repeated", []string{"3", "9"}, []int64{3, 9}},
		{"junk dropped", []string{"4,x,-1,0", "9"}, []int64{4, 9}},
		{"duplicates keep first", []string{"9,4", "9"}, []int64{9, 4}},
		{"absent", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IDs(tt.values))
		})
	}
}

func TestStrictIDs(t *testing.T) {
	ids, err := StrictIDs([]string{"9,4", "9"})
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 4}, ids)

	for _, bad := range []string{"4,x", "0", "-3", "1.5"} {
		_, err := StrictIDs([]string{bad})
		assert.Error(t, err, bad)
	}

	ids, err = StrictIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestList(t *testing.T) {
	assert.Equal(t, []string{"genre", "mood", "era"}, List([]string{"genre,mood", " era ", ","}))
	assert.Nil(t, List([]string{""}))
}
