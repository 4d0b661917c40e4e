// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt(t *testing.T) {
	assert.Equal(t, 7, Int("x", 7))
	assert.Equal(t, 3, Int(" 3 ", 7))
	assert.Equal(t, int64(-1), Int64("", -1))
	assert.Equal(t, int64(42), Int64("42", -1))
}

func TestBool(t *testing.T) {
	tests := []struct {
		raw      string
		fallback bool
		want     bool
	}{
		{"1", false, true},
		{"yes", false, true},
		{"OFF", true, false},
		{"false", true, false},
		{"maybe", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Bool(tt.raw, tt.fallback))
		})
	}
}

func TestOptionalInt64(t *testing.T) {
	assert.Nil(t, OptionalInt64(""))
	assert.Nil(t, OptionalInt64("abc"))
	assert.Equal(t, int64(0), *OptionalInt64("0"))
}
