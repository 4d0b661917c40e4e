// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Smooth Jázz!", "smooth-jazz"},
		{"  Rock & Roll  ", "rock-roll"},
		{"Rock &amp; <b>Roll</b>", "rock-roll"},
		{"stock_ticker", "stock_ticker"},
		{"v1.2 release", "v1-2-release"},
		{"Ελληνικά", "ελληνικα"},
		{"---", ""},
		{"<br/>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, From(tt.input))
		})
	}
}

func TestFrom_Truncates(t *testing.T) {
	got := From(strings.Repeat("ab ", 150))

	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxLength)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "jazz-2", WithSuffix("jazz", 2))

	long := WithSuffix(strings.Repeat("a", MaxLength), 12)
	assert.Equal(t, MaxLength, utf8.RuneCountInString(long))
	assert.True(t, strings.HasSuffix(long, "a-12"))
}
