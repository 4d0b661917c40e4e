// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/validate"
)

func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "Jazz", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

// Taxonomy names end up in cache keys and URLs.
func TestValidator_Taxonomy(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"simple", "genre", true},
		{"underscore", "post_mood", true},
		{"uppercase", "Genre", false},
		{"too_long", "abcdefghijklmnopqrstuvwxyz0123456", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Taxonomy("taxonomy", tt.value)

			if tt.isValid {
				assert.False(t, v.HasErrors())
			} else {
				assert.True(t, v.HasErrors())
			}
		})
	}
}

func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("name", "Jazz").
		MaxLen("name", "Jazz", 200).
		Range("number", 20, 0, 200).
		NonNegative("parent", 0).
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

func TestValidator_Chain_Failure(t *testing.T) {
	err := (&validate.Validator{}).
		Required("name", "").
		MaxLen("slug", "ünïcödé", 3).
		NonNegative("offset", -1).
		Custom("number", true, "At most 500 rows per page").
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	require.Len(t, ae.Details, 4)
	assert.Equal(t, "name", ae.Details[0].Field)
	assert.Equal(t, "Maximum 3 characters", ae.Details[1].Message)
	assert.Equal(t, "offset", ae.Details[2].Field)
}

func TestField(t *testing.T) {
	err := validate.Field("term_id", "Must be a positive integer")

	assert.Equal(t, "VALIDATION_ERROR", err.Code)
	assert.Equal(t, "term_id", err.Details[0].Field)
}
