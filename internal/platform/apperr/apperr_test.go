// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errAmbiguous = New("AMBIGUOUS_TERM", http.StatusConflict, "Term ID is shared between multiple taxonomies")

func TestIs_MatchesByCode(t *testing.T) {
	caused := errAmbiguous.WithCause(errors.New("2 rows"))
	wrapped := fmt.Errorf("get term 7: %w", caused)

	assert.ErrorIs(t, wrapped, errAmbiguous)
	assert.NotErrorIs(t, wrapped, Conflict("other"))
	assert.Nil(t, errAmbiguous.Cause, "WithCause must not modify the sentinel")
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New(`relation "wp_3_posts" does not exist`)
	internal := Internal(cause)

	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
	assert.NotContains(t, internal.Error(), "wp_3_posts")
	assert.ErrorIs(t, internal, cause)
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(fmt.Errorf("wrap: %w", NotFound("Term")), "NOT_FOUND"))
	assert.False(t, HasCode(errors.New("plain"), "NOT_FOUND"))
	assert.Nil(t, As(nil))
}
