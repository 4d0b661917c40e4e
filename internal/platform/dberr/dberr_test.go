// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/multitax/internal/platform/apperr"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound.Code},
		{"unique", &pgconn.PgError{Code: "23505"}, "CONFLICT"},
		{"foreign key", &pgconn.PgError{Code: "23503"}, "CONFLICT"},
		{"syntax", &pgconn.PgError{Code: "42601"}, "INTERNAL_ERROR"},
		{"network", errors.New("connection reset"), "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, "select terms")

			appError := apperr.As(wrapped)
			require.NotNil(t, appError)
			assert.Equal(t, tt.code, appError.Code)
		})
	}
}

func TestWrap_KeepsDiagnostic(t *testing.T) {
	driver := &pgconn.PgError{Code: "42P01", Message: `relation "wp_9_posts" does not exist`}

	wrapped := Wrap(driver, "select posts")

	assert.ErrorContains(t, apperr.As(wrapped).Cause, "select posts")
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, apperr.As(wrapped).Cause, &pgErr)
	assert.Nil(t, Wrap(nil, "noop"))
	assert.True(t, IsNotFound(Wrap(pgx.ErrNoRows, "get term")))
}
