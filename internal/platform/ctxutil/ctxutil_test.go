// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/multitax/internal/platform/ctxutil"
	"github.com/taibuivan/multitax/internal/platform/sec"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "0190c3f2-7a1e-7c4d-9f0a-5b2e8d1c6a34")
	assert.Equal(t, "0190c3f2-7a1e-7c4d-9f0a-5b2e8d1c6a34", ctxutil.GetRequestID(ctx))
}

func TestLogger_FallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	assert.Same(t, slog.Default(), ctxutil.GetLogger(ctx))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, logger, ctxutil.GetLogger(ctxutil.WithLogger(ctx, logger)))

	assert.Same(t, slog.Default(), ctxutil.GetLogger(ctxutil.WithLogger(ctx, nil)))
}

func TestAuthUser(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ctxutil.GetAuthUser(ctx))

	ctx = ctxutil.WithAuthUser(ctx, &sec.AuthClaims{UserID: "u-42", Role: string(sec.RoleEditor)})
	claims := ctxutil.GetAuthUser(ctx)
	require.NotNil(t, claims)
	assert.Equal(t, "u-42", claims.UserID)
	assert.True(t, claims.Can(sec.CapEditTerms))
	assert.False(t, claims.Can("manage_network"))
}

func TestKeysDoNotCollideWithStrings(t *testing.T) {
	ctx := context.WithValue(context.Background(), "request_id", "spoofed") //nolint:staticcheck
	assert.Empty(t, ctxutil.GetRequestID(ctx))
}
