// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://multitax@localhost/multitax")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/run/secrets/jwt.pub")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "wp_", cfg.BlogTablePrefix)
	assert.Equal(t, 24*time.Hour, cfg.TermQueryCacheTTL)
	assert.Equal(t, time.Hour, cfg.PostQueryCacheTTL)
	assert.Equal(t, int32(25), cfg.DatabaseMaxConns)
	assert.Empty(t, cfg.RedisURL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsUnsafeValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"prefix with quote", "BLOG_TABLE_PREFIX", `wp_"; DROP TABLE x; --`},
		{"prefix with dot", "BLOG_TABLE_PREFIX", "public.wp_"},
		{"scheme", "SITE_SCHEME", "ftp"},
		{"rate", "RATE_LIMIT_RPS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}
