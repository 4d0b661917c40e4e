// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgx5DSN(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://app:secret@db:5432/network", "pgx5://app:secret@db:5432/network"},
		{"postgresql://db/network?sslmode=disable", "pgx5://db/network?sslmode=disable"},
		{"pgx5://db/network", "pgx5://db/network"},
		{"host=db dbname=network", "host=db dbname=network"},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, pgx5DSN(tt.dsn))
		})
	}
}
