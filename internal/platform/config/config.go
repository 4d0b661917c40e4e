// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config reads the API settings from the environment with
caarlos0/env.

	cfg, err := config.Load()

[Load] also rejects values that would be unsafe later: the blog table prefix
is spliced into SQL identifiers, so it must be a plain identifier.
*/
package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read once at startup and passed by pointer; nothing mutates it.
type Config struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG"       envDefault:"false"`

	// # PostgreSQL

	DatabaseURL      string `env:"DATABASE_URL,required,notEmpty"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"25"`
	MigrationPath    string `env:"MIGRATION_PATH"     envDefault:"./data/migrations"`

	// # Object cache

	// RedisURL selects the shared cache; empty keeps everything in process.
	RedisURL      string `env:"REDIS_URL"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	CachePrefix   string `env:"CACHE_PREFIX"    envDefault:"multitax:"`

	// TermQueryCacheTTL bounds term query results and hierarchy maps; the
	// last_changed token invalidates them earlier.
	TermQueryCacheTTL time.Duration `env:"TERM_QUERY_CACHE_TTL" envDefault:"24h"`
	// PostQueryCacheTTL is the only expiry of cross-site post lists.
	PostQueryCacheTTL time.Duration `env:"POST_QUERY_CACHE_TTL" envDefault:"1h"`

	// # Network

	TaxonomyConfigPath string `env:"TAXONOMY_CONFIG_PATH" envDefault:"./data/taxonomies.yaml"`
	// BlogTablePrefix names per-site tables: {prefix}{blog_id}_posts.
	BlogTablePrefix string `env:"BLOG_TABLE_PREFIX" envDefault:"wp_"`
	SiteScheme      string `env:"SITE_SCHEME"       envDefault:"https"`

	// # Edge

	// JWTPubKeyPath verifies access tokens minted by cmd/token.
	JWTPubKeyPath       string  `env:"JWT_PUBLIC_KEY_PATH,required,notEmpty"`
	RateLimitRPS        float64 `env:"RATE_LIMIT_RPS"   envDefault:"100"`
	RateLimitBurst      int     `env:"RATE_LIMIT_BURST" envDefault:"150"`
	AllowedOriginSuffix string  `env:"ALLOWED_ORIGIN_SUFFIX"`
}

var tablePrefix = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,31}$`)

// Load parses the environment and checks the values that the env tags
// cannot express.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) check() error {
	var problems []error
	if !tablePrefix.MatchString(c.BlogTablePrefix) {
		problems = append(problems, fmt.Errorf("BLOG_TABLE_PREFIX %q is not a plain SQL identifier", c.BlogTablePrefix))
	}
	if c.SiteScheme != "http" && c.SiteScheme != "https" {
		problems = append(problems, fmt.Errorf("SITE_SCHEME must be http or https, got %q", c.SiteScheme))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		problems = append(problems, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(problems...)
}

// IsDevelopment relaxes CORS to any origin.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// OriginSuffix returns the origin suffix accepted by CORS outside development.
func (c *Config) OriginSuffix() string {
	return c.AllowedOriginSuffix
}
