// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, cache groups and cross-cutting keys
that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers.
  - Caching: Object cache groups and the option keys of persisted hierarchies.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "multitax-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "multitax.network"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # Cache Groups
//
// Every cached object lives in exactly one group. A write to terms bumps the
// "last changed" token of [CacheGroupTerms], which retires every derived query key.

const (
	// CacheGroupTerms holds per-term objects and term query results.
	CacheGroupTerms = "multisite_terms"

	// CacheGroupTermQueries holds the serialized term query results.
	CacheGroupTermQueries = "multisite_term_queries"

	// CacheGroupPosts holds cross-site post lists.
	CacheGroupPosts = "multisite_posts"

	// CacheGroupBlogs holds per-site metadata used to build permalinks.
	CacheGroupBlogs = "multisite_blogs"

	// CacheGroupHierarchy holds the in-cache copy of the hierarchy maps.
	CacheGroupHierarchy = "multisite_hierarchy"
)

// # Cache Lifetimes

const (
	// EmptyResultTTL is the fixed expiry of empty term query results.
	EmptyResultTTL = 24 * time.Hour

	// LastChangedKey is the key holding a group's monotonic change token.
	LastChangedKey = "last_changed"
)

// # Option Keys

const (
	// HierarchyOptionSuffix completes "{taxonomy}" into the option name of a
	// persisted hierarchy map.
	HierarchyOptionSuffix = "_children"
)
