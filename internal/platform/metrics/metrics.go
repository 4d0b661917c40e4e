// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics declares the Prometheus collectors of the taxonomy service.
//
// Collectors are package-level values but are never written to implicitly:
// components receive the vectors they report to through their constructors,
// so tests can pass nil or a private registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "multitax"

var (
	// CacheRequestsTotal counts object cache lookups by group and result ("hit" / "miss").
	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Object cache lookups by group and result",
		},
		[]string{"group", "result"},
	)

	// QueryDuration observes datastore round-trips issued by the query builders.
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of generated SQL statements by component",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"component"},
	)

	// HierarchyRebuildsTotal counts hierarchy maps rebuilt from the datastore.
	HierarchyRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hierarchy_rebuilds_total",
			Help:      "Hierarchy maps rebuilt after a persisted-option miss",
		},
		[]string{"taxonomy"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(CacheRequestsTotal)
		prometheus.MustRegister(QueryDuration)
		prometheus.MustRegister(HierarchyRebuildsTotal)
		prometheus.MustRegister(httpRequestDuration)
	})
}
