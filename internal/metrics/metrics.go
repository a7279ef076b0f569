// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

// Package metrics defines the Prometheus collectors for the HTTP surface,
// the database, the recommendation engine, and the TMDB client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts HTTP requests by method, route and status code.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screenscout_api_requests_total",
		Help: "Total HTTP requests served",
	}, []string{"method", "endpoint", "status_code"})

	// APIRequestDuration observes HTTP request latency by route.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screenscout_api_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	// DBQueryDuration observes database query latency by operation and table.
	DBQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screenscout_db_query_duration_seconds",
		Help:    "Database query latency",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"operation", "table"})

	// RecommendationCacheHits counts slates served from the cache.
	RecommendationCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screenscout_recommendation_cache_hits_total",
		Help: "Recommendation requests served from the cache",
	})

	// RecommendationCacheMisses counts slates that required regeneration.
	RecommendationCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screenscout_recommendation_cache_misses_total",
		Help: "Recommendation requests that triggered regeneration",
	})

	// RegenerationDuration observes full slate regeneration latency.
	RegenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "screenscout_regeneration_duration_seconds",
		Help:    "End-to-end recommendation regeneration latency",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	// CandidatesRetrieved observes pool sizes fetched per regeneration.
	CandidatesRetrieved = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screenscout_candidates_retrieved",
		Help:    "Candidates fetched per pool during regeneration",
		Buckets: []float64{0, 5, 10, 25, 50, 100, 250},
	}, []string{"content_type", "pool"})

	// ProfileAnalyses counts preference profile (re)computations.
	ProfileAnalyses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screenscout_profile_analyses_total",
		Help: "Preference profile analyses performed",
	})

	// TMDBRequestsTotal counts upstream TMDB calls by endpoint and outcome.
	TMDBRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screenscout_tmdb_requests_total",
		Help: "TMDB API requests",
	}, []string{"endpoint", "outcome"})

	// TMDBCircuitBreakerState exports the breaker state (0 closed, 1 half-open, 2 open).
	TMDBCircuitBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "screenscout_tmdb_circuit_breaker_state",
		Help: "TMDB circuit breaker state: 0=closed 1=half-open 2=open",
	})

	// CatalogSyncRuns counts catalog sync cycles by outcome.
	CatalogSyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screenscout_catalog_sync_runs_total",
		Help: "Catalog sync cycles",
	}, []string{"outcome"})

	// CatalogItemsSynced counts catalog items upserted by sync cycles.
	CatalogItemsSynced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screenscout_catalog_items_synced_total",
		Help: "Catalog items upserted by sync cycles",
	})
)
