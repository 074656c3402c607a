// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

// Package metrics exposes Prometheus collectors for the HTTP API, the RAWG
// catalog client, the language model and the query rewriter. Collectors are
// registered on the default registry and served at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Catalog (RAWG) Metrics
	CatalogLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_lookups_total",
			Help: "Catalog lookups by outcome",
		},
		[]string{"outcome"}, // found, cached, not_found, no_key, circuit_open, timeout, canceled, rate_limited, error
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Duration of individual RAWG HTTP calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call"}, // "search", "details"
	)

	CatalogRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_retries_total",
			Help: "Total number of retried RAWG HTTP calls",
		},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cache entries",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Language Model Metrics
	LLMGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_generation_duration_seconds",
			Help:    "Time to drain a full language model response",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "status"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Streamed tokens received from the language model",
		},
		[]string{"provider"},
	)

	// Recommendation Pipeline Metrics
	RewriteDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_rewrite_decisions_total",
			Help: "Query rewriter outcomes",
		},
		[]string{"reason"},
	)

	RewriteSimilarity = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "query_rewrite_similarity",
			Help:    "Max cosine similarity between a query and the canonical examples",
			Buckets: []float64{-0.5, 0, 0.1, 0.2, 0.3, 0.4, 0.46, 0.5, 0.6, 0.8, 1},
		},
	)

	ExtractedTitles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extracted_titles",
			Help:    "Number of candidate titles extracted per model response",
			Buckets: []float64{0, 1, 3, 5, 10, 20},
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCatalogLookup counts a lookup outcome.
func RecordCatalogLookup(outcome string) {
	CatalogLookups.WithLabelValues(outcome).Inc()
}

// RecordCatalogRequest observes a single RAWG HTTP call.
func RecordCatalogRequest(call string, duration time.Duration) {
	CatalogRequestDuration.WithLabelValues(call).Observe(duration.Seconds())
}

// RecordGeneration observes a drained model response.
func RecordGeneration(provider string, duration time.Duration, tokens int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	LLMGenerationDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
	LLMTokens.WithLabelValues(provider).Add(float64(tokens))
}

// RecordRewrite counts a rewriter decision. score is observed only for
// decisions that computed a similarity.
func RecordRewrite(reason string, score float64, scored bool) {
	RewriteDecisions.WithLabelValues(reason).Inc()
	if scored {
		RewriteSimilarity.Observe(score)
	}
}
