// Package metrics defines the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundscout_fetch_requests_total",
			Help: "Outbound page fetches by outcome",
		},
		[]string{"outcome"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soundscout_fetch_duration_seconds",
			Help:    "Latency of outbound page fetches, excluding time spent waiting on the limiter",
			Buckets: prometheus.DefBuckets,
		},
	)

	FetchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "soundscout_fetch_in_flight",
			Help: "Outbound page fetches currently in flight",
		},
	)

	AIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundscout_ai_requests_total",
			Help: "AI provider calls by outcome",
		},
		[]string{"outcome"},
	)

	AIBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "soundscout_ai_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	DiscoveryFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundscout_discovery_fallbacks_total",
			Help: "Discovery operations answered by the deterministic fallback",
		},
		[]string{"operation"},
	)

	EnrichmentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "soundscout_enrichment_failures_total",
			Help: "Discovery candidates that could not be matched to a platform profile",
		},
	)

	BatchItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundscout_batch_items_total",
			Help: "Batch scrape items by final status",
		},
		[]string{"status"},
	)

	TasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "soundscout_tasks_active",
			Help: "Background tasks currently running",
		},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundscout_api_requests_total",
			Help: "HTTP API requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soundscout_api_request_duration_seconds",
			Help:    "HTTP API latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
