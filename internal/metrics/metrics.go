// Package metrics exposes Prometheus instrumentation for file processing,
// content analysis and the API. Metrics live in the default registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// File status label values
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusDryRun = "dry_run"
)

var (
	// Processing
	FilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidmeta_files_processed_total",
			Help: "Total number of processed video files",
		},
		[]string{"method", "status"}, // method: filename, content_analysis
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vidmeta_processing_duration_seconds",
			Help:    "Time spent processing one file",
			Buckets: prometheus.DefBuckets,
		},
	)

	ActorResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidmeta_actor_resolutions_total",
			Help: "Consolidated actors by provenance",
		},
		[]string{"source"},
	)

	ActorsRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidmeta_actors_registered_total",
			Help: "Actors added to the registry from content analysis",
		},
	)

	WebLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidmeta_web_lookups_total",
			Help: "Web lookups by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: actor, publisher
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidmeta_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidmeta_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method", "route"},
	)
)

// RecordFileProcessed records one processed file
func RecordFileProcessed(method, status string, duration time.Duration) {
	FilesProcessed.WithLabelValues(method, status).Inc()
	ProcessingDuration.Observe(duration.Seconds())
}

// RecordActorSource counts one consolidated actor
func RecordActorSource(source string) {
	ActorResolutions.WithLabelValues(source).Inc()
}

// RecordWebLookup records a web lookup outcome
func RecordWebLookup(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	WebLookups.WithLabelValues(kind, outcome).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
