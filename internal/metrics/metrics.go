package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, endpoint and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration observes HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// RequestsInFlight gauges requests currently being served.
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// TransitionsTotal counts lifecycle operations by name and outcome
	// (ok, rejected, error).
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_transitions_total",
			Help: "Total number of load lifecycle operations",
		},
		[]string{"operation", "outcome"},
	)

	// EventsPublished counts events fanned out to topic subscribers.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to topics",
		},
		[]string{"type"},
	)

	// LocationSamplesPruned counts samples removed by the retention sweep.
	LocationSamplesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "location_samples_pruned_total",
			Help: "Total number of location samples removed by the retention sweep",
		},
	)
)
