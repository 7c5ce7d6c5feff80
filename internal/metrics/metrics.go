// Package metrics exposes Prometheus counters for the item and claim lifecycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemTransitions counts item status changes.
	ItemTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "najdeno_item_transitions_total",
		Help: "Total number of item status transitions",
	}, []string{"from", "to"})

	// ClaimDecisions counts claim submissions and moderation outcomes.
	ClaimDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "najdeno_claim_events_total",
		Help: "Total number of claim events by kind",
	}, []string{"event"})

	// Conflicts counts compare-and-set writes that lost a race.
	Conflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "najdeno_conflicts_total",
		Help: "Total number of conflicting concurrent writes by operation",
	}, []string{"operation"})

	// UploadFailures counts photos dropped because they could not be stored.
	UploadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "najdeno_upload_failures_total",
		Help: "Total number of photo uploads skipped after a storage failure",
	}, []string{"kind"})

	// HTTPRequestDuration records API latency by method and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "najdeno_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// Transition records an item moving from one status to another.
func Transition(from, to string) {
	ItemTransitions.WithLabelValues(from, to).Inc()
}

// Conflict records a lost compare-and-set for operation.
func Conflict(operation string) {
	Conflicts.WithLabelValues(operation).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func ObserveRequest(method, status string, start time.Time) {
	HTTPRequestDuration.WithLabelValues(method, status).Observe(time.Since(start).Seconds())
}
