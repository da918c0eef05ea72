// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outbox dispatch results.
const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

var (
	// OutboxDispatched counts delivery attempts by result.
	OutboxDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "umig_outbox_dispatched_total",
		Help: "E-mail outbox delivery attempts by result.",
	}, []string{"result"})

	// NotificationsEnqueued counts rendered notifications by type.
	NotificationsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "umig_notifications_enqueued_total",
		Help: "Step notifications rendered into the outbox by type.",
	}, []string{"type"})

	// HTTPRequests counts API requests by route, method and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "umig_http_requests_total",
		Help: "API requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	// HTTPDuration observes API request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "umig_http_request_duration_seconds",
		Help:    "API request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// ConstraintViolations counts classified constraint errors returned by the API.
	ConstraintViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "umig_constraint_violations_total",
		Help: "Constraint violations surfaced to API clients by SQL state.",
	}, []string{"sql_state"})
)
