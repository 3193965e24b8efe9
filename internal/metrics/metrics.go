// Package metrics provides Prometheus collectors for the HTTP and gRPC surfaces
// and for vault-level events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agentpass"

var (
	// HTTPRequestTotal counts requests by method, route pattern and status.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route, and status.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds is request latency by method and route pattern.
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		},
		[]string{"method", "route"},
	)

	// GRPCRequestTotal counts unary calls by full method and status code.
	GRPCRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of gRPC unary calls by method and code.",
		},
		[]string{"method", "code"},
	)

	// GRPCRequestDurationSeconds is unary call latency by full method.
	GRPCRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC unary call duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		},
		[]string{"method"},
	)

	// AuthEventsTotal counts sign-in, sign-out and sign-up outcomes.
	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Authentication events by kind and result.",
		},
		[]string{"kind", "result"},
	)

	// RateLimitedTotal counts requests rejected by the per-IP HTTP limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		},
	)

	// GroupCascadeDeletedCredentials is the number of credentials removed with their group.
	GroupCascadeDeletedCredentials = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "group_cascade_deleted_credentials",
			Help:      "Credentials removed per cascading group delete.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		},
	)

	// SettingsProvisionTotal counts lazy account-settings initialisations by result.
	SettingsProvisionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_provision_total",
			Help:      "Account settings provisioning by result (existing, created, raced, error).",
		},
		[]string{"result"},
	)
)
