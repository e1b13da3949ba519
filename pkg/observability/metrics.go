// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the agentgate gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// AuthBuckets defines histogram buckets for the authentication path, which
// is CPU-bound and normally completes well under a millisecond.
var AuthBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}

// Decision outcomes used as label values.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
)

var (
	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentgate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentgate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthDecisionsTotal counts authentication decisions by mode, outcome,
	// and failure kind ("none" on success).
	AuthDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentgate_auth_decisions_total",
			Help: "Authentication decisions",
		},
		[]string{"mode", "outcome", "kind"},
	)

	// AuthDuration records time spent authenticating a request.
	AuthDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentgate_auth_duration_seconds",
			Help:    "Authentication duration",
			Buckets: AuthBuckets,
		},
		[]string{"mode"},
	)

	// AuthorizationsTotal counts authorization decisions per resource kind
	// and action.
	AuthorizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentgate_authorizations_total",
			Help: "Authorization decisions",
		},
		[]string{"mode", "resource", "action", "outcome"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentgate_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthDecisionsTotal,
		AuthDuration,
		AuthorizationsTotal,
		RateLimitRejectedTotal,
	)
}
