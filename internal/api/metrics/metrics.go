// Package metrics defines and registers the Prometheus collectors of the
// users API. Collectors are registered on the default registry at init time
// via promauto and exposed by promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// Login results.
const (
	LoginSuccess         = "success"
	LoginEmailNotFound   = "email_not_found"
	LoginInvalidPassword = "invalid_password"
	LoginError           = "error"
)

// Filter rejection reasons.
const (
	RejectMissingToken = "missing_token"
	RejectExpired      = "expired"
	RejectInvalid      = "invalid"
	RejectUnknownUser  = "unknown_user"
)

// Access gates.
const (
	GateRole      = "role"
	GateOwnership = "ownership"
)

// ── Authentication ───────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "email_not_found", "invalid_password" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// FilterRejectionsTotal counts requests rejected by the token filter.
// Label:
//   - reason: "missing_token", "expired", "invalid" or "unknown_user"
var FilterRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filter_rejections_total",
		Help:      "Total number of requests rejected by the token filter.",
	},
	[]string{"reason"},
)

// AccessDeniedTotal counts 403 responses.
// Label:
//   - gate: "role" or "ownership"
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of requests denied by an authorization gate.",
	},
	[]string{"gate"},
)

// ── HTTP ─────────────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests.
// Labels:
//   - method, route (the registered path template), status
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests served.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures handler latency.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests from filter entry to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
