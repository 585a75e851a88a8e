package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counter metrics (monotonically increasing)
var (
	// LoginAttemptsTotal counts admin login attempts by outcome
	// (success, invalid_credentials, locked, config_error)
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_login_attempts_total",
			Help: "Total number of admin login attempts",
		},
		[]string{"outcome"},
	)

	// LockoutsTotal counts brute-force lockout rejections
	LockoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inkwell_lockouts_total",
			Help: "Total number of login attempts rejected by brute-force lockout",
		},
	)

	// SessionsIssuedTotal counts sessions created by successful logins
	SessionsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inkwell_sessions_issued_total",
			Help: "Total number of admin sessions issued",
		},
	)

	// SessionValidationsTotal counts session validations by result (valid, rejected)
	SessionValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_session_validations_total",
			Help: "Total number of session validations",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal counts total HTTP requests by method, path, and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// Histogram metrics (distributions)
var (
	// HTTPRequestDuration tracks HTTP request latency by method and path
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

// Gauge metrics backed by live security state are defined in collector.go
