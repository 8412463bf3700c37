// Package observability holds liftlog's Prometheus collectors and the HTTP
// metrics middleware.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftlog_http_requests_total",
			Help: "HTTP requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liftlog_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// LoginsTotal counts login attempts by kind (user, anonymous) and result.
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftlog_logins_total",
			Help: "Login attempts",
		},
		[]string{"kind", "result"},
	)

	// LogoutsTotal counts logouts by result.
	LogoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftlog_logouts_total",
			Help: "Logouts",
		},
		[]string{"result"},
	)

	// SessionChecksTotal counts per-request session resolutions by result.
	SessionChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftlog_session_checks_total",
			Help: "Session middleware outcomes",
		},
		[]string{"result"},
	)

	// SweepDeletedTotal counts rows removed by the expiry sweep, per table.
	SweepDeletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftlog_sweep_deleted_total",
			Help: "Rows deleted by the expiry sweep",
		},
		[]string{"table"},
	)

	// SweepRunsTotal counts sweep runs by result.
	SweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftlog_sweep_runs_total",
			Help: "Expiry sweep runs",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		LoginsTotal,
		LogoutsTotal,
		SessionChecksTotal,
		SweepDeletedTotal,
		SweepRunsTotal,
	)
}
