// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbench_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workbench_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SQLQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbench_sql_queries_total",
			Help: "SQL runner executions by database type and outcome",
		},
		[]string{"db_type", "outcome"},
	)

	SQLPoolsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "workbench_sql_pools_open",
			Help: "Connection pools currently cached",
		},
	)

	Events = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbench_events_total",
			Help: "Domain events emitted by services",
		},
		[]string{"event"},
	)

	Backups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbench_backups_total",
			Help: "Backup runs by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordHTTPRequest observes one finished request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordQuery counts one SQL runner execution.
func RecordQuery(dbType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SQLQueries.WithLabelValues(dbType, outcome).Inc()
}
