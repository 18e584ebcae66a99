// Package observability holds the process-wide Prometheus collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wodlog"

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	entriesLogged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "log",
		Name:      "entries_logged_total",
		Help:      "Session entries added, by category.",
	}, []string{"category"})

	maxUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "log",
		Name:      "one_rep_max_updates_total",
		Help:      "One-rep-max values recorded or accepted from an estimate.",
	})

	improvementsSurfaced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "log",
		Name:      "improvement_candidates_total",
		Help:      "Estimated one-rep-max improvements surfaced after logging a set.",
	})

	persistFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "persist_failures_total",
		Help:      "Failed write-through persists, by document key.",
	}, []string{"key"})

	ingestLines = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "lines_total",
		Help:      "Ingested lines or FIT sessions, by source and result (matched|skipped).",
	}, []string{"source", "result"})

	backupsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "snapshots_total",
		Help:      "Scheduled backup snapshots, by status.",
	}, []string{"status"})

	lastBackupGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful backup.",
	})
)

func init() {
	prometheus.MustRegister(
		requestsTotal,
		requestDuration,
		entriesLogged,
		maxUpdates,
		improvementsSurfaced,
		persistFailures,
		ingestLines,
		backupsWritten,
		lastBackupGauge,
	)
}

// ObserveRequest records one HTTP request.
func ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requestsTotal.WithLabelValues(method, route, statusLabel(status)).Inc()
	requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordEntry counts a logged session entry.
func RecordEntry(category string) {
	entriesLogged.WithLabelValues(category).Inc()
}

// RecordMaxUpdate counts a one-rep-max change.
func RecordMaxUpdate() {
	maxUpdates.Inc()
}

// RecordImprovement counts a surfaced improvement candidate.
func RecordImprovement() {
	improvementsSurfaced.Inc()
}

// RecordPersistFailure counts a failed document write.
func RecordPersistFailure(key string) {
	persistFailures.WithLabelValues(key).Inc()
}

// RecordIngest counts matched and skipped lines for an ingest source.
func RecordIngest(source string, matched, skipped int) {
	ingestLines.WithLabelValues(source, "matched").Add(float64(matched))
	ingestLines.WithLabelValues(source, "skipped").Add(float64(skipped))
}

// RecordBackup counts a snapshot attempt and, on success, updates the watermark.
func RecordBackup(ts time.Time, err error) {
	if err != nil {
		backupsWritten.WithLabelValues("error").Inc()
		return
	}
	backupsWritten.WithLabelValues("success").Inc()
	if !ts.IsZero() {
		lastBackupGauge.Set(float64(ts.Unix()))
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
