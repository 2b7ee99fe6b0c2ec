package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Snapshot engine metrics
	snapshotRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_refreshes_total",
			Help: "Total number of snapshot regeneration passes",
		},
		[]string{"trigger", "outcome"},
	)

	snapshotRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapshot_refresh_duration_seconds",
			Help:    "Snapshot regeneration pass duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	monitoredPatients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitored_patients",
			Help: "Number of patients in the latest monitoring snapshot",
		},
	)

	alertingPatients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alerting_patients",
			Help: "Number of patients flagged for attention in the latest monitoring snapshot",
		},
	)

	clinicalRowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinical_rows_loaded_total",
			Help: "Total number of raw clinical rows loaded from the source",
		},
		[]string{"kind"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Engine metric helpers ---

// RecordSnapshotRefresh records the outcome of a regeneration pass
func RecordSnapshotRefresh(trigger string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	snapshotRefreshesTotal.WithLabelValues(trigger, outcome).Inc()
	snapshotRefreshDuration.Observe(duration.Seconds())
}

// RecordMonitoringCounts records patient counts from the latest snapshot
func RecordMonitoringCounts(patients, alerting int) {
	monitoredPatients.Set(float64(patients))
	alertingPatients.Set(float64(alerting))
}

// RecordClinicalRows records raw rows loaded from the clinical source
func RecordClinicalRows(kind string, count int) {
	clinicalRowsLoaded.WithLabelValues(kind).Add(float64(count))
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
