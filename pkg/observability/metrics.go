package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Permission engine metrics
	PermissionDecisionsTotal   *prometheus.CounterVec
	PermissionDecisionDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal          *prometheus.CounterVec
	CacheMissesTotal        *prometheus.CounterVec
	CacheInvalidationsTotal *prometheus.CounterVec

	// System log metrics
	AuditWritesTotal   *prometheus.CounterVec
	AuditPurgedTotal   prometheus.Counter
	AuditPurgeDuration prometheus.Histogram

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
	DBConnectionsWait   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menuguard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "menuguard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		PermissionDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menuguard_permission_decisions_total",
				Help: "Total number of permission decisions by requested check and outcome",
			},
			[]string{"check", "result"},
		),
		PermissionDecisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "menuguard_permission_decision_duration_seconds",
				Help:    "Time spent resolving a permission decision",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"check"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menuguard_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"region"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menuguard_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"region"},
		),
		CacheInvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menuguard_cache_invalidations_total",
				Help: "Total number of cache region invalidations",
			},
			[]string{"region"},
		),

		AuditWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menuguard_system_log_writes_total",
				Help: "Total number of system log writes by outcome",
			},
			[]string{"status"},
		),
		AuditPurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "menuguard_system_log_purged_total",
				Help: "Total number of system log rows removed by retention",
			},
		),
		AuditPurgeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "menuguard_system_log_purge_duration_seconds",
				Help:    "Duration of system log retention runs",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30},
			},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "menuguard_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "menuguard_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWait: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "menuguard_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PermissionDecisionsTotal,
		m.PermissionDecisionDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheInvalidationsTotal,
		m.AuditWritesTotal,
		m.AuditPurgedTotal,
		m.AuditPurgeDuration,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWait,
	)

	return m
}

// ObserveDecision records the outcome of one permission check. A nil receiver is a no-op.
func (m *Metrics) ObserveDecision(check string, allowed bool, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "deny"
	switch {
	case err != nil:
		result = "error"
	case allowed:
		result = "allow"
	}
	m.PermissionDecisionsTotal.WithLabelValues(check, result).Inc()
	m.PermissionDecisionDuration.WithLabelValues(check).Observe(elapsed.Seconds())
}

// CollectDBStats copies the current connection pool statistics into the gauges
func (m *Metrics) CollectDBStats(db *sql.DB) {
	if m == nil || db == nil {
		return
	}
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWait.Set(float64(stats.WaitCount))
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// routeLabel prefers the mux route template so ids do not explode label cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(router *mux.Router, registry *prometheus.Registry) {
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}
