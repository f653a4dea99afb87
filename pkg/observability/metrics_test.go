package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveDecision(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.ObserveDecision("read", true, nil, time.Millisecond)
	metrics.ObserveDecision("read", false, nil, time.Millisecond)
	metrics.ObserveDecision("manage", false, errors.New("db down"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PermissionDecisionsTotal.WithLabelValues("read", "allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PermissionDecisionsTotal.WithLabelValues("read", "deny")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PermissionDecisionsTotal.WithLabelValues("manage", "error")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.ObserveDecision("read", true, nil, time.Millisecond)
		metrics.CollectDBStats(nil)
	})
}

func TestMetrics_CollectDBStats(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.CollectDBStats(db)

	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.DBConnectionsActive))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	router := mux.NewRouter()
	router.Use(HTTPMetricsMiddleware(metrics))
	router.HandleFunc("/api/menus/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	RegisterMetricsEndpoint(router, registry)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/menus/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/menus/{id}", "404")))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "menuguard_http_requests_total")
}
