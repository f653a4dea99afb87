package httputil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

func TestRequestIDMiddleware(t *testing.T) {
	logger := observability.NewLogger(observability.InfoLevel, &bytes.Buffer{})

	var seen string
	handler := RequestIDMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetRequestID(r.Context())
	}))

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/menus", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("propagates inbound id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/menus", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		handler.ServeHTTP(w, req)
		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/menus", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLoggingMiddleware(t *testing.T) {
	var logs bytes.Buffer
	logger := observability.NewLogger(observability.InfoLevel, &logs)

	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	req := httptest.NewRequest("DELETE", "/api/roles/1", nil)
	req = req.WithContext(observability.WithLogger(req.Context(), logger))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := logs.String()
	assert.Contains(t, out, `"status":403`)
	assert.Contains(t, out, `"level":"warning"`)
	assert.Contains(t, out, "/api/roles/1")
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"http://console.local"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("allowed origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/menus", nil)
		req.Header.Set("Origin", "http://console.local")
		handler.ServeHTTP(w, req)
		assert.Equal(t, "http://console.local", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("foreign origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/menus", nil)
		req.Header.Set("Origin", "http://evil.local")
		handler.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("OPTIONS", "/api/menus", nil)
		req.Header.Set("Origin", "http://console.local")
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mw("a"), mw("b"), mw("c"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

func TestContentTypeMiddleware(t *testing.T) {
	handler := ContentTypeMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/roles", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/roles", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
