package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

const (
	timeoutShort = time.Second
	tick         = 10 * time.Millisecond
)

func withUser(username string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(observability.WithUsername(r.Context(), username)))
	})
}

func TestMiddleware_RecordsMutations(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		status     int
		wantAction string
		wantLevel  Level
	}{
		{"create role", "POST", "/api/roles", http.StatusCreated, "CREATE_ROLE", LevelInfo},
		{"delete menu", "DELETE", "/api/menus/3", http.StatusNoContent, "DELETE_MENU", LevelInfo},
		{"grant update", "PUT", "/api/role-menus/1/2", http.StatusOK, "UPDATE_PERMISSION", LevelInfo},
		{"conflict", "DELETE", "/api/roles/1", http.StatusConflict, "DELETE_ROLE", LevelWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &memoryLogger{}
			recorder, _, _ := newTestRecorder(t, sink)

			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Same(t, recorder, RecorderFromContext(r.Context()))
				w.WriteHeader(tt.status)
			})
			handler := withUser("alice", Middleware(recorder)(inner))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "198.51.100.4:5555"
			handler.ServeHTTP(httptest.NewRecorder(), req)
			require.NoError(t, recorder.Wait(context.Background()))

			entries := sink.snapshot()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantAction, entries[0].Action)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			assert.Equal(t, "alice", entries[0].Username)
			assert.Equal(t, "198.51.100.4", entries[0].IPAddress)
		})
	}
}

func TestMiddleware_SkipsReadsAndDenials(t *testing.T) {
	sink := &memoryLogger{}
	recorder, _, _ := newTestRecorder(t, sink)

	status := http.StatusOK
	handler := Middleware(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/roles", nil))
	status = http.StatusForbidden
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/roles", nil))
	status = http.StatusOK
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/unknown", nil))

	require.NoError(t, recorder.Wait(context.Background()))
	assert.Empty(t, sink.snapshot())
}

func TestMiddleware_AnonymousUser(t *testing.T) {
	sink := &memoryLogger{}
	recorder, _, _ := newTestRecorder(t, sink)

	handler := Middleware(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/auth/login", nil))

	require.NoError(t, recorder.Wait(context.Background()))
	entries := sink.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "anonymous", entries[0].Username)
	assert.Equal(t, ActionLogin, entries[0].Action)
}
