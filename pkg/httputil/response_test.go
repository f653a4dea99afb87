package httputil

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusOK, map[string]string{"message": "success"})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "success")
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		body   string
	}{
		{"error", func(w http.ResponseWriter) { WriteError(w, http.StatusBadRequest, errors.New("test error")) }, http.StatusBadRequest, "test error"},
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "invalid input") }, http.StatusBadRequest, "invalid input"},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "authentication required") }, http.StatusUnauthorized, "authentication required"},
		{"forbidden", func(w http.ResponseWriter) { WriteForbidden(w, "access denied") }, http.StatusForbidden, "access denied"},
		{"not found", func(w http.ResponseWriter) { WriteNotFound(w, "menu not found") }, http.StatusNotFound, "menu not found"},
		{"conflict", func(w http.ResponseWriter) { WriteConflict(w, "role already exists") }, http.StatusConflict, "role already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.body+`"}`, w.Body.String())
		})
	}
}

func TestWriteInternalError_HidesDetails(t *testing.T) {
	var logs bytes.Buffer
	logger := observability.NewLogger(observability.InfoLevel, &logs)

	req := httptest.NewRequest("GET", "/api/menus", nil)
	req = req.WithContext(observability.WithLogger(req.Context(), logger))
	w := httptest.NewRecorder()

	WriteInternalError(w, req, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Contains(t, logs.String(), "connection refused")
}

func TestWriteCreatedAndSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	assert.NoError(t, WriteCreated(w, map[string]int{"id": 1}))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	assert.NoError(t, WriteSuccess(w, []string{"DASHBOARD"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["DASHBOARD"]`, w.Body.String())
}

func TestWriteNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	WriteNoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestWriteAttachment(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteAttachment(w, "text/csv", "system-logs.csv", []byte("ID\n1\n"))

	assert.NoError(t, err)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="system-logs.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID\n1\n", w.Body.String())
}
