package httputil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONOrError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expectOK bool
	}{
		{name: "valid JSON", body: `{"role_name": "ADMIN"}`, expectOK: true},
		{name: "invalid JSON", body: `{invalid}`, expectOK: false},
		{name: "empty body", body: ``, expectOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/roles", bytes.NewBufferString(tt.body))
			var dest map[string]string

			ok := ParseJSONOrError(w, req, &dest)

			assert.Equal(t, tt.expectOK, ok)
			if tt.expectOK {
				assert.Equal(t, "ADMIN", dest["role_name"])
			} else {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestParsePathInt64(t *testing.T) {
	tests := []struct {
		name        string
		pathValue   string
		expectValue int64
		expectError bool
	}{
		{name: "valid int64", pathValue: "9223372036854775807", expectValue: 9223372036854775807},
		{name: "invalid", pathValue: "abc", expectError: true},
		{name: "empty value", pathValue: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/menus/"+tt.pathValue, nil)
			req = mux.SetURLVars(req, map[string]string{"id": tt.pathValue})

			val, err := ParsePathInt64(req, "id")

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectValue, val)
			}
		})
	}
}

func TestParsePathInt64OrError_Invalid(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/menus/x", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "x"})

	val, ok := ParsePathInt64OrError(w, req, "id")

	assert.False(t, ok)
	assert.Equal(t, int64(0), val)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParsePathString(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/logs/count/level/INFO", nil)
	req = mux.SetURLVars(req, map[string]string{"level": "INFO"})

	val, err := ParsePathString(req, "level")
	assert.NoError(t, err)
	assert.Equal(t, "INFO", val)

	_, err = ParsePathString(req, "missing")
	assert.Error(t, err)
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/logs?page=5", nil)

	val, err := ParseQueryInt(req, "page", 0)
	assert.NoError(t, err)
	assert.Equal(t, 5, val)

	val, err = ParseQueryInt(req, "size", 20)
	assert.NoError(t, err)
	assert.Equal(t, 20, val)

	bad := httptest.NewRequest("GET", "/api/logs?page=five", nil)
	_, err = ParseQueryInt(bad, "page", 0)
	assert.Error(t, err)
}

func TestParseQueryString(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/logs?level=ERROR", nil)

	assert.Equal(t, "ERROR", ParseQueryString(req, "level", ""))
	assert.Equal(t, "json", ParseQueryString(req, "format", "json"))
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/menus?tree=true", nil)

	val, err := ParseQueryBool(req, "tree", false)
	assert.NoError(t, err)
	assert.True(t, val)

	bad := httptest.NewRequest("GET", "/api/menus?tree=maybe", nil)
	_, err = ParseQueryBool(bad, "tree", false)
	assert.Error(t, err)
}

func TestParseQueryTime(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		expect *time.Time
		hasErr bool
	}{
		{name: "missing", query: ""},
		{name: "date only", query: "?from=2024-03-01", expect: ptrTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))},
		{name: "rfc3339", query: "?from=2024-03-01T10:00:00%2B09:00", expect: ptrTime(time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC))},
		{name: "local datetime", query: "?from=2024-03-01T10:30:00", expect: ptrTime(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC))},
		{name: "garbage", query: "?from=yesterday", hasErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/logs"+tt.query, nil)
			got, err := ParseQueryTime(req, "from")
			if tt.hasErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.expect == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.expect.Equal(*got), "got %s", got)
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
