package audit

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/menuguard/pkg/async"
	"github.com/platinummonkey/menuguard/pkg/observability"
)

type memoryLogger struct {
	mu      sync.Mutex
	entries []Entry
	err     error
	closed  bool
}

func (m *memoryLogger) Log(ctx context.Context, entry *Entry) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryLogger) Close() error {
	m.closed = true
	return nil
}

func (m *memoryLogger) snapshot() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

func newTestRecorder(t *testing.T, logger Logger) (*Recorder, *observability.Metrics, *bytes.Buffer) {
	t.Helper()
	var ops bytes.Buffer
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	oplog := observability.NewLogger(observability.InfoLevel, &ops)
	return NewRecorder(logger, oplog, metrics, time.Second), metrics, &ops
}

func TestRecorder_WritesWithClientInfo(t *testing.T) {
	sink := &memoryLogger{}
	recorder, metrics, _ := newTestRecorder(t, sink)

	req := httptest.NewRequest("GET", "/api/menus", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "console/1.0")
	ctx := WithClientInfo(context.Background(), ClientInfoFromRequest(req))

	recorder.UnauthorizedAccess(ctx, "bob", "/api/roles")
	require.NoError(t, recorder.Wait(context.Background()))

	entries := sink.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, LevelWarning, entries[0].Level)
	assert.Equal(t, ActionUnauthorizedAccess, entries[0].Action)
	assert.Equal(t, "203.0.113.7", entries[0].IPAddress)
	assert.Equal(t, "console/1.0", entries[0].UserAgent)
	assert.False(t, entries[0].CreatedAt.IsZero())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuditWritesTotal.WithLabelValues("success")))
}

func TestRecorder_SurvivesCallerCancellation(t *testing.T) {
	sink := &memoryLogger{}
	recorder, _, _ := newTestRecorder(t, sink)

	ctx, cancel := context.WithCancel(context.Background())
	recorder.Login(ctx, "alice")
	cancel()

	require.NoError(t, recorder.Wait(context.Background()))
	assert.Len(t, sink.snapshot(), 1)
}

func TestRecorder_FailuresAreSwallowed(t *testing.T) {
	sink := &memoryLogger{err: errors.New("disk full")}
	recorder, metrics, ops := newTestRecorder(t, sink)

	assert.NotPanics(t, func() {
		recorder.Error(context.Background(), "alice", "DELETE_ROLE", "failed", "details")
	})
	require.NoError(t, recorder.Wait(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuditWritesTotal.WithLabelValues("failure")))
	assert.Contains(t, ops.String(), "disk full")
}

func TestRecorder_NilIsNoOp(t *testing.T) {
	var recorder *Recorder
	assert.NotPanics(t, func() {
		recorder.Info(context.Background(), "alice", ActionLogin, "x")
		_ = recorder.Wait(context.Background())
		_ = recorder.Close(context.Background())
	})
}

func TestRecorder_CloseDrainsAndCloses(t *testing.T) {
	sink := &memoryLogger{}
	recorder, _, _ := newTestRecorder(t, sink)

	for i := 0; i < 10; i++ {
		recorder.Logout(context.Background(), "alice")
	}
	require.NoError(t, recorder.Close(context.Background()))

	assert.Len(t, sink.snapshot(), 10)
	assert.True(t, sink.closed)
}

type blockingLogger struct {
	memoryLogger
	release chan struct{}
}

func (b *blockingLogger) Log(ctx context.Context, entry *Entry) error {
	<-b.release
	return b.memoryLogger.Log(ctx, entry)
}

func TestRecorder_BoundsPendingWrites(t *testing.T) {
	sink := &blockingLogger{release: make(chan struct{})}
	recorder, metrics, ops := newTestRecorder(t, sink)
	recorder.runner = async.NewRunner(recorder.oplog).WithLimit(2)

	start := time.Now()
	for i := 0; i < 5; i++ {
		recorder.UnauthorizedAccess(context.Background(), "mallory", "/api/roles")
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond, "recording never waits for the writer")

	close(sink.release)
	require.NoError(t, recorder.Wait(context.Background()))

	assert.Len(t, sink.snapshot(), 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.AuditWritesTotal.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.AuditWritesTotal.WithLabelValues("dropped")))
	assert.Contains(t, ops.String(), "dropping entry")
}

func TestRecorder_WritesToDatabase(t *testing.T) {
	db := setupTestDB(t)
	recorder, _, _ := newTestRecorder(t, NewDBLogger(db))

	recorder.LoginFailed(context.Background(), "mallory", "bad password")
	require.NoError(t, recorder.Wait(context.Background()))

	var message, level string
	require.NoError(t, db.QueryRow("SELECT message, level FROM system_logs WHERE username = $1", "mallory").Scan(&message, &level))
	assert.Equal(t, "login failed: bad password", message)
	assert.Equal(t, "WARNING", level)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{"info": LevelInfo, "WARN": LevelWarning, " warning ": LevelWarning, "Error": LevelError}
	for in, want := range tests {
		got, ok := ParseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseLevel("debug")
	assert.False(t, ok)
}
