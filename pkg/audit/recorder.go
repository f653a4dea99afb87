package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/menuguard/pkg/async"
	"github.com/platinummonkey/menuguard/pkg/observability"
)

// DefaultMaxPendingWrites bounds the system log writes in flight; entries
// beyond it are dropped and counted
const DefaultMaxPendingWrites = 512

// Recorder dispatches system log writes in the background. Callers never wait
// for the write and never see its error; failures go to the operational log
// and the write-failure counter.
type Recorder struct {
	logger  Logger
	oplog   *observability.Logger
	runner  *async.Runner
	timeout time.Duration
	metrics *observability.Metrics
	now     func() time.Time
}

// NewRecorder creates a recorder writing through logger with a per-write timeout
func NewRecorder(logger Logger, oplog *observability.Logger, metrics *observability.Metrics, timeout time.Duration) *Recorder {
	if logger == nil {
		logger = NoOpLogger{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if oplog == nil {
		oplog = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Recorder{
		logger:  logger,
		oplog:   oplog,
		runner:  async.NewRunner(oplog).WithLimit(DefaultMaxPendingWrites),
		timeout: timeout,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record queues entry for writing. Missing client info is taken from ctx.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil {
		return
	}

	info := ClientInfoFromContext(ctx)
	if entry.IPAddress == "" {
		entry.IPAddress = info.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = info.UserAgent
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	accepted := r.runner.TryGo(ctx, r.timeout, "system log write", func(ctx context.Context) error {
		err := r.logger.Log(ctx, &entry)
		r.count(err)
		return err
	})
	if !accepted {
		r.oplog.WithField("action", entry.Action).WithField("username", entry.Username).
			Warn("Too many pending system log writes, dropping entry")
		if r.metrics != nil {
			r.metrics.AuditWritesTotal.WithLabelValues("dropped").Inc()
		}
	}
}

func (r *Recorder) count(err error) {
	if r.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	r.metrics.AuditWritesTotal.WithLabelValues(status).Inc()
}

func (r *Recorder) Info(ctx context.Context, username, action, message string) {
	r.Record(ctx, Entry{Level: LevelInfo, Username: username, Action: action, Message: message})
}

func (r *Recorder) Warning(ctx context.Context, username, action, message string) {
	r.Record(ctx, Entry{Level: LevelWarning, Username: username, Action: action, Message: message})
}

func (r *Recorder) Error(ctx context.Context, username, action, message, details string) {
	r.Record(ctx, Entry{Level: LevelError, Username: username, Action: action, Message: message, Details: details})
}

func (r *Recorder) Login(ctx context.Context, username string) {
	r.Info(ctx, username, ActionLogin, "user logged in")
}

func (r *Recorder) Logout(ctx context.Context, username string) {
	r.Info(ctx, username, ActionLogout, "user logged out")
}

func (r *Recorder) LoginFailed(ctx context.Context, username, reason string) {
	r.Warning(ctx, username, ActionLoginFailed, fmt.Sprintf("login failed: %s", reason))
}

// UnauthorizedAccess records a denied permission check on resource
func (r *Recorder) UnauthorizedAccess(ctx context.Context, username, resource string) {
	r.Warning(ctx, username, ActionUnauthorizedAccess, fmt.Sprintf("access denied to %s", resource))
}

// Wait blocks until queued writes finish or ctx is done
func (r *Recorder) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.runner.Wait(ctx)
}

// Close drains queued writes and closes the underlying logger
func (r *Recorder) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if err := r.Wait(ctx); err != nil {
		return err
	}
	return r.logger.Close()
}
