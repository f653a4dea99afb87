// Package async provides panic-safe fire-and-forget execution for background
// work such as system log writes.
package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

// Runner executes detached tasks with a timeout, panic recovery and error
// logging, and tracks them so shutdown can drain in-flight work.
type Runner struct {
	logger *observability.Logger
	wg     sync.WaitGroup
	sem    *semaphore.Weighted

	// OnError is called after a task fails or panics. Optional.
	OnError func(taskName string, err error)
}

// NewRunner creates a runner that reports task failures to logger
func NewRunner(logger *observability.Logger) *Runner {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Runner{logger: logger}
}

// SafeGo runs fn in its own goroutine. The task keeps the values of parentCtx
// but not its cancellation, so it outlives the request that started it;
// timeout bounds it instead. Errors and panics are logged, never returned.
//
//	runner.SafeGo(r.Context(), 5*time.Second, "system log write", func(ctx context.Context) error {
//	    return store.Log(ctx, entry)
//	})
func (r *Runner) SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parentCtx), timeout)
		defer cancel()

		defer func() {
			if rec := recover(); rec != nil {
				r.logger.WithField("task", taskName).
					WithField("panic", fmt.Sprint(rec)).
					WithField("stack", string(debug.Stack())).
					Error("PANIC in background task")
				r.report(taskName, fmt.Errorf("panic: %v", rec))
			}
		}()

		if err := fn(ctx); err != nil {
			r.logger.WithField("task", taskName).WithError(err).Warn("background task failed")
			r.report(taskName, err)
		}
	}()
}

// WithLimit caps the number of TryGo tasks in flight at n
func (r *Runner) WithLimit(n int64) *Runner {
	r.sem = semaphore.NewWeighted(n)
	return r
}

// TryGo is SafeGo bounded by the runner's limit. It never blocks: when the
// limit is reached the task is dropped and TryGo returns false.
func (r *Runner) TryGo(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) bool {
	if r.sem == nil {
		r.SafeGo(parentCtx, timeout, taskName, fn)
		return true
	}
	if !r.sem.TryAcquire(1) {
		return false
	}
	r.SafeGo(parentCtx, timeout, taskName, func(ctx context.Context) error {
		defer r.sem.Release(1)
		return fn(ctx)
	})
	return true
}

func (r *Runner) report(taskName string, err error) {
	if r.OnError != nil {
		r.OnError(taskName, err)
	}
}

// Wait blocks until every started task has finished or ctx is done
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background tasks still running: %w", ctx.Err())
	}
}
