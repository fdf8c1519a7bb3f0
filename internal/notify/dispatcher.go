package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

var ErrDispatcherClosed = errors.New("notify: dispatcher closed")

// Dispatcher runs fire-and-forget jobs on a bounded pool. Submission never
// blocks: when the pool is saturated the job is dropped and logged. Job
// failures and panics are logged and go no further.
type Dispatcher struct {
	pool   *ants.Pool
	log    *slog.Logger
	closed atomic.Bool
}

func NewDispatcher(size int, l *slog.Logger) (*Dispatcher, error) {
	if l == nil {
		l = slog.Default()
	}
	if size <= 0 {
		return nil, errors.New("notify: pool size must be > 0")
	}
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithExpiryDuration(time.Minute),
		ants.WithPanicHandler(func(p any) {
			l.Error("notification job panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{pool: pool, log: l}, nil
}

// Go submits job under name. The returned error only reports submission.
func (d *Dispatcher) Go(ctx context.Context, name string, job func(context.Context) error) error {
	if d.closed.Load() {
		return ErrDispatcherClosed
	}
	err := d.pool.Submit(func() {
		if err := job(ctx); err != nil {
			d.log.Error("notification job failed", "job", name, "error", err)
		}
	})
	if err != nil {
		d.log.Warn("notification job dropped", "job", name, "error", err)
	}
	return err
}

// Close waits up to timeout for running jobs, then releases the pool.
func (d *Dispatcher) Close(timeout time.Duration) error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	return d.pool.ReleaseTimeout(timeout)
}
