// Package worker runs event handlers on a bounded goroutine pool.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/panjf2000/ants/v2"
)

// ErrPoolClosed is returned when submitting to a released pool.
var ErrPoolClosed = errors.New("worker pool is closed")

const (
	idleExpiry      = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Task is a context-aware unit of work.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission and panic logging.
type Pool struct {
	pool   *ants.Pool
	name   string
	logger *slog.Logger
}

// New creates a blocking pool of size workers. A panicking task is logged
// and does not take its worker down.
func New(name string, size int, logger *slog.Logger) (*Pool, error) {
	if size <= 0 {
		size = 1
	}
	p := &Pool{name: name, logger: logger}
	pool, err := ants.NewPool(size,
		ants.WithPanicHandler(func(v any) {
			logger.Error("Worker panic recovered", "pool", name, "panic", v, "stack", string(debug.Stack()))
		}),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(idleExpiry),
	)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// Submit queues task, blocking while every worker is busy. A context
// cancelled before or while the task is queued skips it.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := p.pool.Submit(func() {
		select {
		case <-ctx.Done():
			p.logger.Debug("Task skipped: context cancelled", "pool", p.name, "error", ctx.Err())
			return
		default:
		}
		task(ctx)
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// Shutdown waits for running tasks, up to 30s, and releases the pool.
func (p *Pool) Shutdown() {
	if err := p.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		p.logger.Warn("Worker pool shutdown timeout", "pool", p.name, "error", err)
	}
}

// Stats returns pool occupancy for the health endpoint.
func (p *Pool) Stats() map[string]int {
	return map[string]int{
		"running": p.pool.Running(),
		"free":    p.pool.Free(),
		"cap":     p.pool.Cap(),
	}
}
