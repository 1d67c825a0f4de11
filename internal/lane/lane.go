// Package lane provides a single-concurrency execution lane: a bounded work
// queue drained by one worker goroutine. It isolates clients that are not
// safe for concurrent use (a raw *pgx.Conn) behind an interface that remains
// concurrently callable — callers queue onto the lane instead of contending
// on the connection.
package lane

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Do after Close has been called.
var ErrClosed = errors.New("lane: closed")

type job struct {
	ctx context.Context
	fn  func(context.Context) error
	res chan error
}

// Lane is a single-worker execution lane. Each Lane is owned by exactly one
// store instance and torn down with it.
type Lane struct {
	mu     sync.RWMutex
	jobs   chan job
	done   chan struct{}
	closed bool
}

// New creates a Lane with the given queue depth and starts its worker.
func New(buffer int) *Lane {
	if buffer < 1 {
		buffer = 1
	}
	l := &Lane{
		jobs: make(chan job, buffer),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Lane) run() {
	defer close(l.done)
	for j := range l.jobs {
		if err := j.ctx.Err(); err != nil {
			j.res <- err
			continue
		}
		j.res <- j.fn(j.ctx)
	}
}

// Do runs fn on the lane's worker and returns its error. If ctx is cancelled
// before fn has been picked up, or while waiting for its result, Do returns
// ctx.Err() — the caller never observes a result it did not wait for.
func (l *Lane) Do(ctx context.Context, fn func(context.Context) error) error {
	j := job{ctx: ctx, fn: fn, res: make(chan error, 1)}

	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return ErrClosed
	}
	select {
	case l.jobs <- j:
		l.mu.RUnlock()
	case <-ctx.Done():
		l.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-j.res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work, drains queued jobs, and waits for the worker
// to exit. Safe to call more than once.
func (l *Lane) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.jobs)
	l.mu.Unlock()
	<-l.done
}
