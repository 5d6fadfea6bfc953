// Package tasks runs fire-and-forget background work on a bounded worker pool.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned by Shutdown when the queue was already shut down.
var ErrClosed = errors.New("task queue closed")

// Task is a named unit of background work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Options configures a Queue.
type Options struct {
	Workers int
	Size    int
	Timeout time.Duration
}

// Queue executes submitted tasks on a fixed set of workers. Submit never
// blocks; a full queue drops the task.
type Queue struct {
	tasks   chan Task
	timeout time.Duration
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts the workers. Zero options fall back to 1 worker, 100 slots
// and a 30 second timeout.
func NewQueue(opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Size <= 0 {
		opts.Size = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	q := &Queue{
		tasks:   make(chan Task, opts.Size),
		timeout: opts.Timeout,
	}
	q.wg.Add(opts.Workers)
	for range opts.Workers {
		go q.worker()
	}
	return q
}

// Submit enqueues t and reports whether it was accepted.
func (q *Queue) Submit(t Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		slog.Warn("task dropped: queue closed", "task", t.Name)
		return false
	}
	select {
	case q.tasks <- t:
		return true
	default:
		slog.Warn("task dropped: queue full", "task", t.Name)
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish or for
// ctx to expire.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("task queue drain: %w", ctx.Err())
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for t := range q.tasks {
		q.run(t)
	}
}

func (q *Queue) run(t Task) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("task panicked", "task", t.Name, "panic", r)
		}
	}()

	start := time.Now()
	if err := t.Run(ctx); err != nil {
		slog.Error("task failed", "task", t.Name, "error", err, "duration", time.Since(start))
		return
	}
	slog.Debug("task finished", "task", t.Name, "duration", time.Since(start))
}
