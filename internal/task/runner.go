// Package task runs exclusive background operations with observable
// status. Long mutating work (index rebuilds, model loads) goes through a
// Runner so a second request while one is in flight is rejected instead
// of queued, and callers can poll progress.
package task

import (
	"context"
	"errors"
	"sync"

	"github.com/campusqa/campusqa/internal/log"
)

// ErrAlreadyRunning is returned by Start while a previous task is still
// in flight.
var ErrAlreadyRunning = errors.New("task: already in progress")

// Status is a point-in-time view of the runner, shaped for polling
// endpoints.
type Status struct {
	Running   bool   `json:"running"`
	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// Runner executes at most one task at a time. The zero value is not
// usable; construct with NewRunner. Safe for concurrent use.
type Runner struct {
	name   string
	logger log.Logger

	mu        sync.Mutex
	running   bool
	completed bool
	err       error
	cancel    context.CancelFunc

	wg sync.WaitGroup
}

// NewRunner creates a runner; name labels log entries.
func NewRunner(name string, logger log.Logger) *Runner {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Runner{
		name:   name,
		logger: logger.With("task", name),
	}
}

// Start launches fn in the background. It returns ErrAlreadyRunning if a
// task is still in flight; the running task is unaffected. The context
// passed to fn is canceled by Close.
func (r *Runner) Start(fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.running = true
	r.completed = false
	r.err = nil
	r.cancel = cancel

	r.logger.Info("task started")
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		err := fn(ctx)

		r.mu.Lock()
		r.running = false
		r.completed = err == nil
		r.err = err
		r.mu.Unlock()

		if err != nil {
			r.logger.Error("task failed", "error", err)
		} else {
			r.logger.Info("task completed")
		}
	}()

	return nil
}

// Status reports the runner state. Error carries the failure message of
// the most recent finished task, if any.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Status{Running: r.running, Completed: r.completed}
	if r.err != nil {
		s.Error = r.err.Error()
	}
	return s
}

// Close cancels any in-flight task and waits for it to return.
func (r *Runner) Close() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}
