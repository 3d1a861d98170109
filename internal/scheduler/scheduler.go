// Package scheduler runs one-shot delayed jobs that can be cancelled before
// they fire.
package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Job is a handle to a scheduled task.
type Job interface {
	// Cancel prevents the job from running. It reports false if the job has
	// already started, finished or been cancelled.
	Cancel() bool
	// Name returns the job name for logging.
	Name() string
}

// Func is the body of a scheduled job. The context is cancelled when the
// scheduler stops.
type Func func(ctx context.Context)

// Scheduler owns timers for delayed jobs and tracks which are still pending.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*handle
	stopped bool
	wg      sync.WaitGroup
}

// New creates a scheduler. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		pending: make(map[uint64]*handle),
	}
}

type handle struct {
	id    uint64
	name  string
	s     *Scheduler
	timer *time.Timer
}

func (h *handle) Name() string { return h.name }

func (h *handle) Cancel() bool {
	s := h.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[h.id]; !ok {
		return false
	}
	delete(s.pending, h.id)
	h.timer.Stop()
	return true
}

type noopJob struct{ name string }

func (j noopJob) Cancel() bool { return false }
func (j noopJob) Name() string { return j.name }

// ScheduleOnce runs fn once after delay. After Stop it returns a job that
// never runs.
func (s *Scheduler) ScheduleOnce(delay time.Duration, name string, fn Func) Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.logger.Warn("scheduler stopped, dropping job", slog.String("job", name))
		return noopJob{name: name}
	}

	s.nextID++
	h := &handle{id: s.nextID, name: name, s: s}
	s.pending[h.id] = h
	h.timer = time.AfterFunc(delay, func() { s.fire(h, fn) })
	return h
}

func (s *Scheduler) fire(h *handle, fn Func) {
	s.mu.Lock()
	if _, ok := s.pending[h.id]; !ok || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.pending, h.id)
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in scheduled job",
				slog.String("job", h.name),
				slog.Any("panic", r),
				slog.String("stack_trace", string(debug.Stack())))
		}
	}()
	fn(s.ctx)
}

// Pending returns the number of jobs waiting for their delay to elapse.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending job and waits for running jobs to return or
// for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	for id, h := range s.pending {
		h.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
