package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	m "auxmark.dev/pkg/auxmark/internal/model"
)

// DefaultMaxWorkers is the default scheduler concurrency bound.
const DefaultMaxWorkers = 4

// ErrSchedulerClosed is reported for jobs submitted after Close.
var ErrSchedulerClosed = errors.New("scheduler closed")

// JobObserver receives job lifecycle notifications. Calls come from worker
// goroutines and must be safe for concurrent use.
type JobObserver interface {
	JobStarted(job *m.Job)
	JobSettled(outcome m.JobOutcome)
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	// MaxWorkers bounds the number of jobs in flight.
	MaxWorkers int
	// MinStartDelay is the global minimum spacing between job starts.
	MinStartDelay time.Duration
	Observer      JobObserver
}

// Scheduler runs preprocessing jobs through a bounded, paced worker pool and
// lets callers join on all jobs belonging to one file.
type Scheduler interface {
	// Start launches the dispatcher. Calling it more than once is a no-op.
	Start(ctx context.Context)
	// Submit queues jobs. Jobs for a file must be submitted before Wait is
	// called for that file.
	Submit(jobs ...*m.Job)
	// Wait blocks until every submitted job for path has settled.
	Wait(ctx context.Context, path m.Path) ([]m.JobOutcome, error)
	// Close stops accepting jobs and waits for all of them to settle.
	Close() []m.JobOutcome
	// PeakConcurrency returns the highest number of jobs observed in flight.
	PeakConcurrency() int
}

type fileJoin struct {
	remaining int
	done      chan struct{}
	outcomes  []m.JobOutcome
}

type scheduler struct {
	registry *Registry
	opts     SchedulerOptions
	sem      *semaphore.Weighted
	limiter  *rate.Limiter

	mu       sync.Mutex
	pending  []*m.Job
	closed   bool
	joins    map[m.Path]*fileJoin
	outcomes []m.JobOutcome

	startOnce sync.Once
	notify    chan struct{}
	done      chan struct{}
	workers   sync.WaitGroup

	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewScheduler creates a Scheduler that resolves job owners through registry.
func NewScheduler(registry *Registry, opts SchedulerOptions) Scheduler {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}

	limit := rate.Inf
	if opts.MinStartDelay > 0 {
		limit = rate.Every(opts.MinStartDelay)
	}

	return &scheduler{
		registry: registry,
		opts:     opts,
		sem:      semaphore.NewWeighted(int64(opts.MaxWorkers)),
		limiter:  rate.NewLimiter(limit, 1),
		joins:    make(map[m.Path]*fileJoin),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (s *scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		slog.Debug("Starting scheduler", "maxWorkers", s.opts.MaxWorkers, "minStartDelay", s.opts.MinStartDelay)

		go s.dispatch(ctx)
	})
}

func (s *scheduler) Submit(jobs ...*m.Job) {
	if len(jobs) == 0 {
		return
	}

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		for _, job := range jobs {
			s.settle(job, m.JobFailed, ErrSchedulerClosed)
		}

		return
	}

	for _, job := range jobs {
		join := s.joinLocked(job.Path)
		if join.remaining == 0 {
			join.done = make(chan struct{})
		}

		join.remaining++
	}

	s.pending = append(s.pending, jobs...)
	s.mu.Unlock()

	s.wake()
}

func (s *scheduler) Wait(ctx context.Context, path m.Path) ([]m.JobOutcome, error) {
	s.mu.Lock()

	join, ok := s.joins[path]
	if !ok {
		s.mu.Unlock()
		return nil, nil
	}

	done := join.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]m.JobOutcome(nil), join.outcomes...), nil
}

func (s *scheduler) Close() []m.JobOutcome {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.Start(context.Background())
	s.wake()

	<-s.done
	s.workers.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]m.JobOutcome(nil), s.outcomes...)
}

func (s *scheduler) PeakConcurrency() int {
	return int(s.peak.Load())
}

func (s *scheduler) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *scheduler) joinLocked(path m.Path) *fileJoin {
	join, ok := s.joins[path]
	if !ok {
		join = &fileJoin{done: make(chan struct{})}
		close(join.done)
		s.joins[path] = join
	}

	return join
}

// next pops the oldest pending job. It returns false once the scheduler is
// closed and the queue is drained.
func (s *scheduler) next() (*m.Job, bool) {
	for {
		s.mu.Lock()

		if len(s.pending) > 0 {
			job := s.pending[0]
			s.pending[0] = nil
			s.pending = s.pending[1:]
			s.mu.Unlock()

			return job, true
		}

		if s.closed {
			s.mu.Unlock()
			return nil, false
		}

		s.mu.Unlock()

		<-s.notify
	}
}

func (s *scheduler) dispatch(ctx context.Context) {
	defer close(s.done)

	for {
		job, ok := s.next()
		if !ok {
			return
		}

		if err := s.sem.Acquire(ctx, 1); err != nil {
			s.settle(job, m.JobFailed, fmt.Errorf("not started: %w", err))
			continue
		}

		// Pacing is applied after a worker slot is held so consecutive starts
		// are never closer than MinStartDelay.
		if err := s.limiter.Wait(ctx); err != nil {
			s.sem.Release(1)
			s.settle(job, m.JobFailed, fmt.Errorf("not started: %w", err))

			continue
		}

		s.workers.Add(1)

		go func(job *m.Job) {
			defer s.workers.Done()
			defer s.sem.Release(1)

			s.execute(context.WithoutCancel(ctx), job)
		}(job)
	}
}

func (s *scheduler) execute(ctx context.Context, job *m.Job) {
	current := s.inFlight.Add(1)
	for {
		peak := s.peak.Load()
		if current <= peak || s.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	if s.opts.Observer != nil {
		s.opts.Observer.JobStarted(job)
	}

	slog.Debug("Job started", "job", job.String())

	ok, err := s.run(ctx, job)

	s.inFlight.Add(-1)

	if ok && err == nil {
		s.settle(job, m.JobSucceeded, nil)
		return
	}

	s.settle(job, m.JobFailed, err)
}

func (s *scheduler) run(ctx context.Context, job *m.Job) (ok bool, err error) {
	detector, found := s.registry.Get(job.Detector)
	if !found {
		return false, fmt.Errorf("detector %q is not registered", job.Detector)
	}

	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("preprocess panic: %v", r)
		}
	}()

	return detector.Preprocess(ctx, job)
}

func (s *scheduler) settle(job *m.Job, status m.JobStatus, err error) {
	outcome := m.JobOutcome{Job: job, Status: status}
	if status == m.JobFailed {
		outcome.Err = &JobFailure{Job: job, Err: err}
		slog.Warn("Job failed", "job", job.String(), "error", err)
	} else {
		slog.Debug("Job succeeded", "job", job.String())
	}

	s.mu.Lock()
	s.outcomes = append(s.outcomes, outcome)

	if join, ok := s.joins[job.Path]; ok && join.remaining > 0 {
		join.outcomes = append(join.outcomes, outcome)
		join.remaining--

		if join.remaining == 0 {
			close(join.done)
		}
	}
	s.mu.Unlock()

	if s.opts.Observer != nil {
		s.opts.Observer.JobSettled(outcome)
	}
}
