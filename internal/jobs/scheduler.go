// Package jobs runs the bot's periodic background work.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
)

var (
	ErrUnknownJob   = errors.New("unknown job")
	ErrJobRunning   = errors.New("job is already running")
	ErrDuplicateJob = errors.New("job already registered")
	ErrStarted      = errors.New("scheduler already started")
)

// Job is a named unit of periodic work
type Job struct {
	Name         string
	Interval     time.Duration
	InitialDelay time.Duration
	Run          func(ctx context.Context) error
}

// Status is a snapshot of one job's run history
type Status struct {
	Name         string
	Interval     time.Duration
	Running      bool
	Runs         int
	LastRunAt    *time.Time
	LastDuration time.Duration
	LastError    string
}

type jobState struct {
	job     Job
	running atomic.Bool

	mu           sync.Mutex
	runs         int
	lastRunAt    *time.Time
	lastDuration time.Duration
	lastErr      error
}

// Scheduler fires jobs on fixed intervals. A firing that arrives while the
// same job is still running is skipped rather than queued.
type Scheduler struct {
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.Mutex
	jobs    map[string]*jobState
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an empty scheduler
func New(clock clock.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		clock:  clock,
		logger: logger.With(slog.String("component", "scheduler")),
		jobs:   make(map[string]*jobState),
	}
}

// Add registers a job. Jobs must be added before Start.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil || job.Interval <= 0 {
		return fmt.Errorf("invalid job %q: name, run func and positive interval are required", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrStarted
	}
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	s.jobs[job.Name] = &jobState{job: job}
	return nil
}

// Start launches every job's loop. Loops stop when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrStarted
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, st := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, st)
	}

	s.logger.Info("scheduler started", slog.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels all loops and waits for in-flight runs to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Trigger runs a job now, in the caller's goroutine. It returns
// ErrJobRunning if the job is already in flight.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.Lock()
	st, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	ran, err := s.run(ctx, st)
	if !ran {
		return ErrJobRunning
	}
	return err
}

// Status returns a snapshot of every job, ordered by name
func (s *Scheduler) Status() []Status {
	s.mu.Lock()
	states := make([]*jobState, 0, len(s.jobs))
	for _, st := range s.jobs {
		states = append(states, st)
	}
	s.mu.Unlock()

	out := make([]Status, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		status := Status{
			Name:         st.job.Name,
			Interval:     st.job.Interval,
			Running:      st.running.Load(),
			Runs:         st.runs,
			LastRunAt:    st.lastRunAt,
			LastDuration: st.lastDuration,
		}
		if st.lastErr != nil {
			status.LastError = st.lastErr.Error()
		}
		st.mu.Unlock()
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) loop(ctx context.Context, st *jobState) {
	defer s.wg.Done()

	if err := s.clock.Sleep(ctx, st.job.InitialDelay); err != nil {
		return
	}
	for {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if ran, _ := s.run(ctx, st); !ran {
				s.logger.Warn("job still running, skipping firing", slog.String("job", st.job.Name))
			}
		}()

		if err := s.clock.Sleep(ctx, st.job.Interval); err != nil {
			return
		}
	}
}

// run executes the job unless it is already in flight. ran reports whether it executed.
func (s *Scheduler) run(ctx context.Context, st *jobState) (ran bool, err error) {
	if !st.running.CompareAndSwap(false, true) {
		return false, nil
	}
	defer st.running.Store(false)

	start := s.clock.Now()
	err = st.job.Run(ctx)
	duration := s.clock.Now().Sub(start)

	st.mu.Lock()
	st.runs++
	st.lastRunAt = &start
	st.lastDuration = duration
	st.lastErr = err
	st.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("job failed",
			slog.String("job", st.job.Name),
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)
	} else {
		s.logger.Debug("job finished",
			slog.String("job", st.job.Name),
			slog.Duration("duration", duration),
		)
	}
	return true, err
}
