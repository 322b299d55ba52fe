package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
	"github.com/mcoot/crcon-linkbot/internal/testutil"
)

type SchedulerSuite struct {
	suite.Suite
	scheduler *Scheduler
	ctx       context.Context
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.scheduler = New(clock.New(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *SchedulerSuite) TearDownTest() {
	s.scheduler.Stop()
}

func (s *SchedulerSuite) TestRunsRepeatedly() {
	var runs atomic.Int32
	s.Require().NoError(s.scheduler.Add(Job{
		Name:     "tick",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	}))
	s.Require().NoError(s.scheduler.Start(s.ctx))

	s.Eventually(func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
}

func (s *SchedulerSuite) TestInitialDelay() {
	var runs atomic.Int32
	s.Require().NoError(s.scheduler.Add(Job{
		Name:         "delayed",
		Interval:     time.Millisecond,
		InitialDelay: time.Hour,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	}))
	s.Require().NoError(s.scheduler.Start(s.ctx))

	time.Sleep(20 * time.Millisecond)
	s.Zero(runs.Load())
}

func (s *SchedulerSuite) TestOverlappingFiringsAreSkipped() {
	var running, maxRunning atomic.Int32
	release := make(chan struct{})
	s.Require().NoError(s.scheduler.Add(Job{
		Name:     "slow",
		Interval: time.Millisecond,
		Run: func(ctx context.Context) error {
			n := running.Add(1)
			if n > maxRunning.Load() {
				maxRunning.Store(n)
			}
			select {
			case <-release:
			case <-ctx.Done():
			}
			running.Add(-1)
			return nil
		},
	}))
	s.Require().NoError(s.scheduler.Start(s.ctx))

	s.Eventually(func() bool { return running.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	s.ErrorIs(s.scheduler.Trigger(s.ctx, "slow"), ErrJobRunning)
	s.EqualValues(1, maxRunning.Load())
	close(release)
}

func (s *SchedulerSuite) TestTriggerRunsSynchronously() {
	boom := errors.New("boom")
	s.Require().NoError(s.scheduler.Add(Job{
		Name:         "manual",
		Interval:     time.Hour,
		InitialDelay: time.Hour,
		Run:          func(ctx context.Context) error { return boom },
	}))

	s.ErrorIs(s.scheduler.Trigger(s.ctx, "manual"), boom)

	status := s.scheduler.Status()
	s.Require().Len(status, 1)
	s.Equal("manual", status[0].Name)
	s.Equal(1, status[0].Runs)
	s.Equal("boom", status[0].LastError)
	s.NotNil(status[0].LastRunAt)
	s.False(status[0].Running)
}

func (s *SchedulerSuite) TestTriggerUnknownJob() {
	s.ErrorIs(s.scheduler.Trigger(s.ctx, "nope"), ErrUnknownJob)
}

func (s *SchedulerSuite) TestAddValidation() {
	noop := func(ctx context.Context) error { return nil }

	s.Error(s.scheduler.Add(Job{Name: "", Interval: time.Second, Run: noop}))
	s.Error(s.scheduler.Add(Job{Name: "x", Interval: 0, Run: noop}))
	s.Require().NoError(s.scheduler.Add(Job{Name: "x", Interval: time.Second, Run: noop}))
	s.ErrorIs(s.scheduler.Add(Job{Name: "x", Interval: time.Second, Run: noop}), ErrDuplicateJob)

	s.Require().NoError(s.scheduler.Start(s.ctx))
	s.ErrorIs(s.scheduler.Add(Job{Name: "y", Interval: time.Second, Run: noop}), ErrStarted)
	s.ErrorIs(s.scheduler.Start(s.ctx), ErrStarted)
}

func (s *SchedulerSuite) TestStopWaitsForInFlightRun() {
	var finished atomic.Bool
	started := make(chan struct{})
	s.Require().NoError(s.scheduler.Add(Job{
		Name:     "cancellable",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			finished.Store(true)
			return ctx.Err()
		},
	}))
	s.Require().NoError(s.scheduler.Start(s.ctx))
	<-started

	s.scheduler.Stop()
	s.True(finished.Load())
}
