package scheduler

import (
	"context"
	"time"

	"github.com/bassista/go_fest/internal/changes"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/scheduledata"
)

// ChangeChecker is implemented by *changes.Coordinator.
type ChangeChecker interface {
	RunChangeCheck(ctx context.Context) changes.Outcome
	NeedsRefresh() bool
	ClearNeedsRefresh()
}

// ScheduleData is implemented by *scheduledata.Controller.
type ScheduleData interface {
	State() scheduledata.State
	RecheckStaleness()
	Refresh(ctx context.Context) (scheduledata.State, error)
}

// PollingScheduler drives the sync cycle on a fixed interval.
//
// Each tick:
// - re-evaluates staleness, which can arm the controller's automatic refresh;
// - runs a change-check (itself rate limited) when online;
// - refetches the schedule while the needs-refresh flag is raised, clearing it on success.
//
// A failed or offline refresh leaves the flag raised so the next tick retries.
type PollingScheduler struct {
	checker ChangeChecker
	data    ScheduleData
	poll    time.Duration
}

func NewPollingScheduler(checker ChangeChecker, data ScheduleData, poll time.Duration) *PollingScheduler {
	return &PollingScheduler{checker: checker, data: data, poll: poll}
}

// Start runs the first tick right away and then one per interval until ctx is cancelled.
// The returned channel is closed when the loop has exited.
func (s *PollingScheduler) Start(ctx context.Context) <-chan struct{} {
	logger.WithComponent("sched").Debugf("starting polling scheduler with interval: %v", s.poll)
	done := make(chan struct{})
	ticker := time.NewTicker(s.poll)
	go func() {
		defer close(done)
		defer ticker.Stop()

		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("sched").Info("scheduler stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
	return done
}

func (s *PollingScheduler) tick(ctx context.Context) {
	log := logger.WithComponent("sched")
	log.Debug("polling scheduler tick started")

	s.data.RecheckStaleness()

	if !s.data.State().IsOnline {
		log.Debug("offline, skipping change-check")
		return
	}

	out := s.checker.RunChangeCheck(ctx)
	log.Debugf("change-check outcome: needsRefresh=%v skipped=%v reason=%q error=%v",
		out.NeedsRefresh, out.Skipped, out.Reason, out.Error)

	if !s.checker.NeedsRefresh() {
		return
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	if _, err := s.data.Refresh(ctx); err != nil {
		log.Warnf("refresh after remote change failed, will retry next tick: %v", err)
		return
	}
	s.checker.ClearNeedsRefresh()
	log.Info("schedule resynced after remote change")
}
