package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sig-0/iq"

	"github.com/sig-0/mnrates/storage/types"
)

// Runner executes a full ingestion run for a date
type Runner interface {
	Run(ctx context.Context, date string) (*RunSummary, error)
}

// scheduledRun is a single scheduled ingestion run
type scheduledRun struct {
	at        time.Time
	recurring bool // flag indicating if the run reschedules itself
}

// Less is utilized to sort scheduled runs by their due-time (earliest == first)
func (a scheduledRun) Less(b scheduledRun) bool {
	return a.at.Before(b.at)
}

type SchedulerOption func(s *Scheduler)

// WithSchedulerLogger specifies the logger for the scheduler
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithLocation specifies the reporting timezone the schedule
// and the run dates are evaluated in. Defaults to UTC
func WithLocation(loc *time.Location) SchedulerOption {
	return func(s *Scheduler) {
		s.location = loc
	}
}

// WithRunOnStart triggers an immediate run when the scheduler starts
func WithRunOnStart() SchedulerOption {
	return func(s *Scheduler) {
		s.runOnStart = true
	}
}

// WithQueryInterval specifies how often the scheduler checks for due runs.
// Defaults to 1s
func WithQueryInterval(q time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.queryInterval = q
	}
}

// WithSchedulerClock specifies the time source of the scheduler
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// Scheduler triggers ingestion runs for the current day, on a cron schedule
type Scheduler struct {
	runner   Runner
	schedule cron.Schedule
	location *time.Location
	logger   *slog.Logger
	now      func() time.Time

	q             iq.Queue[scheduledRun]
	queryInterval time.Duration
	qMux          sync.Mutex

	runOnStart bool
}

// NewScheduler creates a new scheduler for the standard 5-field cron expression
func NewScheduler(runner Runner, expr string, opts ...SchedulerOption) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse schedule %q: %w", expr, err)
	}

	s := &Scheduler{
		runner:        runner,
		schedule:      schedule,
		location:      time.UTC,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:           time.Now,
		q:             iq.NewQueue[scheduledRun](),
		queryInterval: time.Second, // every second
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Start starts the scheduler service loop [BLOCKING]
func (s *Scheduler) Start(ctx context.Context) error {
	now := s.localNow()

	if s.runOnStart {
		s.scheduleRun(now, false)
	}

	s.scheduleRun(s.schedule.Next(now), true)

	ticker := time.NewTicker(s.queryInterval)
	defer ticker.Stop()

	// handleRuns executes all runs that are due, one at a time
	handleRuns := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				next := s.nextRun()
				if next == nil {
					return // nothing is due
				}

				s.execute(ctx, next.at)

				if next.recurring {
					s.scheduleRun(s.schedule.Next(s.localNow()), true)
				}
			}
		}
	}

	// Initialize the first set of due runs (on boot)
	handleRuns()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shut down")

			return nil
		case <-ticker.C:
			handleRuns()
		}
	}
}

// execute runs the ingestion for the day of the trigger time
func (s *Scheduler) execute(ctx context.Context, at time.Time) {
	date := at.In(s.location).Format(types.DateLayout)

	s.logger.Info(
		"starting scheduled run",
		"date", date,
	)

	summary, err := s.runner.Run(ctx, date)
	if err != nil {
		s.logger.Error(
			"scheduled run failed",
			"date", date,
			"err", err,
		)

		return
	}

	s.logger.Info(
		"scheduled run completed",
		"run_id", summary.ID.String(),
		"date", date,
		"failed", summary.Failed(),
		"saved", summary.Saved(),
	)
}

// scheduleRun queues a run for the given time
func (s *Scheduler) scheduleRun(at time.Time, recurring bool) {
	s.qMux.Lock()
	defer s.qMux.Unlock()

	s.logger.Debug(
		"scheduled run",
		"at", at.String(),
		"recurring", recurring,
	)

	s.q.Push(scheduledRun{
		at:        at,
		recurring: recurring,
	})
}

// nextRun fetches the next due run, as of the moment of calling
func (s *Scheduler) nextRun() *scheduledRun {
	s.qMux.Lock()
	defer s.qMux.Unlock()

	if s.q.Len() == 0 {
		return nil
	}

	// Check if the top element is due
	if s.q.Index(0).at.After(s.localNow()) {
		return nil
	}

	return s.q.PopFront()
}

func (s *Scheduler) localNow() time.Time {
	return s.now().In(s.location)
}
