package outreach

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is the work run on each tick.
type Job func(ctx context.Context) error

// Scheduler runs a job once a day at a fixed local time.
type Scheduler struct {
	hour   int
	minute int
	job    Job

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewScheduler returns a Scheduler running job daily at hour:minute.
func NewScheduler(hour, minute int, job Job) *Scheduler {
	return &Scheduler{
		hour:   hour,
		minute: minute,
		job:    job,
		now:    time.Now,
		after:  time.After,
	}
}

// NextRun returns the first hour:minute strictly after now, in now's
// location.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks until ctx is cancelled, running the job at every scheduled
// time. Job errors are logged and do not stop the schedule. Runs do not
// overlap: a slow job delays the next check.
func (s *Scheduler) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		next := NextRun(s.now(), s.hour, s.minute)
		zap.L().Info("scheduler: next outreach run", zap.Time("at", next))

		select {
		case <-ctx.Done():
			return nil
		case <-s.after(next.Sub(s.now())):
		}

		if err := s.job(ctx); err != nil {
			zap.L().Error("scheduler: outreach run failed", zap.Error(err))
		}
	}
	return nil
}
