package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"classpublisher/internal/infra"
)

type timeOfDay struct {
	hour   int
	minute int
}

// Scheduler fires a job at fixed wall-clock times each day in a
// configured timezone. It is the thin external driver of the publish
// flow; retries and overlap protection live in the job itself.
type Scheduler struct {
	times  []timeOfDay
	loc    *time.Location
	job    func(context.Context)
	logger infra.Logger
}

// New parses the "HH:MM" schedule times and wires the job.
func New(cfg infra.ScheduleConfig, logger infra.Logger, job func(context.Context)) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("scheduler: job is required")
	}
	times := make([]timeOfDay, 0, len(cfg.Times))
	for _, raw := range cfg.Times {
		var t timeOfDay
		if _, err := fmt.Sscanf(raw, "%d:%d", &t.hour, &t.minute); err != nil {
			return nil, fmt.Errorf("scheduler: invalid time %q: %w", raw, err)
		}
		if t.hour < 0 || t.hour > 23 || t.minute < 0 || t.minute > 59 {
			return nil, fmt.Errorf("scheduler: time %q out of range", raw)
		}
		times = append(times, t)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("scheduler: at least one time is required")
	}
	sort.Slice(times, func(i, j int) bool {
		if times[i].hour != times[j].hour {
			return times[i].hour < times[j].hour
		}
		return times[i].minute < times[j].minute
	})
	return &Scheduler{
		times:  times,
		loc:    cfg.Location(),
		job:    job,
		logger: logger,
	}, nil
}

// Start runs the schedule loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		for {
			next := s.nextOccurrence(time.Now())
			s.logger.Info().Time("next_run", next).Msg("scheduler: sleeping until next run")

			timer := time.NewTimer(time.Until(next))
			select {
			case <-timer.C:
				s.logger.Info().Msg("scheduler: firing scheduled publish")
				s.job(ctx)
			case <-ctx.Done():
				timer.Stop()
				s.logger.Info().Msg("scheduler: stopped")
				return
			}
		}
	}()
}

// nextOccurrence returns the first configured time strictly after now.
func (s *Scheduler) nextOccurrence(now time.Time) time.Time {
	local := now.In(s.loc)
	for _, t := range s.times {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), t.hour, t.minute, 0, 0, s.loc)
		if candidate.After(local) {
			return candidate
		}
	}
	first := s.times[0]
	tomorrow := local.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first.hour, first.minute, 0, 0, s.loc)
}
