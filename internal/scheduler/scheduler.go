// Package scheduler runs the periodic cleanup of resolved reminders.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// DefaultInterval between sweeps.
const DefaultInterval = time.Minute

type Sweeper interface {
	Sweep(ctx context.Context)
}

// Start schedules sw.Sweep every interval. A run that overlaps the previous
// one is skipped. The caller shuts the scheduler down.
func Start(ctx context.Context, sw Sweeper, interval time.Duration, logger zerolog.Logger) (gocron.Scheduler, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			sw.Sweep(ctx)
		}),
		gocron.WithName("sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	s.Start()
	logger.Debug().Dur("interval", interval).Msg("sweeper started")
	return s, nil
}
