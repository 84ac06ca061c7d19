package worker

import (
	"context"
	"log/slog"
	"time"

	"substack/internal/services"
)

// ReminderRunner runs one reminder pass at the given instant.
type ReminderRunner interface {
	ProcessDueReminders(ctx context.Context, now time.Time) (services.ReminderRunStats, error)
}

// Scheduler runs the reminder job once at startup and then on every tick
// until its context is cancelled.
type Scheduler struct {
	runner   ReminderRunner
	interval time.Duration
	clock    services.Clock
}

func NewScheduler(runner ReminderRunner, interval time.Duration, clock services.Clock) *Scheduler {
	if clock == nil {
		clock = services.SystemClock
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{runner: runner, interval: interval, clock: clock}
}

// Run blocks until ctx is done. It always returns nil after a clean shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Starting reminder scheduler", "interval", s.interval)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reminder scheduler stopped")
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	stats, err := s.runner.ProcessDueReminders(ctx, s.clock())
	if err != nil {
		slog.ErrorContext(ctx, "Reminder run failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "Reminder run finished",
		"reminded", stats.Reminded,
		"failed", stats.Failed,
		"duration", time.Since(start))
}
