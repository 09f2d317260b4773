package jobs

import (
	"context"
	"time"

	"commuteforecast/backend/internal/logging"
)

// RunDailyAt runs fn once immediately, then every 24 hours aligned to
// hour:minute UTC, until ctx is canceled. Unlike a plain time.NewTicker(24h)
// loop, the first tick always lands on the next hour:minute boundary rather
// than 24h after whenever the process happened to start — so the scrapers
// and orchestrator wake at the same wall-clock instant every night
// regardless of deploy time.
func RunDailyAt(ctx context.Context, hour, minute int, label string, fn func(ctx context.Context)) {
	fn(ctx)

	timer := time.NewTimer(untilNext(hour, minute))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			fn(ctx)
			timer.Reset(untilNext(hour, minute))
		case <-ctx.Done():
			logging.Info("daily job shutting down", "job", label)
			return
		}
	}
}

// untilNext returns the duration from now (UTC) until the next occurrence
// of hour:minute UTC, always strictly positive.
func untilNext(hour, minute int) time.Duration {
	now := time.Now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
