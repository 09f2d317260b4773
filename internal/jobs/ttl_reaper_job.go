package jobs

import (
	"context"
	"time"

	"commuteforecast/backend/internal/db/repositories"
	"commuteforecast/backend/internal/logging"
)

// TTLReaperJob deletes expired WeatherDay/EventDay rows. Postgres has no
// native per-row TTL, so expiry is enforced by this periodic sweep instead.
type TTLReaperJob struct {
	delays *repositories.DelayRepository
}

func NewTTLReaperJob(delays *repositories.DelayRepository) *TTLReaperJob {
	return &TTLReaperJob{delays: delays}
}

// Run deletes every weather/event row whose ttl has passed.
func (j *TTLReaperJob) Run(ctx context.Context) error {
	weatherDeleted, err := j.delays.DeleteExpiredWeatherDays(ctx)
	if err != nil {
		return err
	}
	eventDeleted, err := j.delays.DeleteExpiredEventDays(ctx)
	if err != nil {
		return err
	}
	logging.Info("ttl reaper run complete", "weatherRowsDeleted", weatherDeleted, "eventRowsDeleted", eventDeleted)
	return nil
}

// RunScheduled runs the reaper once immediately, then hourly.
func (j *TTLReaperJob) RunScheduled(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	if err := j.Run(ctx); err != nil {
		logging.Warn("ttl reaper initial run failed", "err", err)
	}

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				logging.Warn("ttl reaper run failed", "err", err)
			}
		case <-ctx.Done():
			logging.Info("ttl reaper shutting down")
			return
		}
	}
}
