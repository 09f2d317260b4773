package workers

import (
	"context"
	"os"
	"strconv"

	"commuteforecast/backend/internal/common"
	"commuteforecast/backend/internal/db/repositories"
	"commuteforecast/backend/internal/logging"
	"commuteforecast/backend/internal/metrics"
)

const defaultWorkerConcurrency = 5

// InitializeWorkers launches the forecast worker pool as a background
// goroutine. Pool size comes from WORKER_CONCURRENCY, falling back to
// defaultWorkerConcurrency when unset or invalid.
func InitializeWorkers(ctx context.Context, routes *repositories.RouteRepository, delays *repositories.DelayRepository, queue *common.ScheduleQueueService, metricsReg *metrics.MetricsRegistry) {
	concurrency := defaultWorkerConcurrency
	if raw := os.Getenv("WORKER_CONCURRENCY"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			concurrency = parsed
		} else {
			logging.Warn("invalid WORKER_CONCURRENCY, using default", "value", raw, "default", defaultWorkerConcurrency)
		}
	}

	worker := NewForecastWorker("forecast-worker", routes, delays, queue, metricsReg)
	go func() {
		if err := worker.Start(ctx, concurrency); err != nil {
			logging.Warn("forecast worker pool exited with error", "error", err)
		}
	}()

	logging.Info("forecast worker pool started", "concurrency", concurrency)
}
