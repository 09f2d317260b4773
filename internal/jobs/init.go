package jobs

import (
	"context"

	"commuteforecast/backend/internal/common"
	"commuteforecast/backend/internal/db/repositories"
	"commuteforecast/backend/internal/logging"
	"commuteforecast/backend/internal/providers"
)

// InitializeJobs wires and launches every scheduled background job as its
// own goroutine. Callers pass the parent context that governs server
// shutdown; each job's RunScheduled loop exits when ctx is canceled.
func InitializeJobs(ctx context.Context, routes *repositories.RouteRepository, cities *repositories.CityIndexRepository, delays *repositories.DelayRepository, queue *common.ScheduleQueueService, lock *common.OrchestratorLock, weather *providers.WeatherProvider, events *providers.EventProvider) {
	weatherJob := NewWeatherScraperJob(cities, delays, weather)
	eventJob := NewEventScraperJob(cities, delays, events)
	orchestratorJob := NewOrchestratorJob(routes, queue, lock)
	reaperJob := NewTTLReaperJob(delays)

	go weatherJob.RunScheduled(ctx)
	go eventJob.RunScheduled(ctx)
	go orchestratorJob.RunScheduled(ctx)
	go reaperJob.RunScheduled(ctx)

	logging.Info("background jobs started", "jobs", []string{"weather-scraper", "event-scraper", "orchestrator", "ttl-reaper"})
}
