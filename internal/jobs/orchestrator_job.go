package jobs

import (
	"context"
	"time"

	"commuteforecast/backend/internal/common"
	"commuteforecast/backend/internal/db/repositories"
	"commuteforecast/backend/internal/logging"
	"commuteforecast/backend/internal/storeutil"
)

const (
	scheduleStreamName  = "forecast:schedule"
	scheduleChunkSize   = 1000
	publishSubBatchSize = 10
)

// OrchestratorJob fans every active schedule out to the forecast worker
// pool once a night: acquire the idempotency lock, page through schedules,
// publish them as bounded chunks, release the lock.
type OrchestratorJob struct {
	routes *repositories.RouteRepository
	queue  *common.ScheduleQueueService
	lock   *common.OrchestratorLock
}

func NewOrchestratorJob(routes *repositories.RouteRepository, queue *common.ScheduleQueueService, lock *common.OrchestratorLock) *OrchestratorJob {
	return &OrchestratorJob{routes: routes, queue: queue, lock: lock}
}

// Run acquires the idempotency lock, publishes every active schedule as
// 1000-route chunks, and releases the lock. A failed acquire (another run
// still within its window) is not an error — it is the expected outcome
// when a previous run is still in flight.
func (j *OrchestratorJob) Run(ctx context.Context) error {
	now := time.Now().UTC()
	result, err := j.lock.Acquire(ctx, now)
	if err != nil {
		return err
	}
	if result == common.NotAcquired {
		logging.Info("orchestrator: lock held by another run, skipping")
		return nil
	}
	if result == common.AcquiredStale {
		logging.Warn("orchestrator: recovered a stale lock from a previous run")
	}
	defer func() {
		if err := j.lock.Release(ctx); err != nil {
			logging.Warn("orchestrator: failed to release lock", "err", err)
		}
	}()

	totalRoutes := 0
	totalChunks := 0
	cursor := ""
	var pendingChunks []common.ScheduleChunk

	for {
		scheduled, nextCursor, err := j.routes.ListAllSchedules(ctx, cursor)
		if err != nil {
			return err
		}
		if len(scheduled) == 0 && nextCursor == "" {
			break
		}

		for _, page := range storeutil.Chunk(scheduled, scheduleChunkSize) {
			pendingChunks = append(pendingChunks, common.ScheduleChunk{
				Routes:     page,
				ChunkIndex: totalChunks,
				ChunkSize:  len(page),
			})
			totalChunks++
			totalRoutes += len(page)
		}

		cursor = nextCursor
		if cursor == "" {
			break
		}
	}

	for _, subBatch := range storeutil.Chunk(pendingChunks, publishSubBatchSize) {
		if err := j.queue.EnqueueChunkBatch(ctx, scheduleStreamName, subBatch); err != nil {
			return err
		}
	}

	logging.Info("orchestrator run complete", "routesPublished", totalRoutes, "chunksPublished", totalChunks)
	return nil
}

// RunScheduled triggers the orchestrator nightly at 00:00 UTC.
func (j *OrchestratorJob) RunScheduled(ctx context.Context) {
	RunDailyAt(ctx, 0, 0, "orchestrator", func(ctx context.Context) {
		if err := j.Run(ctx); err != nil {
			logging.Warn("orchestrator run failed", "err", err)
		}
	})
}
