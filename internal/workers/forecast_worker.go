package workers

import (
	"context"
	"fmt"
	"time"

	"commuteforecast/backend/internal/common"
	"commuteforecast/backend/internal/constants"
	"commuteforecast/backend/internal/db/repositories"
	"commuteforecast/backend/internal/forecast"
	"commuteforecast/backend/internal/logging"
	"commuteforecast/backend/internal/metrics"
	"commuteforecast/backend/internal/models/gorm"
	"commuteforecast/backend/internal/storeutil"
)

const (
	scheduleStreamName = "forecast:schedule"
	scheduleGroupName  = "forecast-workers"
	deadLetterStream   = "forecast:deadletter"
	readBlockTime      = 5 * time.Second
	staleClaimInterval = 2 * time.Minute
	staleMinIdle       = 5 * time.Minute
	maxReceiveCount    = 5
)

// ForecastWorker consumes schedule chunks from the queue the orchestrator
// job fills and turns each route into a Forecast row: resolve the route
// and its weather/event inputs, run the recommendation engine per
// scheduled day, and upsert the result.
type ForecastWorker struct {
	workerID   string
	routes     *repositories.RouteRepository
	delays     *repositories.DelayRepository
	queue      *common.ScheduleQueueService
	metricsReg *metrics.MetricsRegistry
}

func NewForecastWorker(workerID string, routes *repositories.RouteRepository, delays *repositories.DelayRepository, queue *common.ScheduleQueueService, metricsReg *metrics.MetricsRegistry) *ForecastWorker {
	return &ForecastWorker{workerID: workerID, routes: routes, delays: delays, queue: queue, metricsReg: metricsReg}
}

// Start launches numWorkers consumer goroutines plus a single stale-message
// reclaimer, and blocks until ctx is canceled.
func (w *ForecastWorker) Start(ctx context.Context, numWorkers int) error {
	if err := w.queue.CreateConsumerGroup(ctx, scheduleStreamName, scheduleGroupName); err != nil {
		return fmt.Errorf("failed to create forecast consumer group: %w", err)
	}

	done := make(chan struct{}, numWorkers+1)
	for i := 0; i < numWorkers; i++ {
		consumerName := fmt.Sprintf("%s-%d", w.workerID, i)
		go func() {
			w.consumeLoop(ctx, consumerName)
			done <- struct{}{}
		}()
	}
	go func() {
		w.claimStaleLoop(ctx)
		done <- struct{}{}
	}()

	for i := 0; i < numWorkers+1; i++ {
		<-done
	}
	logging.Info("forecast worker pool stopped", "workerID", w.workerID)
	return nil
}

func (w *ForecastWorker) consumeLoop(ctx context.Context, consumerName string) {
	logging.Info("forecast worker started", "consumer", consumerName)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		chunk, messageID, err := w.queue.ReadChunk(ctx, scheduleStreamName, scheduleGroupName, consumerName, readBlockTime)
		if err != nil {
			logging.Warn("forecast worker: read failed", "consumer", consumerName, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if chunk == nil {
			continue
		}

		w.processChunk(ctx, chunk, messageID)
	}
}

func (w *ForecastWorker) claimStaleLoop(ctx context.Context) {
	ticker := time.NewTicker(staleClaimInterval)
	defer ticker.Stop()
	claimerName := fmt.Sprintf("%s-claimer", w.workerID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			chunks, messageIDs, err := w.queue.ClaimStale(ctx, scheduleStreamName, scheduleGroupName, claimerName, staleMinIdle)
			if err != nil {
				logging.Warn("forecast worker: claim stale failed", "error", err)
				continue
			}
			for i, chunk := range chunks {
				w.processChunk(ctx, chunk, messageIDs[i])
			}
		}
	}
}

// processChunk runs the full per-chunk pipeline and acks the message on
// success. On any failure the message is left unacked for redelivery
// until its receive count reaches maxReceiveCount; then it is republished
// to the dead-letter stream and acked, so a permanently broken chunk
// cannot wedge the consumer group forever.
func (w *ForecastWorker) processChunk(ctx context.Context, chunk *common.ScheduleChunk, messageID string) {
	if err := w.forecastChunk(ctx, chunk); err != nil {
		receiveCount, countErr := w.queue.ReceiveCount(ctx, scheduleStreamName, scheduleGroupName, messageID)
		if countErr == nil && receiveCount >= maxReceiveCount {
			w.deadLetter(ctx, chunk, err)
		} else {
			logging.Warn("forecast worker: chunk failed, will retry", "chunkIndex", chunk.ChunkIndex, "error", err)
			return
		}
	}
	if err := w.queue.Ack(ctx, scheduleStreamName, scheduleGroupName, messageID); err != nil {
		logging.Warn("forecast worker: ack failed", "messageID", messageID, "error", err)
	}
}

func (w *ForecastWorker) deadLetter(ctx context.Context, chunk *common.ScheduleChunk, cause error) {
	logging.Warn("forecast worker: routing chunk to dead-letter stream", "chunkIndex", chunk.ChunkIndex, "cause", cause)
	if err := w.queue.EnqueueChunk(ctx, deadLetterStream, *chunk); err != nil {
		logging.Warn("forecast worker: failed to dead-letter chunk", "chunkIndex", chunk.ChunkIndex, "error", err)
	}
}

// forecastChunk implements the six-step per-chunk algorithm: batch-load
// routes, resolve the distinct city/date work set, batch-load weather and
// events for it, compute one Forecast per route, and batch-upsert the
// results. A single route's failure is logged and skipped — it never
// aborts the rest of the chunk.
func (w *ForecastWorker) forecastChunk(ctx context.Context, chunk *common.ScheduleChunk) error {
	if len(chunk.Routes) == 0 {
		return nil
	}

	routeIDs := make([]string, 0, len(chunk.Routes))
	for _, sr := range chunk.Routes {
		routeIDs = append(routeIDs, sr.RouteID)
	}
	routesByID, err := storeutil.BatchGet(ctx, routeIDs, w.routes.BatchGetByIDs)
	if err != nil {
		return fmt.Errorf("failed to batch-load routes: %w", err)
	}

	today := time.Now().UTC()
	type routeDay struct {
		scheduled gorm.ScheduledRoute
		route     gorm.Route
		dayName   constants.DayOfWeek
		date      string
	}
	var work []routeDay
	dateKeySet := make(map[repositories.CityDateKey]bool)

	for _, sr := range chunk.Routes {
		route, ok := routesByID[sr.RouteID]
		if !ok {
			logging.Warn("forecast worker: scheduled route not found, skipping", "routeID", sr.RouteID)
			w.metricsReg.RoutesSkippedTotal.Inc()
			continue
		}
		for _, dayName := range sr.DaysOfWeek {
			date, ok := forecast.NextCalendarDate(constants.DayOfWeek(dayName), today)
			if !ok {
				logging.Warn("forecast worker: invalid day name, skipping", "routeID", sr.RouteID, "day", dayName)
				continue
			}
			dateStr := date.Format("2006-01-02")
			work = append(work, routeDay{scheduled: sr, route: route, dayName: constants.DayOfWeek(dayName), date: dateStr})
			dateKeySet[repositories.CityDateKey{CityKey: route.CityKey, ForecastDate: dateStr}] = true
		}
	}
	if len(work) == 0 {
		return nil
	}

	dateKeys := make([]repositories.CityDateKey, 0, len(dateKeySet))
	for k := range dateKeySet {
		dateKeys = append(dateKeys, k)
	}

	weatherDays, err := storeutil.BatchGet(ctx, dateKeys, w.delays.BatchGetWeatherDays)
	if err != nil {
		return fmt.Errorf("failed to batch-load weather days: %w", err)
	}
	eventDays, err := storeutil.BatchGet(ctx, dateKeys, w.delays.BatchGetEventDays)
	if err != nil {
		return fmt.Errorf("failed to batch-load event days: %w", err)
	}

	byRoute := make(map[string]map[constants.DayOfWeek]gorm.DayForecast)
	for _, wk := range work {
		dayForecast, err := w.forecastOneRouteDay(wk.route, wk.scheduled, wk.date, weatherDays, eventDays)
		if err != nil {
			logging.Warn("forecast worker: route-day forecast failed, skipping", "routeID", wk.route.ID, "date", wk.date, "error", err)
			w.metricsReg.RoutesSkippedTotal.Inc()
			continue
		}

		if byRoute[wk.route.ID] == nil {
			byRoute[wk.route.ID] = make(map[constants.DayOfWeek]gorm.DayForecast)
		}
		byRoute[wk.route.ID][wk.dayName] = dayForecast
	}

	forecasts := make([]gorm.Forecast, 0, len(byRoute))
	now := time.Now().UTC()
	for routeID, days := range byRoute {
		forecasts = append(forecasts, gorm.Forecast{
			RouteID:     routeID,
			Days:        gorm.NewDayForecastMap(days),
			GeneratedAt: now,
		})
	}

	result, err := storeutil.BatchWrite(ctx, forecasts, w.routes.UpsertForecastsChunk)
	if err != nil {
		return fmt.Errorf("failed to batch-upsert forecasts: %w", err)
	}
	w.metricsReg.ForecastsGeneratedTotal.Add(float64(result.Succeeded))
	if result.Shortfall > 0 {
		logging.Warn("forecast worker: forecast upsert shortfall", "shortfall", result.Shortfall)
	}
	return nil
}

func (w *ForecastWorker) forecastOneRouteDay(
	route gorm.Route,
	scheduled gorm.ScheduledRoute,
	date string,
	weatherDays map[repositories.CityDateKey]gorm.WeatherDay,
	eventDays map[repositories.CityDateKey]gorm.EventDay,
) (gorm.DayForecast, error) {
	arriveByUTC, err := forecast.LocalTimeToUTC(scheduled.ArriveBy, scheduled.Timezone, date)
	if err != nil {
		return gorm.DayForecast{}, fmt.Errorf("failed to convert arriveBy to UTC: %w", err)
	}

	key := repositories.CityDateKey{CityKey: route.CityKey, ForecastDate: date}

	var hourly []forecast.HourlyReading
	hasWeather := false
	if weatherDay, ok := weatherDays[key]; ok {
		hasWeather = true
		for _, h := range weatherDay.Hourly.Hours() {
			hourly = append(hourly, forecast.HourlyReading{Hour: h.Hour, PrecipitationMm: h.PrecipitationMm})
		}
	}

	var corridorEvents []forecast.CorridorEvent
	hasEvents := false
	if eventDay, ok := eventDays[key]; ok {
		hasEvents = true
		windowed := forecast.FilterCommuteWindowEvents(eventDay.Events.Events(), scheduled.ArriveBy, scheduled.Timezone)
		origin := route.Origin.Get()
		dest := route.Destination.Get()
		onCorridor := forecast.FilterCorridorEvents(windowed, origin.Lat, origin.Lng, dest.Lat, dest.Lng)
		for _, ev := range onCorridor {
			corridorEvents = append(corridorEvents, forecast.CorridorEvent{Name: ev.Name})
		}
	}

	staticDuration := route.StaticDuration
	output, err := forecast.Recommend(forecast.RecommendInput{
		Hourly:         hourly,
		CorridorEvents: corridorEvents,
		ArriveByUTC:    arriveByUTC,
		StaticDuration: &staticDuration,
		ForecastDate:   date,
	})
	if err != nil {
		return gorm.DayForecast{}, err
	}

	return gorm.DayForecast{
		ForecastDate:    date,
		Recommendation:  output.AdjustedDepartBy.Format(time.RFC3339),
		ExtraBufferMins: output.ExtraBufferMins,
		Reasoning:       output.Reasoning,
		HasWeatherData:  hasWeather,
		HasEventData:    hasEvents,
	}, nil
}
