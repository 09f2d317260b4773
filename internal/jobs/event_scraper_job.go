package jobs

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"commuteforecast/backend/internal/db/repositories"
	"commuteforecast/backend/internal/logging"
	"commuteforecast/backend/internal/models/gorm"
	"commuteforecast/backend/internal/providers"
	"commuteforecast/backend/internal/storeutil"
)

// EventScraperJob refreshes every active city's upcoming-events list once
// a day, the event-side twin of WeatherScraperJob sharing the same
// list-fan out-batch-write shape.
type EventScraperJob struct {
	cities *repositories.CityIndexRepository
	delays *repositories.DelayRepository
	events *providers.EventProvider
}

func NewEventScraperJob(cities *repositories.CityIndexRepository, delays *repositories.DelayRepository, events *providers.EventProvider) *EventScraperJob {
	return &EventScraperJob{cities: cities, delays: delays, events: events}
}

// Run fetches events for every active city and writes one EventDay row per
// (city, calendar date) bucket among the next 7 days. A single city's
// provider failure is logged and skipped.
func (j *EventScraperJob) Run(ctx context.Context) error {
	cities, err := j.cities.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(cities) == 0 {
		logging.Info("event scraper: no active cities, skipping run")
		return nil
	}

	var mu sync.Mutex
	var rows []gorm.EventDay

	g, gctx := errgroup.WithContext(ctx)
	for _, city := range cities {
		city := city
		g.Go(func() error {
			events, err := j.events.FetchEvents(gctx, city.CityLat, city.CityLng)
			if err != nil {
				logging.Warn("event scraper: city fetch failed, skipping", "cityKey", city.CityKey, "err", err)
				return nil
			}
			cityRows := bucketEventsByDay(city.CityKey, events)
			mu.Lock()
			rows = append(rows, cityRows...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	result, err := storeutil.BatchWrite(ctx, rows, func(ctx context.Context, chunk []gorm.EventDay) ([]gorm.EventDay, error) {
		var unprocessed []gorm.EventDay
		for _, row := range chunk {
			row := row
			if err := j.delays.UpsertEventDay(ctx, &row); err != nil {
				unprocessed = append(unprocessed, row)
			}
		}
		return unprocessed, nil
	})
	if err != nil {
		return err
	}
	logging.Info("event scraper run complete", "citiesScraped", len(cities), "rowsWritten", result.Succeeded, "shortfall", result.Shortfall)
	return nil
}

// RunScheduled anchors the scraper to 23:00 UTC, the same alignment as
// WeatherScraperJob so both caches are fresh before the nightly orchestrator
// run.
func (j *EventScraperJob) RunScheduled(ctx context.Context) {
	RunDailyAt(ctx, 23, 0, "event-scraper", func(ctx context.Context) {
		if err := j.Run(ctx); err != nil {
			logging.Warn("event scraper run failed", "err", err)
		}
	})
}

// bucketEventsByDay groups events into one EventDay per calendar date of
// each event's start time, read in the offset the provider reported it
// with (the event's local time), among the next forecastDayOffsets days.
func bucketEventsByDay(cityKey string, events []providers.Event) []gorm.EventDay {
	now := time.Now().UTC()
	byDate := make(map[string][]gorm.EventRecord)
	for _, e := range events {
		date := e.StartTime.Format("2006-01-02")
		byDate[date] = append(byDate[date], gorm.EventRecord{
			Name:      e.Name,
			Venue:     e.Venue,
			Lat:       e.Lat,
			Lng:       e.Lng,
			StartTime: e.StartTime.Format("15:04"),
			URL:       e.URL,
		})
	}

	ttl := now.AddDate(0, 0, 8)
	rows := make([]gorm.EventDay, 0, forecastDayOffsets)
	for offset := 1; offset <= forecastDayOffsets; offset++ {
		date := now.AddDate(0, 0, offset).Format("2006-01-02")
		dayEvents, ok := byDate[date]
		if !ok {
			continue
		}
		rows = append(rows, gorm.EventDay{
			CityKey:      cityKey,
			ForecastDate: date,
			Events:       gorm.NewEventList(dayEvents),
			TTL:          ttl,
		})
	}
	return rows
}
