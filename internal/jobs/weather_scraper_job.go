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

const forecastDayOffsets = 7

// WeatherScraperJob refreshes every active city's hourly precipitation
// forecast once a day: list the work set, fan out, tally, batch-write.
type WeatherScraperJob struct {
	cities  *repositories.CityIndexRepository
	delays  *repositories.DelayRepository
	weather *providers.WeatherProvider
}

func NewWeatherScraperJob(cities *repositories.CityIndexRepository, delays *repositories.DelayRepository, weather *providers.WeatherProvider) *WeatherScraperJob {
	return &WeatherScraperJob{cities: cities, delays: delays, weather: weather}
}

// Run fetches precipitation for every active city and writes one
// WeatherDay row per (city, day-offset 1..7). A single city's provider
// failure is logged and skipped; it never aborts the run.
func (j *WeatherScraperJob) Run(ctx context.Context) error {
	cities, err := j.cities.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(cities) == 0 {
		logging.Info("weather scraper: no active cities, skipping run")
		return nil
	}

	var mu sync.Mutex
	var rows []gorm.WeatherDay

	g, gctx := errgroup.WithContext(ctx)
	for _, city := range cities {
		city := city
		g.Go(func() error {
			points, err := j.weather.FetchHourlyPrecipitation(gctx, city.CityLat, city.CityLng)
			if err != nil {
				logging.Warn("weather scraper: city fetch failed, skipping", "cityKey", city.CityKey, "err", err)
				return nil
			}
			cityRows := bucketHourlyByDay(city.CityKey, points)
			mu.Lock()
			rows = append(rows, cityRows...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	result, err := storeutil.BatchWrite(ctx, rows, func(ctx context.Context, chunk []gorm.WeatherDay) ([]gorm.WeatherDay, error) {
		var unprocessed []gorm.WeatherDay
		for _, row := range chunk {
			row := row
			if err := j.delays.UpsertWeatherDay(ctx, &row); err != nil {
				unprocessed = append(unprocessed, row)
			}
		}
		return unprocessed, nil
	})
	if err != nil {
		return err
	}
	logging.Info("weather scraper run complete", "citiesScraped", len(cities), "rowsWritten", result.Succeeded, "shortfall", result.Shortfall)
	return nil
}

// RunScheduled anchors the scraper to 23:00 UTC so fresh weather data is
// always in place well before the 00:00 UTC orchestrator run.
func (j *WeatherScraperJob) RunScheduled(ctx context.Context) {
	RunDailyAt(ctx, 23, 0, "weather-scraper", func(ctx context.Context) {
		if err := j.Run(ctx); err != nil {
			logging.Warn("weather scraper run failed", "err", err)
		}
	})
}

// bucketHourlyByDay groups UTC hourly points into one WeatherDay per
// calendar date among the next forecastDayOffsets days, keyed by the
// offset's own UTC date (not the provider's raw date string, so day
// boundaries line up with NextCalendarDate's own UTC clock).
func bucketHourlyByDay(cityKey string, points []providers.HourlyPoint) []gorm.WeatherDay {
	now := time.Now().UTC()
	byDate := make(map[string][]gorm.HourlyPrecip)
	for _, p := range points {
		date := p.Time.Format("2006-01-02")
		byDate[date] = append(byDate[date], gorm.HourlyPrecip{Hour: p.Time.Hour(), PrecipitationMm: p.PrecipitationMm})
	}

	ttl := now.AddDate(0, 0, 8)
	rows := make([]gorm.WeatherDay, 0, forecastDayOffsets)
	for offset := 1; offset <= forecastDayOffsets; offset++ {
		date := now.AddDate(0, 0, offset).Format("2006-01-02")
		hours, ok := byDate[date]
		if !ok {
			continue
		}
		rows = append(rows, gorm.WeatherDay{
			CityKey:      cityKey,
			ForecastDate: date,
			Hourly:       gorm.NewHourlyList(hours),
			TTL:          ttl,
		})
	}
	return rows
}
