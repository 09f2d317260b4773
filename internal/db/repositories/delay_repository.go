package repositories

import (
	"context"
	"fmt"

	"commuteforecast/backend/internal/models/gorm"

	gormlib "gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DelayRepository handles the scraped weather/event cache tables
// (WeatherDay, EventDay), named for the commute-delay signals they feed
// into Recommend. Grounded on the same clause.OnConflict upsert shape as
// RouteRepository's forecast upsert — both are "replace wholesale per
// scrape run" tables.
type DelayRepository struct {
	db *gormlib.DB
}

func NewDelayRepository(db *gormlib.DB) *DelayRepository {
	return &DelayRepository{db: db}
}

// UpsertWeatherDay replaces a city's hourly precipitation forecast for one
// calendar date.
func (r *DelayRepository) UpsertWeatherDay(ctx context.Context, day *gorm.WeatherDay) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "city_key"}, {Name: "forecast_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"hourly", "ttl"}),
		}).
		Create(day).Error
}

// GetWeatherDay fetches a city's weather forecast for one date, returning
// (nil, nil) when the scraper hasn't populated it yet.
func (r *DelayRepository) GetWeatherDay(ctx context.Context, cityKey, forecastDate string) (*gorm.WeatherDay, error) {
	var day gorm.WeatherDay
	err := r.db.WithContext(ctx).
		Where("city_key = ? AND forecast_date = ?", cityKey, forecastDate).
		First(&day).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch weather day: %w", err)
	}
	return &day, nil
}

// UpsertEventDay replaces a city's events bucketed into one local calendar
// day.
func (r *DelayRepository) UpsertEventDay(ctx context.Context, day *gorm.EventDay) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "city_key"}, {Name: "forecast_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"events", "ttl"}),
		}).
		Create(day).Error
}

// GetEventDay fetches a city's events for one date, returning (nil, nil)
// when absent.
func (r *DelayRepository) GetEventDay(ctx context.Context, cityKey, forecastDate string) (*gorm.EventDay, error) {
	var day gorm.EventDay
	err := r.db.WithContext(ctx).
		Where("city_key = ? AND forecast_date = ?", cityKey, forecastDate).
		First(&day).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch event day: %w", err)
	}
	return &day, nil
}

// CityDateKey identifies a single city's weather/event row for one
// calendar date, the composite key storeutil.BatchGet needs for
// WeatherDay/EventDay lookups.
type CityDateKey struct {
	CityKey      string
	ForecastDate string
}

// BatchGetWeatherDays fetches every (cityKey, date) pair in keys via a
// single query, matching storeutil.GetChunkFunc's shape.
func (r *DelayRepository) BatchGetWeatherDays(ctx context.Context, keys []CityDateKey) (map[CityDateKey]gorm.WeatherDay, []CityDateKey, error) {
	if len(keys) == 0 {
		return map[CityDateKey]gorm.WeatherDay{}, nil, nil
	}
	cityKeys, dates := splitCityDateKeys(keys)
	var rows []gorm.WeatherDay
	err := r.db.WithContext(ctx).
		Where("city_key IN ? AND forecast_date IN ?", cityKeys, dates).
		Find(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to batch-fetch weather days: %w", err)
	}
	found := make(map[CityDateKey]gorm.WeatherDay, len(rows))
	for _, row := range rows {
		found[CityDateKey{CityKey: row.CityKey, ForecastDate: row.ForecastDate}] = row
	}
	return found, nil, nil
}

// BatchGetEventDays fetches every (cityKey, date) pair in keys via a single
// query, matching storeutil.GetChunkFunc's shape.
func (r *DelayRepository) BatchGetEventDays(ctx context.Context, keys []CityDateKey) (map[CityDateKey]gorm.EventDay, []CityDateKey, error) {
	if len(keys) == 0 {
		return map[CityDateKey]gorm.EventDay{}, nil, nil
	}
	cityKeys, dates := splitCityDateKeys(keys)
	var rows []gorm.EventDay
	err := r.db.WithContext(ctx).
		Where("city_key IN ? AND forecast_date IN ?", cityKeys, dates).
		Find(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to batch-fetch event days: %w", err)
	}
	found := make(map[CityDateKey]gorm.EventDay, len(rows))
	for _, row := range rows {
		found[CityDateKey{CityKey: row.CityKey, ForecastDate: row.ForecastDate}] = row
	}
	return found, nil, nil
}

func splitCityDateKeys(keys []CityDateKey) (cityKeys []string, dates []string) {
	seenCity := make(map[string]bool, len(keys))
	seenDate := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seenCity[k.CityKey] {
			seenCity[k.CityKey] = true
			cityKeys = append(cityKeys, k.CityKey)
		}
		if !seenDate[k.ForecastDate] {
			seenDate[k.ForecastDate] = true
			dates = append(dates, k.ForecastDate)
		}
	}
	return cityKeys, dates
}

// DeleteExpiredWeatherDays removes weather rows past their TTL, called by
// the TTL reaper job.
func (r *DelayRepository) DeleteExpiredWeatherDays(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("ttl < NOW()").Delete(&gorm.WeatherDay{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired weather days: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteExpiredEventDays removes event rows past their TTL.
func (r *DelayRepository) DeleteExpiredEventDays(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("ttl < NOW()").Delete(&gorm.EventDay{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired event days: %w", result.Error)
	}
	return result.RowsAffected, nil
}
