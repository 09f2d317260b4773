package gorm

import "time"

// Forecast is a route's most-recent nightly forecast result, replaced
// wholesale per run.
type Forecast struct {
	RouteID     string         `gorm:"column:route_id;primaryKey"`
	Days        DayForecastMap `gorm:"column:days;type:jsonb"`
	GeneratedAt time.Time      `gorm:"column:generated_at"`
}

func (Forecast) TableName() string { return "forecasts" }
