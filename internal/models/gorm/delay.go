package gorm

import "time"

// WeatherDay holds one city's 24-hour precipitation forecast for one day.
type WeatherDay struct {
	CityKey      string     `gorm:"column:city_key;primaryKey"`
	ForecastDate string     `gorm:"column:forecast_date;primaryKey"` // "YYYY-MM-DD"
	Hourly       HourlyList `gorm:"column:hourly;type:jsonb"`
	TTL          time.Time  `gorm:"column:ttl"`
}

func (WeatherDay) TableName() string { return "weather_days" }

// EventDay holds one city's events bucketed into a local calendar day.
type EventDay struct {
	CityKey      string    `gorm:"column:city_key;primaryKey"`
	ForecastDate string    `gorm:"column:forecast_date;primaryKey"`
	Events       EventList `gorm:"column:events;type:jsonb"`
	TTL          time.Time `gorm:"column:ttl"`
}

func (EventDay) TableName() string { return "event_days" }
