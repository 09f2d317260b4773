package gorm

import "time"

// CityIndex is the per-city metadata + activeRouteCount record that
// drives scraper city selection.
type CityIndex struct {
	CityKey           string    `gorm:"column:city_key;primaryKey"`
	City              string    `gorm:"column:city"`
	CountryCode       string    `gorm:"column:country_code"`
	CityLat           float64   `gorm:"column:city_lat"`
	CityLng           float64   `gorm:"column:city_lng"`
	ActiveRouteCount  int       `gorm:"column:active_route_count;default:0;check:active_route_count >= 0"`
	FirstRegisteredAt time.Time `gorm:"column:first_registered_at"`
	LastActiveAt      time.Time `gorm:"column:last_active_at"`
}

func (CityIndex) TableName() string { return "city_index" }
