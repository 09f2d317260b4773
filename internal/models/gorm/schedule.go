package gorm

import "time"

// Schedule is a route's nightly-pipeline configuration. A schedule row with
// Active = true (regardless of UserActive) is the nightly-pipeline
// activation signal.
type Schedule struct {
	RouteID    string    `gorm:"column:route_id;primaryKey"`
	ArriveBy   string    `gorm:"column:arrive_by"` // local "HH:MM"
	Timezone   string    `gorm:"column:timezone"`  // IANA zone name
	DaysOfWeek DayList   `gorm:"column:days_of_week;type:jsonb"`
	TTL        time.Time `gorm:"column:ttl"`
	Active     bool      `gorm:"column:active;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Schedule) TableName() string { return "schedules" }

// ScheduledRoute is the projection published to the worker queue by the
// orchestrator.
type ScheduledRoute struct {
	UserID     string    `json:"userId"`
	RouteID    string    `json:"routeId"`
	ArriveBy   string    `json:"arriveBy"`
	Timezone   string    `json:"timezone"`
	DaysOfWeek []string  `json:"daysOfWeek"`
}
