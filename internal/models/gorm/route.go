package gorm

import (
	"time"

	"commuteforecast/backend/internal/constants"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// Route is a commute route owned by a single user.
type Route struct {
	ID             string               `gorm:"column:id;primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID         string               `gorm:"column:user_id;index;not null"`
	Title          string               `gorm:"column:title"`
	Origin         WaypointColumn       `gorm:"column:origin;type:jsonb"`
	Destination    WaypointColumn       `gorm:"column:destination;type:jsonb"`
	Intermediates  WaypointList         `gorm:"column:intermediates;type:jsonb"`
	TravelMode     constants.TravelMode `gorm:"column:travel_mode;type:travel_mode"`
	StaticDuration int                  `gorm:"column:static_duration"` // minutes
	TrafficDuration *int                `gorm:"column:traffic_duration"`
	DistanceMeters  *int                `gorm:"column:distance_meters"`
	CityKey        string               `gorm:"column:city_key;index;not null"`
	CityLat        float64              `gorm:"column:city_lat"`
	CityLng        float64              `gorm:"column:city_lng"`
	UserActive     bool                 `gorm:"column:user_active;default:true"`
	Geometry       *string              `gorm:"column:geometry"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Route) TableName() string { return "routes" }

// BeforeCreate assigns an ID when the caller left it blank, so inserts don't
// depend on the column's database-side default (Postgres's gen_random_uuid(),
// absent on the sqlite dialect the test suite runs against).
func (r *Route) BeforeCreate(tx *gormlib.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// ForecastAffectingFields names the Route columns whose change invalidates
// an existing Forecast.
var ForecastAffectingFields = map[string]bool{
	"origin":          true,
	"destination":     true,
	"intermediates":   true,
	"travelMode":      true,
	"staticDuration":  true,
	"trafficDuration": true,
}
