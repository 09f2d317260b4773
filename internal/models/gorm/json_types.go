package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"commuteforecast/backend/internal/constants"
)

// jsonColumn marshals T as a single JSONB column via the database/sql
// Scanner/Valuer interfaces, generalized to any JSON-serializable Go
// value via generics.
type jsonColumn[T any] struct {
	Val T
}

func (j *jsonColumn[T]) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("jsonColumn: cannot scan type %T", value)
		}
	}
	return json.Unmarshal(bytes, &j.Val)
}

func (j jsonColumn[T]) Value() (driver.Value, error) {
	return json.Marshal(j.Val)
}

// MarshalJSON/UnmarshalJSON flatten the column to its underlying value in
// API responses, so a WaypointList serializes as a plain array rather than
// {"Val": [...]}.
func (j jsonColumn[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Val)
}

func (j *jsonColumn[T]) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &j.Val)
}

// Waypoint is a pre-resolved place: coordinates, a display label, and an
// optional geocoder place ID.
type Waypoint struct {
	Lat     float64 `json:"latitude"`
	Lng     float64 `json:"longitude"`
	Label   string  `json:"label"`
	PlaceID *string `json:"placeId,omitempty"`
}

// WaypointColumn is a GORM JSONB column holding a single Waypoint
// (Route.Origin / Route.Destination).
type WaypointColumn struct{ jsonColumn[Waypoint] }

func NewWaypointColumn(w Waypoint) WaypointColumn {
	return WaypointColumn{jsonColumn[Waypoint]{Val: w}}
}

func (w WaypointColumn) Get() Waypoint { return w.Val }

// WaypointList is a GORM JSONB column holding Route.Intermediates.
type WaypointList struct{ jsonColumn[[]Waypoint] }

func NewWaypointList(items []Waypoint) WaypointList {
	return WaypointList{jsonColumn[[]Waypoint]{Val: items}}
}

func (w WaypointList) Items() []Waypoint { return w.Val }

// DayList is a GORM JSONB column holding a set of DayOfWeek codes.
type DayList struct{ jsonColumn[[]constants.DayOfWeek] }

func NewDayList(days []constants.DayOfWeek) DayList {
	return DayList{jsonColumn[[]constants.DayOfWeek]{Val: days}}
}

func (d DayList) Days() []constants.DayOfWeek { return d.Val }

// Contains reports whether day is present in the list.
func (d DayList) Contains(day constants.DayOfWeek) bool {
	for _, v := range d.Val {
		if v == day {
			return true
		}
	}
	return false
}

// HourlyPrecip is one UTC hour's precipitation reading.
type HourlyPrecip struct {
	Hour             int     `json:"hour"`
	PrecipitationMm  float64 `json:"precipitationMm"`
}

// HourlyList is a GORM JSONB column holding 24 HourlyPrecip entries.
type HourlyList struct{ jsonColumn[[]HourlyPrecip] }

func NewHourlyList(hours []HourlyPrecip) HourlyList {
	return HourlyList{jsonColumn[[]HourlyPrecip]{Val: hours}}
}

func (h HourlyList) Hours() []HourlyPrecip { return h.Val }

// EventRecord is one scraped event occurrence.
type EventRecord struct {
	Name      string  `json:"name"`
	Venue     string  `json:"venue"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	StartTime string  `json:"startTime"` // local "HH:MM" on the event's day
	URL       string  `json:"url"`
}

// EventList is a GORM JSONB column holding a day's scraped events.
type EventList struct{ jsonColumn[[]EventRecord] }

func NewEventList(events []EventRecord) EventList {
	return EventList{jsonColumn[[]EventRecord]{Val: events}}
}

func (e EventList) Events() []EventRecord { return e.Val }

// DayForecast is one day's recommendation result, keyed by day name in
// Forecast.Days.
type DayForecast struct {
	ForecastDate    string `json:"forecastDate"`
	Recommendation  string `json:"recommendation"` // ISO-8601 adjustedDepartBy instant
	ExtraBufferMins int    `json:"extraBufferMins"`
	Reasoning       string `json:"reasoning"`
	HasWeatherData  bool   `json:"hasWeatherData"`
	HasEventData    bool   `json:"hasEventData"`
}

// DayForecastMap is a GORM JSONB column mapping day-name -> DayForecast.
type DayForecastMap struct {
	jsonColumn[map[constants.DayOfWeek]DayForecast]
}

func NewDayForecastMap(days map[constants.DayOfWeek]DayForecast) DayForecastMap {
	return DayForecastMap{jsonColumn[map[constants.DayOfWeek]DayForecast]{Val: days}}
}

func (m DayForecastMap) Days() map[constants.DayOfWeek]DayForecast { return m.Val }
