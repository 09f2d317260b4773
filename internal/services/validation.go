package services

import (
	"fmt"
	"regexp"

	"commuteforecast/backend/internal/constants"
	"commuteforecast/backend/internal/models/gorm"
	"commuteforecast/backend/internal/storeutil"
)

// ValidationError is a field-specific 400 response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const maxTitleLen = 48

var (
	arriveByPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	// ianaZonePattern is a loose shape check ("Area/Location" or
	// "Area/Location_With_Underscores"); the authoritative check is
	// time.LoadLocation at conversion time (internal/forecast/localtime.go).
	ianaZonePattern = regexp.MustCompile(`^[A-Za-z_]+(/[A-Za-z_]+)+$`)
)

// RouteInput is the caller-supplied fields for Create/Update, validated in
// full before anything is written.
type RouteInput struct {
	Title           string
	Origin          gorm.Waypoint
	Destination     gorm.Waypoint
	Intermediates   []gorm.Waypoint
	TravelMode      constants.TravelMode
	StaticDuration  string // "720s"-style or plain integer seconds, via storeutil.ParseDurationSeconds
	TrafficDuration *string
	DistanceMeters  *int
	CityKey         string
	CityLat         float64
	CityLng         float64
	ArriveBy        string
	Timezone        string
	DaysOfWeek      []constants.DayOfWeek
}

// ValidateRouteInput checks every field a route create/update requires, in
// the order a caller would most usefully see them fail.
func ValidateRouteInput(input RouteInput) error {
	if len(input.Title) == 0 || len(input.Title) > maxTitleLen {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("must be 1-%d characters", maxTitleLen)}
	}
	if err := validateWaypoint("origin", input.Origin); err != nil {
		return err
	}
	if err := validateWaypoint("destination", input.Destination); err != nil {
		return err
	}
	for i, wp := range input.Intermediates {
		if err := validateWaypoint(fmt.Sprintf("intermediates[%d]", i), wp); err != nil {
			return err
		}
	}
	if !input.TravelMode.Valid() {
		return &ValidationError{Field: "travelMode", Message: "must be one of DRIVE, TRANSIT, WALK, TWO_WHEELER, BICYCLE"}
	}
	if _, err := storeutil.ParseDurationSeconds(input.StaticDuration); err != nil {
		return &ValidationError{Field: "staticDuration", Message: err.Error()}
	}
	if input.TrafficDuration != nil {
		if _, err := storeutil.ParseDurationSeconds(*input.TrafficDuration); err != nil {
			return &ValidationError{Field: "trafficDuration", Message: err.Error()}
		}
	}
	if input.CityKey == "" {
		return &ValidationError{Field: "cityKey", Message: "is required"}
	}
	if !arriveByPattern.MatchString(input.ArriveBy) {
		return &ValidationError{Field: "arriveBy", Message: "must be HH:MM (24-hour)"}
	}
	if !ianaZonePattern.MatchString(input.Timezone) {
		return &ValidationError{Field: "timezone", Message: "must be an IANA zone name, e.g. Europe/Dublin"}
	}
	// An empty DaysOfWeek is permitted: the route is created/updated with
	// no active schedule days, surfaced to the caller as
	// forecastStatus = "empty" rather than rejected.
	for _, d := range input.DaysOfWeek {
		if !d.Valid() {
			return &ValidationError{Field: "daysOfWeek", Message: fmt.Sprintf("invalid day code %q", d)}
		}
	}
	return nil
}

// RouteUpdateInput is the caller-supplied partial field set for
// PUT /routes/update: a nil pointer means the field was not part of the
// request and is left unchanged.
type RouteUpdateInput struct {
	Title           *string
	Origin          *gorm.Waypoint
	Destination     *gorm.Waypoint
	Intermediates   *[]gorm.Waypoint
	TravelMode      *constants.TravelMode
	StaticDuration  *string
	TrafficDuration *string
	DistanceMeters  *int
	ArriveBy        *string
	Timezone        *string
	DaysOfWeek      *[]constants.DayOfWeek
}

// hasAnyField reports whether at least one field was provided.
func (in RouteUpdateInput) hasAnyField() bool {
	return in.Title != nil || in.Origin != nil || in.Destination != nil ||
		in.Intermediates != nil || in.TravelMode != nil || in.StaticDuration != nil ||
		in.TrafficDuration != nil || in.DistanceMeters != nil ||
		in.ArriveBy != nil || in.Timezone != nil || in.DaysOfWeek != nil
}

// ValidateRouteUpdateInput validates only the fields present in a partial
// update request, rejecting a request that supplies none of them.
func ValidateRouteUpdateInput(input RouteUpdateInput) error {
	if !input.hasAnyField() {
		return &ValidationError{Field: "", Message: "at least one field must be provided"}
	}
	if input.Title != nil && (len(*input.Title) == 0 || len(*input.Title) > maxTitleLen) {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("must be 1-%d characters", maxTitleLen)}
	}
	if input.Origin != nil {
		if err := validateWaypoint("origin", *input.Origin); err != nil {
			return err
		}
	}
	if input.Destination != nil {
		if err := validateWaypoint("destination", *input.Destination); err != nil {
			return err
		}
	}
	if input.Intermediates != nil {
		for i, wp := range *input.Intermediates {
			if err := validateWaypoint(fmt.Sprintf("intermediates[%d]", i), wp); err != nil {
				return err
			}
		}
	}
	if input.TravelMode != nil && !input.TravelMode.Valid() {
		return &ValidationError{Field: "travelMode", Message: "must be one of DRIVE, TRANSIT, WALK, TWO_WHEELER, BICYCLE"}
	}
	if input.StaticDuration != nil {
		if _, err := storeutil.ParseDurationSeconds(*input.StaticDuration); err != nil {
			return &ValidationError{Field: "staticDuration", Message: err.Error()}
		}
	}
	if input.TrafficDuration != nil {
		if _, err := storeutil.ParseDurationSeconds(*input.TrafficDuration); err != nil {
			return &ValidationError{Field: "trafficDuration", Message: err.Error()}
		}
	}
	if input.ArriveBy != nil && !arriveByPattern.MatchString(*input.ArriveBy) {
		return &ValidationError{Field: "arriveBy", Message: "must be HH:MM (24-hour)"}
	}
	if input.Timezone != nil && !ianaZonePattern.MatchString(*input.Timezone) {
		return &ValidationError{Field: "timezone", Message: "must be an IANA zone name, e.g. Europe/Dublin"}
	}
	if input.DaysOfWeek != nil {
		for _, d := range *input.DaysOfWeek {
			if !d.Valid() {
				return &ValidationError{Field: "daysOfWeek", Message: fmt.Sprintf("invalid day code %q", d)}
			}
		}
	}
	return nil
}

func validateWaypoint(field string, wp gorm.Waypoint) error {
	if wp.Label == "" {
		return &ValidationError{Field: field, Message: "label is required"}
	}
	if wp.Lat < -90 || wp.Lat > 90 {
		return &ValidationError{Field: field, Message: "latitude out of range"}
	}
	if wp.Lng < -180 || wp.Lng > 180 {
		return &ValidationError{Field: field, Message: "longitude out of range"}
	}
	return nil
}

// forecastAffectingChanged reports whether any of the changed fields
// invalidates the route's existing forecast.
func forecastAffectingChanged(changedFields map[string]bool) bool {
	for field := range changedFields {
		if gorm.ForecastAffectingFields[field] {
			return true
		}
	}
	return false
}
