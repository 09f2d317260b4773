package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commuteforecast/backend/internal/constants"
	"commuteforecast/backend/internal/db/repositories"
	"commuteforecast/backend/internal/logging"
	"commuteforecast/backend/internal/metrics"
	"commuteforecast/backend/internal/models/gorm"
	"commuteforecast/backend/internal/storeutil"

	gormlib "gorm.io/gorm"
)

const (
	maxRoutesPerUser = 20
	scheduleTTL      = 14 * 24 * time.Hour
	deactivatedTTL   = 24 * time.Hour
)

// RouteLifecycleService owns route/schedule/forecast create, update,
// delete, and fetch: validate, then run the database changes inside a
// single transaction.
type RouteLifecycleService struct {
	db         *gormlib.DB
	routes     *repositories.RouteRepository
	profiles   *repositories.ProfileRepository
	cities     *repositories.CityIndexRepository
	metricsReg *metrics.MetricsRegistry
}

func NewRouteLifecycleService(
	db *gormlib.DB,
	routes *repositories.RouteRepository,
	profiles *repositories.ProfileRepository,
	cities *repositories.CityIndexRepository,
	metricsReg *metrics.MetricsRegistry,
) *RouteLifecycleService {
	return &RouteLifecycleService{db: db, routes: routes, profiles: profiles, cities: cities, metricsReg: metricsReg}
}

// RouteFetchResult is the shape GET /routes/fetch returns.
type RouteFetchResult struct {
	UserID           string              `json:"userId"`
	Profile          *gorm.Profile       `json:"profile"`
	RouteCount       int                 `json:"routeCount"`
	ActiveRouteCount int                 `json:"activeRouteCount"`
	MaxRoutes        int                 `json:"maxRoutes"`
	Routes           []RouteWithForecast `json:"routes"`
}

// RouteWithForecast bundles a route with its schedule and latest forecast,
// plus a computed status string.
type RouteWithForecast struct {
	Route          gorm.Route     `json:"route"`
	Schedule       *gorm.Schedule `json:"schedule,omitempty"`
	Forecast       *gorm.Forecast `json:"forecast,omitempty"`
	ForecastStatus string         `json:"forecastStatus"`
}

// computeForecastStatus reports "active" iff a Forecast row exists,
// "pending" iff no forecast exists but the schedule has at least one
// active day, and "empty" otherwise (no schedule, an inactive schedule,
// or a schedule with zero days).
func computeForecastStatus(schedule *gorm.Schedule, forecast *gorm.Forecast) string {
	if forecast != nil {
		return "active"
	}
	if schedule != nil && schedule.Active && len(schedule.DaysOfWeek.Days()) > 0 {
		return "pending"
	}
	return "empty"
}

// Create validates input, then executes one transaction: conditional
// routeCount increment (capped at 20, RowsAffected as the condition-check),
// Route insert, Schedule insert, and a city-index upsert incrementing
// activeRouteCount.
func (s *RouteLifecycleService) Create(ctx context.Context, userID string, input RouteInput) (*gorm.Route, error) {
	if err := ValidateRouteInput(input); err != nil {
		return nil, err
	}

	staticMinutes, _ := storeutil.ParseDurationSeconds(input.StaticDuration)
	var trafficMinutes *int
	if input.TrafficDuration != nil {
		m, _ := storeutil.ParseDurationSeconds(*input.TrafficDuration)
		trafficMinutes = &m
	}

	route := &gorm.Route{
		UserID:          userID,
		Title:           input.Title,
		Origin:          gorm.NewWaypointColumn(input.Origin),
		Destination:     gorm.NewWaypointColumn(input.Destination),
		Intermediates:   gorm.NewWaypointList(input.Intermediates),
		TravelMode:      input.TravelMode,
		StaticDuration:  staticMinutes,
		TrafficDuration: trafficMinutes,
		DistanceMeters:  input.DistanceMeters,
		CityKey:         input.CityKey,
		CityLat:         input.CityLat,
		CityLng:         input.CityLng,
		UserActive:      true,
	}

	schedule := &gorm.Schedule{
		ArriveBy:   input.ArriveBy,
		Timezone:   input.Timezone,
		DaysOfWeek: gorm.NewDayList(input.DaysOfWeek),
		TTL:        time.Now().UTC().Add(scheduleTTL),
		Active:     true,
	}

	err := s.routes.WithTransaction(ctx, func(tx *gormlib.DB) error {
		result := tx.Model(&gorm.Profile{}).
			Where("user_id = ? AND route_count < ?", userID, maxRoutesPerUser).
			Update("route_count", gormlib.Expr("route_count + 1"))
		if result.Error != nil {
			return fmt.Errorf("failed to increment route count: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return constants.ErrMaxRoutesReached
		}

		if err := tx.Create(route).Error; err != nil {
			return fmt.Errorf("failed to create route: %w", err)
		}
		schedule.RouteID = route.ID
		if err := tx.Create(schedule).Error; err != nil {
			return fmt.Errorf("failed to create schedule: %w", err)
		}

		city := &gorm.CityIndex{
			CityKey:           input.CityKey,
			CityLat:           input.CityLat,
			CityLng:           input.CityLng,
			ActiveRouteCount:  1,
			FirstRegisteredAt: time.Now().UTC(),
			LastActiveAt:      time.Now().UTC(),
		}
		if err := repositories.NewCityIndexRepository(tx).Register(ctx, city); err != nil {
			return fmt.Errorf("failed to register city: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, constants.ErrMaxRoutesReached) {
			return nil, &ValidationError{Field: "routeCount", Message: constants.MsgMaxRoutes}
		}
		return nil, err
	}

	if s.metricsReg != nil {
		s.metricsReg.ActiveRoutes.Inc()
	}
	logging.Info("route created", "userId", userID, "routeId", route.ID, "cityKey", input.CityKey)
	return route, nil
}

// RouteUpdateResult is the shape PUT /routes/update returns: the route ID
// plus the fields that were actually applied, keyed by wire name.
type RouteUpdateResult struct {
	RouteID string                 `json:"routeId"`
	Updates map[string]interface{} `json:"updates"`
}

// waypointEqual compares two waypoints by value (PlaceID dereferenced),
// since gorm.Waypoint holds a *string and isn't comparable with ==.
func waypointEqual(a, b gorm.Waypoint) bool {
	if a.Lat != b.Lat || a.Lng != b.Lng || a.Label != b.Label {
		return false
	}
	if (a.PlaceID == nil) != (b.PlaceID == nil) {
		return false
	}
	return a.PlaceID == nil || *a.PlaceID == *b.PlaceID
}

// waypointsEqual compares two waypoint slices elementwise, in order.
func waypointsEqual(a, b []gorm.Waypoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !waypointEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// daysEqual compares two day-of-week sets elementwise, in order.
func daysEqual(a, b []constants.DayOfWeek) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Update applies only the fields present in input, partitioned into route
// columns vs schedule columns, re-validates, writes only the rows that
// actually changed, and drops the existing forecast when a forecast-
// affecting route field or any schedule field changed.
func (s *RouteLifecycleService) Update(ctx context.Context, routeID string, input RouteUpdateInput) (*RouteUpdateResult, error) {
	if err := ValidateRouteUpdateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, constants.ErrRouteNotFound
	}
	schedule, err := s.routes.GetSchedule(ctx, routeID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	forecastAffecting := map[string]bool{}
	routeTouched := false
	scheduleTouched := false

	if input.Title != nil && *input.Title != existing.Title {
		existing.Title = *input.Title
		updates["title"] = *input.Title
		routeTouched = true
	}
	if input.Origin != nil && !waypointEqual(*input.Origin, existing.Origin.Get()) {
		existing.Origin = gorm.NewWaypointColumn(*input.Origin)
		updates["origin"] = *input.Origin
		forecastAffecting["origin"] = true
		routeTouched = true
	}
	if input.Destination != nil && !waypointEqual(*input.Destination, existing.Destination.Get()) {
		existing.Destination = gorm.NewWaypointColumn(*input.Destination)
		updates["destination"] = *input.Destination
		forecastAffecting["destination"] = true
		routeTouched = true
	}
	if input.Intermediates != nil && !waypointsEqual(*input.Intermediates, existing.Intermediates.Items()) {
		existing.Intermediates = gorm.NewWaypointList(*input.Intermediates)
		updates["intermediates"] = *input.Intermediates
		forecastAffecting["intermediates"] = true
		routeTouched = true
	}
	if input.TravelMode != nil && *input.TravelMode != existing.TravelMode {
		existing.TravelMode = *input.TravelMode
		updates["travelMode"] = *input.TravelMode
		forecastAffecting["travelMode"] = true
		routeTouched = true
	}
	if input.StaticDuration != nil {
		staticMinutes, _ := storeutil.ParseDurationSeconds(*input.StaticDuration)
		if staticMinutes != existing.StaticDuration {
			existing.StaticDuration = staticMinutes
			updates["staticDuration"] = staticMinutes
			forecastAffecting["staticDuration"] = true
			routeTouched = true
		}
	}
	if input.TrafficDuration != nil {
		trafficMinutes, _ := storeutil.ParseDurationSeconds(*input.TrafficDuration)
		if existing.TrafficDuration == nil || *existing.TrafficDuration != trafficMinutes {
			existing.TrafficDuration = &trafficMinutes
			updates["trafficDuration"] = trafficMinutes
			forecastAffecting["trafficDuration"] = true
			routeTouched = true
		}
	}
	if input.DistanceMeters != nil && (existing.DistanceMeters == nil || *existing.DistanceMeters != *input.DistanceMeters) {
		existing.DistanceMeters = input.DistanceMeters
		updates["distanceMeters"] = *input.DistanceMeters
		routeTouched = true
	}

	if schedule != nil {
		if input.ArriveBy != nil && *input.ArriveBy != schedule.ArriveBy {
			schedule.ArriveBy = *input.ArriveBy
			updates["arriveBy"] = *input.ArriveBy
			scheduleTouched = true
		}
		if input.Timezone != nil && *input.Timezone != schedule.Timezone {
			schedule.Timezone = *input.Timezone
			updates["timezone"] = *input.Timezone
			scheduleTouched = true
		}
		if input.DaysOfWeek != nil && !daysEqual(*input.DaysOfWeek, schedule.DaysOfWeek.Days()) {
			schedule.DaysOfWeek = gorm.NewDayList(*input.DaysOfWeek)
			updates["daysOfWeek"] = *input.DaysOfWeek
			scheduleTouched = true
		}
		if scheduleTouched {
			schedule.UpdatedAt = time.Now().UTC()
		}
	}

	if !routeTouched && !scheduleTouched {
		return &RouteUpdateResult{RouteID: routeID, Updates: updates}, nil
	}

	if routeTouched {
		existing.UpdatedAt = time.Now().UTC()
	}

	err = s.routes.WithTransaction(ctx, func(tx *gormlib.DB) error {
		if routeTouched {
			if err := tx.Save(existing).Error; err != nil {
				return fmt.Errorf("failed to update route: %w", err)
			}
		}
		if scheduleTouched {
			if err := tx.Save(schedule).Error; err != nil {
				return fmt.Errorf("failed to update schedule: %w", err)
			}
		}
		if forecastAffectingChanged(forecastAffecting) || scheduleTouched {
			if err := tx.Delete(&gorm.Forecast{}, "route_id = ?", routeID).Error; err != nil {
				logging.Warn("failed to invalidate forecast after update", "routeId", routeID, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info("route updated", "routeId", routeID, "fieldsChanged", len(updates))
	return &RouteUpdateResult{RouteID: routeID, Updates: updates}, nil
}

// Delete deactivates the schedule, then deletes the route and decrements
// counters in one transaction. If the city counter is already at zero its
// conditional decrement matches no row; that drift is logged at Warn and
// the transaction still deletes the route and decrements routeCount.
func (s *RouteLifecycleService) Delete(ctx context.Context, routeID string) error {
	route, err := s.routes.GetByID(ctx, routeID)
	if err != nil {
		return err
	}
	if route == nil {
		return constants.ErrRouteNotFound
	}

	if err := s.db.WithContext(ctx).
		Model(&gorm.Schedule{}).
		Where("route_id = ?", routeID).
		Updates(map[string]interface{}{
			"active": false,
			"ttl":    time.Now().UTC().Add(deactivatedTTL),
		}).Error; err != nil {
		logging.Warn("failed to deactivate schedule before delete", "routeId", routeID, "error", err)
	}

	txErr := s.routes.WithTransaction(ctx, func(tx *gormlib.DB) error {
		if err := tx.Delete(&gorm.Route{}, "id = ?", routeID).Error; err != nil {
			return fmt.Errorf("failed to delete route: %w", err)
		}

		result := tx.Model(&gorm.CityIndex{}).
			Where("city_key = ? AND active_route_count > 0", route.CityKey).
			Update("active_route_count", gormlib.Expr("active_route_count - 1"))
		if result.Error != nil {
			return fmt.Errorf("failed to decrement city active route count: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			logging.Warn("city active route count already zero on delete", "cityKey", route.CityKey, "routeId", routeID)
		}

		if err := tx.Model(&gorm.Profile{}).
			Where("user_id = ?", route.UserID).
			Update("route_count", gormlib.Expr("GREATEST(route_count - 1, 0)")).Error; err != nil {
			return fmt.Errorf("failed to decrement route count: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if err := s.routes.DeleteForecast(ctx, routeID); err != nil {
		logging.Warn("failed to delete forecast on route delete", "routeId", routeID, "error", err)
	}

	if s.metricsReg != nil {
		s.metricsReg.ActiveRoutes.Dec()
	}
	logging.Info("route deleted", "routeId", routeID, "cityKey", route.CityKey)
	return nil
}

// Fetch returns the full route listing for a user: profile, counts, and
// every route with its schedule/forecast inlined.
func (s *RouteLifecycleService) Fetch(ctx context.Context, userID string) (*RouteFetchResult, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, constants.ErrProfileNotFound
	}

	routes, err := s.routes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := 0
	withForecast := make([]RouteWithForecast, 0, len(routes))
	for _, route := range routes {
		schedule, err := s.routes.GetSchedule(ctx, route.ID)
		if err != nil {
			return nil, err
		}
		forecastRow, err := s.routes.GetForecast(ctx, route.ID)
		if err != nil {
			return nil, err
		}
		if schedule != nil && schedule.Active {
			active++
		}
		withForecast = append(withForecast, RouteWithForecast{
			Route:          route,
			Schedule:       schedule,
			Forecast:       forecastRow,
			ForecastStatus: computeForecastStatus(schedule, forecastRow),
		})
	}

	return &RouteFetchResult{
		UserID:           userID,
		Profile:          profile,
		RouteCount:       profile.RouteCount,
		ActiveRouteCount: active,
		MaxRoutes:        maxRoutesPerUser,
		Routes:           withForecast,
	}, nil
}
