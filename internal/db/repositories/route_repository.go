package repositories

import (
	"context"
	"fmt"

	"commuteforecast/backend/internal/models/gorm"

	gormlib "gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RouteRepository handles routes, schedules, and forecasts — the three
// tables whose lifecycles are bound together under a single route ID.
type RouteRepository struct {
	db *gormlib.DB
}

func NewRouteRepository(db *gormlib.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// Create inserts a new route row.
func (r *RouteRepository) Create(ctx context.Context, route *gorm.Route) error {
	if err := r.db.WithContext(ctx).Create(route).Error; err != nil {
		return fmt.Errorf("failed to create route: %w", err)
	}
	return nil
}

// BatchGetByIDs fetches every route in ids via a single IN query, matching
// storeutil.GetChunkFunc's shape for use with storeutil.BatchGet. There is
// no native notion of "unprocessed" residue in a SQL IN query — a missing
// ID is simply absent from found, never returned as unprocessed.
func (r *RouteRepository) BatchGetByIDs(ctx context.Context, ids []string) (map[string]gorm.Route, []string, error) {
	var routes []gorm.Route
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&routes).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to batch-fetch routes: %w", err)
	}
	found := make(map[string]gorm.Route, len(routes))
	for _, route := range routes {
		found[route.ID] = route
	}
	return found, nil, nil
}

// UpsertForecastsChunk writes one chunk of forecasts as a single multi-row
// upsert, matching storeutil.WriteChunkFunc's shape. A failed chunk is
// returned whole as unprocessed residue rather than as an error, so
// storeutil.BatchWrite retries it with backoff instead of aborting the
// whole batch on one transient failure.
func (r *RouteRepository) UpsertForecastsChunk(ctx context.Context, forecasts []gorm.Forecast) ([]gorm.Forecast, error) {
	if len(forecasts) == 0 {
		return nil, nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "route_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"days", "generated_at"}),
		}).
		Create(&forecasts).Error
	if err != nil {
		return forecasts, nil
	}
	return nil, nil
}

// GetByID fetches a single route, returning (nil, nil) when absent.
func (r *RouteRepository) GetByID(ctx context.Context, routeID string) (*gorm.Route, error) {
	var route gorm.Route
	err := r.db.WithContext(ctx).Where("id = ?", routeID).First(&route).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch route: %w", err)
	}
	return &route, nil
}

// ListByUser returns every route owned by a user, ordered for stable
// pagination-free listing.
func (r *RouteRepository) ListByUser(ctx context.Context, userID string) ([]gorm.Route, error) {
	var routes []gorm.Route
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&routes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}

// Update persists a full column set for the route, used when any
// forecast-affecting field changes.
func (r *RouteRepository) Update(ctx context.Context, route *gorm.Route) error {
	if err := r.db.WithContext(ctx).Save(route).Error; err != nil {
		return fmt.Errorf("failed to update route: %w", err)
	}
	return nil
}

// Delete removes a route row; the caller is responsible for cascading the
// schedule/forecast deletes inside the same transaction.
func (r *RouteRepository) Delete(ctx context.Context, routeID string) error {
	if err := r.db.WithContext(ctx).Delete(&gorm.Route{}, "id = ?", routeID).Error; err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	return nil
}

// ListActiveByCityKey returns every active, schedule-bearing route in a
// city. The orchestrator does not use it; it reads ListAllSchedules.
func (r *RouteRepository) ListActiveByCityKey(ctx context.Context, cityKey string) ([]gorm.Route, error) {
	var routes []gorm.Route
	err := r.db.WithContext(ctx).
		Joins("JOIN schedules ON schedules.route_id = routes.id").
		Where("routes.city_key = ? AND routes.user_active = ? AND schedules.active = ?", cityKey, true, true).
		Find(&routes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active routes for city: %w", err)
	}
	return routes, nil
}

// UpsertSchedule creates or replaces a route's schedule row.
func (r *RouteRepository) UpsertSchedule(ctx context.Context, schedule *gorm.Schedule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "route_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"arrive_by", "timezone", "days_of_week", "ttl", "active", "updated_at"}),
		}).
		Create(schedule).Error
}

// GetSchedule fetches a route's schedule, returning (nil, nil) when absent
// — a route with no schedule row is inactive for the nightly pipeline.
func (r *RouteRepository) GetSchedule(ctx context.Context, routeID string) (*gorm.Schedule, error) {
	var schedule gorm.Schedule
	err := r.db.WithContext(ctx).Where("route_id = ?", routeID).First(&schedule).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}
	return &schedule, nil
}

// DeleteSchedule removes a route's schedule, deactivating the pipeline for
// it without deleting the route itself.
func (r *RouteRepository) DeleteSchedule(ctx context.Context, routeID string) error {
	if err := r.db.WithContext(ctx).Delete(&gorm.Schedule{}, "route_id = ?", routeID).Error; err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

// UpsertForecast replaces a route's forecast wholesale, the most-recent
// nightly result replacing whatever ran before.
func (r *RouteRepository) UpsertForecast(ctx context.Context, forecast *gorm.Forecast) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "route_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"days", "generated_at"}),
		}).
		Create(forecast).Error
}

// GetForecast fetches a route's latest forecast, returning (nil, nil) when
// none has been generated yet.
func (r *RouteRepository) GetForecast(ctx context.Context, routeID string) (*gorm.Forecast, error) {
	var forecast gorm.Forecast
	err := r.db.WithContext(ctx).Where("route_id = ?", routeID).First(&forecast).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	return &forecast, nil
}

// DeleteForecast removes a route's forecast row, called when its schedule
// is removed or a forecast-affecting field changes.
func (r *RouteRepository) DeleteForecast(ctx context.Context, routeID string) error {
	if err := r.db.WithContext(ctx).Delete(&gorm.Forecast{}, "route_id = ?", routeID).Error; err != nil {
		return fmt.Errorf("failed to delete forecast: %w", err)
	}
	return nil
}

// WithTransaction runs fn inside a GORM transaction.
func (r *RouteRepository) WithTransaction(ctx context.Context, fn func(tx *gormlib.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// scheduleListPageSize is the page size the orchestrator's cursor-paginated
// schedule scan reads per round trip.
const scheduleListPageSize = 1000

// ListAllSchedules returns one keyset page of active schedules projected to
// the shape the worker queue expects, ordered by route_id. Pass the
// previous call's returned cursor to continue; an empty cursor starts from
// the beginning. The returned cursor is "" once the scan is exhausted.
func (r *RouteRepository) ListAllSchedules(ctx context.Context, cursor string) ([]gorm.ScheduledRoute, string, error) {
	type row struct {
		UserID     string
		RouteID    string
		ArriveBy   string
		Timezone   string
		DaysOfWeek gorm.DayList `gorm:"type:jsonb"`
	}

	q := r.db.WithContext(ctx).
		Table("schedules").
		Select("routes.user_id as user_id, schedules.route_id as route_id, schedules.arrive_by as arrive_by, schedules.timezone as timezone, schedules.days_of_week as days_of_week").
		Joins("JOIN routes ON routes.id = schedules.route_id").
		Where("schedules.active = ?", true).
		Order("schedules.route_id ASC").
		Limit(scheduleListPageSize)
	if cursor != "" {
		q = q.Where("schedules.route_id > ?", cursor)
	}

	var rows []row
	if err := q.Find(&rows).Error; err != nil {
		return nil, "", fmt.Errorf("failed to list schedules: %w", err)
	}

	scheduled := make([]gorm.ScheduledRoute, 0, len(rows))
	for _, rr := range rows {
		days := rr.DaysOfWeek.Days()
		dayNames := make([]string, 0, len(days))
		for _, d := range days {
			dayNames = append(dayNames, string(d))
		}
		scheduled = append(scheduled, gorm.ScheduledRoute{
			UserID:     rr.UserID,
			RouteID:    rr.RouteID,
			ArriveBy:   rr.ArriveBy,
			Timezone:   rr.Timezone,
			DaysOfWeek: dayNames,
		})
	}

	nextCursor := ""
	if len(rows) == scheduleListPageSize {
		nextCursor = rows[len(rows)-1].RouteID
	}
	return scheduled, nextCursor, nil
}
