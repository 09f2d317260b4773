package repositories

import (
	"context"
	"fmt"
	"time"

	"commuteforecast/backend/internal/models/gorm"

	gormlib "gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CityIndexRepository handles the per-city metadata table that drives
// scraper city selection.
type CityIndexRepository struct {
	db *gormlib.DB
}

func NewCityIndexRepository(db *gormlib.DB) *CityIndexRepository {
	return &CityIndexRepository{db: db}
}

// GetByCityKey fetches a city's index row, returning (nil, nil) when the
// city has never had an active route registered.
func (r *CityIndexRepository) GetByCityKey(ctx context.Context, cityKey string) (*gorm.CityIndex, error) {
	var city gorm.CityIndex
	err := r.db.WithContext(ctx).Where("city_key = ?", cityKey).First(&city).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch city index: %w", err)
	}
	return &city, nil
}

// ListActive returns every city with at least one active route, the set
// the weather/event scrapers iterate each run.
func (r *CityIndexRepository) ListActive(ctx context.Context) ([]gorm.CityIndex, error) {
	var cities []gorm.CityIndex
	err := r.db.WithContext(ctx).
		Where("active_route_count > 0").
		Find(&cities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active cities: %w", err)
	}
	return cities, nil
}

// Register upserts a city's metadata on first route registration,
// initializing active_route_count to 1 and first_registered_at to now.
func (r *CityIndexRepository) Register(ctx context.Context, city *gorm.CityIndex) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "city_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"active_route_count": gormlib.Expr("city_index.active_route_count + ?", 1),
				"last_active_at":     time.Now().UTC(),
			}),
		}).
		Create(city).Error
}

// AdjustActiveRouteCount changes a city's active_route_count by delta,
// clamped at zero by a GREATEST(..., 0) expression; used on route
// activation/deactivation and deletion.
func (r *CityIndexRepository) AdjustActiveRouteCount(ctx context.Context, cityKey string, delta int) error {
	err := r.db.WithContext(ctx).
		Model(&gorm.CityIndex{}).
		Where("city_key = ?", cityKey).
		Updates(map[string]interface{}{
			"active_route_count": gormlib.Expr("GREATEST(active_route_count + ?, 0)", delta),
			"last_active_at":     time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to adjust active route count: %w", err)
	}
	return nil
}
