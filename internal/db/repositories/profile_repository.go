package repositories

import (
	"context"
	"fmt"

	"commuteforecast/backend/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// ProfileRepository wraps profile table access.
type ProfileRepository struct {
	db *gormlib.DB
}

func NewProfileRepository(db *gormlib.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID fetches a profile, returning (nil, nil) when absent so
// callers can distinguish "not yet created" from a real failure.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*gorm.Profile, error) {
	var profile gorm.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &profile, nil
}

// Create inserts a new profile, the identity-link hook's sole write.
func (r *ProfileRepository) Create(ctx context.Context, profile *gorm.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// IncrementRouteCount adjusts route_count by delta (positive on create,
// negative on delete) in a single atomic UPDATE, avoiding a read-modify-
// write race between concurrent route mutations for the same user.
func (r *ProfileRepository) IncrementRouteCount(ctx context.Context, userID string, delta int) error {
	err := r.db.WithContext(ctx).
		Model(&gorm.Profile{}).
		Where("user_id = ?", userID).
		Update("route_count", gormlib.Expr("route_count + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("failed to adjust route count: %w", err)
	}
	return nil
}
