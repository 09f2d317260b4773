package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"commuteforecast/backend/internal/db/repositories"
	"commuteforecast/backend/internal/logging"
	"commuteforecast/backend/internal/models/gorm"
)

const pqUniqueViolation = "23505"

// IdentityHookService handles the identity-provider post-confirmation
// callback: create a Profile row the first time a user is seen,
// tolerating a duplicate call as a no-op rather than an error.
type IdentityHookService struct {
	profiles *repositories.ProfileRepository
}

func NewIdentityHookService(profiles *repositories.ProfileRepository) *IdentityHookService {
	return &IdentityHookService{profiles: profiles}
}

// Confirm creates a new Profile for userID/email. A unique-constraint
// violation on user_id is logged and treated as success; any other
// failure propagates and blocks confirmation.
func (s *IdentityHookService) Confirm(ctx context.Context, userID, email string) error {
	if userID == "" || email == "" {
		return fmt.Errorf("userId and email are required")
	}

	profile := &gorm.Profile{
		UserID:     userID,
		Email:      email,
		RouteCount: 0,
		CreatedAt:  time.Now().UTC(),
	}

	err := s.profiles.Create(ctx, profile)
	if err == nil {
		logging.Info("profile created", "userId", userID)
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		logging.Info("duplicate identity-hook confirmation, profile already exists", "userId", userID)
		return nil
	}

	return fmt.Errorf("failed to create profile: %w", err)
}
