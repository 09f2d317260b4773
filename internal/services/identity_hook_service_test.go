package services

import (
	"context"
	"testing"

	"commuteforecast/backend/internal/db/repositories"
	"commuteforecast/backend/internal/models/gorm"

	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"
)

// The duplicate-confirmation path (a Postgres unique_violation pq.Error)
// is not exercised here: sqlite's driver surfaces its own native
// constraint-violation error type rather than *pq.Error, so that branch
// is only reachable against a real Postgres connection.

func setupIdentityTestDB(t *testing.T) *gormlib.DB {
	t.Helper()
	db, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&gorm.Profile{}); err != nil {
		t.Fatalf("failed to auto-migrate: %v", err)
	}
	return db
}

func TestIdentityHookService_Confirm_MissingFields(t *testing.T) {
	svc := NewIdentityHookService(repositories.NewProfileRepository(setupIdentityTestDB(t)))
	ctx := context.Background()

	if err := svc.Confirm(ctx, "", "a@b.com"); err == nil {
		t.Error("expected error for missing userID")
	}
	if err := svc.Confirm(ctx, "user-1", ""); err == nil {
		t.Error("expected error for missing email")
	}
}

func TestIdentityHookService_Confirm_CreatesProfile(t *testing.T) {
	db := setupIdentityTestDB(t)
	profiles := repositories.NewProfileRepository(db)
	svc := NewIdentityHookService(profiles)
	ctx := context.Background()

	if err := svc.Confirm(ctx, "user-1", "user1@example.com"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	profile, err := profiles.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if profile == nil {
		t.Fatal("expected profile to be created")
	}
	if profile.Email != "user1@example.com" {
		t.Errorf("Email = %q, want %q", profile.Email, "user1@example.com")
	}
	if profile.RouteCount != 0 {
		t.Errorf("RouteCount = %d, want 0", profile.RouteCount)
	}
}
