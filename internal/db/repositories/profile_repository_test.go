package repositories

import (
	"context"
	"testing"
	"time"

	"commuteforecast/backend/internal/models/gorm"

	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"
)

func setupProfileTestDB(t *testing.T) *gormlib.DB {
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

func TestProfileRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(setupProfileTestDB(t))

	profile := &gorm.Profile{UserID: "user-1", Email: "user1@example.com", CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, profile); err != nil {
		t.Fatalf("Create: %v", err)
	}

	fetched, err := repo.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected profile, got nil")
	}
	if fetched.Email != "user1@example.com" {
		t.Errorf("Email = %q, want %q", fetched.Email, "user1@example.com")
	}

	missing, err := repo.GetByUserID(ctx, "no-such-user")
	if err != nil {
		t.Fatalf("GetByUserID missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown user, got %+v", missing)
	}
}

func TestProfileRepository_IncrementRouteCount(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(setupProfileTestDB(t))

	profile := &gorm.Profile{UserID: "user-1", Email: "user1@example.com", CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, profile); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.IncrementRouteCount(ctx, "user-1", 1); err != nil {
		t.Fatalf("IncrementRouteCount +1: %v", err)
	}
	if err := repo.IncrementRouteCount(ctx, "user-1", 1); err != nil {
		t.Fatalf("IncrementRouteCount +1: %v", err)
	}
	fetched, err := repo.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if fetched.RouteCount != 2 {
		t.Fatalf("RouteCount = %d, want 2", fetched.RouteCount)
	}

	if err := repo.IncrementRouteCount(ctx, "user-1", -1); err != nil {
		t.Fatalf("IncrementRouteCount -1: %v", err)
	}
	reRead, err := repo.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if reRead.RouteCount != 1 {
		t.Fatalf("RouteCount after decrement = %d, want 1", reRead.RouteCount)
	}
}
