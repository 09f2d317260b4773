package repositories

import (
	"context"
	"testing"
	"time"

	"commuteforecast/backend/internal/models/gorm"

	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"
)

// Register and AdjustActiveRouteCount are intentionally not covered here:
// both rely on Postgres-specific SQL (a table-qualified upsert increment
// expression and GREATEST(), respectively) not portable to the in-memory
// sqlite driver used below.

func setupCityIndexTestDB(t *testing.T) *gormlib.DB {
	t.Helper()
	db, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&gorm.CityIndex{}); err != nil {
		t.Fatalf("failed to auto-migrate: %v", err)
	}
	return db
}

func TestCityIndexRepository_GetByCityKey(t *testing.T) {
	ctx := context.Background()
	db := setupCityIndexTestDB(t)
	repo := NewCityIndexRepository(db)

	now := time.Now().UTC()
	city := &gorm.CityIndex{
		CityKey:           "dublin-ie",
		City:              "Dublin",
		CountryCode:       "IE",
		CityLat:           53.35,
		CityLng:           -6.26,
		ActiveRouteCount:  1,
		FirstRegisteredAt: now,
		LastActiveAt:      now,
	}
	if err := db.WithContext(ctx).Create(city).Error; err != nil {
		t.Fatalf("seed create: %v", err)
	}

	fetched, err := repo.GetByCityKey(ctx, "dublin-ie")
	if err != nil {
		t.Fatalf("GetByCityKey: %v", err)
	}
	if fetched == nil {
		t.Fatal("GetByCityKey: expected row, got nil")
	}
	if fetched.City != "Dublin" || fetched.ActiveRouteCount != 1 {
		t.Errorf("unexpected city index row: %+v", fetched)
	}

	missing, err := repo.GetByCityKey(ctx, "cork-ie")
	if err != nil {
		t.Fatalf("GetByCityKey missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unregistered city, got %+v", missing)
	}
}

func TestCityIndexRepository_ListActive(t *testing.T) {
	ctx := context.Background()
	db := setupCityIndexTestDB(t)
	repo := NewCityIndexRepository(db)

	now := time.Now().UTC()
	cities := []gorm.CityIndex{
		{CityKey: "dublin-ie", City: "Dublin", CountryCode: "IE", ActiveRouteCount: 3, FirstRegisteredAt: now, LastActiveAt: now},
		{CityKey: "cork-ie", City: "Cork", CountryCode: "IE", ActiveRouteCount: 0, FirstRegisteredAt: now, LastActiveAt: now},
		{CityKey: "galway-ie", City: "Galway", CountryCode: "IE", ActiveRouteCount: 1, FirstRegisteredAt: now, LastActiveAt: now},
	}
	for i := range cities {
		if err := db.WithContext(ctx).Create(&cities[i]).Error; err != nil {
			t.Fatalf("seed create %s: %v", cities[i].CityKey, err)
		}
	}

	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active cities, got %d", len(active))
	}
	for _, c := range active {
		if c.CityKey == "cork-ie" {
			t.Error("ListActive should not include a city with zero active routes")
		}
	}
}
