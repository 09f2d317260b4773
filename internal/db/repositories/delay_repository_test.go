package repositories

import (
	"context"
	"testing"
	"time"

	"commuteforecast/backend/internal/models/gorm"

	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"
)

// DeleteExpiredWeatherDays/DeleteExpiredEventDays are intentionally not
// covered here: both filter on "ttl < NOW()", a Postgres-only SQL function
// not available against the in-memory sqlite driver used below.

func setupDelayTestDB(t *testing.T) *gormlib.DB {
	t.Helper()
	db, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&gorm.WeatherDay{}, &gorm.EventDay{}); err != nil {
		t.Fatalf("failed to auto-migrate: %v", err)
	}
	return db
}

func TestDelayRepository_WeatherDayUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewDelayRepository(setupDelayTestDB(t))

	day := &gorm.WeatherDay{
		CityKey:      "dublin-ie",
		ForecastDate: "2026-08-10",
		Hourly:       gorm.NewHourlyList([]gorm.HourlyPrecip{{Hour: 8, PrecipitationMm: 1.2}}),
		TTL:          time.Now().Add(24 * time.Hour),
	}
	if err := repo.UpsertWeatherDay(ctx, day); err != nil {
		t.Fatalf("UpsertWeatherDay: %v", err)
	}

	fetched, err := repo.GetWeatherDay(ctx, "dublin-ie", "2026-08-10")
	if err != nil {
		t.Fatalf("GetWeatherDay: %v", err)
	}
	if fetched == nil {
		t.Fatal("GetWeatherDay: expected row, got nil")
	}
	hours := fetched.Hourly.Hours()
	if len(hours) != 1 || hours[0].Hour != 8 {
		t.Errorf("unexpected hourly data: %+v", hours)
	}

	missing, err := repo.GetWeatherDay(ctx, "dublin-ie", "2026-08-11")
	if err != nil {
		t.Fatalf("GetWeatherDay missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing date, got %+v", missing)
	}

	day.Hourly = gorm.NewHourlyList([]gorm.HourlyPrecip{{Hour: 8, PrecipitationMm: 4.5}, {Hour: 9, PrecipitationMm: 0}})
	if err := repo.UpsertWeatherDay(ctx, day); err != nil {
		t.Fatalf("UpsertWeatherDay (update): %v", err)
	}
	reRead, err := repo.GetWeatherDay(ctx, "dublin-ie", "2026-08-10")
	if err != nil {
		t.Fatalf("GetWeatherDay after update: %v", err)
	}
	if len(reRead.Hourly.Hours()) != 2 {
		t.Errorf("expected 2 hourly entries after re-upsert, got %d", len(reRead.Hourly.Hours()))
	}
}

func TestDelayRepository_EventDayUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewDelayRepository(setupDelayTestDB(t))

	day := &gorm.EventDay{
		CityKey:      "dublin-ie",
		ForecastDate: "2026-08-10",
		Events:       gorm.NewEventList([]gorm.EventRecord{{Name: "Concert", Venue: "3Arena", StartTime: "19:00"}}),
		TTL:          time.Now().Add(24 * time.Hour),
	}
	if err := repo.UpsertEventDay(ctx, day); err != nil {
		t.Fatalf("UpsertEventDay: %v", err)
	}

	fetched, err := repo.GetEventDay(ctx, "dublin-ie", "2026-08-10")
	if err != nil {
		t.Fatalf("GetEventDay: %v", err)
	}
	if fetched == nil {
		t.Fatal("GetEventDay: expected row, got nil")
	}
	events := fetched.Events.Events()
	if len(events) != 1 || events[0].Name != "Concert" {
		t.Errorf("unexpected event data: %+v", events)
	}
}

func TestDelayRepository_BatchGetWeatherDays(t *testing.T) {
	ctx := context.Background()
	repo := NewDelayRepository(setupDelayTestDB(t))

	for _, ck := range []string{"dublin-ie", "cork-ie"} {
		day := &gorm.WeatherDay{
			CityKey:      ck,
			ForecastDate: "2026-08-10",
			Hourly:       gorm.NewHourlyList(nil),
			TTL:          time.Now().Add(24 * time.Hour),
		}
		if err := repo.UpsertWeatherDay(ctx, day); err != nil {
			t.Fatalf("UpsertWeatherDay %s: %v", ck, err)
		}
	}

	keys := []CityDateKey{
		{CityKey: "dublin-ie", ForecastDate: "2026-08-10"},
		{CityKey: "cork-ie", ForecastDate: "2026-08-10"},
		{CityKey: "galway-ie", ForecastDate: "2026-08-10"},
	}
	found, unprocessed, err := repo.BatchGetWeatherDays(ctx, keys)
	if err != nil {
		t.Fatalf("BatchGetWeatherDays: %v", err)
	}
	if len(unprocessed) != 0 {
		t.Errorf("expected no unprocessed residue, got %v", unprocessed)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 found weather days, got %d", len(found))
	}
	if _, ok := found[CityDateKey{CityKey: "galway-ie", ForecastDate: "2026-08-10"}]; ok {
		t.Error("found should not contain the missing city")
	}
}

func TestDelayRepository_BatchGetEventDays_Empty(t *testing.T) {
	ctx := context.Background()
	repo := NewDelayRepository(setupDelayTestDB(t))

	found, unprocessed, err := repo.BatchGetEventDays(ctx, nil)
	if err != nil {
		t.Fatalf("BatchGetEventDays: %v", err)
	}
	if len(found) != 0 || len(unprocessed) != 0 {
		t.Errorf("expected empty results for empty key set, got found=%v unprocessed=%v", found, unprocessed)
	}
}
