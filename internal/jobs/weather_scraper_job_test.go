package jobs

import (
	"testing"
	"time"

	"commuteforecast/backend/internal/providers"
)

func TestBucketHourlyByDay(t *testing.T) {
	now := time.Now().UTC()
	tomorrow := now.AddDate(0, 0, 1)
	dayAfter := now.AddDate(0, 0, 2)

	points := []providers.HourlyPoint{
		{Time: time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 8, 0, 0, 0, time.UTC), PrecipitationMm: 1.5},
		{Time: time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, time.UTC), PrecipitationMm: 0},
		{Time: time.Date(dayAfter.Year(), dayAfter.Month(), dayAfter.Day(), 17, 0, 0, 0, time.UTC), PrecipitationMm: 3.2},
	}

	rows := bucketHourlyByDay("dublin-ie", points)
	if len(rows) != 2 {
		t.Fatalf("expected 2 WeatherDay rows, got %d", len(rows))
	}

	byDate := make(map[string]int)
	for _, row := range rows {
		if row.CityKey != "dublin-ie" {
			t.Errorf("CityKey = %q, want dublin-ie", row.CityKey)
		}
		byDate[row.ForecastDate] = len(row.Hourly.Hours())
	}
	tomorrowDate := tomorrow.Format("2006-01-02")
	dayAfterDate := dayAfter.Format("2006-01-02")
	if byDate[tomorrowDate] != 2 {
		t.Errorf("expected 2 hourly entries for %s, got %d", tomorrowDate, byDate[tomorrowDate])
	}
	if byDate[dayAfterDate] != 1 {
		t.Errorf("expected 1 hourly entry for %s, got %d", dayAfterDate, byDate[dayAfterDate])
	}
}

func TestBucketHourlyByDay_NoPoints(t *testing.T) {
	rows := bucketHourlyByDay("dublin-ie", nil)
	if len(rows) != 0 {
		t.Fatalf("expected no rows for empty input, got %d", len(rows))
	}
}

func TestBucketHourlyByDay_OutOfWindowDropped(t *testing.T) {
	farFuture := time.Now().UTC().AddDate(0, 0, 30)
	points := []providers.HourlyPoint{
		{Time: farFuture, PrecipitationMm: 2.0},
	}
	rows := bucketHourlyByDay("dublin-ie", points)
	if len(rows) != 0 {
		t.Fatalf("expected point outside the forecast window to be dropped, got %d rows", len(rows))
	}
}
