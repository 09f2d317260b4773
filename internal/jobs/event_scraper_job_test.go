package jobs

import (
	"testing"
	"time"

	"commuteforecast/backend/internal/providers"
)

func TestBucketEventsByDay(t *testing.T) {
	now := time.Now().UTC()
	tomorrow := now.AddDate(0, 0, 1)

	events := []providers.Event{
		{
			Name:      "Concert",
			Venue:     "3Arena",
			Lat:       53.347,
			Lng:       -6.229,
			StartTime: time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 19, 30, 0, 0, time.UTC),
			URL:       "https://example.com/concert",
		},
	}

	rows := bucketEventsByDay("dublin-ie", events)
	if len(rows) != 1 {
		t.Fatalf("expected 1 EventDay row, got %d", len(rows))
	}
	row := rows[0]
	if row.CityKey != "dublin-ie" {
		t.Errorf("CityKey = %q, want dublin-ie", row.CityKey)
	}
	if row.ForecastDate != tomorrow.Format("2006-01-02") {
		t.Errorf("ForecastDate = %q, want %q", row.ForecastDate, tomorrow.Format("2006-01-02"))
	}
	got := row.Events.Events()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Name != "Concert" || got[0].StartTime != "19:30" {
		t.Errorf("unexpected event record: %+v", got[0])
	}
}

func TestBucketEventsByDay_NoEvents(t *testing.T) {
	rows := bucketEventsByDay("dublin-ie", nil)
	if len(rows) != 0 {
		t.Fatalf("expected no rows for empty input, got %d", len(rows))
	}
}
