package forecast

import (
	"testing"

	"commuteforecast/backend/internal/models/gorm"
)

func TestFilterCommuteWindowEvents_KeepsOnlyBeforeArriveBy(t *testing.T) {
	events := []gorm.EventRecord{
		{Name: "early show", StartTime: "17:00"},
		{Name: "late show", StartTime: "19:00"},
	}

	filtered := FilterCommuteWindowEvents(events, "18:30", "UTC")
	if len(filtered) != 1 || filtered[0].Name != "early show" {
		t.Errorf("expected only the early event to survive, got %+v", filtered)
	}
}

func TestFilterCommuteWindowEvents_DropsUnparseableStartTime(t *testing.T) {
	events := []gorm.EventRecord{{Name: "bad", StartTime: "not-a-time"}}
	filtered := FilterCommuteWindowEvents(events, "18:30", "UTC")
	if len(filtered) != 0 {
		t.Errorf("expected unparseable event to be dropped, got %+v", filtered)
	}
}

func TestFilterCorridorEvents_AppliesHaversineRule(t *testing.T) {
	events := []gorm.EventRecord{
		{Name: "on corridor", Lat: 53.3500, Lng: -6.2600},
		{Name: "far away", Lat: 53.9000, Lng: -6.9000},
	}

	filtered := FilterCorridorEvents(events, 53.3498, -6.2603, 53.3849, -6.2579)
	if len(filtered) != 1 || filtered[0].Name != "on corridor" {
		t.Errorf("expected only the corridor event to survive, got %+v", filtered)
	}
}
