package forecast

import (
	"testing"
	"time"

	"commuteforecast/backend/internal/constants"
)

func TestNextCalendarDate_TodayWrapsToNextWeek(t *testing.T) {
	// 2026-08-03 is a Monday.
	today := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

	got, ok := NextCalendarDate(constants.Monday, today)
	if !ok {
		t.Fatal("expected Monday to resolve")
	}
	want := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected today's own weekday to wrap to next week %v, got %v", want, got)
	}
}

func TestNextCalendarDate_LaterThisWeek(t *testing.T) {
	// 2026-08-03 is a Monday; Thursday is 3 days ahead.
	today := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

	got, ok := NextCalendarDate(constants.Thursday, today)
	if !ok {
		t.Fatal("expected Thursday to resolve")
	}
	want := time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNextCalendarDate_InvalidDayName(t *testing.T) {
	today := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	_, ok := NextCalendarDate(constants.DayOfWeek("NOT_A_DAY"), today)
	if ok {
		t.Error("expected invalid day name to resolve false")
	}
}
