package forecast

import (
	"time"

	"commuteforecast/backend/internal/constants"
)

// NextCalendarDate resolves the next date after today (wrapping to next
// week) on which dayName falls, relative to today in UTC, returned as
// midnight UTC of that date. Today's own
// weekday always maps 1..7 days ahead rather than 0 — a route scheduled for
// "today" is forecasting the *next* occurrence of that weekday, never the
// one already in progress.
func NextCalendarDate(dayName constants.DayOfWeek, today time.Time) (time.Time, bool) {
	idx := dayName.Index()
	if idx < 0 {
		return time.Time{}, false
	}

	today = today.UTC()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	todayIdx := weekdayIndex(today.Weekday())

	offset := idx - todayIdx
	if offset <= 0 {
		offset += 7
	}
	return today.AddDate(0, 0, offset), true
}

func weekdayIndex(w time.Weekday) int {
	// time.Weekday is Sunday=0..Saturday=6; constants.OrderedWeek starts Monday.
	if w == time.Sunday {
		return 6
	}
	return int(w) - 1
}
