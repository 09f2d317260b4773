package forecast

import (
	"fmt"
	"time"

	"commuteforecast/backend/internal/logging"
)

// LocalTimeToUTC converts a local "HH:MM" wall-clock time on the given
// calendar date, in the given IANA zone, to the equivalent UTC "HH:MM" —
// using the UTC offset in effect on that specific date, so DST transitions
// are respected year-round rather than only at the moment of conversion.
//
// On an unresolvable zone, the local time is returned unchanged and a
// warning is logged — a deliberate worst-case-one-hour fallback rather
// than failing the whole route.
func LocalTimeToUTC(localHHMM, ianaZone, date string) (string, error) {
	hour, min, err := parseHHMM(localHHMM)
	if err != nil {
		return "", err
	}
	y, m, d, err := parseDate(date)
	if err != nil {
		return "", err
	}

	loc, err := time.LoadLocation(ianaZone)
	if err != nil {
		logging.Warn("unresolvable timezone, using local time unchanged", "zone", ianaZone, "error", err)
		return localHHMM, nil
	}

	local := time.Date(y, m, d, hour, min, 0, 0, loc)
	utc := local.UTC()
	return fmt.Sprintf("%02d:%02d", utc.Hour(), utc.Minute()), nil
}

func parseHHMM(s string) (hour, min int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid HH:MM %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func parseDate(s string) (year int, month time.Month, day int, err error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.Year(), t.Month(), t.Day(), nil
}
