package forecast

import (
	"commuteforecast/backend/internal/logging"
	"commuteforecast/backend/internal/models/gorm"
)

// FilterCommuteWindowEvents keeps only events whose local start time falls
// at or before the route's local arriveBy on the same calendar day. Events
// with an unparseable start time are dropped rather than propagating an
// error — one bad upstream record must not fail the whole route.
func FilterCommuteWindowEvents(events []gorm.EventRecord, arriveByLocalHHMM, ianaZone string) []gorm.EventRecord {
	arriveMins, err := minutesOfDay(arriveByLocalHHMM)
	if err != nil {
		logging.Warn("invalid arriveBy for commute-window filter", "arriveBy", arriveByLocalHHMM, "error", err)
		return nil
	}

	var filtered []gorm.EventRecord
	for _, ev := range events {
		mins, err := minutesOfDay(ev.StartTime)
		if err != nil {
			logging.Warn("invalid event start time, dropping", "startTime", ev.StartTime, "error", err)
			continue
		}
		if mins <= arriveMins {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

// FilterCorridorEvents keeps only events within corridorRadiusKm of the
// origin, destination, or their midpoint.
func FilterCorridorEvents(events []gorm.EventRecord, originLat, originLng, destLat, destLng float64) []gorm.EventRecord {
	var filtered []gorm.EventRecord
	for _, ev := range events {
		if OnCorridor(ev.Lat, ev.Lng, originLat, originLng, destLat, destLng) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}
