package forecast

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	rainThresholdMm   = 0.5
	rainBufferMins    = 10
	eventBufferMins   = 30
	rainReason        = "Rain expected during your commute window — allow extra time"
	eventReasonFormat = "Event near your route: %s"
)

// HourlyReading is one hour's precipitation for the route's city on the
// forecast date, keyed by hour-of-day in UTC (0-23).
type HourlyReading struct {
	Hour            int
	PrecipitationMm float64
}

// CorridorEvent is an event that has already passed both the commute-window
// and corridor-membership filters.
type CorridorEvent struct {
	Name string
}

// RecommendInput is the sole input shape to the recommendation engine —
// the single swap point for a future model-backed replacement.
type RecommendInput struct {
	Hourly         []HourlyReading
	CorridorEvents []CorridorEvent
	ArriveByUTC    string // "HH:MM"
	StaticDuration *int   // minutes; nil is a hard error
	ForecastDate   string // "YYYY-MM-DD"
}

// RecommendOutput is the recommendation engine's sole output shape.
type RecommendOutput struct {
	AdjustedDepartBy time.Time
	ExtraBufferMins  int
	Reasoning        string
}

// Recommend applies the deterministic phase-1 rules: +10 minutes for
// commute-window rain over 0.5mm, +30 minutes per corridor event, and a
// departure time that may roll to the previous UTC calendar day — no
// clamping.
func Recommend(input RecommendInput) (RecommendOutput, error) {
	if input.StaticDuration == nil {
		return RecommendOutput{}, fmt.Errorf("recommend: staticDuration is required")
	}

	arriveMins, err := minutesOfDay(input.ArriveByUTC)
	if err != nil {
		return RecommendOutput{}, err
	}

	forecastMidnight, err := time.Parse("2006-01-02", input.ForecastDate)
	if err != nil {
		return RecommendOutput{}, fmt.Errorf("recommend: invalid forecastDate %q: %w", input.ForecastDate, err)
	}
	forecastMidnight = forecastMidnight.UTC()

	precipMm := commuteWindowPrecipitation(input.Hourly, arriveMins, *input.StaticDuration)

	extraBuffer := 0
	var reasons []string
	if precipMm > rainThresholdMm {
		extraBuffer += rainBufferMins
		reasons = append(reasons, rainReason)
	}
	for _, ev := range input.CorridorEvents {
		extraBuffer += eventBufferMins
		reasons = append(reasons, fmt.Sprintf(eventReasonFormat, ev.Name))
	}

	departMins := arriveMins - *input.StaticDuration - extraBuffer
	adjustedDepartBy := forecastMidnight.Add(time.Duration(departMins) * time.Minute)

	return RecommendOutput{
		AdjustedDepartBy: adjustedDepartBy,
		ExtraBufferMins:  extraBuffer,
		Reasoning:        strings.Join(reasons, "; "),
	}, nil
}

// commuteWindowPrecipitation sums precipitation across UTC hours
// [departHourUtc, arriveHourUtc] inclusive, where departHourUtc =
// floor((arriveMinsUtc - staticDuration) / 60). Hours outside [0,23] have
// no matching reading and simply contribute nothing — the tolerated
// "missing data" case.
func commuteWindowPrecipitation(hourly []HourlyReading, arriveMins, staticDuration int) float64 {
	departHour := int(math.Floor(float64(arriveMins-staticDuration) / 60))
	arriveHour := arriveMins / 60

	lo, hi := departHour, arriveHour
	if lo > hi {
		lo, hi = hi, lo
	}

	var total float64
	for _, h := range hourly {
		if h.Hour >= lo && h.Hour <= hi {
			total += h.PrecipitationMm
		}
	}
	return total
}

func minutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid HH:MM %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
