package storeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDurationSeconds parses a duration expressed either as an integer
// seconds string ("1500") or a "<n>s" string ("1500s"), the shape
// staticDuration/trafficDuration arrive in on route create/update, and
// rounds up to whole minutes.
func ParseDurationSeconds(raw string) (minutes int, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("duration is empty")
	}

	numeric := strings.TrimSuffix(raw, "s")
	seconds, err := strconv.Atoi(numeric)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("duration %q cannot be negative", raw)
	}

	minutes = (seconds + 59) / 60
	return minutes, nil
}
