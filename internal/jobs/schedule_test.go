package jobs

import (
	"testing"
	"time"
)

func TestUntilNext_AlwaysPositive(t *testing.T) {
	now := time.Now().UTC()
	d := untilNext(now.Hour(), now.Minute())
	if d <= 0 {
		t.Fatalf("untilNext(now) = %v, want strictly positive", d)
	}
	if d > 24*time.Hour {
		t.Fatalf("untilNext(now) = %v, want at most 24h", d)
	}
}

func TestUntilNext_FutureHourToday(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(2 * time.Hour)
	if future.Day() != now.Day() {
		t.Skip("test instant too close to UTC midnight for a stable same-day assertion")
	}
	d := untilNext(future.Hour(), future.Minute())
	if d <= 0 || d > 3*time.Hour {
		t.Fatalf("untilNext(2h from now) = %v, want roughly 2h", d)
	}
}

func TestUntilNext_PastTimeWrapsToTomorrow(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-1 * time.Hour)
	d := untilNext(past.Hour(), past.Minute())
	if d <= 22*time.Hour || d > 23*time.Hour {
		t.Fatalf("untilNext(1h ago) = %v, want close to 23h", d)
	}
}
