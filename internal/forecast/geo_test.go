package forecast

import "testing"

func TestOnCorridor_MembershipLaw(t *testing.T) {
	// Route: Dublin city center to the airport.
	originLat, originLng := 53.3498, -6.2603
	destLat, destLng := 53.3849, -6.2579

	t.Run("within 2km of origin is retained", func(t *testing.T) {
		if !OnCorridor(53.3500, -6.2600, originLat, originLng, destLat, destLng) {
			t.Error("expected event near origin to be on corridor")
		}
	})

	t.Run("within 2km of destination is retained", func(t *testing.T) {
		if !OnCorridor(53.3850, -6.2580, originLat, originLng, destLat, destLng) {
			t.Error("expected event near destination to be on corridor")
		}
	})

	t.Run("within 2km of midpoint is retained", func(t *testing.T) {
		midLat := (originLat + destLat) / 2
		midLng := (originLng + destLng) / 2
		if !OnCorridor(midLat, midLng, originLat, originLng, destLat, destLng) {
			t.Error("expected event at midpoint to be on corridor")
		}
	})

	t.Run("far from all three is dropped", func(t *testing.T) {
		if OnCorridor(53.9000, -6.9000, originLat, originLng, destLat, destLng) {
			t.Error("expected distant event to be dropped")
		}
	})
}

func TestHaversineKm_ZeroForSamePoint(t *testing.T) {
	if d := HaversineKm(53.35, -6.26, 53.35, -6.26); d != 0 {
		t.Errorf("expected 0 distance for identical points, got %f", d)
	}
}
