package forecast

import "testing"

func TestLocalTimeToUTC_DSTCorrectness(t *testing.T) {
	cases := []struct {
		name string
		date string
		want string
	}{
		{name: "after spring-forward, on summer offset", date: "2026-03-30", want: "07:45"},
		{name: "after autumn clock change, back on winter offset", date: "2026-10-25", want: "08:45"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalTimeToUTC("08:45", "Europe/Dublin", tc.date)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("LocalTimeToUTC(08:45, Europe/Dublin, %s) = %s, want %s", tc.date, got, tc.want)
			}
		})
	}
}

func TestLocalTimeToUTC_UnresolvableZoneFallsBackToLocal(t *testing.T) {
	got, err := LocalTimeToUTC("08:45", "Not/A_Real_Zone", "2026-03-30")
	if err != nil {
		t.Fatalf("unresolvable zone must not error: %v", err)
	}
	if got != "08:45" {
		t.Errorf("expected fallback to unchanged local time, got %s", got)
	}
}

func TestLocalTimeToUTC_InvalidInputs(t *testing.T) {
	if _, err := LocalTimeToUTC("not-a-time", "UTC", "2026-03-30"); err == nil {
		t.Error("expected error for invalid HH:MM")
	}
	if _, err := LocalTimeToUTC("08:45", "UTC", "not-a-date"); err == nil {
		t.Error("expected error for invalid date")
	}
}
