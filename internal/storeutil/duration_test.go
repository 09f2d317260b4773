package storeutil

import "testing"

func TestParseDurationSeconds(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "plain seconds", raw: "1500", want: 25},
		{name: "seconds suffix", raw: "1500s", want: 25},
		{name: "rounds up partial minute", raw: "61s", want: 2},
		{name: "exact minute", raw: "60s", want: 1},
		{name: "zero", raw: "0s", want: 0},
		{name: "whitespace padded", raw: "  120s  ", want: 2},
		{name: "empty is invalid", raw: "", wantErr: true},
		{name: "negative is invalid", raw: "-5s", wantErr: true},
		{name: "non-numeric is invalid", raw: "soon", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDurationSeconds(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got none", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("ParseDurationSeconds(%q) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}
