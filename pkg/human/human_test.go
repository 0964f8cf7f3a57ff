package human

import "testing"

func TestSize(t *testing.T) {
	tests := []struct {
		name string
		n    float64
		want string
	}{
		{"zero", 0, "0 B"},
		{"negative", -10, "0 B"},
		{"bytes", 512, "512.0 B"},
		{"one_kib", 1024, "1.0 KB"},
		{"fractional_mib", 1536 * 1024, "1.5 MB"},
		{"one_gib", 1 << 30, "1.0 GB"},
		{"one_tib", 1 << 40, "1.0 TB"},
		{"rounds_to_one_decimal", 1126, "1.1 KB"}, // 1.0996 KB
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Size(tc.n); got != tc.want {
				t.Fatalf("Size(%v) = %q; want %q", tc.n, got, tc.want)
			}
		})
	}
}

func TestTime(t *testing.T) {
	tests := []struct {
		name string
		s    int
		want string
	}{
		{"negative", -1, "Unknown"},
		{"zero", 0, "0s"},
		{"seconds_only", 45, "45s"},
		{"exact_minute", 60, "1m 0s"},
		{"minutes_seconds", 90, "1m 30s"},
		{"exact_hour", 3600, "1h 0m"},
		{"hours_minutes", 3720, "1h 2m"},
		{"seconds_dropped_past_hour", 3725, "1h 2m"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Time(tc.s); got != tc.want {
				t.Fatalf("Time(%d) = %q; want %q", tc.s, got, tc.want)
			}
		})
	}
}
