// Package human renders byte counts and durations for display.
package human

import "fmt"

var units = []string{"B", "KB", "MB", "GB", "TB"}

// Size formats n bytes in binary-prefixed units with one decimal place.
// Non-positive values render as "0 B".
func Size(n float64) string {
	if n <= 0 {
		return "0 B"
	}

	for _, unit := range units {
		if n < 1024.0 {
			return fmt.Sprintf("%.1f %s", n, unit)
		}

		n /= 1024.0
	}

	return fmt.Sprintf("%.1f PB", n)
}

// Time formats a second count as "Ns", "Nm Ns" or "Nh Nm".
// Negative values render as "Unknown".
func Time(s int) string {
	if s < 0 {
		return "Unknown"
	}

	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}

	m, sec := s/60, s%60
	if m < 60 {
		return fmt.Sprintf("%dm %ds", m, sec)
	}

	h, m := m/60, m%60

	return fmt.Sprintf("%dh %dm", h, m)
}
