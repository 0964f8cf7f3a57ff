// Package timefmt validates user-supplied trim time markers.
package timefmt

import (
	"regexp"
	"strings"
)

var (
	reSeconds = regexp.MustCompile(`^\d+$`)
	reClock   = regexp.MustCompile(`^\d{1,2}(:\d{2}){0,2}$`)
)

// Valid reports whether t is a bare count of seconds or a clock value up to
// HH:MM:SS (1-2 digit leading component, two-digit trailing groups).
//
// Examples: "30", "1:23", "00:01:23".
func Valid(t string) bool {
	t = strings.TrimSpace(t)
	if t == "" {
		return false
	}

	return reSeconds.MatchString(t) || reClock.MatchString(t)
}
