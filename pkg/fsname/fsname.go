// Package fsname produces filesystem-safe names for downloaded media.
package fsname

import "regexp"

// maxLen caps sanitized names so composed filenames stay well under
// filesystem limits.
const maxLen = 200

var unsafe = regexp.MustCompile(`[^a-zA-Z0-9_\-. ]`)

// Sanitize replaces every character outside [A-Za-z0-9_-. ] with an
// underscore and truncates the result to 200 characters.
func Sanitize(name string) string {
	cleaned := unsafe.ReplaceAllString(name, "_")

	if len(cleaned) > maxLen {
		cleaned = cleaned[:maxLen]
	}

	return cleaned
}
