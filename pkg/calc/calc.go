// Package calc provides progress and ETA arithmetic for downloads.
package calc

import (
	"math"
	"time"
)

// Progress returns the whole percentage of downloaded over total, floored
// and clamped to [0, 100]. Approximate totals can undershoot the real size,
// so downloaded may exceed total mid-transfer. An unknown total yields 0.
func Progress(downloaded, total int64) int {
	if total <= 0 {
		return 0
	}

	percent := int(math.Floor(float64(downloaded) / float64(total) * 100))

	return min(max(percent, 0), 100)
}

// Speed returns the average download rate in bytes/sec since started.
func Speed(downloaded int64, started time.Time) float64 {
	elapsed := time.Since(started).Seconds()
	if elapsed <= 0 {
		return 0
	}

	return float64(downloaded) / elapsed
}

// ETA estimates the remaining time from the average rate so far.
// Returns 0 when the total is unknown or nothing was downloaded yet.
func ETA(downloaded, total int64, started time.Time) time.Duration {
	if total <= 0 || downloaded <= 0 {
		return 0
	}

	elapsed := time.Since(started)

	return time.Duration(float64(elapsed) * (float64(total)/float64(downloaded) - 1))
}
