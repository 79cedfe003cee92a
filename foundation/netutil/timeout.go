package netutil

import "time"

// Timeout returns fallback for non-positive d and raises d to min when it
// is shorter.
func Timeout(d, min, fallback time.Duration) time.Duration {
	if d <= 0 {
		d = fallback
	}
	if min > 0 && d < min {
		return min
	}
	return d
}
