//go:build !unix

package linerotate

import "time"

// monotonicNow falls back to the time elapsed since the process started,
// which time.Since measures on the runtime's monotonic clock.
func monotonicNow() time.Duration {
	return time.Since(processStart)
}
