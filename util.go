package linerotate

import (
	"time"

	"go.uber.org/zap"
)

// Clock is a source of time for linerotate.
type Clock interface {
	// Now returns the current local time.
	Now() time.Time
}

// DefaultClock is the default clock used by linerotate to stamp lines.
// This clock uses the system clock for all operations.
var DefaultClock = systemClock{}

// systemClock implements default Clock that uses system time.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

var processStart = time.Now()

func fieldFile(name string) zap.Field {
	return zap.String("file", name)
}
