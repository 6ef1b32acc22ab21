package vsyncdispatch

import (
	"time"
)

// Clock provides the dispatcher's notion of "now". All timestamps handled by
// the dispatcher share this single time base, which must be monotonic.
//
// The default implementation uses [time.Now], whose monotonic reading
// insulates timer math from wall-clock adjustment. Tests substitute a fake
// to drive the timing resolver deterministically.
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
