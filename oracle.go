package vsyncdispatch

import (
	"fmt"
	"time"
)

// FixedRateOracle is an [Oracle] that predicts vsync events at a fixed
// period from a phase reference. It models an ideal jitter-free display, and
// is primarily useful for tests and tooling; production callers normally
// inject a predictor fed by observed hardware timestamps.
//
// FixedRateOracle is immutable and safe for concurrent use.
type FixedRateOracle struct {
	period time.Duration
	phase  time.Time
}

// NewFixedRateOracle returns an oracle predicting vsync events at phase,
// phase+period, phase+2*period, and so on. Panics if period is not positive.
func NewFixedRateOracle(period time.Duration, phase time.Time) *FixedRateOracle {
	if period <= 0 {
		panic(fmt.Errorf(`vsyncdispatch: invalid vsync period: %v`, period))
	}
	return &FixedRateOracle{period: period, phase: phase}
}

// NearestVsyncAtOrAfter returns the earliest multiple of the period, counted
// from the phase reference, at or after t.
func (x *FixedRateOracle) NearestVsyncAtOrAfter(t time.Time) time.Time {
	d := t.Sub(x.phase)
	if d <= 0 {
		return x.phase
	}
	intervals := d / x.period
	if d%x.period != 0 {
		intervals++
	}
	return x.phase.Add(intervals * x.period)
}

// Period returns the vsync period.
func (x *FixedRateOracle) Period() time.Duration { return x.period }
