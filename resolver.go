// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsyncdispatch

import (
	"time"
)

// resolveTiming converts a schedule request into the absolute wakeup time and
// target vsync. Pure computation, no side effects beyond the oracle query.
//
// The target vsync is CommittedVsync when pinned, otherwise the oracle's
// nearest prediction at or after LastVsync. The wakeup is the target vsync
// minus WorkDuration + ReadyDuration.
//
// A wakeup already in the past is accepted, and fires on the next loop
// iteration. The single rejection (ok == false) is a request whose wakeup is
// past AND whose target vsync was already dispatched for this token: firing
// it again would break the at-most-once-per-vsync guarantee. Callers can
// retry with a later LastVsync.
func resolveTiming(oracle Oracle, now time.Time, timing ScheduleTiming, lastDispatched time.Time) (_ armedTimes, ok bool) {
	var vsync time.Time
	if !timing.CommittedVsync.IsZero() {
		vsync = timing.CommittedVsync
	} else {
		vsync = oracle.NearestVsyncAtOrAfter(timing.LastVsync)
	}

	wakeup := vsync.Add(-(timing.WorkDuration + timing.ReadyDuration))

	if wakeup.Before(now) && !lastDispatched.IsZero() && lastDispatched.Equal(vsync) {
		return armedTimes{}, false
	}

	return armedTimes{
		wakeup: wakeup,
		vsync:  vsync,
		ready:  vsync.Add(-timing.ReadyDuration),
	}, true
}
