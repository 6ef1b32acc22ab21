// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsyncdispatch

import (
	"time"
)

type (
	// CallbackToken identifies a callback registered with a Dispatch.
	// Tokens are allocated monotonically and never reused for the lifetime of
	// the dispatcher. The zero value is invalid.
	CallbackToken uint64

	// Callback is a unit of work awoken at a given time relative to a vsync
	// event.
	//
	// The vsyncTime param is the timestamp of the vsync the callback is for,
	// targetWakeupTime is the intended wakeup time, and readyTime is the time
	// the client needs to have finished its work by.
	//
	// Any resources referenced by the callback must outlive the registration.
	// That contract is not enforced; see Registration for a way to tie
	// resource lifetime to registration lifetime.
	Callback func(vsyncTime, targetWakeupTime, readyTime time.Time)

	// ScheduleTiming is the timing information for a Schedule or Update call.
	//
	// The callback will be dispatched WorkDuration + ReadyDuration before the
	// targeted vsync event.
	ScheduleTiming struct {
		// WorkDuration is the time the client needs to perform its work.
		WorkDuration time.Duration

		// ReadyDuration is additional lead time the client needs to be ready
		// before the vsync event, on top of WorkDuration. Typically zero for
		// clients that only need their own work time accounted for.
		ReadyDuration time.Duration

		// LastVsync is the earliest acceptable target vsync. The dispatcher
		// targets the nearest predicted vsync at or after it.
		LastVsync time.Time

		// CommittedVsync, if non-zero, pins the target vsync to an exact
		// time, bypassing prediction. Used to coordinate multiple callbacks
		// targeting the same frame.
		CommittedVsync time.Time
	}

	// ScheduleResult is the outcome of a successful Schedule or Update call.
	// It is produced fresh by every call, and is not stable across future
	// reschedules.
	ScheduleResult struct {
		// CallbackTime is the absolute wakeup time that was resolved.
		CallbackTime time.Time

		// VsyncTime is the vsync event the callback targets.
		VsyncTime time.Time
	}

	// CancelResult classifies the outcome of a Cancel call.
	CancelResult int

	// Oracle predicts vsync timestamps. Implementations must be safe for
	// concurrent use; the dispatcher treats the oracle as read-only.
	Oracle interface {
		// NearestVsyncAtOrAfter returns the predicted vsync time v such that
		// v >= t, for the earliest such vsync.
		NearestVsyncAtOrAfter(t time.Time) time.Time
	}

	// Dispatch dispatches callbacks relative to vsync events.
	//
	// All methods are safe for concurrent use, including re-entrant calls
	// from within a firing callback. Implementations serialize state
	// transitions internally, but never hold internal locks while invoking
	// user callbacks.
	Dispatch interface {
		// RegisterCallback registers a callback to be awoken at designated
		// points on the vsync timeline, returning the token used to schedule,
		// reschedule, or cancel it. The name identifies the callback in logs
		// and diagnostics.
		//
		// The token must be cleaned up via UnregisterCallback. Registration
		// only fails (returning the zero token) once the dispatcher has been
		// shut down.
		RegisterCallback(callback Callback, name string) CallbackToken

		// UnregisterCallback cancels any pending wakeup for token and retires
		// it. After UnregisterCallback returns, the callback will not be
		// invoked for any wakeup armed before the call.
		UnregisterCallback(token CallbackToken)

		// Schedule arms the registered callback to be dispatched at
		// WorkDuration + ReadyDuration before the targeted vsync.
		//
		// A wakeup time already in the past is accepted, and fires at the
		// next opportunity, unless a callback was already dispatched to the
		// target vsync for this token, in which case ok is false. It is
		// valid to reschedule a callback to a different time; at most one
		// pending wakeup exists per token.
		//
		// Returns ok == false if the token is not registered.
		Schedule(token CallbackToken, timing ScheduleTiming) (_ ScheduleResult, ok bool)

		// Update re-times an armed callback, superseding the pending wakeup.
		// Unlike Schedule it does nothing (ok == false) if the callback is
		// not currently armed.
		Update(token CallbackToken, timing ScheduleTiming) (_ ScheduleResult, ok bool)

		// Cancel cancels a pending wakeup, if possible. CancelResultTooLate
		// indicates the dispatch loop already committed to invoking the
		// callback, which will still fire exactly once. That outcome is a
		// designed race, not an error; every caller must handle it.
		Cancel(token CallbackToken) CancelResult

		// Dump returns a human-readable description of the registered
		// callbacks and their schedule, for operational inspection. The
		// format is not stable.
		Dump() string
	}
)

const (
	// CancelResultError indicates a precondition violation, e.g. cancel of an
	// unknown or retired token. Callers should treat it as a defect, not a
	// retry signal.
	CancelResultError CancelResult = iota

	// CancelResultCancelled indicates the pending wakeup was removed and the
	// callback will not fire for it.
	CancelResultCancelled

	// CancelResultTooLate indicates the dispatch loop won the race, and the
	// callback will (or already did) fire once more with its last committed
	// timing.
	CancelResultTooLate
)

// String returns a human-readable representation of the cancel outcome.
func (x CancelResult) String() string {
	switch x {
	case CancelResultCancelled:
		return `Cancelled`
	case CancelResultTooLate:
		return `TooLate`
	case CancelResultError:
		return `Error`
	default:
		return `Unknown`
	}
}
