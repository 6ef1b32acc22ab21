// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsyncdispatch

import (
	"sync"
)

// Registration is a scoped handle bundling a [Dispatch] and one registered
// callback, so callers schedule without re-threading the token, and cannot
// leak a registration by forgetting to unregister.
//
// A Registration owns its token exclusively: do not copy, and do not share
// the token with other owners. Close unregisters the callback and is
// idempotent; all methods on a closed Registration report the
// unknown-token outcome.
//
// Instances must be created via NewRegistration.
type Registration struct {
	mu       sync.Mutex
	dispatch Dispatch
	token    CallbackToken
}

// NewRegistration registers callback with dispatch and returns the owning
// handle. Panics if dispatch is nil (callback is validated by the
// dispatcher).
//
// If the dispatcher refuses the registration (already shut down), the handle
// is returned closed.
func NewRegistration(dispatch Dispatch, callback Callback, name string) *Registration {
	if dispatch == nil {
		panic(`vsyncdispatch: nil dispatch`)
	}
	return &Registration{
		dispatch: dispatch,
		token:    dispatch.RegisterCallback(callback, name),
	}
}

// Token returns the held token, zero if closed.
func (x *Registration) Token() CallbackToken {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.token
}

// Schedule forwards to [Dispatch.Schedule] using the held token.
func (x *Registration) Schedule(timing ScheduleTiming) (ScheduleResult, bool) {
	x.mu.Lock()
	dispatch, token := x.dispatch, x.token
	x.mu.Unlock()
	if token == 0 {
		return ScheduleResult{}, false
	}
	return dispatch.Schedule(token, timing)
}

// Update forwards to [Dispatch.Update] using the held token.
func (x *Registration) Update(timing ScheduleTiming) (ScheduleResult, bool) {
	x.mu.Lock()
	dispatch, token := x.dispatch, x.token
	x.mu.Unlock()
	if token == 0 {
		return ScheduleResult{}, false
	}
	return dispatch.Update(token, timing)
}

// Cancel forwards to [Dispatch.Cancel] using the held token.
func (x *Registration) Cancel() CancelResult {
	x.mu.Lock()
	dispatch, token := x.dispatch, x.token
	x.mu.Unlock()
	if token == 0 {
		return CancelResultError
	}
	return dispatch.Cancel(token)
}

// Close unregisters the callback, cancelling any pending wakeup first. Safe
// to call multiple times; only the first call unregisters.
func (x *Registration) Close() error {
	x.mu.Lock()
	dispatch, token := x.dispatch, x.token
	x.token = 0
	x.mu.Unlock()
	if token != 0 {
		dispatch.UnregisterCallback(token)
	}
	return nil
}
