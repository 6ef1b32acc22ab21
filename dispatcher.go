// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsyncdispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// Standard errors.
var (
	// ErrAlreadyRunning is returned when Run is called on a dispatcher whose
	// dispatch loop is already running.
	ErrAlreadyRunning = errors.New(`vsyncdispatch: dispatcher is already running`)

	// ErrDispatcherTerminated is returned when lifecycle operations are
	// attempted on a terminated dispatcher.
	ErrDispatcherTerminated = errors.New(`vsyncdispatch: dispatcher has been terminated`)
)

// Dispatcher is the timeline-backed [Dispatch] implementation.
//
// It keeps a min-heap of armed wakeups, ordered by wakeup time with
// registration order as the tiebreak, consumed by a single dispatch
// goroutine ([Dispatcher.Run]). One mutex serializes all registry/timeline
// transitions; user callbacks are invoked with no lock held, so they may
// re-enter the API.
//
// Instances must be created via [New].
type Dispatcher struct {
	// Prevent copying
	_ [0]func()

	oracle        Oracle
	clock         Clock
	logger        *logiface.Logger[logiface.Event]
	metrics       *dispatchMetrics
	lateThreshold time.Duration
	lateLimiter   *catrate.Limiter

	state    dispatcherState
	wakeCh   chan struct{}
	loopDone chan struct{}
	doneOnce sync.Once

	mu       sync.Mutex
	registry *registry
	timeline timeline
}

var _ Dispatch = (*Dispatcher)(nil)

// New creates a Dispatcher that resolves schedule requests against the given
// oracle. Panics if oracle is nil.
//
// The dispatch loop must be started separately, via [Dispatcher.Run]; until
// then, registrations and schedules are accepted but nothing fires.
func New(oracle Oracle, opts ...DispatcherOption) *Dispatcher {
	if oracle == nil {
		panic(`vsyncdispatch: nil oracle`)
	}

	cfg := resolveDispatcherOptions(opts)

	x := &Dispatcher{
		oracle:        oracle,
		clock:         cfg.clock,
		logger:        cfg.logger,
		lateThreshold: cfg.lateThreshold,
		lateLimiter: catrate.NewLimiter(map[time.Duration]int{
			time.Second: 1,
			time.Minute: 10,
		}),
		wakeCh:   make(chan struct{}, 1),
		loopDone: make(chan struct{}),
		registry: newRegistry(),
	}

	if cfg.metrics {
		x.metrics = new(dispatchMetrics)
	}

	return x
}

// Run runs the dispatch loop, blocking until the dispatcher terminates via
// [Dispatcher.Shutdown], [Dispatcher.Close], or ctx cancellation. To run in
// a separate goroutine, use `go dispatcher.Run(ctx)`.
func (x *Dispatcher) Run(ctx context.Context) error {
	if !x.state.tryTransition(StateIdle, StateRunning) {
		if x.state.load() == StateRunning {
			return ErrAlreadyRunning
		}
		return ErrDispatcherTerminated
	}

	defer x.finalize()

	x.logger.Debug().Log(`vsync dispatch loop started`)

	for {
		select {
		case <-ctx.Done():
			x.initiateShutdown()
			return ctx.Err()
		default:
		}

		if x.state.load() != StateRunning {
			return nil
		}

		x.mu.Lock()
		next := x.timeline.peek()
		if next == nil {
			x.mu.Unlock()
			select {
			case <-x.wakeCh:
			case <-ctx.Done():
			}
			continue
		}

		now := x.clock.Now()
		if delay := next.armed.wakeup.Sub(now); delay > 0 {
			x.mu.Unlock()
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-x.wakeCh:
			case <-ctx.Done():
			}
			timer.Stop()
			continue
		}

		// Commit to firing: from here on, a concurrent Cancel sees Firing
		// and reports TooLate.
		entry := x.timeline.popEarliest()
		entry.state = callbackFiring
		entry.lastDispatched = entry.armed.vsync
		times := entry.armed
		x.mu.Unlock()

		x.invoke(entry, times, now)

		x.mu.Lock()
		// The callback may have re-armed itself (state Armed), or been
		// unregistered; only a still-firing entry transitions back to Idle.
		if entry.state == callbackFiring {
			entry.state = callbackIdle
		}
		x.mu.Unlock()
	}
}

// invoke runs a committed callback, with panic containment. Never called
// with the dispatcher mutex held.
func (x *Dispatcher) invoke(entry *callbackEntry, times armedTimes, now time.Time) {
	latency := now.Sub(times.wakeup)
	x.metrics.recordFire(latency)

	if latency > x.lateThreshold {
		if _, ok := x.lateLimiter.Allow(entry.name); ok {
			x.logger.Warning().
				Str(`callback`, entry.name).
				Dur(`latency`, latency).
				Time(`vsync`, times.vsync).
				Log(`late vsync callback dispatch`)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			x.metrics.recordPanic()
			x.logger.Err().
				Str(`callback`, entry.name).
				Str(`panic`, fmt.Sprint(r)).
				Log(`recovered panic in vsync callback`)
		}
	}()

	entry.callback(times.vsync, times.wakeup, times.ready)
}

// finalize is the dispatch loop's exit path.
func (x *Dispatcher) finalize() {
	x.state.store(StateTerminated)
	x.mu.Lock()
	x.disarmAllLocked()
	x.mu.Unlock()
	x.doneOnce.Do(func() { close(x.loopDone) })
	x.logger.Debug().Log(`vsync dispatch loop terminated`)
}

// disarmAllLocked clears the timeline, leaving every armed entry idle.
func (x *Dispatcher) disarmAllLocked() {
	for _, entry := range x.timeline.entries {
		entry.state = callbackIdle
		entry.heapIndex = -1
	}
	x.timeline.entries = nil
}

// initiateShutdown moves the dispatcher towards termination without waiting.
func (x *Dispatcher) initiateShutdown() {
	for {
		switch current := x.state.load(); current {
		case StateTerminating, StateTerminated:
			return
		case StateIdle:
			// Loop never started; terminate directly.
			if x.state.tryTransition(StateIdle, StateTerminated) {
				x.mu.Lock()
				x.disarmAllLocked()
				x.mu.Unlock()
				x.doneOnce.Do(func() { close(x.loopDone) })
				return
			}
		case StateRunning:
			if x.state.tryTransition(StateRunning, StateTerminating) {
				x.wake()
				return
			}
		}
	}
}

// Shutdown gracefully terminates the dispatcher: pending wakeups are
// discarded without firing, and new registrations are refused. It blocks
// until the dispatch loop has exited, or ctx expires.
//
// Returns ErrDispatcherTerminated if already terminated.
func (x *Dispatcher) Shutdown(ctx context.Context) error {
	if x.state.load() == StateTerminated {
		return ErrDispatcherTerminated
	}
	x.initiateShutdown()
	select {
	case <-x.loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close immediately initiates termination without waiting for the dispatch
// loop to exit. Returns ErrDispatcherTerminated if already terminated.
func (x *Dispatcher) Close() error {
	if x.state.load() == StateTerminated {
		return ErrDispatcherTerminated
	}
	x.initiateShutdown()
	return nil
}

// State returns the current lifecycle state.
func (x *Dispatcher) State() DispatcherState {
	return x.state.load()
}

// Metrics returns a snapshot of dispatcher statistics. The zero Metrics
// value is returned unless the dispatcher was created with
// WithMetrics(true).
func (x *Dispatcher) Metrics() Metrics {
	return x.metrics.snapshot()
}

// RegisterCallback implements [Dispatch].
func (x *Dispatcher) RegisterCallback(callback Callback, name string) CallbackToken {
	if callback == nil {
		panic(`vsyncdispatch: nil callback`)
	}

	if s := x.state.load(); s == StateTerminating || s == StateTerminated {
		x.logger.Debug().
			Str(`callback`, name).
			Log(`registration refused on terminated dispatcher`)
		return 0
	}

	x.mu.Lock()
	entry := x.registry.register(callback, name)
	x.mu.Unlock()

	x.logger.Debug().
		Str(`callback`, name).
		Uint64(`token`, uint64(entry.token)).
		Log(`callback registered`)

	return entry.token
}

// UnregisterCallback implements [Dispatch].
func (x *Dispatcher) UnregisterCallback(token CallbackToken) {
	x.mu.Lock()
	entry := x.registry.lookup(token)
	if entry == nil {
		x.mu.Unlock()
		x.logger.Warning().
			Uint64(`token`, uint64(token)).
			Log(`unregister of unknown callback token`)
		return
	}
	if entry.state == callbackArmed {
		x.timeline.remove(entry)
		entry.state = callbackIdle
	}
	x.registry.unregister(token)
	name := entry.name
	x.mu.Unlock()

	x.logger.Debug().
		Str(`callback`, name).
		Uint64(`token`, uint64(token)).
		Log(`callback unregistered`)
}

// Schedule implements [Dispatch].
func (x *Dispatcher) Schedule(token CallbackToken, timing ScheduleTiming) (ScheduleResult, bool) {
	if s := x.state.load(); s == StateTerminating || s == StateTerminated {
		return ScheduleResult{}, false
	}

	x.mu.Lock()
	entry := x.registry.lookup(token)
	if entry == nil {
		x.mu.Unlock()
		return ScheduleResult{}, false
	}

	times, ok := resolveTiming(x.oracle, x.clock.Now(), timing, entry.lastDispatched)
	if !ok {
		x.mu.Unlock()
		x.metrics.recordRejected()
		x.logger.Debug().
			Str(`callback`, entry.name).
			Time(`vsync`, timing.LastVsync).
			Log(`schedule rejected, already dispatched for target vsync`)
		return ScheduleResult{}, false
	}

	x.armLocked(entry, times)
	earliest := x.timeline.peek() == entry
	x.mu.Unlock()

	if earliest {
		x.wake()
	}

	return ScheduleResult{CallbackTime: times.wakeup, VsyncTime: times.vsync}, true
}

// Update implements [Dispatch].
func (x *Dispatcher) Update(token CallbackToken, timing ScheduleTiming) (ScheduleResult, bool) {
	if s := x.state.load(); s == StateTerminating || s == StateTerminated {
		return ScheduleResult{}, false
	}

	x.mu.Lock()
	entry := x.registry.lookup(token)
	if entry == nil || entry.state != callbackArmed {
		x.mu.Unlock()
		return ScheduleResult{}, false
	}

	times, ok := resolveTiming(x.oracle, x.clock.Now(), timing, entry.lastDispatched)
	if !ok {
		x.mu.Unlock()
		x.metrics.recordRejected()
		return ScheduleResult{}, false
	}

	x.armLocked(entry, times)
	earliest := x.timeline.peek() == entry
	x.mu.Unlock()

	if earliest {
		x.wake()
	}

	return ScheduleResult{CallbackTime: times.wakeup, VsyncTime: times.vsync}, true
}

// Cancel implements [Dispatch].
func (x *Dispatcher) Cancel(token CallbackToken) CancelResult {
	x.mu.Lock()
	entry := x.registry.lookup(token)
	if entry == nil {
		x.mu.Unlock()
		return CancelResultError
	}

	switch entry.state {
	case callbackArmed:
		x.timeline.remove(entry)
		entry.state = callbackIdle
		x.mu.Unlock()
		x.metrics.recordCancelled()
		return CancelResultCancelled

	case callbackFiring:
		x.mu.Unlock()
		x.metrics.recordTooLate()
		return CancelResultTooLate

	default:
		// Nothing pending; the callback will not fire.
		x.mu.Unlock()
		return CancelResultCancelled
	}
}

// armLocked installs a resolved schedule for entry, superseding any pending
// wakeup. Requires the dispatcher mutex.
func (x *Dispatcher) armLocked(entry *callbackEntry, times armedTimes) {
	entry.armed = times
	if entry.state == callbackArmed {
		x.timeline.fix(entry)
	} else {
		entry.state = callbackArmed
		x.timeline.add(entry)
	}
}

// wake interrupts the dispatch loop's wait, so it re-evaluates the earliest
// deadline. Non-blocking; a pending wakeup is sufficient.
func (x *Dispatcher) wake() {
	select {
	case x.wakeCh <- struct{}{}:
	default:
	}
}
