package vsyncdispatch

import (
	"sync/atomic"
)

// DispatcherState represents the lifecycle state of a [Dispatcher].
//
// State machine:
//
//	StateIdle → StateRunning          [Run]
//	StateIdle → StateTerminated       [Shutdown/Close before Run]
//	StateRunning → StateTerminating   [Shutdown/Close/ctx cancellation]
//	StateTerminating → StateTerminated [dispatch loop exit]
//
// Terminated is terminal; a dispatcher cannot be restarted.
type DispatcherState uint32

const (
	// StateIdle indicates the dispatcher has been created but Run has not
	// been called. Registrations and schedules are accepted; armed callbacks
	// fire once the loop starts.
	StateIdle DispatcherState = iota
	// StateRunning indicates the dispatch loop is consuming the timeline.
	StateRunning
	// StateTerminating indicates shutdown was requested but the loop has not
	// yet exited.
	StateTerminating
	// StateTerminated indicates the dispatcher is fully stopped. New
	// registrations are refused.
	StateTerminated
)

// String returns a human-readable representation of the state.
func (x DispatcherState) String() string {
	switch x {
	case StateIdle:
		return `Idle`
	case StateRunning:
		return `Running`
	case StateTerminating:
		return `Terminating`
	case StateTerminated:
		return `Terminated`
	default:
		return `Unknown`
	}
}

// dispatcherState is a lock-free lifecycle state machine, CAS for contended
// transitions, plain store for the irreversible ones.
type dispatcherState struct {
	v atomic.Uint32
}

func (x *dispatcherState) load() DispatcherState {
	return DispatcherState(x.v.Load())
}

func (x *dispatcherState) store(state DispatcherState) {
	x.v.Store(uint32(state))
}

func (x *dispatcherState) tryTransition(from, to DispatcherState) bool {
	return x.v.CompareAndSwap(uint32(from), uint32(to))
}
