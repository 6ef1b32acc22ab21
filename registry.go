package vsyncdispatch

import (
	"sort"
	"time"
)

// callbackState is the scheduling state of a registered callback.
type callbackState int

const (
	// callbackIdle means no pending wakeup.
	callbackIdle callbackState = iota
	// callbackArmed means a wakeup is pending on the timeline.
	callbackArmed
	// callbackFiring means the dispatch loop has committed to invoking the
	// callback. Transient; a cancel observing it reports TooLate.
	callbackFiring
)

func (x callbackState) String() string {
	switch x {
	case callbackIdle:
		return `Idle`
	case callbackArmed:
		return `Armed`
	case callbackFiring:
		return `Firing`
	default:
		return `Unknown`
	}
}

// armedTimes is the resolved schedule of an armed callback.
type armedTimes struct {
	// wakeup is the absolute time the dispatch loop fires the callback.
	wakeup time.Time
	// vsync is the targeted vsync event.
	vsync time.Time
	// ready is the time the client needs to be finished by (vsync minus
	// ReadyDuration).
	ready time.Time
}

// callbackEntry is the registry's per-token state. All fields are guarded by
// the dispatcher mutex, except callback and name, which are immutable after
// registration (the dispatch loop reads them without the lock held while
// firing).
type callbackEntry struct {
	callback Callback
	name     string
	token    CallbackToken
	state    callbackState
	armed    armedTimes

	// lastDispatched is the vsync of the most recent fire, zero if the
	// callback has never fired. Drives the already-dispatched-for-vsync
	// rejection in the timing resolver.
	lastDispatched time.Time

	// heapIndex is the entry's position in the timeline heap, -1 when not
	// armed. Maintained by the timeline's heap.Interface implementation.
	heapIndex int
}

// registry maps tokens to callback state. Tokens are allocated monotonically
// starting at 1 (0 is the invalid marker) and never reused, which doubles as
// the registration-order tiebreak for simultaneous wakeups.
//
// Not internally synchronized; the owning dispatcher serializes access.
type registry struct {
	entries   map[CallbackToken]*callbackEntry
	nextToken CallbackToken
}

func newRegistry() *registry {
	return &registry{
		entries:   make(map[CallbackToken]*callbackEntry),
		nextToken: 1,
	}
}

// register allocates a fresh token and stores an idle entry. Never fails.
func (x *registry) register(callback Callback, name string) *callbackEntry {
	entry := &callbackEntry{
		callback:  callback,
		name:      name,
		token:     x.nextToken,
		heapIndex: -1,
	}
	x.nextToken++
	x.entries[entry.token] = entry
	return entry
}

// lookup returns nil for unknown or retired tokens.
func (x *registry) lookup(token CallbackToken) *callbackEntry {
	return x.entries[token]
}

// unregister erases the entry and retires the token. The caller is
// responsible for removing an armed entry from the timeline first.
func (x *registry) unregister(token CallbackToken) {
	delete(x.entries, token)
}

// tokens returns all live tokens in registration order.
func (x *registry) tokens() []CallbackToken {
	tokens := make([]CallbackToken, 0, len(x.entries))
	for token := range x.entries {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return tokens
}
