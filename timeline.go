package vsyncdispatch

import (
	"container/heap"
)

// timeline is a min-heap of armed entries, ordered by wakeup time with
// registration order (token value) as the tiebreak. It contains exactly the
// set of entries currently in the armed state.
//
// Not internally synchronized; the owning dispatcher serializes access.
type timeline struct {
	entries []*callbackEntry
}

// Len implements heap.Interface.
func (x *timeline) Len() int { return len(x.entries) }

// Less implements heap.Interface.
func (x *timeline) Less(i, j int) bool {
	a, b := x.entries[i], x.entries[j]
	if !a.armed.wakeup.Equal(b.armed.wakeup) {
		return a.armed.wakeup.Before(b.armed.wakeup)
	}
	return a.token < b.token
}

// Swap implements heap.Interface.
func (x *timeline) Swap(i, j int) {
	x.entries[i], x.entries[j] = x.entries[j], x.entries[i]
	x.entries[i].heapIndex = i
	x.entries[j].heapIndex = j
}

// Push implements heap.Interface.
func (x *timeline) Push(v any) {
	entry := v.(*callbackEntry)
	entry.heapIndex = len(x.entries)
	x.entries = append(x.entries, entry)
}

// Pop implements heap.Interface.
func (x *timeline) Pop() any {
	old := x.entries
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.heapIndex = -1
	x.entries = old[:n-1]
	return entry
}

// peek returns the entry with the earliest wakeup, or nil.
func (x *timeline) peek() *callbackEntry {
	if len(x.entries) == 0 {
		return nil
	}
	return x.entries[0]
}

// add inserts an entry, which must not already be on the timeline.
func (x *timeline) add(entry *callbackEntry) {
	heap.Push(x, entry)
}

// fix restores ordering after an entry's wakeup changed in place.
func (x *timeline) fix(entry *callbackEntry) {
	heap.Fix(x, entry.heapIndex)
}

// remove detaches an entry, a no-op if it is not on the timeline.
func (x *timeline) remove(entry *callbackEntry) {
	if entry.heapIndex >= 0 {
		heap.Remove(x, entry.heapIndex)
	}
}

// popEarliest removes and returns the entry with the earliest wakeup, or nil.
func (x *timeline) popEarliest() *callbackEntry {
	if len(x.entries) == 0 {
		return nil
	}
	return heap.Pop(x).(*callbackEntry)
}
