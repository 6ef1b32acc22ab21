package vsyncdispatch

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// latencySampleSize is the rolling window of wakeup latency samples retained
// for percentile computation.
const latencySampleSize = 256

// Metrics is a point-in-time snapshot of dispatcher statistics, returned by
// [Dispatcher.Metrics].
type Metrics struct {
	// Fired is the total number of callback invocations.
	Fired uint64
	// Cancelled is the number of Cancel calls that removed a pending wakeup.
	Cancelled uint64
	// TooLate is the number of Cancel calls that lost the race with the
	// dispatch loop.
	TooLate uint64
	// Rejected is the number of Schedule/Update calls rejected by the timing
	// resolver (already dispatched for the target vsync).
	Rejected uint64
	// Panics is the number of recovered callback panics.
	Panics uint64

	// WakeupLatency is the distribution of actual fire time minus target
	// wakeup time, over a rolling window of recent fires.
	WakeupLatency LatencyStats
}

// LatencyStats summarizes a latency distribution.
type LatencyStats struct {
	Samples int
	P50     time.Duration
	P90     time.Duration
	P95     time.Duration
	P99     time.Duration
	Max     time.Duration
	Mean    time.Duration
}

// dispatchMetrics collects dispatcher statistics. All methods are safe for
// concurrent use, and become no-ops on a nil receiver, so the dispatcher
// carries a nil *dispatchMetrics when metrics are disabled.
type dispatchMetrics struct {
	fired     atomic.Uint64
	cancelled atomic.Uint64
	tooLate   atomic.Uint64
	rejected  atomic.Uint64
	panics    atomic.Uint64

	mu          sync.Mutex
	samples     [latencySampleSize]time.Duration
	sampleIdx   int
	sampleCount int
	sampleSum   time.Duration
}

func (x *dispatchMetrics) recordFire(latency time.Duration) {
	if x == nil {
		return
	}
	x.fired.Add(1)

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.sampleCount >= latencySampleSize {
		x.sampleSum -= x.samples[x.sampleIdx]
	} else {
		x.sampleCount++
	}
	x.samples[x.sampleIdx] = latency
	x.sampleSum += latency
	x.sampleIdx++
	if x.sampleIdx >= latencySampleSize {
		x.sampleIdx = 0
	}
}

func (x *dispatchMetrics) recordCancelled() {
	if x != nil {
		x.cancelled.Add(1)
	}
}

func (x *dispatchMetrics) recordTooLate() {
	if x != nil {
		x.tooLate.Add(1)
	}
}

func (x *dispatchMetrics) recordRejected() {
	if x != nil {
		x.rejected.Add(1)
	}
}

func (x *dispatchMetrics) recordPanic() {
	if x != nil {
		x.panics.Add(1)
	}
}

// snapshot computes percentiles over the rolling window and returns a copy.
func (x *dispatchMetrics) snapshot() Metrics {
	if x == nil {
		return Metrics{}
	}

	m := Metrics{
		Fired:     x.fired.Load(),
		Cancelled: x.cancelled.Load(),
		TooLate:   x.tooLate.Load(),
		Rejected:  x.rejected.Load(),
		Panics:    x.panics.Load(),
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	count := x.sampleCount
	m.WakeupLatency.Samples = count
	if count == 0 {
		return m
	}

	sorted := make([]time.Duration, count)
	copy(sorted, x.samples[:count])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	m.WakeupLatency.P50 = sorted[percentileIndex(count, 50)]
	m.WakeupLatency.P90 = sorted[percentileIndex(count, 90)]
	m.WakeupLatency.P95 = sorted[percentileIndex(count, 95)]
	m.WakeupLatency.P99 = sorted[percentileIndex(count, 99)]
	m.WakeupLatency.Max = sorted[count-1]
	m.WakeupLatency.Mean = x.sampleSum / time.Duration(count)

	return m
}

// percentileIndex computes the sample index for a given percentile (0-100).
func percentileIndex(n, p int) int {
	index := (p * n) / 100
	if index >= n {
		return n - 1
	}
	return index
}
