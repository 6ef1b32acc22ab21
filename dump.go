package vsyncdispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Dump implements [Dispatch]. It renders the registered callbacks, their
// schedule state, and (when enabled) a metrics summary. For operational
// inspection only; the format is not stable.
func (x *Dispatcher) Dump() string {
	type row struct {
		token          CallbackToken
		name           string
		state          callbackState
		armed          armedTimes
		lastDispatched time.Time
	}

	x.mu.Lock()
	now := x.clock.Now()
	rows := make([]row, 0, len(x.registry.entries))
	for _, token := range x.registry.tokens() {
		entry := x.registry.lookup(token)
		rows = append(rows, row{
			token:          entry.token,
			name:           entry.name,
			state:          entry.state,
			armed:          entry.armed,
			lastDispatched: entry.lastDispatched,
		})
	}
	x.mu.Unlock()

	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "VSyncDispatch state=%s callbacks=%d now=%s\n",
		x.state.load(), len(rows), now.Format(time.RFC3339Nano))

	table := tablewriter.NewWriter(&b)
	table.Header(`Token`, `Name`, `State`, `Next Wakeup`, `Target Vsync`, `Last Dispatched`)
	for _, r := range rows {
		wakeup, vsync := `-`, `-`
		if r.state == callbackArmed || r.state == callbackFiring {
			wakeup = formatDumpTime(r.armed.wakeup)
			vsync = formatDumpTime(r.armed.vsync)
		}
		last := `-`
		if !r.lastDispatched.IsZero() {
			last = formatDumpTime(r.lastDispatched)
		}
		_ = table.Append(
			fmt.Sprintf(`%d`, r.token),
			r.name,
			r.state.String(),
			wakeup,
			vsync,
			last,
		)
	}
	_ = table.Render()

	if x.metrics != nil {
		m := x.metrics.snapshot()
		_, _ = fmt.Fprintf(&b,
			"fired=%d cancelled=%d tooLate=%d rejected=%d panics=%d wakeupLatency{p50=%s p99=%s max=%s samples=%d}\n",
			m.Fired, m.Cancelled, m.TooLate, m.Rejected, m.Panics,
			m.WakeupLatency.P50, m.WakeupLatency.P99, m.WakeupLatency.Max,
			m.WakeupLatency.Samples)
	}

	return b.String()
}

func formatDumpTime(t time.Time) string {
	return t.Format(`15:04:05.000000000`)
}
