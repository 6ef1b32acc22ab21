// Package vsyncdispatch schedules and dispatches time-critical callbacks
// relative to a periodic display timing signal (vsync).
//
// Clients register a [Callback] once, receiving a [CallbackToken], then
// repeatedly schedule wakeups computed from an upcoming vsync event minus a
// requested lead time, so rendering work finishes just before the display
// consumes the next frame. Vsync prediction is delegated to an injected
// [Oracle]; a fixed-rate implementation is provided via [NewFixedRateOracle].
//
// # Architecture
//
// The [Dispatcher] owns a single ordered timeline of pending wakeups across
// all registered callbacks. A dedicated goroutine ([Dispatcher.Run]) selects
// the next-soonest deadline, waits for it (interruptibly, so a concurrent
// Schedule/Update/Cancel that changes the earliest deadline wakes it early),
// and fires the due callback exactly once per accepted schedule. Callbacks
// fire in non-decreasing wakeup-time order, ties broken by registration
// order.
//
// # Thread Safety
//
// All [Dispatch] methods are safe for concurrent use from arbitrary
// goroutines, and block only briefly for an internal lock, never for the
// duration of a callback. User callbacks execute on the dispatch goroutine
// without any internal lock held, so a firing callback may freely re-enter
// the API, including rescheduling itself; the new arm stands.
//
// Cancellation is a best-effort race against the dispatch loop:
// [CancelResultTooLate] is the defined way a caller learns the race was
// lost, and the callback still fires exactly once.
//
// # Usage
//
//	dispatcher := vsyncdispatch.New(
//	    vsyncdispatch.NewFixedRateOracle(16_666_667*time.Nanosecond, time.Now()),
//	)
//	go dispatcher.Run(context.Background())
//	defer dispatcher.Shutdown(context.Background())
//
//	reg := vsyncdispatch.NewRegistration(dispatcher, func(vsyncTime, targetWakeupTime, readyTime time.Time) {
//	    // render the frame for vsyncTime
//	}, `compositor`)
//	defer reg.Close()
//
//	result, ok := reg.Schedule(vsyncdispatch.ScheduleTiming{
//	    WorkDuration: 2 * time.Millisecond,
//	    LastVsync:    time.Now(),
//	})
package vsyncdispatch
