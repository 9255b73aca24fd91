// Package runtime implements the cooperative task substrate (spec
// §3, §4.1, §5) every other component in this repository runs on:
// a single-threaded event loop dispatching Process and Protothread
// values, driven by a sorted timer queue and a broadcast event bus.
package runtime

import "sync/atomic"

// Timer frequency matches the teacher's core/timer.go default; scaled
// here to the 10,000 Hz (10^-4 s) tick spec §4.4 assumes for
// trajectory timing, so trajectory/servo code can hand timer ticks
// straight to their fixed-point math without a conversion layer.
const TimerFreq = 10000

// TimerHandler is invoked when a Timer's WakeTime has passed.
// Returning SFReschedule re-inserts the timer using its (possibly
// updated) WakeTime; SFDone drops it.
type TimerHandler func(*Timer) uint8

const (
	SFDone       = 0
	SFReschedule = 1

	// TimerPastThreshold: if a timer fires more than this many ticks
	// late the scheduler treats it as "can't keep up" (spec §5
	// failure model is silent on diagnosing this; grounded on the
	// teacher's core/scheduler.go TimerPastThreshold, which exists for
	// exactly this purpose). At 10kHz this is 100ms.
	TimerPastThreshold = 1000
)

// Timer is a single scheduled event, grounded on
// core/scheduler.go's Timer/insertTimer/TimerDispatch.
type Timer struct {
	WakeTime uint32
	Handler  TimerHandler
	next     *Timer
	pending  bool
}

var (
	ticks       uint32
	ticksSource func() uint32
)

// SetClockSource lets platform code supply a hardware tick counter;
// without one, ticks are advanced only by Advance (used by tests).
func SetClockSource(f func() uint32) {
	ticksSource = f
}

// Now returns the current monotonic tick count.
func Now() uint32 {
	if ticksSource != nil {
		return ticksSource()
	}
	return atomic.LoadUint32(&ticks)
}

// Advance moves the cached clock forward by delta ticks. Only
// meaningful when no hardware clock source is registered (tests).
func Advance(delta uint32) {
	atomic.AddUint32(&ticks, delta)
}

// ResetClock clears the cached clock and detaches any clock source.
// Exported for test setup in downstream packages (the cached tick
// counter is package state shared across every test binary run).
func ResetClock() {
	ticksSource = nil
	atomic.StoreUint32(&ticks, 0)
}
