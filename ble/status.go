package ble

import (
	"hubcore/hub"
	"hubcore/runtime"
)

// reportCheckTicks is how often the reporter re-samples status to
// detect a change; it is finer than the 500 ms liveness guard so a
// change is noticed promptly without needing an explicit wakeup from
// every flag-setting call site.
const reportCheckTicks = runtime.TimerFreq / 20 // 50ms

// StatusSource is the read-only view of hub state the reporter polls.
// Kept narrow so ble doesn't need to import the hub context type.
type StatusSource interface {
	StatusBits() uint32
	ProgramID() uint8
	Slot() uint8
}

// StatusReporter implements spec §4.6's "Status reporter": watches a
// flag mask and the selected slot, and on any change (or every
// StatusReportIntervalMs as a liveness guard) queues a STATUS_REPORT
// notification. Grounded on core/driver_registry.go's
// DriverPollFunc/PollRate timer-driven poll handler, narrowed from a
// generic per-driver poll callback to this one fixed check.
type StatusReporter struct {
	source StatusSource
	emit   func(payload []byte)

	sched *runtime.Scheduler
	timer *runtime.Timer

	haveLast         bool
	lastFlags        uint32
	lastProgramID    uint8
	lastSlot         uint8
	ticksSinceReport uint32
}

// NewStatusReporter constructs a reporter that calls emit with each
// encoded STATUS_REPORT payload as it becomes due.
func NewStatusReporter(source StatusSource, emit func([]byte)) *StatusReporter {
	return &StatusReporter{source: source, emit: emit}
}

// Start begins polling on sched (spec §4.6 "on link-up, start the
// status reporter"). Safe to call again after Stop.
func (r *StatusReporter) Start(sched *runtime.Scheduler) {
	r.sched = sched
	r.haveLast = false
	r.ticksSinceReport = 0
	r.timer = &runtime.Timer{WakeTime: runtime.Now() + reportCheckTicks, Handler: r.onTick}
	sched.ScheduleTimer(r.timer)
}

// Stop cancels polling (spec §4.6 "on link-down").
func (r *StatusReporter) Stop() {
	if r.sched != nil && r.timer != nil {
		r.sched.CancelTimer(r.timer)
	}
	r.timer = nil
}

func (r *StatusReporter) onTick(t *runtime.Timer) uint8 {
	r.ticksSinceReport += reportCheckTicks

	flags := r.source.StatusBits()
	programID := r.source.ProgramID()
	slot := r.source.Slot()

	changed := !r.haveLast || flags != r.lastFlags || programID != r.lastProgramID || slot != r.lastSlot
	livenessTicks := uint32(hub.StatusReportIntervalMs) * runtime.TimerFreq / 1000
	due := r.ticksSinceReport >= livenessTicks

	if changed || due {
		r.lastFlags, r.lastProgramID, r.lastSlot, r.haveLast = flags, programID, slot, true
		r.ticksSinceReport = 0
		r.emit(EncodeStatusReport(flags, programID, slot))
	}

	t.WakeTime = runtime.Now() + reportCheckTicks
	return runtime.SFReschedule
}

// EncodeStatusReport builds the STATUS_REPORT notification payload
// (spec §4.6 "Event opcodes", §6 "Wire format"): opcode byte, u32
// flags, u8 program_id, u8 slot.
func EncodeStatusReport(flags uint32, programID, slot uint8) []byte {
	fb := encodeU32(flags)
	return []byte{byte(EvtStatusReport), fb[0], fb[1], fb[2], fb[3], programID, slot}
}
