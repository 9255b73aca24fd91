package runtime

import "hubcore/hub"

// Scheduler owns the sorted timer queue and the ready/poll bookkeeping
// for every registered Process. There is exactly one Scheduler per
// hub; it is not safe for concurrent use from more than one goroutine
// (spec §5: single-threaded cooperative model, no locks between
// cooperative tasks).
//
// The timer queue itself is a straight port of
// core/scheduler.go's insertTimer/TimerDispatch: a singly linked list
// kept sorted by WakeTime, using signed-difference comparison so a
// 32-bit tick counter wrapping around after ~5 days at 10kHz still
// orders correctly.
type Scheduler struct {
	timers     *Timer
	processes  []*Process
	readyFlags []bool // parallel to processes; IRQ-settable poll flags
}

// NewScheduler creates an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Start registers a process and invokes its Body once so it can reach
// its first suspension point (spec §4.1 start()).
func (s *Scheduler) Start(p *Process) {
	p.id = len(s.processes)
	s.processes = append(s.processes, p)
	s.readyFlags = append(s.readyFlags, false)
	p.dispatch()
}

// Poll marks p ready; the next RunOne/RunAndWait dispatches it.
// Safe to call from an IRQ handler: it only flips a flag (spec §5).
func (s *Scheduler) Poll(p *Process) {
	if p.id < 0 || p.id >= len(s.readyFlags) {
		return
	}
	s.readyFlags[p.id] = true
}

// Post delivers an event to one process (target != nil) or broadcasts
// it to every process (target == nil), per spec §4.1 post().
func (s *Scheduler) Post(target *Process, kind EventKind, data uint32) {
	ev := Event{Kind: kind, Data: data}
	if target != nil {
		target.deliver(ev)
		s.Poll(target)
		return
	}
	for _, p := range s.processes {
		p.deliver(ev)
		s.Poll(p)
	}
}

// ScheduleTimer inserts t into the sorted queue. Grounded on
// core/scheduler.go's insertTimer.
func (s *Scheduler) ScheduleTimer(t *Timer) {
	if t.pending {
		return
	}
	t.pending = true
	if s.timers == nil || int32(t.WakeTime-s.timers.WakeTime) < 0 {
		t.next = s.timers
		s.timers = t
		return
	}
	cur := s.timers
	for cur.next != nil && int32(cur.next.WakeTime-t.WakeTime) < 0 {
		cur = cur.next
	}
	t.next = cur.next
	cur.next = t
}

// CancelTimer removes t from the queue if present.
func (s *Scheduler) CancelTimer(t *Timer) {
	if !t.pending {
		return
	}
	if s.timers == t {
		s.timers = t.next
		t.next = nil
		t.pending = false
		return
	}
	for cur := s.timers; cur != nil; cur = cur.next {
		if cur.next == t {
			cur.next = t.next
			t.next = nil
			t.pending = false
			return
		}
	}
}

// DispatchTimers runs every timer whose WakeTime has passed, in
// WakeTime order, rescheduling those whose handler asked for it.
// Grounded on core/scheduler.go's TimerDispatch, including its "timer
// in past" detection and its re-read of Now() after every handler
// (handlers may themselves block on hardware).
func (s *Scheduler) DispatchTimers() {
	now := Now()
	for s.timers != nil && int32(now-s.timers.WakeTime) >= 0 {
		t := s.timers
		s.timers = t.next
		t.next = nil
		t.pending = false

		diff := int32(now - t.WakeTime)
		if diff > TimerPastThreshold {
			hub.RecordTiming(hub.EvtSchedulerTimerPast, 0, now, t.WakeTime, uint32(diff))
		}

		result := t.Handler(t)
		if result == SFReschedule {
			s.ScheduleTimer(t)
		}
		now = Now()
	}
}

// RunOne runs every due timer, then dispatches at most one ready
// process, and reports whether any work remains.
// Spec §4.1 run_one().
func (s *Scheduler) RunOne() bool {
	s.DispatchTimers()
	for i, ready := range s.readyFlags {
		if ready {
			s.readyFlags[i] = false
			s.processes[i].dispatch()
			return s.hasWork()
		}
	}
	return s.hasWork()
}

// RunAndWait drains all ready processes and due timers until the
// system is idle, i.e. spec §4.1 run_and_wait() up to (not including)
// the platform-specific "sleep until next IRQ" step, which the caller
// performs itself since it is platform-dependent.
func (s *Scheduler) RunAndWait() {
	for s.RunOne() {
	}
}

func (s *Scheduler) hasWork() bool {
	for _, ready := range s.readyFlags {
		if ready {
			return true
		}
	}
	return s.timers != nil && int32(Now()-s.timers.WakeTime) >= 0
}

// NextWake returns the WakeTime of the earliest pending timer and
// true, or (0, false) if no timer is pending — used by a platform
// sleep loop to pick a wake deadline.
func (s *Scheduler) NextWake() (uint32, bool) {
	if s.timers == nil {
		return 0, false
	}
	return s.timers.WakeTime, true
}
