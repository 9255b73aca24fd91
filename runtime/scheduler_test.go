package runtime

import "testing"

func resetClock() {
	SetClockSource(nil)
	ticks = 0
}

func TestSchedulerPollDispatchesBeforeRunAndWaitReturns(t *testing.T) {
	resetClock()
	s := NewScheduler()
	ran := false
	p := NewProcess("probe", func(p *Process, ev Event, ok bool) bool {
		ran = true
		return false
	})
	s.Start(p)
	ran = false // Start's own dispatch doesn't count

	s.Poll(p)
	s.RunAndWait()

	if !ran {
		t.Fatalf("process polled before RunAndWait was not dispatched")
	}
}

func TestTimerFiresInWakeTimeOrder(t *testing.T) {
	resetClock()
	s := NewScheduler()
	var order []int

	mk := func(id int, at uint32) *Timer {
		return &Timer{WakeTime: at, Handler: func(t *Timer) uint8 {
			order = append(order, id)
			return SFDone
		}}
	}

	s.ScheduleTimer(mk(3, 30))
	s.ScheduleTimer(mk(1, 10))
	s.ScheduleTimer(mk(2, 20))

	Advance(30)
	s.RunAndWait()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("timers fired out of order: %v", order)
	}
}

func TestTimerRescheduleRepeats(t *testing.T) {
	resetClock()
	s := NewScheduler()
	count := 0
	var self *Timer
	self = &Timer{WakeTime: 5, Handler: func(t *Timer) uint8 {
		count++
		if count < 3 {
			t.WakeTime = Now() + 5
			return SFReschedule
		}
		return SFDone
	}}
	s.ScheduleTimer(self)

	for i := 0; i < 3; i++ {
		Advance(5)
		s.RunAndWait()
	}

	if count != 3 {
		t.Fatalf("expected timer to fire 3 times, got %d", count)
	}
}

func TestCancelTimerPreventsFiring(t *testing.T) {
	resetClock()
	s := NewScheduler()
	fired := false
	tm := &Timer{WakeTime: 10, Handler: func(t *Timer) uint8 {
		fired = true
		return SFDone
	}}
	s.ScheduleTimer(tm)
	s.CancelTimer(tm)

	Advance(20)
	s.RunAndWait()

	if fired {
		t.Fatalf("cancelled timer fired")
	}
}

func TestPostBroadcastReachesEveryProcess(t *testing.T) {
	resetClock()
	s := NewScheduler()
	var got []uint32
	mk := func(tag uint32) *Process {
		return NewProcess("p", func(p *Process, ev Event, ok bool) bool {
			if ok && ev.Kind == EventMessage {
				got = append(got, ev.Data+tag)
			}
			return false
		})
	}
	a, b := mk(0), mk(100)
	s.Start(a)
	s.Start(b)

	s.Post(nil, EventMessage, 1)
	s.RunAndWait()

	if len(got) != 2 {
		t.Fatalf("expected broadcast to reach 2 processes, got %d: %v", len(got), got)
	}
}

func TestTimerWraparoundOrdering(t *testing.T) {
	resetClock()
	s := NewScheduler()
	Advance(^uint32(0) - 2) // park the clock just before wraparound

	fired := false
	tm := &Timer{WakeTime: Now() + 5, Handler: func(t *Timer) uint8 {
		fired = true
		return SFDone
	}}
	s.ScheduleTimer(tm)

	Advance(5) // now wraps past zero and reaches the wake time
	s.RunAndWait()

	if !fired {
		t.Fatalf("timer scheduled across a tick-counter wraparound did not fire")
	}
}

func TestNextWakeReportsEarliestTimer(t *testing.T) {
	resetClock()
	s := NewScheduler()
	if _, ok := s.NextWake(); ok {
		t.Fatalf("expected no pending timer on empty scheduler")
	}
	s.ScheduleTimer(&Timer{WakeTime: 50, Handler: func(t *Timer) uint8 { return SFDone }})
	s.ScheduleTimer(&Timer{WakeTime: 20, Handler: func(t *Timer) uint8 { return SFDone }})

	wake, ok := s.NextWake()
	if !ok || wake != 20 {
		t.Fatalf("expected earliest wake 20, got %d (ok=%v)", wake, ok)
	}
}
