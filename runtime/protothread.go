package runtime

// Protothread is a lightweight coroutine nested inside a Process
// (spec §3 Protothread, §4.1 spawn()/exit()). Its local state must
// survive suspension without a dedicated call stack; this
// implementation uses a goroutine gated by a two-channel handshake so
// that, from the Scheduler's point of view, exactly one cooperative
// task's code is ever running at a time — the goroutine blocks at
// every suspension point and only resumes when explicitly ticked,
// which is the same contract the design notes (§9) describe for a
// "native async/generator" rendition of a protothread.
//
// Protothread bodies must only suspend via AwaitTimer/AwaitCondition;
// doing anything else (sleeping, blocking on unrelated channels) would
// violate spec §5's "suspension points are the only place another
// task may run" invariant.
type Protothread struct {
	sched    *Scheduler
	resumeCh chan struct{}
	yieldCh  chan struct{}
	done     bool
	started  bool
}

// Spawn starts body running as a nested protothread of the given
// Scheduler. The returned *Protothread must be Ticked by the owning
// Process on every dispatch until Done() is true.
func Spawn(s *Scheduler, body func(pt *Protothread)) *Protothread {
	pt := &Protothread{
		sched:    s,
		resumeCh: make(chan struct{}),
		yieldCh:  make(chan struct{}),
	}
	go func() {
		<-pt.resumeCh
		body(pt)
		pt.done = true
		pt.yieldCh <- struct{}{}
	}()
	return pt
}

// Tick resumes the protothread's goroutine and blocks until it
// suspends again (at an Await call) or exits. It is safe to call Tick
// repeatedly after Done(); it becomes a no-op.
func (pt *Protothread) Tick() {
	if pt.done {
		return
	}
	pt.started = true
	pt.resumeCh <- struct{}{}
	<-pt.yieldCh
}

// Done reports whether the protothread body has returned (spec exit()).
func (pt *Protothread) Done() bool {
	return pt.done
}

// AwaitTimer suspends the calling protothread until the scheduler's
// clock reaches deadline, ticking once per call to re-check.
func (pt *Protothread) AwaitTimer(deadline uint32) {
	pt.AwaitCondition(func() bool {
		return int32(Now()-deadline) >= 0
	})
}

// AwaitCondition suspends until predicate holds, re-evaluated once per
// Tick (spec §4.1 await_condition()).
func (pt *Protothread) AwaitCondition(predicate func() bool) {
	for !predicate() {
		pt.yieldCh <- struct{}{}
		<-pt.resumeCh
	}
}
