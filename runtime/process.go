package runtime

// Process is a named, long-lived cooperative task (spec §3 Process).
// It is never destroyed once started; it is signalled by events or
// explicit polls and runs to its next suspension point whenever
// dispatched.
//
// A Process's resumable state lives entirely in the struct embedding
// it (the design notes' "caller-owned state block" requirement) —
// Body is called from the top every dispatch and must use its own
// state field (a small integer "where was I" word, following the
// teacher's approach of storing resumption points as plain struct
// fields rather than relying on goroutine stacks) to jump back to
// where it left off.
type Process struct {
	Name string

	// Body runs from the top on every dispatch. It returns true if
	// the process has terminated (spec §4.1 failure model: a process
	// whose Body returns true is never dispatched again).
	Body func(p *Process, ev Event, ok bool) bool

	id     int
	events eventQueue
	done   bool
}

// NewProcess constructs a Process; call Scheduler.Start to register
// and launch it.
func NewProcess(name string, body func(p *Process, ev Event, ok bool) bool) *Process {
	return &Process{Name: name, Body: body}
}

// deliver enqueues an event for later dispatch; called by Scheduler.Post.
func (p *Process) deliver(ev Event) {
	if p.done {
		return
	}
	p.events.push(ev)
}

// dispatch runs the process body once, consuming at most one queued
// event (or none, if this dispatch was triggered by a bare Poll).
func (p *Process) dispatch() {
	if p.done {
		return
	}
	ev, ok := p.events.pop()
	if p.Body(p, ev, ok) {
		p.done = true
	}
}

// Done reports whether the process has returned from Body and will
// never run again.
func (p *Process) Done() bool {
	return p.done
}
