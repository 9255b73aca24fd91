package ble

import (
	"hubcore/hub"
	"hubcore/runtime"
)

// BluetoothDriver is the external collaborator spec §6 describes:
// this package only consumes its "is connected" and "send" hooks, it
// never owns the radio or GATT discovery.
type BluetoothDriver interface {
	// Connected reports whether a central is currently linked.
	Connected() bool

	// Send starts one notification transfer and calls done once the
	// link layer has accepted it. Only one Send is ever in flight at
	// a time (spec §4.6: "a new send is started only after the
	// previous done callback").
	Send(data []byte, done func())
}

// Config holds the plane's behavior switches, resolving spec §9's
// open questions as runtime flags rather than guesses baked into the
// code.
type Config struct {
	// AlwaysReplyToWrites mirrors legacy firmware behavior of
	// replying to every write, including "write without response"
	// (spec §9 open question 2). Defaults to true; set false to only
	// reply when the host's write explicitly requested a response.
	AlwaysReplyToWrites bool
}

// DefaultConfig returns the legacy-compatible configuration.
func DefaultConfig() Config {
	return Config{AlwaysReplyToWrites: true}
}

// Plane bridges one BLE link to a Dispatcher and a stdout ring (spec
// §4.6). It owns the GATT write/notify sequencing; it does not own
// the connection itself.
type Plane struct {
	driver     BluetoothDriver
	dispatcher Dispatcher
	stdout     *StdoutRing
	stdoutOut  StdoutConsumer
	cfg        Config
	reporter   *StatusReporter

	sending bool
	pending [][]byte
}

// NewPlane wires a BluetoothDriver, a command Dispatcher, a stdout
// ring, and a status source into one BLE plane.
func NewPlane(driver BluetoothDriver, dispatcher Dispatcher, stdout *StdoutRing, source StatusSource, cfg Config) *Plane {
	p := &Plane{
		driver:     driver,
		dispatcher: dispatcher,
		stdout:     stdout,
		stdoutOut:  stdout.Consumer(),
		cfg:        cfg,
	}
	p.reporter = NewStatusReporter(source, p.queueNotification)
	return p
}

// StdoutProducer exposes the write half of the stdout ring so any
// process on the hub can append output.
func (p *Plane) StdoutProducer() StdoutProducer { return p.stdout.Producer() }

// OnConnect starts the status reporter (spec §4.6 "on link-up").
func (p *Plane) OnConnect(sched *runtime.Scheduler) {
	p.reporter.Start(sched)
}

// OnDisconnect drops all queued sends and resets the stdout ring
// (spec §4.6 "on link-down").
func (p *Plane) OnDisconnect() {
	p.reporter.Stop()
	p.sending = false
	p.pending = nil

	drain := make([]byte, hub.BLEMTU)
	for p.stdoutOut.Available() > 0 {
		p.stdoutOut.Read(drain)
	}
}

// HandleWrite processes one incoming command frame (spec §4.6
// "Framing contract") and reports whether a GATT write response
// should be sent, per the AlwaysReplyToWrites configuration.
func (p *Plane) HandleWrite(frame []byte, withResponse bool) (reply ReplyCode, shouldReply bool) {
	reply = Dispatch(p.dispatcher, frame)
	shouldReply = withResponse || p.cfg.AlwaysReplyToWrites
	return reply, shouldReply
}

// Pump drains the notification queue and the stdout ring into at
// most one outstanding Send, per spec §4.6's "BLE send pump". Call
// whenever new output might be waiting (after WriteStdin handling,
// after a scheduler tick, etc); Send's done callback re-invokes it
// automatically so callers don't need to poll continuously.
func (p *Plane) Pump() {
	p.pump()
}

func (p *Plane) queueNotification(payload []byte) {
	p.pending = append(p.pending, payload)
	p.pump()
}

func (p *Plane) pump() {
	if p.sending || !p.driver.Connected() {
		return
	}
	if len(p.pending) > 0 {
		frame := p.pending[0]
		p.pending = p.pending[1:]
		p.send(frame)
		return
	}
	if p.stdoutOut.Available() > 0 {
		buf := make([]byte, hub.BLEMTU-1)
		n := p.stdoutOut.Read(buf)
		frame := make([]byte, 0, n+1)
		frame = append(frame, byte(EvtWriteStdout))
		frame = append(frame, buf[:n]...)
		p.send(frame)
	}
}

func (p *Plane) send(frame []byte) {
	p.sending = true
	p.driver.Send(frame, func() {
		p.sending = false
		p.pump()
	})
}
