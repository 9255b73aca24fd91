// Package hostuart implements lump.UART against a real serial device
// for desktop bench-testing the LUMP driver (C3) and the UART-based
// motor/sensor collaborators (C5) without target hardware. Grounded on
// the teacher's host/serial/serial_native.go, which wraps
// github.com/tarm/serial the same way for its native (non-wasm)
// build.
package hostuart

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// PowerControl toggles whatever line feeds the sensor's power rail on
// a bench rig. Host setups vary (a relay board, a GPIO expander, or
// nothing at all for self-powered sensors), so it is supplied by the
// caller rather than assumed.
type PowerControl interface {
	SetPower(on bool) error
}

// nopPower is used when the caller has no power rail to switch.
type nopPower struct{}

func (nopPower) SetPower(bool) error { return nil }

// Port adapts a tarm/serial connection to lump.UART. tarm/serial fixes
// its read timeout at open time, so SetBaud reopens the underlying
// port rather than reconfiguring it in place, and ReadByte loops over
// short reads to honor a per-call timeout.
type Port struct {
	device string
	baud   uint32
	power  PowerControl

	port *serial.Port
}

const portReadTimeout = 5 * time.Millisecond

// Open opens device (e.g. "/dev/ttyUSB0") at the given initial baud.
// power may be nil when the bench rig has no switchable sensor power
// rail.
func Open(device string, baud uint32, power PowerControl) (*Port, error) {
	if power == nil {
		power = nopPower{}
	}
	p := &Port{device: device, baud: baud, power: power}
	if err := p.reopen(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Port) reopen() error {
	if p.port != nil {
		p.port.Close()
		p.port = nil
	}
	cfg := &serial.Config{
		Name:        p.device,
		Baud:        int(p.baud),
		ReadTimeout: portReadTimeout,
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return fmt.Errorf("hostuart: open %s: %w", p.device, err)
	}
	p.port = port
	return nil
}

// SetBaud implements lump.UART.
func (p *Port) SetBaud(baud uint32) error {
	if baud == p.baud && p.port != nil {
		return nil
	}
	p.baud = baud
	return p.reopen()
}

// Write implements lump.UART.
func (p *Port) Write(b []byte) error {
	_, err := p.port.Write(b)
	return err
}

// ReadByte implements lump.UART. tarm/serial's fixed per-read timeout
// is much shorter than most requested timeouts, so this polls in
// portReadTimeout slices until a byte arrives or the deadline passes.
func (p *Port) ReadByte(timeout time.Duration) (byte, bool) {
	deadline := time.Now().Add(timeout)
	var buf [1]byte
	for {
		n, err := p.port.Read(buf[:])
		if err == nil && n == 1 {
			return buf[0], true
		}
		if time.Now().After(deadline) {
			return 0, false
		}
	}
}

// PowerEnable implements lump.UART.
func (p *Port) PowerEnable(on bool) error {
	return p.power.SetPower(on)
}

// Close releases the underlying serial handle.
func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}
