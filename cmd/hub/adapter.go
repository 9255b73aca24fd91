// Package main is the firmware entry point: it wires the C1-C8
// modules together the way the teacher's targets/rp2040/main.go wires
// its drivers into core's global registries, then runs the scheduler
// loop.
package main

import (
	"hubcore/ble"
	"hubcore/hub"
	"hubcore/protocol"
	"hubcore/storage"
)

// programStarter is the subset of hmi.Supervisor the adapter needs to
// start a program from a BLE command; narrowed to the two calls the
// adapter makes (*hmi.Supervisor satisfies it structurally).
type programStarter interface {
	RequestStartProgram(slot uint8, programID uint8) error
	RequestStop()
}

// Rebooter jumps into the USB bootloader (spec §4.6 REBOOT_TO_UPDATE).
// Board-specific: target/rp2040 implements it over TinyGo's
// machine.EnterBootloader, a host build has nothing to jump to.
type Rebooter interface {
	RebootToUpdate() error
}

const stdinRingSize = 256

// replProgramID marks a START_REPL request (spec §4.6 "(deprecated)
// request built-in") so a host watching program_id in status reports
// can tell a REPL session apart from a normal user-program run; there
// is no REPL implementation here (out of scope per spec §1), only the
// state-machine transition into "running slot N".
const replProgramID = 0xff

// Adapter implements ble.Dispatcher by delegating to the storage
// manager and the top-level supervisor. It cannot live in the hub
// package: hub is imported by both storage and hmi, so a type that
// needs to call into both of them (and also implement ble.Dispatcher)
// has to live in a leaf package instead, which is what cmd/hub is.
type Adapter struct {
	storage  *storage.Manager
	hmi      programStarter
	reboot   Rebooter
	stdin    *protocol.FifoBuffer
	nextID   uint8
}

// NewAdapter wires storage and hmi into one ble.Dispatcher. reboot may
// be nil on a build with no bootloader to jump to.
func NewAdapter(st *storage.Manager, h programStarter, reboot Rebooter) *Adapter {
	return &Adapter{
		storage: st,
		hmi:     h,
		reboot:  reboot,
		stdin:   protocol.NewFifoBuffer(stdinRingSize),
	}
}

// StdinConsumer exposes the bytes WRITE_STDIN has appended, for a
// ProgramHost implementation to drain.
func (a *Adapter) StdinConsumer() *protocol.FifoBuffer { return a.stdin }

func (a *Adapter) StopUserProgram() error {
	a.hmi.RequestStop()
	return nil
}

func (a *Adapter) StartUserProgram(slot uint32) error {
	a.nextID++
	return a.hmi.RequestStartProgram(uint8(slot), a.nextID)
}

func (a *Adapter) StartREPL(slot uint32) error {
	return a.hmi.RequestStartProgram(uint8(slot), replProgramID)
}

func (a *Adapter) WriteUserProgramMeta(size uint32) error {
	return a.storage.WriteUserProgramMeta(size)
}

func (a *Adapter) WriteUserRAM(offset uint32, data []byte) error {
	return a.storage.WriteUserRAM(offset, data)
}

func (a *Adapter) RebootToUpdate() error {
	if a.reboot == nil {
		return hub.NewError(hub.ErrFailed, "no bootloader on this build")
	}
	return a.reboot.RebootToUpdate()
}

func (a *Adapter) WriteStdin(data []byte) error {
	a.stdin.Write(data)
	return nil
}

func (a *Adapter) WriteAppData(offset uint16, data []byte) error {
	return a.storage.SetUserData(uint32(offset), data)
}

var _ ble.Dispatcher = (*Adapter)(nil)
