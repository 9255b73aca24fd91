package main

import (
	"hubcore/ble"
	"hubcore/hmi"
)

// noopBLE satisfies BLERadio when no radio hardware is wired (the
// host bench build, or an rp2040 build before a concrete
// tinygo.org/x/bluetooth-based driver is plugged in — that module
// isn't part of this repository's dependency set, see DESIGN.md).
// The hub still boots and runs user programs locally; it just never
// advertises or accepts a BLE link.
type noopBLE struct{}

func (noopBLE) Connected() bool                                   { return false }
func (noopBLE) Send(data []byte, done func())                     { done() }
func (noopBLE) SetConnectionHandler(func(connected bool))         {}
func (noopBLE) SetWriteHandler(func([]byte, bool) ble.ReplyCode)  {}

// noopProgramHost stands in for the user-program execution
// environment, explicitly out of scope (spec §7: "Internal failures
// inside a running user program are surfaced by the user-program
// layer", not this one). Poll always reports the program finished
// immediately so the supervisor's running state never wedges.
type noopProgramHost struct{}

func (noopProgramHost) Start(slot uint8, programID uint8) {}
func (noopProgramHost) Poll() bool                         { return true }
func (noopProgramHost) RequestStop()                       {}

type noopPower struct{}

func (noopPower) PowerOff() {}

type noopBusy struct{}

func (noopBusy) InitBusyCount() int { return 0 }

type noopRadio struct{}

func (noopRadio) StartAdvertising(enabled bool) {}

// noopLight and noopButtons stand in until a board revision's status
// light and button wiring is plugged into Hardware.
type noopLight struct{}

func (noopLight) SetColor(c hmi.Color, brightness uint8) {}

type noopButtons struct{}

func (noopButtons) Pressed(b hmi.Button) bool { return false }
