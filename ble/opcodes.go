// Package ble implements the Pybricks GATT command/telemetry plane
// (spec §4.6): a fixed opcode table over a single bidirectional
// characteristic, an SPSC stdout ring, and a periodic status reporter.
// The physical LE radio is an external collaborator (spec §6); this
// package only consumes its connected/send/receive surface.
package ble

// CommandOpcode identifies a command written by the host over the
// Pybricks Control characteristic (spec §4.6, "Command opcodes").
type CommandOpcode uint8

const (
	CmdStopUserProgram      CommandOpcode = 0x00
	CmdStartUserProgram     CommandOpcode = 0x01
	CmdStartREPL            CommandOpcode = 0x02 // deprecated, kept for older hosts
	CmdWriteUserProgramMeta CommandOpcode = 0x03
	CmdWriteUserRAM         CommandOpcode = 0x04
	CmdRebootToUpdate       CommandOpcode = 0x05
	CmdWriteStdin           CommandOpcode = 0x06
	CmdWriteAppData         CommandOpcode = 0x07
)

// EventOpcode identifies a notification the hub sends to the host.
type EventOpcode uint8

const (
	EvtStatusReport EventOpcode = 0x00
	EvtWriteStdout  EventOpcode = 0x01
)

// ReplyCode is the write-response error code set spec §4.6/§7 require
// ("Errors are encoded per the Pybricks error code set").
type ReplyCode uint8

const (
	ReplyOK              ReplyCode = 0x00
	ReplyInvalidCommand  ReplyCode = 0x01
	ReplyValueNotAllowed ReplyCode = 0x02
	ReplyBusy            ReplyCode = 0x03
	ReplyFailed          ReplyCode = 0x04
)

func (r ReplyCode) String() string {
	switch r {
	case ReplyOK:
		return "ok"
	case ReplyInvalidCommand:
		return "invalid_command"
	case ReplyValueNotAllowed:
		return "value_not_allowed"
	case ReplyBusy:
		return "busy"
	default:
		return "failed"
	}
}
