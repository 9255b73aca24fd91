package ble

import "hubcore/hub"

// Dispatcher is the hub-context surface a command frame resolves
// against. Grounded on core/command.go's CommandRegistry.Dispatch,
// narrowed from an ID-indexed handler map (the teacher's dictionary
// supports host-registered commands at arbitrary IDs) to a plain type
// switch, since spec §4.6's opcode table is fixed, small, and known at
// compile time — there is nothing here for a dynamic registry to
// register.
type Dispatcher interface {
	StopUserProgram() error
	StartUserProgram(slot uint32) error
	StartREPL(slot uint32) error
	WriteUserProgramMeta(size uint32) error
	WriteUserRAM(offset uint32, data []byte) error
	RebootToUpdate() error
	WriteStdin(data []byte) error
	WriteAppData(offset uint16, data []byte) error
}

// Dispatch parses one command frame (opcode byte + payload, spec
// §4.6 "Framing contract") and calls the matching Dispatcher method,
// returning the GATT write-response code to send back.
func Dispatch(d Dispatcher, frame []byte) ReplyCode {
	if len(frame) == 0 {
		return ReplyInvalidCommand
	}
	op := CommandOpcode(frame[0])
	payload := frame[1:]

	var err error
	switch op {
	case CmdStopUserProgram:
		if len(payload) != 0 {
			return ReplyValueNotAllowed
		}
		err = d.StopUserProgram()

	case CmdStartUserProgram:
		slot, ok := parseOptionalU32(payload)
		if !ok {
			return ReplyValueNotAllowed
		}
		err = d.StartUserProgram(slot)

	case CmdStartREPL:
		slot, ok := parseOptionalU32(payload)
		if !ok {
			return ReplyValueNotAllowed
		}
		err = d.StartREPL(slot)

	case CmdWriteUserProgramMeta:
		if len(payload) != 4 {
			return ReplyValueNotAllowed
		}
		err = d.WriteUserProgramMeta(decodeU32(payload))

	case CmdWriteUserRAM:
		if len(payload) < 4 {
			return ReplyValueNotAllowed
		}
		err = d.WriteUserRAM(decodeU32(payload[:4]), payload[4:])

	case CmdRebootToUpdate:
		if len(payload) != 0 {
			return ReplyValueNotAllowed
		}
		err = d.RebootToUpdate()

	case CmdWriteStdin:
		err = d.WriteStdin(payload)

	case CmdWriteAppData:
		if len(payload) < 2 {
			return ReplyValueNotAllowed
		}
		err = d.WriteAppData(decodeU16(payload[:2]), payload[2:])

	default:
		return ReplyInvalidCommand
	}

	return replyFor(err)
}

// parseOptionalU32 accepts either an empty payload (id defaults to 0)
// or exactly 4 bytes, per START_USER_PROGRAM/START_REPL's "optional
// u32 id" shape.
func parseOptionalU32(payload []byte) (uint32, bool) {
	switch len(payload) {
	case 0:
		return 0, true
	case 4:
		return decodeU32(payload), true
	default:
		return 0, false
	}
}

// replyFor maps a Dispatcher error's hub.ErrorKind onto the GATT
// reply code set. There is no one-to-one correspondence in spec.md
// (it names only OK/INVALID_COMMAND/VALUE_NOT_ALLOWED/BUSY for the
// framing layer itself); ErrAgain and ErrBusy both read as "try again
// later" to the host, so both map to ReplyBusy, and anything else
// collapses to the generic ReplyFailed.
func replyFor(err error) ReplyCode {
	switch hub.KindOf(err) {
	case hub.ErrNone:
		return ReplyOK
	case hub.ErrInvalidArgument:
		return ReplyValueNotAllowed
	case hub.ErrAgain, hub.ErrBusy:
		return ReplyBusy
	default:
		return ReplyFailed
	}
}

func decodeU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func decodeU16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func encodeU32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
