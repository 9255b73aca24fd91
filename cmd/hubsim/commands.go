package main

import (
	"fmt"
	"strconv"

	"github.com/google/shlex"

	"hubcore/ble"
)

// parseCommand tokenizes a simulator command-box line the way a host
// tool turns a human-typed line into a Pybricks command frame, then
// encodes it per spec §4.6's "opcode byte + payload" framing.
func parseCommand(line string) ([]byte, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	switch tokens[0] {
	case "stop":
		return []byte{byte(ble.CmdStopUserProgram)}, nil

	case "start":
		slot, err := optionalSlot(tokens[1:])
		if err != nil {
			return nil, err
		}
		return append([]byte{byte(ble.CmdStartUserProgram)}, slot...), nil

	case "repl":
		slot, err := optionalSlot(tokens[1:])
		if err != nil {
			return nil, err
		}
		return append([]byte{byte(ble.CmdStartREPL)}, slot...), nil

	case "reboot-to-update":
		return []byte{byte(ble.CmdRebootToUpdate)}, nil

	case "write-stdin":
		if len(tokens) != 2 {
			return nil, fmt.Errorf("usage: write-stdin <text>")
		}
		return append([]byte{byte(ble.CmdWriteStdin)}, []byte(tokens[1])...), nil

	default:
		return nil, fmt.Errorf("unknown command %q", tokens[0])
	}
}

func optionalSlot(args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("usage: <cmd> [slot]")
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("bad slot %q: %w", args[0], err)
	}
	return []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}, nil
}
