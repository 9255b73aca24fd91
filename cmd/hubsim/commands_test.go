package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hubcore/ble"
)

func TestParseCommandStop(t *testing.T) {
	frame, err := parseCommand("stop")
	assert.NoError(t, err)
	assert.Equal(t, []byte{byte(ble.CmdStopUserProgram)}, frame)
}

func TestParseCommandStartWithSlot(t *testing.T) {
	frame, err := parseCommand("start 3")
	assert.NoError(t, err)
	assert.Equal(t, []byte{byte(ble.CmdStartUserProgram), 3, 0, 0, 0}, frame)
}

func TestParseCommandStartWithoutSlot(t *testing.T) {
	frame, err := parseCommand("start")
	assert.NoError(t, err)
	assert.Equal(t, []byte{byte(ble.CmdStartUserProgram)}, frame)
}

func TestParseCommandWriteStdin(t *testing.T) {
	frame, err := parseCommand(`write-stdin "go"`)
	assert.NoError(t, err)
	assert.Equal(t, append([]byte{byte(ble.CmdWriteStdin)}, "go"...), frame)
}

func TestParseCommandUnknown(t *testing.T) {
	_, err := parseCommand("frobnicate")
	assert.Error(t, err)
}

func TestParseCommandBadSlot(t *testing.T) {
	_, err := parseCommand("start notanumber")
	assert.Error(t, err)
}
