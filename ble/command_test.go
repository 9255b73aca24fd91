package ble

import (
	"errors"
	"testing"

	"hubcore/hub"
)

type fakeDispatcher struct {
	stopCalled   bool
	startedSlot  uint32
	startErr     error
	metaSize     uint32
	ramOffset    uint32
	ramData      []byte
	rebootCalled bool
	stdin        []byte
	appOffset    uint16
	appData      []byte
}

func (f *fakeDispatcher) StopUserProgram() error { f.stopCalled = true; return nil }
func (f *fakeDispatcher) StartUserProgram(slot uint32) error {
	f.startedSlot = slot
	return f.startErr
}
func (f *fakeDispatcher) StartREPL(slot uint32) error                 { f.startedSlot = slot; return nil }
func (f *fakeDispatcher) WriteUserProgramMeta(size uint32) error      { f.metaSize = size; return nil }
func (f *fakeDispatcher) WriteUserRAM(offset uint32, data []byte) error {
	f.ramOffset = offset
	f.ramData = append([]byte{}, data...)
	return nil
}
func (f *fakeDispatcher) RebootToUpdate() error { f.rebootCalled = true; return nil }
func (f *fakeDispatcher) WriteStdin(data []byte) error {
	f.stdin = append([]byte{}, data...)
	return nil
}
func (f *fakeDispatcher) WriteAppData(offset uint16, data []byte) error {
	f.appOffset = offset
	f.appData = append([]byte{}, data...)
	return nil
}

func TestDispatchStopUserProgram(t *testing.T) {
	d := &fakeDispatcher{}
	reply := Dispatch(d, []byte{byte(CmdStopUserProgram)})
	if reply != ReplyOK || !d.stopCalled {
		t.Fatalf("expected OK and stop called, got reply=%v stopCalled=%v", reply, d.stopCalled)
	}
}

func TestDispatchStartUserProgramWithID(t *testing.T) {
	d := &fakeDispatcher{}
	frame := append([]byte{byte(CmdStartUserProgram)}, encodeU32(3)[:]...)
	reply := Dispatch(d, frame)
	if reply != ReplyOK || d.startedSlot != 3 {
		t.Fatalf("expected OK and slot 3, got reply=%v slot=%d", reply, d.startedSlot)
	}
}

func TestDispatchStartUserProgramDefaultsToZero(t *testing.T) {
	d := &fakeDispatcher{}
	reply := Dispatch(d, []byte{byte(CmdStartUserProgram)})
	if reply != ReplyOK || d.startedSlot != 0 {
		t.Fatalf("expected OK and slot 0, got reply=%v slot=%d", reply, d.startedSlot)
	}
}

func TestDispatchWrongSizeIsValueNotAllowed(t *testing.T) {
	d := &fakeDispatcher{}
	frame := []byte{byte(CmdStartUserProgram), 0x01, 0x02} // 2 bytes, not 0 or 4
	if reply := Dispatch(d, frame); reply != ReplyValueNotAllowed {
		t.Fatalf("expected VALUE_NOT_ALLOWED, got %v", reply)
	}
}

func TestDispatchUnknownOpcodeIsInvalidCommand(t *testing.T) {
	d := &fakeDispatcher{}
	if reply := Dispatch(d, []byte{0xEE}); reply != ReplyInvalidCommand {
		t.Fatalf("expected INVALID_COMMAND, got %v", reply)
	}
}

func TestDispatchEmptyFrameIsInvalidCommand(t *testing.T) {
	d := &fakeDispatcher{}
	if reply := Dispatch(d, nil); reply != ReplyInvalidCommand {
		t.Fatalf("expected INVALID_COMMAND for empty frame, got %v", reply)
	}
}

func TestDispatchWriteUserRAM(t *testing.T) {
	d := &fakeDispatcher{}
	frame := append([]byte{byte(CmdWriteUserRAM)}, encodeU32(0x100)[:]...)
	frame = append(frame, []byte("hello")...)
	reply := Dispatch(d, frame)
	if reply != ReplyOK || d.ramOffset != 0x100 || string(d.ramData) != "hello" {
		t.Fatalf("unexpected WRITE_USER_RAM result: reply=%v offset=%d data=%q", reply, d.ramOffset, d.ramData)
	}
}

func TestDispatchWriteAppData(t *testing.T) {
	d := &fakeDispatcher{}
	frame := append([]byte{byte(CmdWriteAppData)}, 0x10, 0x00)
	frame = append(frame, []byte("app")...)
	reply := Dispatch(d, frame)
	if reply != ReplyOK || d.appOffset != 0x10 || string(d.appData) != "app" {
		t.Fatalf("unexpected WRITE_APP_DATA result: reply=%v offset=%d data=%q", reply, d.appOffset, d.appData)
	}
}

func TestDispatchBusyErrorMapsToReplyBusy(t *testing.T) {
	d := &fakeDispatcher{startErr: hub.ErrBusySentinel}
	reply := Dispatch(d, []byte{byte(CmdStartUserProgram)})
	if reply != ReplyBusy {
		t.Fatalf("expected BUSY, got %v", reply)
	}
}

func TestDispatchUnrecognizedErrorMapsToFailed(t *testing.T) {
	d := &fakeDispatcher{startErr: errors.New("boom")}
	reply := Dispatch(d, []byte{byte(CmdStartUserProgram)})
	if reply != ReplyFailed {
		t.Fatalf("expected FAILED, got %v", reply)
	}
}

func TestDispatchWriteStdinAcceptsAnyLength(t *testing.T) {
	d := &fakeDispatcher{}
	reply := Dispatch(d, []byte{byte(CmdWriteStdin)})
	if reply != ReplyOK || len(d.stdin) != 0 {
		t.Fatalf("expected OK with empty stdin, got reply=%v stdin=%q", reply, d.stdin)
	}
}
