package lump

import (
	"sync"
	"testing"
	"time"

	"hubcore/runtime"
)

// fakeUART replays a scripted byte stream for reads and records every
// write, enough to drive a Driver through a full sync by hand.
type fakeUART struct {
	mu     sync.Mutex
	rx     []byte
	writes [][]byte
	baud   uint32
}

func (f *fakeUART) push(b ...byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rx = append(f.rx, b...)
}

func (f *fakeUART) SetBaud(baud uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baud = baud
	return nil
}

func (f *fakeUART) Write(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, append([]byte(nil), b...))
	return nil
}

func (f *fakeUART) ReadByte(timeout time.Duration) (byte, bool) {
	deadline := time.Now().Add(timeout)
	for {
		f.mu.Lock()
		if len(f.rx) > 0 {
			b := f.rx[0]
			f.rx = f.rx[1:]
			f.mu.Unlock()
			return b, true
		}
		f.mu.Unlock()
		if time.Now().After(deadline) {
			return 0, false
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fakeUART) PowerEnable(on bool) error { return nil }

func infoMessage(mode uint8, infoByte byte, body []byte) []byte {
	payload := append([]byte{infoByte}, body...)
	h := header(TypeInfo, lenToSizeCode(len(payload)), mode)
	padded := make([]byte, sizeCodeToLen[lenToSizeCode(len(payload))])
	copy(padded, payload)
	out := append([]byte{h}, padded...)
	return append(out, checksum(h, padded))
}

func cmdMessage(cmd byte, payload []byte) []byte {
	h := header(TypeCmd, lenToSizeCode(len(payload)), cmd)
	padded := make([]byte, sizeCodeToLen[lenToSizeCode(len(payload))])
	copy(padded, payload)
	out := append([]byte{h}, padded...)
	return append(out, checksum(h, padded))
}

func TestDriverFullSyncReachesData(t *testing.T) {
	runtime.SetClockSource(nil)

	port := &fakeUART{}
	port.push(SysAck) // ack the 115200 speed negotiation

	typeHdr := header(TypeCmd, lenToSizeCode(1), CmdType)
	port.push(typeHdr, 48, checksum(typeHdr, []byte{48}))

	port.push(cmdMessage(CmdModes, []byte{0})...)                    // 1 mode
	port.push(infoMessage(0, InfoName, []byte("TEST\x00\x00\x00"))...) // mode 0 name
	port.push(infoMessage(0, InfoFormat, []byte{1, 2, 4, 0})...)      // mode 0 format
	port.push(SysAck)                                                 // end of info phase

	d := NewDriver(port, nil, nil)

	d.runInit()
	if d.state != stateSyncing {
		t.Fatalf("expected stateSyncing after init, got %v", d.state)
	}

	d.runSyncing()
	if d.state != stateInfo {
		t.Fatalf("expected stateInfo after syncing, got %v", d.state)
	}
	if d.dev.TypeID != 48 {
		t.Fatalf("expected type id 48, got %d", d.dev.TypeID)
	}

	d.runInfo()
	if d.state != stateAck {
		t.Fatalf("expected stateAck after info, got %v (mode complete=%v)", d.state, d.dev.Modes[0].complete())
	}
	if d.dev.NumModes != 1 {
		t.Fatalf("expected 1 mode, got %d", d.dev.NumModes)
	}
	if d.dev.Modes[0].Name != "TEST" {
		t.Fatalf("expected mode name TEST, got %q", d.dev.Modes[0].Name)
	}

	d.runAck()
	if d.state != stateData {
		t.Fatalf("expected stateData after ack, got %v", d.state)
	}
}

func TestDriverInfoAbortsOnIncompleteMetadata(t *testing.T) {
	runtime.SetClockSource(nil)
	port := &fakeUART{}
	port.push(cmdMessage(CmdModes, []byte{0})...)
	port.push(SysAck) // ACK arrives before mode 0's name/format is ever sent

	d := NewDriver(port, nil, nil)
	d.dev.TypeID = 48
	d.runInfo()

	if d.state != stateErr {
		t.Fatalf("expected stateErr when required info is missing before ACK, got %v", d.state)
	}
}

func TestDriverReadyPredicate(t *testing.T) {
	runtime.SetClockSource(nil)
	d := NewDriver(&fakeUART{}, nil, nil)
	d.state = stateData
	d.dev.RequestedMode = 0
	d.dev.CurrentMode = 0
	d.dev.ModeSwitchAt = 0

	runtime.Advance(staleDataTicks + 10)
	if !d.Ready() {
		t.Fatalf("expected driver to be ready once mode matches and windows elapsed")
	}
}

func TestDriverNotReadyDuringModeMismatch(t *testing.T) {
	runtime.SetClockSource(nil)
	d := NewDriver(&fakeUART{}, nil, nil)
	d.state = stateData
	d.dev.RequestedMode = 1
	d.dev.CurrentMode = 0

	if d.Ready() {
		t.Fatalf("expected driver not ready while current mode differs from requested")
	}
}

func TestDriverChecksumExemptionIsNarrow(t *testing.T) {
	d := NewDriver(&fakeUART{}, nil, nil)
	d.dev.TypeID = 29
	d.dev.CurrentMode = 4
	if !d.checksumExempt() {
		t.Fatalf("expected EV3 color sensor mode 4 to be exempt")
	}
	d.dev.CurrentMode = 5
	if d.checksumExempt() {
		t.Fatalf("exemption must not apply outside mode 4")
	}
	d.dev.TypeID = 30
	d.dev.CurrentMode = 4
	if d.checksumExempt() {
		t.Fatalf("exemption must not apply to a different type id")
	}
}
