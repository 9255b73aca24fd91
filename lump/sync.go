package lump

import (
	"time"

	"hubcore/hub"
	"hubcore/runtime"
)

// Driver owns the sync/data state machine for one UART port (spec
// §4.3). Unlike the rest of the hub's cooperative tasks, its blocking
// reads genuinely block a UART peripheral transaction with a real
// timeout, so it runs on its own goroutine rather than inside the
// single-threaded runtime.Scheduler loop — the same shape the original
// firmware gets for free from its RTOS scheduling a dedicated UART
// driver "process" with interrupt-backed blocking reads. State
// transitions and readiness are published back to the rest of the hub
// through runtime.Scheduler.Post, which is the only thread-safe entry
// point into the cooperative world (spec §5).
type Driver struct {
	port  UART
	sched *runtime.Scheduler
	onHub *runtime.Process // notified of ready/error/removed events

	dev Device

	errCount        int
	droppedDataCount int

	state driverState
}

type driverState uint8

const (
	stateInit driverState = iota
	stateSyncing
	stateInfo
	stateAck
	stateData
	stateErr
)

const (
	maxSyncErrors   = 10
	maxDroppedData  = 6
	minTypeID       = 29
	maxTypeID       = 101
	keepAliveTicks  = runtime.TimerFreq / 10 // 100 ms
)

// NewDriver constructs a Driver for one port's UART. onHub receives
// EventMessage (device ready / mode confirmed) and EventStatusChanged
// (device removed) notifications; its Data field carries a
// HubEventCode.
func NewDriver(port UART, sched *runtime.Scheduler, onHub *runtime.Process) *Driver {
	return &Driver{port: port, sched: sched, onHub: onHub, state: stateInit}
}

// HubEventCode values delivered via onHub.
const (
	EventDeviceReady   uint32 = 1
	EventModeConfirmed uint32 = 2
	EventDeviceRemoved uint32 = 3
)

// Run drives the full sync/info/ack/data lifecycle until the port is
// removed (stateErr is reached and not retried by the caller). Callers
// launch it with `go driver.Run()`.
func (d *Driver) Run() {
	for {
		switch d.state {
		case stateInit:
			d.runInit()
		case stateSyncing:
			d.runSyncing()
		case stateInfo:
			d.runInfo()
		case stateAck:
			d.runAck()
		case stateData:
			d.runData()
		case stateErr:
			d.enterErr()
			return
		}
	}
}

func (d *Driver) runInit() {
	_ = d.port.PowerEnable(true)
	time.Sleep(150 * time.Millisecond)
	_ = d.port.SetBaud(115200)
	_ = d.port.Write(frame(TypeCmd, CmdSpeed, encodeU32(115200)))

	b, ok := d.port.ReadByte(100 * time.Millisecond)
	if !ok || b != SysAck {
		_ = d.port.SetBaud(2400)
	}
	d.state = stateSyncing
}

func (d *Driver) runSyncing() {
	for {
		h, ok := d.port.ReadByte(250 * time.Millisecond)
		if !ok {
			d.bumpSyncError()
			return
		}
		if msgType(h) != TypeCmd || msgCmd(h) != CmdType {
			continue
		}
		typeByte, ok1 := d.port.ReadByte(50 * time.Millisecond)
		cksum, ok2 := d.port.ReadByte(50 * time.Millisecond)
		if !ok1 || !ok2 {
			d.bumpSyncError()
			return
		}
		if typeByte < minTypeID || typeByte > maxTypeID {
			d.bumpSyncError()
			return
		}
		if checksum(h, []byte{typeByte}) != cksum {
			d.bumpSyncError()
			return
		}
		d.dev = Device{TypeID: typeByte}
		d.errCount = 0
		d.state = stateInfo
		return
	}
}

func (d *Driver) bumpSyncError() {
	d.errCount++
	if d.errCount >= maxSyncErrors {
		d.state = stateInit
		d.errCount = 0
		return
	}
	d.state = stateSyncing
}

func (d *Driver) runInfo() {
	haveType := true // set by runSyncing
	haveModes := false

	for {
		h, ok := d.port.ReadByte(250 * time.Millisecond)
		if !ok {
			d.state = stateErr
			return
		}
		if msgType(h) == TypeSys && h == SysAck {
			if !haveType || !haveModes || !d.dev.allInfoComplete() {
				d.state = stateErr
				return
			}
			d.state = stateAck
			return
		}

		n := msgPayloadLen(h)
		payload := make([]byte, n)
		for i := range payload {
			b, ok := d.port.ReadByte(50 * time.Millisecond)
			if !ok {
				d.state = stateErr
				return
			}
			payload[i] = b
		}
		cksum, ok := d.port.ReadByte(50 * time.Millisecond)
		if !ok || checksum(h, payload) != cksum {
			d.state = stateErr
			return
		}

		switch msgType(h) {
		case TypeCmd:
			switch msgCmd(h) {
			case CmdModes:
				d.dev.NumModes = payload[0] + 1
				haveModes = true
			case CmdSpeed:
				d.dev.Speed = decodeU32(payload)
			}
		case TypeInfo:
			d.applyInfo(h, payload)
		}
	}
}

func (d *Driver) applyInfo(h byte, payload []byte) {
	if len(payload) == 0 {
		return
	}
	infoByte := payload[0]
	body := payload[1:]

	modeIdx := msgCmd(h)
	if infoByte&InfoModePlus8 != 0 {
		modeIdx += 8
	}
	if int(modeIdx) >= maxModes {
		return
	}
	mode := &d.dev.Modes[modeIdx]
	sub := infoByte &^ InfoModePlus8

	switch sub {
	case InfoName:
		mode.Name = string(trimNul(body))
		mode.HaveName = true
	case InfoFormat:
		if len(body) >= 4 {
			mode.DataCount = body[0]
			mode.DataType = body[1]
			mode.Figures = body[2]
			mode.Decimals = body[3]
			mode.HaveFormat = true
		}
	case InfoUnits:
		mode.Units = string(trimNul(body))
	}
}

func (d *Device) allInfoComplete() bool {
	for i := 0; i < int(d.NumModes); i++ {
		if !d.Modes[i].complete() {
			return false
		}
	}
	return true
}

func (d *Driver) runAck() {
	_ = d.port.Write([]byte{SysAck})
	time.Sleep(10 * time.Millisecond)
	if d.dev.Speed != 0 {
		_ = d.port.SetBaud(d.dev.Speed)
	} else {
		_ = d.port.SetBaud(115200)
	}
	d.state = stateData
}

func (d *Driver) runData() {
	if d.sched != nil {
		d.sched.Post(d.onHub, runtime.EventMessage, EventDeviceReady)
	}

	lastGoodData := runtime.Now()
	for {
		if runtime.Now()-lastGoodData >= keepAliveTicks {
			_ = d.port.Write([]byte{SysNack})
			d.droppedDataCount++
			if d.droppedDataCount >= maxDroppedData {
				d.state = stateErr
				return
			}
			lastGoodData = runtime.Now()
		}

		h, ok := d.port.ReadByte(5 * time.Millisecond)
		if !ok {
			continue
		}
		n := msgPayloadLen(h)
		payload := make([]byte, n)
		good := true
		for i := range payload {
			b, ok := d.port.ReadByte(5 * time.Millisecond)
			if !ok {
				good = false
				break
			}
			payload[i] = b
		}
		if !good {
			continue
		}
		cksum, ok := d.port.ReadByte(5 * time.Millisecond)
		if !ok {
			continue
		}
		if checksum(h, payload) != cksum && !d.checksumExempt() {
			continue // spec §4.3: DATA checksum errors are tolerated
		}

		switch msgType(h) {
		case TypeData:
			mode := msgCmd(h)
			copy(d.dev.LastData[:], payload)
			d.dev.LastDataLen = len(payload)
			wasRequested := mode == d.dev.RequestedMode
			d.dev.CurrentMode = mode
			d.droppedDataCount = 0
			lastGoodData = runtime.Now()
			if wasRequested && d.sched != nil {
				d.sched.Post(d.onHub, runtime.EventMessage, EventModeConfirmed)
			}
		case TypeCmd:
			if msgCmd(h) == CmdWrite {
				d.handleHostWrite(payload)
			}
		}
	}
}

// checksumExempt implements spec §4.3's narrow exemption: "a known
// sensor bug exempts a specific color-sensor mode-4 frame" — the EV3
// color sensor (type 29) in RGB-raw mode 4.
func (d *Driver) checksumExempt() bool {
	const ev3ColorSensorTypeID = 29
	const ev3ColorSensorRGBRawMode = 4
	return d.dev.TypeID == ev3ColorSensorTypeID && d.dev.CurrentMode == ev3ColorSensorRGBRawMode
}

func (d *Driver) handleHostWrite(payload []byte) {
	// A device-initiated WRITE is informational only in this core;
	// callers that need it observe it through the iodev's mode data.
	_ = payload
}

func (d *Driver) enterErr() {
	_ = d.port.PowerEnable(false)
	if d.sched != nil {
		d.sched.Post(d.onHub, runtime.EventStatusChanged, EventDeviceRemoved)
	}
	hub.RecordTiming(hub.EvtLumpResync, uint8(d.dev.TypeID), runtime.Now(), uint32(d.errCount), uint32(d.droppedDataCount))
}

// SelectMode requests a mode change (spec §4.3 "Mode changes").
// Confirmation arrives asynchronously as EventModeConfirmed.
func (d *Driver) SelectMode(mode uint8) {
	d.dev.RequestedMode = mode
	d.dev.ModeSwitchAt = runtime.Now()
	_ = d.port.Write(frame(TypeCmd, CmdSelect, []byte{mode}))
}

// WriteMode sends DATA/<mode> with payload padded to the next
// supported size, prefixing CMD_EXT_MODE when mode exceeds 7 (spec
// §4.3 write path).
func (d *Driver) WriteMode(mode uint8, payload []byte) {
	if mode > 7 {
		_ = d.port.Write(frame(TypeCmd, CmdExtMode, []byte{8}))
	}
	_ = d.port.Write(frame(TypeData, mode&0x07, payload))
	d.dev.WriteInFlight = true
	d.dev.LastWriteAt = runtime.Now()
}

// Ready implements spec §4.3's ready predicate: in DATA, current mode
// matches requested, no write in flight, and both quiet windows have
// elapsed.
func (d *Driver) Ready() bool {
	if d.state != stateData {
		return false
	}
	if d.dev.CurrentMode != d.dev.RequestedMode {
		return false
	}
	if d.dev.WriteInFlight && runtime.Now()-d.dev.LastWriteAt < setDataTicks {
		return false
	}
	d.dev.WriteInFlight = false
	if runtime.Now()-d.dev.ModeSwitchAt < d.dev.staleWindow() {
		return false
	}
	return true
}

// Device returns the discovered device's identity and latest data.
func (d *Driver) Device() *Device {
	return &d.dev
}

func encodeU32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func decodeU32(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func trimNul(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
