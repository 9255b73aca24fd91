// Package main implements a terminal HMI simulator: it runs the real
// C6-C8 packages (ble, hmi, storage) against in-memory collaborators
// instead of hardware, the way the teacher's ui/wasm/main.go runs core
// packages against a browser instead of a microcontroller, so a
// developer can drive button presses and BLE commands without a board.
package main

import (
	"sync"
	"time"

	"hubcore/ble"
	"hubcore/hmi"
	"hubcore/hub"
	"hubcore/runtime"
	"hubcore/storage"
)

// simLight captures the status light's current color/brightness for
// rendering instead of driving real PWM.
type simLight struct {
	mu         sync.Mutex
	color      hmi.Color
	brightness uint8
}

func (l *simLight) SetColor(c hmi.Color, brightness uint8) {
	l.mu.Lock()
	l.color, l.brightness = c, brightness
	l.mu.Unlock()
}

func (l *simLight) snapshot() (hmi.Color, uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color, l.brightness
}

// simButtons holds latched button state set by key presses in the
// Update loop; hubSim.press releases it after buttonHoldTime, long
// enough for the supervisor's debouncer to confirm the press.
type simButtons struct {
	mu      sync.Mutex
	pressed [4]bool
}

func (b *simButtons) Pressed(btn hmi.Button) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed[btn]
}

func (b *simButtons) set(btn hmi.Button, down bool) {
	b.mu.Lock()
	b.pressed[btn] = down
	b.mu.Unlock()
}

// simPower and simBusy/simRadio/simHost stand in for the platform
// collaborators cmd/hub's noop* stubs cover on real firmware; the
// simulator has no battery rail or radio to drive, only state to show.
type simPower struct {
	mu       sync.Mutex
	offCount int
}

func (p *simPower) PowerOff() {
	p.mu.Lock()
	p.offCount++
	p.mu.Unlock()
}

type simBusy struct{}

func (simBusy) InitBusyCount() int { return 0 }

type simRadio struct {
	mu          sync.Mutex
	advertising bool
}

func (r *simRadio) StartAdvertising(enabled bool) {
	r.mu.Lock()
	r.advertising = enabled
	r.mu.Unlock()
}

// simHost stands in for user-program execution: it "finishes" whatever
// was started on the very next poll, since there is no program runtime
// in this tree to actually run (spec §7 leaves that to another layer).
type simHost struct {
	mu      sync.Mutex
	running bool
	slot    uint8
}

func (h *simHost) Start(slot, programID uint8) {
	h.mu.Lock()
	h.running, h.slot = true, slot
	h.mu.Unlock()
}
func (h *simHost) Poll() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
	return true
}
func (h *simHost) RequestStop() {
	h.mu.Lock()
	h.running = false
	h.mu.Unlock()
}

// simBlock is an in-memory BlockDevice, mirroring storage's own
// memDevice test fixture (storage/memdevice_test.go) instead of a
// flash chip or a file.
type simBlock struct {
	buf []byte
}

func newSimBlock(size int) *simBlock { return &simBlock{buf: make([]byte, size)} }

func (d *simBlock) GetData() ([]byte, error)   { return d.buf, nil }
func (d *simBlock) WriteAll(size uint32) error { return nil }
func (d *simBlock) WritableSize() uint32       { return uint32(len(d.buf)) }

const stdoutTextCap = 4096

// buttonHoldTime is how long a simulated press stays down; it spans
// several of the supervisor's 20ms debounce samples.
const buttonHoldTime = 100 * time.Millisecond

// simBLE is a loopback BLE radio: OnConnect/write handling is driven
// by the TUI instead of a real GATT stack, matching cmd/hub's BLERadio
// interface so the same ble.Plane wiring runs unmodified.
type simBLE struct {
	mu         sync.Mutex
	connected  bool
	onConn     func(bool)
	onWrite    func([]byte, bool) ble.ReplyCode
	stdoutText []byte
}

func (r *simBLE) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// Send is the BluetoothDriver half ble.Plane calls; WRITE_STDOUT
// notifications are decoded into stdoutText for the TUI to render,
// the simulator's stand-in for actually showing a GATT notification
// on a connected phone.
func (r *simBLE) Send(data []byte, done func()) {
	r.mu.Lock()
	if len(data) > 0 && ble.EventOpcode(data[0]) == ble.EvtWriteStdout {
		r.stdoutText = append(r.stdoutText, data[1:]...)
		if len(r.stdoutText) > stdoutTextCap {
			r.stdoutText = r.stdoutText[len(r.stdoutText)-stdoutTextCap:]
		}
	}
	r.mu.Unlock()
	done()
}

func (r *simBLE) drainStdoutText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := string(r.stdoutText)
	return s
}

func (r *simBLE) SetConnectionHandler(f func(bool))                  { r.onConn = f }
func (r *simBLE) SetWriteHandler(f func([]byte, bool) ble.ReplyCode) { r.onWrite = f }

func (r *simBLE) toggleConnection() {
	r.mu.Lock()
	r.connected = !r.connected
	connected := r.connected
	r.mu.Unlock()
	if r.onConn != nil {
		r.onConn(connected)
	}
}

func (r *simBLE) write(frame []byte) ble.ReplyCode {
	if r.onWrite == nil {
		return ble.ReplyFailed
	}
	return r.onWrite(frame, true)
}

// programStarter mirrors cmd/hub.Adapter's narrowed view of the
// supervisor; duplicated here rather than imported since cmd/hub is
// package main and cannot be imported by another main package.
type programStarter interface {
	RequestStartProgram(slot uint8, programID uint8) error
	RequestStop()
}

// simAdapter implements ble.Dispatcher the same way cmd/hub.Adapter
// does, minus the reboot/stdin/app-data plumbing a simulator has no
// use for.
type simAdapter struct {
	storage *storage.Manager
	sup     programStarter
	nextID  uint8
}

func (a *simAdapter) StopUserProgram() error { a.sup.RequestStop(); return nil }
func (a *simAdapter) StartUserProgram(slot uint32) error {
	a.nextID++
	return a.sup.RequestStartProgram(uint8(slot), a.nextID)
}
func (a *simAdapter) StartREPL(slot uint32) error {
	return a.sup.RequestStartProgram(uint8(slot), 0xff)
}
func (a *simAdapter) WriteUserProgramMeta(size uint32) error { return a.storage.WriteUserProgramMeta(size) }
func (a *simAdapter) WriteUserRAM(offset uint32, data []byte) error {
	return a.storage.WriteUserRAM(offset, data)
}
func (a *simAdapter) RebootToUpdate() error        { return hub.NewError(hub.ErrFailed, "no bootloader in the simulator") }
func (a *simAdapter) WriteStdin(data []byte) error { return nil }
func (a *simAdapter) WriteAppData(offset uint16, data []byte) error {
	return a.storage.SetUserData(uint32(offset), data)
}

var _ ble.Dispatcher = (*simAdapter)(nil)

// hubSim owns every moving part of the simulated hub and the single
// goroutine allowed to touch the scheduler, mirroring cmd/hub's Run
// loop but driven by a ticker instead of a platform sleep.
type hubSim struct {
	sched      *runtime.Scheduler
	light      *simLight
	buttons    *simButtons
	power      *simPower
	radio      *simRadio
	host       *simHost
	ble        *simBLE
	stdout     *ble.StdoutRing
	plane      *ble.Plane
	supervisor *hmi.Supervisor
	store      *storage.Manager

	actions chan func()
}

type supervisorSlots struct{ sup *hmi.Supervisor }

func (s *supervisorSlots) SelectedSlot() uint8      { return s.sup.SelectedSlot() }
func (s *supervisorSlots) UserProgramRunning() bool { return s.sup.UserProgramRunning() }

func newHubSim() *hubSim {
	// Drive the runtime clock from wall time so timers fire.
	start := time.Now()
	runtime.SetClockSource(func() uint32 {
		return uint32(time.Since(start) / (time.Second / runtime.TimerFreq))
	})

	s := &hubSim{
		sched:   runtime.NewScheduler(),
		light:   &simLight{},
		buttons: &simButtons{},
		power:   &simPower{},
		radio:   &simRadio{},
		host:    &simHost{},
		ble:     &simBLE{},
		actions: make(chan func(), 16),
	}

	light := hmi.NewLightController(s.light)
	buttons := hmi.NewButtonDebouncer(s.buttons)

	slots := &supervisorSlots{}
	var hash [hub.FirmwareHashSize]byte
	copy(hash[:], "hub-simulator-00")
	s.store = storage.NewManager(newSimBlock(256*1024), slots, slots, hash)
	s.supervisor = hmi.NewSupervisor(light, buttons, s.host, s.store, s.power, simBusy{}, s.radio)
	slots.sup = s.supervisor

	_ = s.store.Boot()

	adapter := &simAdapter{storage: s.store, sup: s.supervisor}
	s.stdout = ble.NewStdoutRing(hub.StdoutRingSize)
	s.plane = ble.NewPlane(s.ble, adapter, s.stdout, s.supervisor, ble.DefaultConfig())

	s.ble.SetConnectionHandler(func(connected bool) {
		s.supervisor.SetBLEConnected(connected)
		if connected {
			s.plane.OnConnect(s.sched)
		} else {
			s.plane.OnDisconnect()
		}
	})
	s.ble.SetWriteHandler(func(frame []byte, withResponse bool) ble.ReplyCode {
		reply, _ := s.plane.HandleWrite(frame, withResponse)
		s.plane.Pump()
		return reply
	})

	light.Start(s.sched)
	s.supervisor.Start(s.sched)
	return s
}

// tick runs one scheduler pass plus any queued actions; called
// periodically from main's ticker goroutine, the only goroutine
// allowed to call it.
func (s *hubSim) tick() {
	drained := true
	for drained {
		select {
		case fn := <-s.actions:
			fn()
		default:
			drained = false
		}
	}
	s.sched.RunAndWait()
	s.plane.Pump()
}

// press, writeFrame and toggleBLELink are called from the bubbletea
// Update goroutine; they hand work to the simulator goroutine via the
// actions channel to keep every scheduler/hmi mutation single-threaded.
// A release is delayed by buttonHoldTime so the debouncer sees the
// press for several consecutive samples.
func (s *hubSim) press(btn hmi.Button, down bool) {
	if !down {
		time.AfterFunc(buttonHoldTime, func() {
			s.actions <- func() { s.buttons.set(btn, false) }
		})
		return
	}
	s.actions <- func() { s.buttons.set(btn, true) }
}

func (s *hubSim) writeFrame(frame []byte) {
	s.actions <- func() { s.ble.write(frame) }
}

func (s *hubSim) toggleBLELink() {
	s.actions <- func() { s.ble.toggleConnection() }
}

type snapshot struct {
	color        hmi.Color
	brightness   uint8
	slot         uint8
	bits         uint32
	bleConnected bool
	powerOffs    int
	stdout       string
}

func (s *hubSim) snapshot() snapshot {
	color, brightness := s.light.snapshot()
	return snapshot{
		color:        color,
		brightness:   brightness,
		slot:         s.supervisor.SelectedSlot(),
		bits:         s.supervisor.StatusBits(),
		bleConnected: s.ble.Connected(),
		powerOffs:    s.power.offCount,
		stdout:       s.ble.drainStdoutText(),
	}
}
