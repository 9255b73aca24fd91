// Package hmi implements the top-level supervisor (spec §4.8): the
// boot/idle/running/shutdown state machine owning the button, status
// light, slot selection, and power lifecycle. Collaborator interfaces
// stay narrow and structural (no import of ble/storage) so this
// package can satisfy ble.StatusSource and storage.SlotSelector/
// RunningChecker without a dependency cycle; only hub's plain data
// types (StatusWord, config constants) are imported.
package hmi

import (
	"hubcore/hub"
	"hubcore/runtime"
)

// State is one of the supervisor's four top-level states (spec §4.8
// "boot -> idle -> running -> idle -> ... -> shutdown").
type State uint8

const (
	StateBoot State = iota
	StateIdle
	StateRunning
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateBoot:
		return "boot"
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// InitBusyCounter reports the number of subsystems still completing
// async init/teardown work (spec §4.8 "wait for init_busy_count ==
// 0" on both the boot and shutdown paths).
type InitBusyCounter interface {
	InitBusyCount() int
}

// ProgramHost runs the external user-program entry point (out of
// scope per spec §7 "Internal failures inside a running user program
// are surfaced by the user-program layer"). The supervisor polls it
// to completion rather than blocking on it, matching C1's
// poll(&mut self) model instead of a synchronous call.
type ProgramHost interface {
	Start(slot uint8, programID uint8)
	Poll() (finished bool)
	RequestStop()
}

// PowerController cuts power once the shutdown sequence completes.
type PowerController interface {
	PowerOff()
}

// Radio starts or stops BLE advertising in response to the BLE-toggle
// button.
type Radio interface {
	StartAdvertising(enabled bool)
}

// Persister is the subset of storage.Manager the supervisor needs:
// shutdown write-back and the BLE-enable setting. Narrowed the same
// way ble.StatusSource narrows the hub context.
type Persister interface {
	Shutdown() error
	SetBluetoothEnabled(enabled bool)
	BluetoothEnabled() bool
}

const pollIntervalTicks = runtime.TimerFreq / 50 // 20ms

const idleTimeoutTicks = uint32(hub.IdleTimeoutMs) * runtime.TimerFreq / 1000
const shutdownAnimationMinTicks = uint32(hub.ShutdownAnimationMinMs) * runtime.TimerFreq / 1000

// Supervisor is C8. It owns the status word (spec §3 "System
// status"), so it implements ble.StatusSource and storage.
// SlotSelector/RunningChecker structurally without importing either
// package, following the "single hub context" design note.
type Supervisor struct {
	light     *LightController
	buttons   *ButtonDebouncer
	host      ProgramHost
	persister Persister
	power     PowerController
	busy      InitBusyCounter
	radio     Radio

	sched *runtime.Scheduler
	timer *runtime.Timer

	state  State
	status hub.StatusWord

	selectedSlot uint8 // UI-navigated slot, shown on the light/display
	slot         uint8 // slot reported in the status word (== selectedSlot except mid-run)
	programID    uint8

	lastActivity      uint32
	shutdownStart     uint32
	shutdownPersisted bool

	startRequested      bool
	requestedSlot       uint8
	requestedProgramID  uint8
}

// NewSupervisor constructs a Supervisor in the boot state.
func NewSupervisor(light *LightController, buttons *ButtonDebouncer, host ProgramHost, persister Persister, power PowerController, busy InitBusyCounter, radio Radio) *Supervisor {
	return &Supervisor{
		light:     light,
		buttons:   buttons,
		host:      host,
		persister: persister,
		power:     power,
		busy:      busy,
		radio:     radio,
	}
}

// Start registers the supervisor's poll timer on sched and enters the
// boot state (spec §4.8 "boot: run a bounded animation").
func (s *Supervisor) Start(sched *runtime.Scheduler) {
	s.sched = sched
	now := runtime.Now()
	s.lastActivity = now
	s.state = StateBoot
	s.light.Start(sched)
	s.updateLight()
	s.timer = &runtime.Timer{WakeTime: now + pollIntervalTicks, Handler: s.onTick}
	sched.ScheduleTimer(s.timer)
}

func (s *Supervisor) onTick(t *runtime.Timer) uint8 {
	s.poll(runtime.Now())
	t.WakeTime = runtime.Now() + pollIntervalTicks
	return runtime.SFReschedule
}

// State reports the current top-level state.
func (s *Supervisor) State() State { return s.state }

func (s *Supervisor) poll(now uint32) {
	s.buttons.Sample()
	switch s.state {
	case StateBoot:
		s.stepBoot()
	case StateIdle:
		s.stepIdle(now)
	case StateRunning:
		s.stepRunning(now)
	case StateShutdown:
		s.stepShutdown(now)
	}
}

func (s *Supervisor) stepBoot() {
	if s.busy.InitBusyCount() != 0 {
		return
	}
	s.enterIdle()
}

func (s *Supervisor) enterIdle() {
	s.state = StateIdle
	s.lastActivity = runtime.Now()
	s.updateLight()
}

func (s *Supervisor) stepIdle(now uint32) {
	if s.buttons.ConsumeEdge(ButtonCenter) {
		s.activity(now)
		s.enterRunning(s.selectedSlot, 0)
		return
	}
	if s.buttons.ConsumeEdge(ButtonLeft) {
		s.activity(now)
		s.changeSlot(-1)
	}
	if s.buttons.ConsumeEdge(ButtonRight) {
		s.activity(now)
		s.changeSlot(1)
	}
	if s.buttons.ConsumeEdge(ButtonBLEToggle) {
		s.activity(now)
		s.toggleBLE()
	}

	if s.startRequested {
		s.startRequested = false
		s.enterRunning(s.requestedSlot, s.requestedProgramID)
		return
	}

	if s.status.Get(hub.FlagBatteryCritical) {
		s.enterShutdown(now)
		return
	}
	if now-s.lastActivity >= idleTimeoutTicks {
		s.enterShutdown(now)
		return
	}
	s.updateLight()
}

func (s *Supervisor) activity(now uint32) {
	s.lastActivity = now
}

func (s *Supervisor) changeSlot(delta int) {
	n := int(hub.NumSlots)
	next := (int(s.selectedSlot) + delta + n) % n
	s.selectedSlot = uint8(next)
	s.slot = s.selectedSlot
}

// toggleBLE mirrors storage_settings.c's
// pbsys_storage_settings_bluetooth_enabled_request_toggle guard: the
// button only has effect when not running a program, not already
// shutting down, and not currently connected (disconnect first).
func (s *Supervisor) toggleBLE() {
	if s.state != StateIdle || s.status.Get(hub.FlagBLEConnected) {
		return
	}
	enabled := !s.persister.BluetoothEnabled()
	s.persister.SetBluetoothEnabled(enabled)
	s.radio.StartAdvertising(enabled)
}

// RequestStartProgram is the BLE command plane's entry point (spec
// §4.6 START_USER_PROGRAM). Returns ErrBusy outside the idle state.
func (s *Supervisor) RequestStartProgram(slot uint8, programID uint8) error {
	if s.state != StateIdle {
		return hub.NewError(hub.ErrBusy, "hmi not idle")
	}
	s.startRequested = true
	s.requestedSlot = slot
	s.requestedProgramID = programID
	return nil
}

// RequestStop delivers a combined button/BLE stop request to the
// running program (spec §4.8 "delivered ... as a single stop flag").
func (s *Supervisor) RequestStop() {
	if s.state != StateRunning {
		return
	}
	s.host.RequestStop()
}

func (s *Supervisor) enterRunning(slot uint8, programID uint8) {
	s.state = StateRunning
	s.slot = slot
	s.programID = programID
	s.status.Set(hub.FlagUserProgramRunning, true, runtime.Now())
	s.host.Start(slot, programID)
	s.updateLight()
}

func (s *Supervisor) stepRunning(now uint32) {
	if s.buttons.ConsumeEdge(ButtonCenter) {
		s.RequestStop()
	}
	if s.host.Poll() {
		s.status.Set(hub.FlagUserProgramRunning, false, now)
		s.activity(now)
		s.enterIdle()
	}
}

func (s *Supervisor) enterShutdown(now uint32) {
	s.state = StateShutdown
	s.shutdownStart = now
	s.shutdownPersisted = false
	s.status.Set(hub.FlagShutdownRequest, true, now)
	s.updateLight()
}

func (s *Supervisor) stepShutdown(now uint32) {
	if now-s.shutdownStart < shutdownAnimationMinTicks {
		return
	}
	if !s.shutdownPersisted {
		s.persister.Shutdown()
		s.shutdownPersisted = true
	}
	if s.busy.InitBusyCount() != 0 {
		return
	}
	s.status.Set(hub.FlagShutdown, true, now)
	s.power.PowerOff()
}

func (s *Supervisor) updateLight() {
	switch s.state {
	case StateBoot:
		s.light.Set(ColorYellow, PatternPulsing)
	case StateShutdown:
		s.light.Set(ColorOff, PatternSolid)
	case StateRunning:
		s.light.Set(ColorGreen, PatternBreathing)
	case StateIdle:
		switch {
		case s.status.Get(hub.FlagBatteryCritical) || s.status.Get(hub.FlagBatteryLow):
			s.light.Set(ColorRed, PatternPulsing)
		case s.status.Get(hub.FlagBLEConnected):
			s.light.Set(ColorBlue, PatternSolid)
		case s.status.Get(hub.FlagBLEAdvertising):
			s.light.Set(ColorYellow, PatternBreathing)
		default:
			s.light.Set(ColorOff, PatternSolid)
		}
	}
}

// --- status-changing hooks, called by the radio/USB/battery drivers ---

func (s *Supervisor) SetBLEAdvertising(v bool) {
	s.status.Set(hub.FlagBLEAdvertising, v, runtime.Now())
	if s.state == StateIdle {
		s.updateLight()
	}
}

func (s *Supervisor) SetBLEConnected(v bool) {
	now := runtime.Now()
	s.status.Set(hub.FlagBLEConnected, v, now)
	if v {
		s.activity(now)
	}
	if s.state == StateIdle {
		s.updateLight()
	}
}

func (s *Supervisor) SetUSBConnected(v bool) {
	now := runtime.Now()
	s.status.Set(hub.FlagUSBConnected, v, now)
	if v {
		s.activity(now)
	}
}

func (s *Supervisor) SetBatteryLow(v bool) {
	s.status.Set(hub.FlagBatteryLow, v, runtime.Now())
	if s.state == StateIdle {
		s.updateLight()
	}
}

func (s *Supervisor) SetBatteryCritical(v bool) {
	s.status.Set(hub.FlagBatteryCritical, v, runtime.Now())
	if s.state == StateIdle {
		s.updateLight()
	}
}

// --- structural interface satisfaction for ble.StatusSource and
// storage.SlotSelector/RunningChecker, kept free of those packages'
// imports ---

func (s *Supervisor) StatusBits() uint32        { return s.status.Bits() }
func (s *Supervisor) ProgramID() uint8          { return s.programID }
func (s *Supervisor) Slot() uint8               { return s.slot }
func (s *Supervisor) SelectedSlot() uint8       { return s.selectedSlot }
func (s *Supervisor) UserProgramRunning() bool  { return s.status.Get(hub.FlagUserProgramRunning) }
