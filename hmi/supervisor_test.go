package hmi

import (
	"testing"

	"hubcore/hub"
	"hubcore/runtime"
)

type fakeHost struct {
	started       bool
	startSlot     uint8
	startProgramID uint8
	finished      bool
	stopRequested bool
}

func (h *fakeHost) Start(slot, programID uint8) {
	h.started = true
	h.startSlot = slot
	h.startProgramID = programID
}
func (h *fakeHost) Poll() bool     { return h.finished }
func (h *fakeHost) RequestStop()   { h.stopRequested = true }

type fakePersister struct {
	bleEnabled     bool
	shutdownCalled bool
}

func (p *fakePersister) Shutdown() error            { p.shutdownCalled = true; return nil }
func (p *fakePersister) SetBluetoothEnabled(v bool) { p.bleEnabled = v }
func (p *fakePersister) BluetoothEnabled() bool     { return p.bleEnabled }

type fakePower struct{ off bool }

func (p *fakePower) PowerOff() { p.off = true }

type fakeBusy struct{ n int }

func (b *fakeBusy) InitBusyCount() int { return b.n }

type fakeRadioHMI struct{ advertising bool }

func (r *fakeRadioHMI) StartAdvertising(v bool) { r.advertising = v }

type supervisorFixture struct {
	s       *Supervisor
	buttons *fakeButtons
	host    *fakeHost
	persist *fakePersister
	power   *fakePower
	busy    *fakeBusy
	radio   *fakeRadioHMI
	sched   *runtime.Scheduler
}

func newSupervisorFixture() *supervisorFixture {
	runtime.ResetClock()
	buttons := &fakeButtons{}
	f := &supervisorFixture{
		buttons: buttons,
		host:    &fakeHost{},
		persist: &fakePersister{},
		power:   &fakePower{},
		busy:    &fakeBusy{},
		radio:   &fakeRadioHMI{},
		sched:   runtime.NewScheduler(),
	}
	light := NewLightController(&fakeLight{})
	f.s = NewSupervisor(light, NewButtonDebouncer(buttons), f.host, f.persist, f.power, f.busy, f.radio)
	return f
}

func (f *supervisorFixture) tick() {
	runtime.Advance(pollIntervalTicks)
	f.sched.RunAndWait()
}

func (f *supervisorFixture) pressAndSettle(b Button) {
	f.buttons.pressed[b] = true
	for i := 0; i < debounceSamples; i++ {
		f.tick()
	}
	f.buttons.pressed[b] = false
	for i := 0; i < debounceSamples; i++ {
		f.tick()
	}
}

func (f *supervisorFixture) bootToIdle() {
	f.busy.n = 0
	f.s.Start(f.sched)
	f.tick()
}

func TestSupervisorBootWaitsForBusyCountBeforeIdle(t *testing.T) {
	f := newSupervisorFixture()
	f.busy.n = 1
	f.s.Start(f.sched)
	f.tick()
	if f.s.State() != StateBoot {
		t.Fatalf("expected to remain in boot while busy, got %s", f.s.State())
	}
	f.busy.n = 0
	f.tick()
	if f.s.State() != StateIdle {
		t.Fatalf("expected idle once busy count clears, got %s", f.s.State())
	}
}

func TestSupervisorCenterButtonStartsSelectedSlot(t *testing.T) {
	f := newSupervisorFixture()
	f.bootToIdle()

	f.buttons.pressed[ButtonCenter] = true
	for i := 0; i < debounceSamples; i++ {
		f.tick()
	}

	if f.s.State() != StateRunning {
		t.Fatalf("expected running after center press, got %s", f.s.State())
	}
	if !f.host.started || f.host.startSlot != 0 {
		t.Fatalf("expected the host to start slot 0, got %+v", f.host)
	}
	if !f.s.UserProgramRunning() {
		t.Fatalf("expected the running status flag to be set")
	}
}

func TestSupervisorChangeSlotWrapsAround(t *testing.T) {
	f := newSupervisorFixture()
	f.bootToIdle()

	f.pressAndSettle(ButtonLeft)
	if f.s.SelectedSlot() != hub.NumSlots-1 {
		t.Fatalf("expected wraparound to the last slot, got %d", f.s.SelectedSlot())
	}

	f.pressAndSettle(ButtonRight)
	if f.s.SelectedSlot() != 0 {
		t.Fatalf("expected wraparound back to slot 0, got %d", f.s.SelectedSlot())
	}
}

func TestSupervisorIdleTimeoutTriggersShutdown(t *testing.T) {
	f := newSupervisorFixture()
	f.bootToIdle()

	runtime.Advance(idleTimeoutTicks)
	f.sched.RunAndWait()
	if f.s.State() != StateShutdown {
		t.Fatalf("expected shutdown after the idle timeout, got %s", f.s.State())
	}
}

func TestSupervisorBatteryCriticalTriggersImmediateShutdown(t *testing.T) {
	f := newSupervisorFixture()
	f.bootToIdle()

	f.s.SetBatteryCritical(true)
	f.tick()
	if f.s.State() != StateShutdown {
		t.Fatalf("expected shutdown on critical battery, got %s", f.s.State())
	}
}

func TestSupervisorShutdownSequencesAnimationThenPersistThenPowerOff(t *testing.T) {
	f := newSupervisorFixture()
	f.bootToIdle()
	f.busy.n = 1

	f.s.SetBatteryCritical(true)
	f.tick()
	if f.s.State() != StateShutdown {
		t.Fatalf("expected shutdown state, got %s", f.s.State())
	}
	if f.persist.shutdownCalled {
		t.Fatalf("did not expect persistence before the animation minimum elapses")
	}

	runtime.Advance(shutdownAnimationMinTicks)
	f.sched.RunAndWait()
	if !f.persist.shutdownCalled {
		t.Fatalf("expected persistence once the animation minimum elapses")
	}
	if f.power.off {
		t.Fatalf("did not expect power-off while busy count is nonzero")
	}

	f.busy.n = 0
	f.tick()
	if !f.power.off {
		t.Fatalf("expected power-off once busy count clears")
	}
}

func TestSupervisorRequestStartProgramRejectedWhenNotIdle(t *testing.T) {
	f := newSupervisorFixture()
	err := f.s.RequestStartProgram(0, 0) // state is zero-value StateBoot
	if hub.KindOf(err) != hub.ErrBusy {
		t.Fatalf("expected ErrBusy outside idle, got %v", err)
	}
}

func TestSupervisorRequestStartProgramFromBLE(t *testing.T) {
	f := newSupervisorFixture()
	f.bootToIdle()

	if err := f.s.RequestStartProgram(3, 7); err != nil {
		t.Fatalf("RequestStartProgram: %v", err)
	}
	f.tick()
	if f.s.State() != StateRunning {
		t.Fatalf("expected running, got %s", f.s.State())
	}
	if f.host.startSlot != 3 || f.host.startProgramID != 7 {
		t.Fatalf("expected the requested slot/program id, got %+v", f.host)
	}
}

func TestSupervisorBLEToggleGuardedWhenConnected(t *testing.T) {
	f := newSupervisorFixture()
	f.bootToIdle()
	f.s.SetBLEConnected(true)

	f.pressAndSettle(ButtonBLEToggle)
	if f.persist.bleEnabled {
		t.Fatalf("expected the BLE toggle to be ignored while connected")
	}
	if f.radio.advertising {
		t.Fatalf("expected no advertising change while connected")
	}
}

func TestSupervisorBLEToggleFlipsWhenIdleAndDisconnected(t *testing.T) {
	f := newSupervisorFixture()
	f.bootToIdle()

	f.pressAndSettle(ButtonBLEToggle)
	if !f.persist.bleEnabled {
		t.Fatalf("expected the BLE setting to flip to enabled")
	}
	if !f.radio.advertising {
		t.Fatalf("expected advertising to start")
	}
}

func TestSupervisorRequestStopForwardsOnlyWhileRunning(t *testing.T) {
	f := newSupervisorFixture()
	f.bootToIdle()

	f.s.RequestStop()
	if f.host.stopRequested {
		t.Fatalf("did not expect a stop request while idle")
	}

	if err := f.s.RequestStartProgram(0, 0); err != nil {
		t.Fatalf("RequestStartProgram: %v", err)
	}
	f.tick()

	f.s.RequestStop()
	if !f.host.stopRequested {
		t.Fatalf("expected the stop request to reach the host while running")
	}
}

func TestSupervisorRunningProgramReturnsToIdleOnFinish(t *testing.T) {
	f := newSupervisorFixture()
	f.bootToIdle()
	if err := f.s.RequestStartProgram(1, 0); err != nil {
		t.Fatalf("RequestStartProgram: %v", err)
	}
	f.tick()
	if f.s.State() != StateRunning {
		t.Fatalf("expected running, got %s", f.s.State())
	}

	f.host.finished = true
	f.tick()
	if f.s.State() != StateIdle {
		t.Fatalf("expected idle after the program finishes, got %s", f.s.State())
	}
	if f.s.UserProgramRunning() {
		t.Fatalf("expected the running status flag to clear")
	}
}
