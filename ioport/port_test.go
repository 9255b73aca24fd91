package ioport

import (
	"hubcore/runtime"
	"testing"
)

// fakeDriver reports a fixed passive-table reading regardless of which
// pin mode is requested, except it distinguishes ID1 samples taken
// while ID2 is driven high vs low (the two bits the passive lookup
// actually needs).
type fakeDriver struct {
	id2SampleDuringActive []Level // two values consumed by the touch/train-point probe
	id1WithID2High        Level
	id1WithID2Low         Level
	id2Level              Level
	id2LevelPD            Level

	uartSelected bool
	busEnabled   bool
}

func (d *fakeDriver) DriveHigh(p Pin) error           { return nil }
func (d *fakeDriver) DriveLow(p Pin) error            { return nil }
func (d *fakeDriver) DriveInputPullUp(p Pin) error    { return nil }
func (d *fakeDriver) DriveInputPullDown(p Pin) error  { return nil }
func (d *fakeDriver) DriveInput(p Pin) error          { return nil }
func (d *fakeDriver) EnableBusBuffer(enable bool) error {
	d.busEnabled = enable
	return nil
}
func (d *fakeDriver) SelectUARTFunction() error {
	d.uartSelected = true
	return nil
}

var sampleCall int

func (d *fakeDriver) Sample(p Pin) (Level, error) {
	// Called in port.sampleOnce's fixed order: ID2 (active, x2), ID1
	// (x2), ID2 (x2). Use a package-level counter reset per sampleOnce
	// call via the test driving code.
	sampleCall++
	switch sampleCall {
	case 1:
		return d.id2SampleDuringActive[0], nil
	case 2:
		return d.id2SampleDuringActive[1], nil
	case 3:
		return d.id1WithID2High, nil
	case 4:
		return d.id1WithID2Low, nil
	case 5:
		return d.id2Level, nil
	case 6:
		return d.id2LevelPD, nil
	default:
		return LevelLow, nil
	}
}

func resetSample() { sampleCall = 0 }

func settle(t *testing.T, p *Port, want DeviceType) {
	t.Helper()
	for i := 0; i < debounceCount; i++ {
		resetSample()
		p.tick()
	}
	if p.Type != want {
		t.Fatalf("expected settled type %v, got %v", want, p.Type)
	}
}

func TestClassifyTouchSensor(t *testing.T) {
	d := &fakeDriver{id2SampleDuringActive: []Level{LevelHigh, LevelLow}}
	SetDriver(d)
	p := NewPort(1, 2)
	settle(t, p, TypeTouchSensor)
}

func TestClassifyTrainPointSensor(t *testing.T) {
	d := &fakeDriver{id2SampleDuringActive: []Level{LevelLow, LevelHigh}}
	SetDriver(d)
	p := NewPort(1, 2)
	settle(t, p, TypeTrainPointSensor)
}

func TestClassifyLargeMotor(t *testing.T) {
	d := &fakeDriver{
		id2SampleDuringActive: []Level{LevelLow, LevelLow}, // no active transition
		id1WithID2High:        LevelHigh,                   // VCC group
		id1WithID2Low:         LevelHigh,
		id2Level:              LevelHigh, // VCC group
		id2LevelPD:             LevelHigh,
	}
	SetDriver(d)
	p := NewPort(1, 2)
	settle(t, p, TypeLargeMotor)
}

func TestClassifyUARTCandidateInvokesCallback(t *testing.T) {
	d := &fakeDriver{
		id2SampleDuringActive: []Level{LevelLow, LevelLow},
		id1WithID2High:        LevelHigh, // ID1 follows ID2 -> open
		id1WithID2Low:         LevelLow,
		id2Level:              LevelPulled,
		id2LevelPD:             LevelPulled,
	}
	SetDriver(d)
	p := NewPort(1, 2)
	invoked := false
	p.OnUARTCandidate = func(port *Port) { invoked = true }

	settle(t, p, TypeUARTCandidate)

	if !invoked {
		t.Fatalf("expected OnUARTCandidate callback to fire")
	}
	if !d.uartSelected || !d.busEnabled {
		t.Fatalf("expected UART function selected and bus buffer enabled")
	}
}

func TestClassifyRequiresDebounce(t *testing.T) {
	d := &fakeDriver{id2SampleDuringActive: []Level{LevelHigh, LevelLow}}
	SetDriver(d)
	p := NewPort(1, 2)

	for i := 0; i < debounceCount-1; i++ {
		resetSample()
		p.tick()
	}
	if p.phase == phaseSettled {
		t.Fatalf("classification settled before debounce threshold was reached")
	}
}

func TestPortStartSchedulesRecurringTimer(t *testing.T) {
	resetClockForIoport()
	sched := runtime.NewScheduler()
	d := &fakeDriver{id2SampleDuringActive: []Level{LevelLow, LevelLow}, id1WithID2High: LevelHigh, id1WithID2Low: LevelHigh, id2Level: LevelHigh, id2LevelPD: LevelHigh}
	SetDriver(d)
	p := NewPort(1, 2)
	p.Start(sched)

	for i := 0; i < debounceCount; i++ {
		runtime.Advance(pollPeriodTicks)
		resetSample()
		sched.RunAndWait()
	}

	if p.Type != TypeLargeMotor {
		t.Fatalf("expected port driven by scheduler timer to settle, got %v", p.Type)
	}
}

func resetClockForIoport() {
	runtime.SetClockSource(nil)
	runtime.Advance(0)
}
