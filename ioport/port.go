package ioport

import "hubcore/runtime"

// debounceCount is spec §4.2 step 6's "20 consecutive identical
// samples (~40 ms)" requirement at the 2 ms poll period.
const debounceCount = 20

// pollPeriodTicks is 2 ms expressed in runtime.TimerFreq ticks.
const pollPeriodTicks = runtime.TimerFreq / 500

// phase is this port's place within one classification pass (spec
// §4.2 steps 1-5 run in sequence every poll tick until a stable
// reading is reached).
type phase uint8

const (
	phaseActiveProbe phase = iota // steps 1-4: touch / train-point detection
	phasePassiveProbe             // step 5: resistor-ladder lookup
	phaseSettled                  // classification published; no disconnect detection, only TypeNone re-arms probing
)

// Port runs one port's detection state machine. Its resumable state
// lives entirely in this struct (runtime design notes' "caller-owned
// state block" requirement) since Poll is called from the top every
// tick.
type Port struct {
	ID1, ID2 Pin

	phase       phase
	candidate   DeviceType
	matchCount  int
	lastSample  DeviceType
	Type        DeviceType
	// OnUARTCandidate is invoked once a UART device is accepted (spec
	// §4.2 step 7): pin mux switches to UART AF and bus buffer enables
	// before this fires, so the callback can hand the port straight to
	// a lump driver.
	OnUARTCandidate func(p *Port)
}

// NewPort constructs a Port bound to its two shared ID pins.
func NewPort(id1, id2 Pin) *Port {
	return &Port{ID1: id1, ID2: id2, phase: phaseActiveProbe}
}

// Start registers this port's 2 ms poll timer with sched.
func (p *Port) Start(sched *runtime.Scheduler) {
	t := &runtime.Timer{WakeTime: runtime.Now() + pollPeriodTicks}
	t.Handler = func(tm *runtime.Timer) uint8 {
		p.tick()
		tm.WakeTime = runtime.Now() + pollPeriodTicks
		return runtime.SFReschedule
	}
	sched.ScheduleTimer(t)
}

// tick runs one classification sample (spec §4.2 algorithm).
func (p *Port) tick() {
	if p.phase == phaseSettled {
		if p.Type == TypeNone {
			// re-arm: a device may have since been plugged in.
			p.phase = phaseActiveProbe
			p.matchCount = 0
		}
		return
	}

	sample := p.sampleOnce()

	if sample == p.lastSample {
		p.matchCount++
	} else {
		p.lastSample = sample
		p.matchCount = 1
	}

	if p.matchCount < debounceCount {
		return
	}

	p.Type = sample
	p.phase = phaseSettled
	if sample == TypeUARTCandidate {
		drv := MustDriver()
		_ = drv.SelectUARTFunction()
		_ = drv.EnableBusBuffer(true)
		if p.OnUARTCandidate != nil {
			p.OnUARTCandidate(p)
		}
	}
}

// sampleOnce performs steps 1-5 of spec §4.2's algorithm once and
// returns the classification this single pass observed (before
// debouncing).
func (p *Port) sampleOnce() DeviceType {
	drv := MustDriver()

	// Steps 1-2: active probe for touch / train-point sensors.
	_ = drv.DriveHigh(p.ID1)
	_ = drv.DriveInput(p.ID2)
	before, _ := drv.Sample(p.ID2)

	_ = drv.DriveLow(p.ID1)
	after, _ := drv.Sample(p.ID2)

	switch {
	case before == LevelHigh && after == LevelLow:
		return TypeTouchSensor
	case before == LevelLow && after == LevelHigh:
		return TypeTrainPointSensor
	}

	// Step 5: passive resistor-ladder lookup.
	_ = drv.DriveInputPullUp(p.ID1)

	_ = drv.DriveHigh(p.ID2)
	id1WithID2High, _ := drv.Sample(p.ID1)

	_ = drv.DriveLow(p.ID2)
	id1WithID2Low, _ := drv.Sample(p.ID1)

	_ = drv.DriveInputPullUp(p.ID2)
	id2Level, _ := drv.Sample(p.ID2)
	_ = drv.DriveInputPullDown(p.ID2)
	id2LevelPD, _ := drv.Sample(p.ID2)

	id1Group := levelToGroup(id1WithID2High, id1WithID2Low)
	id2Group := levelToGroup(id2Level, id2LevelPD)

	return classifyPassive(id1Group, id2Group)
}
