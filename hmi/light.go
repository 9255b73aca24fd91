package hmi

import "hubcore/runtime"

// Color is one of the status light's fixed hues (spec §4.8 "Status
// light").
type Color uint8

const (
	ColorOff Color = iota
	ColorYellow
	ColorBlue
	ColorGreen
	ColorRed
)

// Pattern is how brightness varies over time for the current Color.
type Pattern uint8

const (
	PatternSolid Pattern = iota
	PatternBreathing
	PatternPulsing
)

// LightDriver is the status light's hardware collaborator: a single
// RGB/PWM output the board support package drives directly.
type LightDriver interface {
	SetColor(c Color, brightness uint8)
}

const (
	breathingPeriodTicks = 2 * runtime.TimerFreq // one breath every 2s
	breathingSteps       = 40
	breathingStepTicks   = breathingPeriodTicks / (2 * breathingSteps)
	pulsingHalfTicks     = runtime.TimerFreq / 2 // 500ms on, 500ms off
)

// LightController drives LightDriver's fixed animations, grounded on
// core/gpio.go's DigitalOut: a rescheduling Timer steps the pattern
// the same way digitalOutLoadEvent re-arms itself for PWM toggling,
// generalized from on/off duty to a brightness ramp.
type LightController struct {
	driver LightDriver
	sched  *runtime.Scheduler
	timer  *runtime.Timer

	color   Color
	pattern Pattern
	step    int
}

// NewLightController constructs a controller in the off state.
func NewLightController(driver LightDriver) *LightController {
	return &LightController{driver: driver}
}

// Start begins animating on sched.
func (l *LightController) Start(sched *runtime.Scheduler) {
	l.sched = sched
	l.restart()
}

// Stop cancels any running animation and turns the light off.
func (l *LightController) Stop() {
	if l.sched != nil && l.timer != nil {
		l.sched.CancelTimer(l.timer)
	}
	l.timer = nil
	l.driver.SetColor(ColorOff, 0)
}

// Set switches to color/pattern. A no-op if already showing that
// exact combination, so repeated calls from a status-change handler
// don't restart the animation phase every tick.
func (l *LightController) Set(c Color, p Pattern) {
	if l.color == c && l.pattern == p {
		return
	}
	l.color = c
	l.pattern = p
	l.step = 0
	if l.sched != nil {
		l.restart()
	} else {
		l.driver.SetColor(c, initialBrightness(p))
	}
}

func (l *LightController) restart() {
	if l.timer != nil {
		l.sched.CancelTimer(l.timer)
	}
	l.timer = &runtime.Timer{WakeTime: runtime.Now(), Handler: l.onTick}
	l.sched.ScheduleTimer(l.timer)
}

func initialBrightness(p Pattern) uint8 {
	if p == PatternSolid {
		return 100
	}
	return 0
}

func (l *LightController) onTick(t *runtime.Timer) uint8 {
	switch l.pattern {
	case PatternSolid:
		l.driver.SetColor(l.color, 100)
		return runtime.SFDone

	case PatternBreathing:
		l.driver.SetColor(l.color, breathingBrightness(l.step))
		l.step = (l.step + 1) % (2 * breathingSteps)
		t.WakeTime = runtime.Now() + breathingStepTicks
		return runtime.SFReschedule

	case PatternPulsing:
		if l.step%2 == 0 {
			l.driver.SetColor(l.color, 100)
		} else {
			l.driver.SetColor(ColorOff, 0)
		}
		l.step++
		t.WakeTime = runtime.Now() + pulsingHalfTicks
		return runtime.SFReschedule

	default:
		return runtime.SFDone
	}
}

// breathingBrightness computes a triangular ramp 0..100..0 across
// 2*breathingSteps steps.
func breathingBrightness(step int) uint8 {
	if step < breathingSteps {
		return uint8(step * 100 / breathingSteps)
	}
	return uint8((2*breathingSteps - step) * 100 / breathingSteps)
}
