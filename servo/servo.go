package servo

import (
	"hubcore/runtime"
	"hubcore/trajectory"
)

// OnCompletion selects behaviour once a timed/angle trajectory reaches
// its endpoint (spec §4.5 "Completion").
type OnCompletion uint8

const (
	Hold OnCompletion = iota
	Coast
	Brake
	ContinueAtSpeed
)

// Gains holds the per-tick control loop coefficients (spec §4.5 step
// 4). LowSpeedKp is used instead of Kp below SpeedThreshold to reduce
// chatter at hold.
type Gains struct {
	Kp, LowSpeedKp int32
	Kd             int32
	Ki             int32
	SpeedThreshold int32 // ddeg/s

	// Observer correction gains, applied to the position residual
	// (measured - predicted).
	ObserverL1 int32 // corrects estimated position (Q16 fixed point)
	ObserverL2 int32 // corrects estimated speed (Q16 fixed point)

	MaxDutyCycle int32 // clamp for u, e.g. 10000

	StallDutyThreshold  int32 // |u| above this counts toward stall
	StallSpeedThreshold int32 // |speed| below this counts toward stall
	StallWindowTicks    int32
}

// DefaultGains returns reasonable starting coefficients; callers tune
// per motor model.
func DefaultGains() Gains {
	return Gains{
		Kp: 400, LowSpeedKp: 150, Kd: 20, Ki: 2,
		SpeedThreshold:      500,
		ObserverL1:          6000,
		ObserverL2:          2000,
		MaxDutyCycle:        10000,
		StallDutyThreshold:  7000,
		StallSpeedThreshold: 50,
		StallWindowTicks:    runtime.TimerFreq / 5, // 200ms
	}
}

// Servo drives one motor along a trajectory.Trajectory, running its
// control loop once per tick (nominally 1 kHz from runtime's
// scheduler, spec §4.5).
type Servo struct {
	motor  MotorBackend
	sensor AngleSource
	gains  Gains

	traj      *trajectory.Trajectory
	startTick uint32

	estPos, estSpeed int32 // observer state: mdeg, ddeg/s
	integrator        int64 // accumulated e_pos * dt

	lastDuty int32

	stalled       bool
	stallTicksAcc int32

	completion OnCompletion
	completed  bool
}

// New constructs a Servo bound to its motor and angle feedback.
func New(motor MotorBackend, sensor AngleSource, gains Gains) *Servo {
	return &Servo{motor: motor, sensor: sensor, gains: gains}
}

// RunTrajectory starts following tr, applying onComplete once t3 has
// passed.
func (s *Servo) RunTrajectory(tr *trajectory.Trajectory, onComplete OnCompletion) {
	s.traj = tr
	s.startTick = runtime.Now()
	s.completion = onComplete
	s.completed = false
	s.integrator = 0
	s.stallTicksAcc = 0
	s.stalled = false
}

// Tick runs one control-loop iteration (spec §4.5 "Loop per tick").
// dtTicks is the elapsed time since the previous Tick in runtime
// ticks (10^-4 s units, matching trajectory.NewFromAngle's time unit).
func (s *Servo) Tick(dtTicks int32) {
	if s.traj == nil {
		return
	}

	measured := s.sensor.Angle()
	s.observe(measured, dtTicks)

	elapsed := int32(runtime.Now() - s.startTick)
	refPos, refSpeed, refAcc := s.traj.At(elapsed)

	if elapsed >= s.traj.T3() && !s.completed {
		s.onTrajectoryComplete()
	}

	ePos := refPos - s.estPos
	eSpeed := refSpeed - s.estSpeed
	s.integrator += int64(ePos) * int64(dtTicks)

	kp := s.gains.Kp
	if absI32(s.estSpeed) < s.gains.SpeedThreshold {
		kp = s.gains.LowSpeedKp
	}

	ff := feedforward(refAcc, refSpeed)
	u := kp*ePos/1000 + s.gains.Kd*eSpeed/1000 + s.gains.Ki*int32(s.integrator/1000000) + ff
	u = clamp(u, -s.gains.MaxDutyCycle, s.gains.MaxDutyCycle)
	s.lastDuty = u

	s.updateStallTracking(u, dtTicks)

	if s.completed {
		s.applyCompletionDrive()
		return
	}
	s.motor.SetDutyCycle(u)
}

// observe fuses the position measurement with a voltage-driven model
// of the motor (spec §4.5 step 1: "Luenberger observer"). The model
// contributes an open-loop speed nudge from the last commanded duty;
// the residual between measured and predicted position is what
// actually drives both corrections, so a motor that genuinely isn't
// moving keeps the speed estimate pinned near zero regardless of how
// hard it's being driven.
func (s *Servo) observe(measured int32, dtTicks int32) {
	predictedPos := s.estPos + s.estSpeed*dtTicks/100

	residual := measured - predictedPos
	posCorrection := int32((int64(s.gains.ObserverL1) * int64(residual)) >> 16)
	speedCorrection := int32((int64(s.gains.ObserverL2) * int64(residual)) >> 16)

	s.estPos = predictedPos + posCorrection
	s.estSpeed = s.estSpeed + speedCorrection + motorModelAccel(s.lastDuty)*dtTicks/100000
}

// motorModelAccel approximates acceleration (ddeg/s per tick) driven
// by the last commanded duty cycle, a simple linear voltage model
// contributing a small open-loop nudge to the observer's prediction.
func motorModelAccel(duty int32) int32 {
	return duty / 20
}

func feedforward(refAcc, refSpeed int32) int32 {
	return refAcc/50 + refSpeed/100
}

// updateStallTracking implements spec §4.5's stall detection: track
// the duration |u| stays above the stall-duty threshold while |speed|
// stays below the stall-speed threshold.
func (s *Servo) updateStallTracking(u, dtTicks int32) {
	if absI32(u) > s.gains.StallDutyThreshold && absI32(s.estSpeed) < s.gains.StallSpeedThreshold {
		s.stallTicksAcc += dtTicks
		if s.stallTicksAcc >= s.gains.StallWindowTicks {
			s.stalled = true
		}
	} else {
		s.stallTicksAcc = 0
		s.stalled = false
	}
}

// Stalled reports whether the servo currently believes the motor is
// stalled. Stall does not stop the motor automatically (spec §4.5);
// the caller decides.
func (s *Servo) Stalled() bool { return s.stalled }

func (s *Servo) onTrajectoryComplete() {
	s.completed = true
}

func (s *Servo) applyCompletionDrive() {
	switch s.completion {
	case Coast:
		s.motor.Coast()
	case Brake:
		s.motor.Brake()
	case ContinueAtSpeed:
		s.motor.SetDutyCycle(s.lastDuty)
	default: // Hold
		s.motor.SetDutyCycle(s.lastDuty)
	}
}

// Position / Speed return the observer's current estimate.
func (s *Servo) Position() int32 { return s.estPos }
func (s *Servo) Speed() int32    { return s.estSpeed }

func absI32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
