package servo

import (
	"testing"

	"hubcore/runtime"
	"hubcore/trajectory"
)

type fakeMotor struct {
	lastDuty int32
	coasted  bool
	braked   bool
}

func (m *fakeMotor) SetDutyCycle(u int32) { m.lastDuty = u }
func (m *fakeMotor) Coast()               { m.coasted = true }
func (m *fakeMotor) Brake()               { m.braked = true }

// fakeSensor follows the commanded duty perfectly (an idealized
// plant), so the closed loop's error should shrink toward zero.
type fakeSensor struct {
	pos  int32
	pull *fakeMotor
}

func (f *fakeSensor) Angle() int32 {
	f.pos += f.pull.lastDuty / 50
	return f.pos
}

func TestServoDutyClampedToMax(t *testing.T) {
	runtime.ResetClock()
	motor := &fakeMotor{}
	sensor := &fakeSensor{pull: motor}
	gains := DefaultGains()
	s := New(motor, sensor, gains)

	tr := trajectory.NewFromAngle(0, 0, 20000, 1000000, 20000, 20000, trajectory.StopAtEnd)
	s.RunTrajectory(tr, Hold)

	for i := 0; i < 50; i++ {
		runtime.Advance(100)
		s.Tick(100)
	}

	if absI32(motor.lastDuty) > gains.MaxDutyCycle {
		t.Fatalf("duty cycle %d exceeded max %d", motor.lastDuty, gains.MaxDutyCycle)
	}
}

func TestServoCompletionAppliesBrake(t *testing.T) {
	runtime.ResetClock()
	motor := &fakeMotor{}
	sensor := &fakeSensor{pull: motor}
	s := New(motor, sensor, DefaultGains())

	tr := trajectory.NewFromAngle(0, 0, 1000, 500, 2000, 2000, trajectory.StopAtEnd)
	s.RunTrajectory(tr, Brake)

	runtime.Advance(uint32(tr.T3()) + 1000)
	s.Tick(100)

	if !motor.braked {
		t.Fatalf("expected motor to brake once the trajectory completed")
	}
}

func TestServoStallDetectionRequiresSustainedCondition(t *testing.T) {
	runtime.ResetClock()
	motor := &fakeMotor{}
	s := New(motor, &stuckSensor{}, DefaultGains())
	tr := trajectory.NewFromAngle(0, 0, 20000, 5000000, 20000, 20000, trajectory.StopAtEnd)
	s.RunTrajectory(tr, Hold)

	for i := 0; i < 5; i++ {
		runtime.Advance(100)
		s.Tick(100)
	}
	if s.Stalled() {
		t.Fatalf("should not report stall before the stall window elapses")
	}

	for i := 0; i < int(DefaultGains().StallWindowTicks/100)+5; i++ {
		runtime.Advance(100)
		s.Tick(100)
	}
	if !s.Stalled() {
		t.Fatalf("expected stall once the window elapsed with high duty and no movement")
	}
}

// stuckSensor never moves, simulating a jammed motor.
type stuckSensor struct{}

func (stuckSensor) Angle() int32 { return 0 }
