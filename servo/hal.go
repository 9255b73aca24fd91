// Package servo drives one motor to follow a trajectory.Trajectory
// with closed-loop feedback, at a fixed control rate (spec §4.5).
package servo

// MotorBackend is the hardware abstraction a board-support target
// implements for one motor's H-bridge (or LUMP-protocol motor). Named
// and shaped after core/stepper_hal.go's StepperBackend, but for duty
// cycle actuation rather than step pulses — spec §4.5 drives motors by
// set_duty_cycle, not discrete steps.
type MotorBackend interface {
	// SetDutyCycle drives the motor at u, in [-10000, 10000]
	// (hundredths of a percent of full duty, signed for direction).
	SetDutyCycle(u int32)

	// Coast lets the motor spin freely (zero drive, high impedance).
	Coast()

	// Brake shorts the motor terminals for dynamic braking.
	Brake()
}

// AngleSource is the feedback collaborator: a quadrature tacho or a
// LUMP-protocol motor's own angle report (spec §4.5 step 1).
type AngleSource interface {
	// Angle returns the observed angle in mdeg, monotonically
	// increasing/decreasing with rotation (no wraparound within a
	// single command horizon).
	Angle() int32
}
