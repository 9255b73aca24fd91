// Package trajectory builds three-phase (accelerate/coast/decelerate)
// motion profiles for one degree of freedom (spec §4.4). All math is
// fixed-point integer: positions in mdeg, speeds in ddeg/s (1/10
// deg/s), accelerations in deg/s², times in runtime ticks (10^-4 s,
// matching runtime.TimerFreq). Intermediate products are carried in
// int64 and narrowed back to int32 without a range check (only the
// public constructors' inputs are asserted against the bounds spec
// §4.4 names), rather than hand-tuning operation order to
// stay inside int32 the way a single-width-integer target would have
// to — the one place this package knowingly departs from a literal
// port of the original's arithmetic.
package trajectory

// Bounds spec §4.4 asserts on every public entry point.
const (
	MaxAngleMdeg   = 1 << 30
	MaxSpeedDdeg   = 20000
	MinAccelDegS2  = 50
	MaxAccelDegS2  = 20000
)

func assertAngle(th int32) {
	if th >= MaxAngleMdeg || th <= -MaxAngleMdeg {
		panic("trajectory: angle out of bounds")
	}
}

func assertSpeed(w int32) {
	if w > MaxSpeedDdeg || w < -MaxSpeedDdeg {
		panic("trajectory: speed out of bounds")
	}
}

func assertAccel(a int32) {
	if a < MinAccelDegS2 || a > MaxAccelDegS2 {
		panic("trajectory: acceleration out of bounds")
	}
}

// mulWByT returns the angle (mdeg) covered at constant speed w
// (ddeg/s) over t ticks.
func mulWByT(w, t int32) int32 {
	return int32((int64(w) * int64(t)) / 100)
}

// divThByT returns the average speed (ddeg/s) needed to cover th mdeg
// in t ticks. t must be positive.
func divThByT(th, t int32) int32 {
	if t == 0 {
		return 0
	}
	return int32((int64(th) * 100) / int64(t))
}

// mulAByT2 returns the angle (mdeg) covered by accelerating from rest
// at a (deg/s²) for t ticks: 0.5*a*t².
func mulAByT2(a, t int32) int32 {
	return int32((int64(a) * int64(t) * int64(t)) / 200000)
}

// divWByA returns the time (ticks) needed to change speed by w
// (ddeg/s) at acceleration a (deg/s², always given positive).
func divWByA(w, a int32) int32 {
	if a == 0 {
		return 0
	}
	num := int64(w) * 1000
	if num < 0 {
		num = -num
	}
	t := num / int64(a)
	if w < 0 {
		return int32(-t)
	}
	return int32(t)
}

// divW2ByA returns the angle (mdeg) covered accelerating from 0 to
// |w| (ddeg/s) at acceleration a (deg/s²): w²/(2a).
func divW2ByA(w, a int32) int32 {
	if a == 0 {
		return 0
	}
	w64 := int64(w)
	return int32((w64 * w64 * 5) / int64(a))
}

// isqrt returns the integer square root of a non-negative int64.
func isqrt(v int64) int64 {
	if v <= 0 {
		return 0
	}
	x := v
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + v/x) / 2
	}
	return x
}

// intersectRamp solves for the peak speed w1 (ddeg/s) of a two-ramp
// profile that accelerates from w0 at a0, decelerates to w2 at a2, and
// covers th mdeg total — the case used when there is no room for a
// coast phase (spec §4.4: "intersect the accel ramp and decel ramp").
// All speeds non-negative; th must be reachable (the geometric mean
// speed implied by th must exceed both w0 and w2, otherwise the
// caller should fall back to clamping rather than calling this).
func intersectRamp(w0, w2, a0, a2, th int32) int32 {
	// th = (w1^2 - w0^2)/(2 a0) + (w1^2 - w2^2)/(2 a2)
	// w1^2 * (a0+a2) = 2*a0*a2*th + a2*w0^2 + a0*w2^2
	a0_ := int64(a0)
	a2_ := int64(a2)
	w0_ := int64(w0)
	w2_ := int64(w2)
	th_ := int64(th)

	num := 2*a0_*a2_*th_ + a2_*w0_*w0_ + a0_*w2_*w2_
	den := a0_ + a2_
	if den == 0 || num < 0 {
		return 0
	}
	w1sq := num / den
	return int32(isqrt(w1sq))
}
