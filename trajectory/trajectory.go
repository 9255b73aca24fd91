package trajectory

// Continuation selects the endpoint speed behaviour (spec §4.4
// "Continue running" flag).
type Continuation uint8

const (
	StopAtEnd Continuation = iota
	ContinueAtTargetSpeed
)

// Trajectory is a three-phase (accelerate/coast/decelerate) motion
// profile, sampled by angle- or time-based callers via At. Fields are
// unexported; read them through At, T3, EndPosition and EndSpeed, and
// construct with NewFromDuration or NewFromAngle.
type Trajectory struct {
	th0, w0 int32 // start position (mdeg), start speed (ddeg/s)
	a0, a2  int32 // accel / decel magnitudes (deg/s²), always positive
	w1      int32 // cruise/peak speed (ddeg/s)
	wEnd    int32 // endpoint speed (ddeg/s)

	t1, t2, t3 int32 // phase boundary times (ticks), t0 implicitly 0
	th1, th2, th3 int32 // phase boundary positions (mdeg)

	forward bool // true if constructed for a positive-direction move
}

// T3 returns the trajectory's total duration in ticks.
func (tr *Trajectory) T3() int32 { return tr.t3 }

// EndPosition / EndSpeed return the trajectory's planned endpoint.
func (tr *Trajectory) EndPosition() int32 { return tr.th3 }
func (tr *Trajectory) EndSpeed() int32    { return tr.wEnd }

// NewFromDuration builds a timed trajectory lasting t3 ticks (spec
// §4.4 "Timed command"): a trapezoid cruising at targetW when the
// ramps to and from targetW fit in t3; otherwise the two ramps meet at
// t1 == t2, with t3 split between them in proportion to the other
// ramp's rate and, for a forward move, the peak speed capped at
// targetW. The end angle follows from the profile; none is requested.
func NewFromDuration(th0, w0, targetW, t3, accel, decel int32, cont Continuation) *Trajectory {
	assertAngle(th0)
	assertSpeed(w0)
	assertSpeed(targetW)
	assertAccel(accel)
	assertAccel(decel)

	wEnd := int32(0)
	if cont == ContinueAtTargetSpeed {
		wEnd = targetW
	}

	tr := &Trajectory{th0: th0, w0: w0, a0: accel, a2: decel, forward: targetW >= w0}

	// Time to ramp from w0 to targetW and from targetW to wEnd.
	tAccel := divWByA(targetW-w0, accel)
	if tAccel < 0 {
		tAccel = divWByA(w0-targetW, decel)
	}
	tDecel := divWByA(targetW-wEnd, decel)
	if tDecel < 0 {
		tDecel = divWByA(wEnd-targetW, accel)
	}

	if tAccel < 0 {
		tAccel = 0
	}
	if tDecel < 0 {
		tDecel = 0
	}

	if tAccel+tDecel <= t3 {
		// Classical trapezoid: cruise at targetW for the remainder.
		tr.w1 = targetW
		tr.t1 = tAccel
		tr.t2 = t3 - tDecel
		tr.t3 = t3
	} else {
		// No room to reach targetW: without a distance bound
		// (duration-only command), split the available time
		// proportionally between the two accelerations.
		total := accel + decel
		if total == 0 {
			total = 1
		}
		tr.t1 = int32((int64(t3) * int64(decel)) / int64(total))
		tr.t2 = tr.t1
		tr.t3 = t3
		tr.w1 = w0 + mulAccelByTime(accel, tr.t1)
		if tr.forward && tr.w1 > targetW {
			tr.w1 = targetW
		}
	}

	tr.finishPositions(wEnd)
	return tr
}

// NewFromAngle builds an angle-based trajectory: cover th3-th0,
// ending at wEnd, respecting accel/decel limits (spec §4.4 "Angle
// command").
func NewFromAngle(th0, w0, targetW, th3, accel, decel int32, cont Continuation) *Trajectory {
	assertAngle(th0)
	assertAngle(th3)
	assertSpeed(w0)
	assertSpeed(targetW)
	assertAccel(accel)
	assertAccel(decel)

	wEnd := int32(0)
	if cont == ContinueAtTargetSpeed {
		wEnd = targetW
	}

	dist := th3 - th0
	forward := dist >= 0
	sign := int32(1)
	if !forward {
		sign = -1
	}
	absDist := dist * sign
	w0f := w0 * sign
	targetWf := targetW * sign
	wEndf := wEnd * sign
	if targetWf < 0 {
		targetWf = -targetWf
	}
	if w0f < 0 {
		w0f = 0
	}

	tr := &Trajectory{th0: th0, w0: w0, a0: accel, a2: decel, forward: forward}

	accelDist := divW2ByA(targetWf-w0f, accel)
	if targetWf < w0f {
		accelDist = -divW2ByA(w0f-targetWf, accel)
	}
	decelDist := divW2ByA(targetWf-wEndf, decel)

	if accelDist+decelDist <= absDist {
		// Trapezoid: full accel ramp, coast, full decel ramp.
		tr.w1 = targetWf * sign
		tAccel := divWByA(targetWf-w0f, accel)
		tDecel := divWByA(targetWf-wEndf, decel)
		coastDist := absDist - accelDist - decelDist
		var tCoast int32
		if targetWf != 0 {
			tCoast = int32((int64(coastDist) * 100) / int64(targetWf))
		}
		tr.t1 = tAccel
		tr.t2 = tAccel + tCoast
		tr.t3 = tr.t2 + tDecel
	} else {
		// Triangle: solve for the achievable peak speed w1.
		w1 := intersectRamp(w0f, wEndf, accel, decel, absDist)
		tr.w1 = w1 * sign
		tr.t1 = divWByA(w1-w0f, accel)
		tr.t2 = tr.t1
		tr.t3 = tr.t1 + divWByA(w1-wEndf, decel)
	}

	tr.finishPositions(wEnd)
	return tr
}

// finishPositions derives th1/th2/th3 by sampling the phase
// boundaries, and records the endpoint speed.
func (tr *Trajectory) finishPositions(wEnd int32) {
	tr.wEnd = wEnd
	tr.th1 = tr.th0 + mulWByT(tr.w0+tr.w1, tr.t1)/2
	tr.th2 = tr.th1 + mulWByT(tr.w1, tr.t2-tr.t1)
	tr.th3 = tr.th2 + mulWByT(tr.w1+tr.wEnd, tr.t3-tr.t2)/2
}

// Stretch recomputes w1/a0/a2 so this trajectory reaches the same
// angle in the same t1/t2/t3 as a leader trajectory (spec §4.4
// "Stretching" — used to synchronise paired motors in a drive base).
func (tr *Trajectory) Stretch(leader *Trajectory) {
	tr.t1, tr.t2, tr.t3 = leader.t1, leader.t2, leader.t3
	dist := tr.th3 - tr.th0

	// Solve the peak speed so the three phases sum to dist in the
	// given times: dist = (w0+w1)*t1/2 + w1*(t2-t1) + (w1+wEnd)*(t3-t2)/2.
	accelDist := mulWByT(tr.w0, tr.t1) / 2
	decelDist := mulWByT(tr.wEnd, tr.t3-tr.t2) / 2
	remaining := dist - accelDist - decelDist
	if span := tr.t3 + tr.t2 - tr.t1; span > 0 {
		tr.w1 = int32((int64(remaining) * 200) / int64(span))
	}

	if tr.t1 > 0 {
		tr.a0 = accelFromDeltaAndTime(tr.w1-tr.w0, tr.t1)
	}
	if tr.t3 > tr.t2 {
		tr.a2 = accelFromDeltaAndTime(tr.w1-tr.wEnd, tr.t3-tr.t2)
	}

	tr.finishPositions(tr.wEnd)
}

// At samples the trajectory at tick t (clamped to [0, t3]), returning
// position (mdeg), speed (ddeg/s) and acceleration (deg/s²) for the
// active phase.
func (tr *Trajectory) At(t int32) (pos, speed, accel int32) {
	switch {
	case t <= 0:
		return tr.th0, tr.w0, signedAccel(tr.a0, tr.w1 >= tr.w0)
	case t < tr.t1:
		a := signedAccel(tr.a0, tr.w1 >= tr.w0)
		speed = tr.w0 + mulAccelByTime(a, t)
		pos = tr.th0 + mulWByT(tr.w0+speed, t)/2
		return pos, speed, a
	case t < tr.t2:
		pos = tr.th1 + mulWByT(tr.w1, t-tr.t1)
		return pos, tr.w1, 0
	case t < tr.t3:
		a := signedAccel(tr.a2, tr.wEnd >= tr.w1)
		dt := t - tr.t2
		speed = tr.w1 + mulAccelByTime(a, dt)
		pos = tr.th2 + mulWByT(tr.w1+speed, dt)/2
		return pos, speed, a
	default:
		return tr.th3, tr.wEnd, 0
	}
}

// Rebase restarts the trajectory so that tick t becomes the new time
// origin, keeping the same future shape — used when t has grown too
// large to sample accurately (spec §4.4 "rebased").
func (tr *Trajectory) Rebase(t int32) {
	pos, speed, _ := tr.At(t)
	tr.th0 = pos
	tr.w0 = speed
	tr.t1 -= t
	tr.t2 -= t
	tr.t3 -= t
	if tr.t1 < 0 {
		tr.t1 = 0
	}
	if tr.t2 < 0 {
		tr.t2 = 0
	}
	if tr.t3 < 0 {
		tr.t3 = 0
	}
	tr.finishPositions(tr.wEnd)
}

func signedAccel(a int32, positive bool) int32 {
	if positive {
		return a
	}
	return -a
}

func mulAccelByTime(a, t int32) int32 {
	// ddeg/s gained: a(deg/s²) * t(ticks) / 1000 (see fixed.go's
	// derivation of divWByA's inverse).
	return int32((int64(a) * int64(t)) / 1000)
}

func accelFromDeltaAndTime(dw, t int32) int32 {
	if t == 0 {
		return MinAccelDegS2
	}
	a := int32((int64(dw) * 1000) / int64(t))
	if a < 0 {
		a = -a
	}
	if a < MinAccelDegS2 {
		a = MinAccelDegS2
	}
	if a > MaxAccelDegS2 {
		a = MaxAccelDegS2
	}
	return a
}
