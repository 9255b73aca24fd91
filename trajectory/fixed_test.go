package trajectory

import "testing"

func TestMulWByTAndDivThByTAreInverse(t *testing.T) {
	w := int32(5000)
	ticks := int32(3000)
	th := mulWByT(w, ticks)
	back := divThByT(th, ticks)
	if absDiff(back, w) > 1 {
		t.Fatalf("round trip mismatch: w=%d back=%d", w, back)
	}
}

func TestDivW2ByAAndDivWByAAreConsistent(t *testing.T) {
	w := int32(4000)
	a := int32(2000)
	t1 := divWByA(w, a)
	dist := divW2ByA(w, a)
	// distance should equal average speed (w/2) * time, within
	// integer rounding.
	expect := mulWByT(w, t1) / 2
	if absDiff(dist, expect) > 2 {
		t.Fatalf("distance %d does not match avg-speed*time %d", dist, expect)
	}
}

func TestIsqrt(t *testing.T) {
	cases := map[int64]int64{0: 0, 1: 1, 4: 2, 15: 3, 16: 4, 1000000: 1000}
	for in, want := range cases {
		if got := isqrt(in); got != want {
			t.Errorf("isqrt(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestAssertBoundsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for out-of-bounds angle")
		}
	}()
	assertAngle(MaxAngleMdeg + 1)
}

func absDiff(a, b int32) int32 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
