package hmi

import "testing"

type fakeButtons struct {
	pressed [numButtons]bool
}

func (f *fakeButtons) Pressed(b Button) bool { return f.pressed[b] }

func TestButtonDebouncerRequiresConsecutiveSamples(t *testing.T) {
	src := &fakeButtons{}
	d := NewButtonDebouncer(src)

	src.pressed[ButtonCenter] = true
	d.Sample()
	if d.Pressed(ButtonCenter) {
		t.Fatalf("expected no debounced press after a single sample")
	}
	d.Sample()
	if d.Pressed(ButtonCenter) {
		t.Fatalf("expected no debounced press after two samples")
	}
	d.Sample()
	if !d.Pressed(ButtonCenter) {
		t.Fatalf("expected a debounced press after %d consecutive samples", debounceSamples)
	}
}

func TestButtonDebouncerEdgeFiresOnceThenClears(t *testing.T) {
	src := &fakeButtons{}
	d := NewButtonDebouncer(src)
	src.pressed[ButtonCenter] = true
	for i := 0; i < debounceSamples; i++ {
		d.Sample()
	}
	if !d.ConsumeEdge(ButtonCenter) {
		t.Fatalf("expected a pending press edge")
	}
	if d.ConsumeEdge(ButtonCenter) {
		t.Fatalf("expected the edge to be consumed exactly once")
	}
}

func TestButtonDebouncerIgnoresBouncyNoise(t *testing.T) {
	src := &fakeButtons{}
	d := NewButtonDebouncer(src)

	for i := 0; i < 10; i++ {
		src.pressed[ButtonCenter] = i%2 == 0 // bounces every sample
		d.Sample()
	}
	if d.Pressed(ButtonCenter) {
		t.Fatalf("expected bouncing input to never reach the debounce threshold")
	}
}

func TestButtonDebouncerReleaseEdgeDoesNotSetPressEdge(t *testing.T) {
	src := &fakeButtons{}
	d := NewButtonDebouncer(src)
	src.pressed[ButtonCenter] = true
	for i := 0; i < debounceSamples; i++ {
		d.Sample()
	}
	d.ConsumeEdge(ButtonCenter)

	src.pressed[ButtonCenter] = false
	for i := 0; i < debounceSamples; i++ {
		d.Sample()
	}
	if d.ConsumeEdge(ButtonCenter) {
		t.Fatalf("a release should not latch a press edge")
	}
}
