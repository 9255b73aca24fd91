package hmi

// Button identifies one of the hub's physical buttons (spec §4.8,
// §6 "CLI surface: only the on-hub buttons").
type Button uint8

const (
	ButtonCenter Button = iota
	ButtonLeft
	ButtonRight
	ButtonBLEToggle
	numButtons
)

// ButtonSource reads the hub's raw, undebounced button states.
type ButtonSource interface {
	Pressed(b Button) bool
}

// debounceSamples is the number of consecutive agreeing samples
// required before a raw reading is trusted, grounded on
// core/endstop.go's SampleCount/TriggerCount consecutive-sample
// confirmation window (the same mechanical-switch-bounce problem).
const debounceSamples = 3

type buttonState struct {
	raw       bool
	runLength uint8
	debounced bool
	edge      bool
}

// ButtonDebouncer confirms raw button readings before exposing them,
// and latches a one-shot press edge for edge-triggered handlers
// (center-press-to-start, slot change, BLE toggle).
type ButtonDebouncer struct {
	source ButtonSource
	states [numButtons]buttonState
}

// NewButtonDebouncer constructs a debouncer reading from source.
func NewButtonDebouncer(source ButtonSource) *ButtonDebouncer {
	return &ButtonDebouncer{source: source}
}

// Sample reads the raw button states and advances the debounce
// window; call once per poll tick.
func (d *ButtonDebouncer) Sample() {
	for b := Button(0); b < numButtons; b++ {
		st := &d.states[b]
		raw := d.source.Pressed(b)
		if raw == st.raw {
			if st.runLength < debounceSamples {
				st.runLength++
			}
		} else {
			st.raw = raw
			st.runLength = 1
		}
		if st.runLength >= debounceSamples && st.debounced != raw {
			st.debounced = raw
			if raw {
				st.edge = true
			}
		}
	}
}

// Pressed reports the current debounced state of b.
func (d *ButtonDebouncer) Pressed(b Button) bool {
	return d.states[b].debounced
}

// ConsumeEdge reports whether b has a pending (debounced) press edge
// since the last call, clearing it.
func (d *ButtonDebouncer) ConsumeEdge(b Button) bool {
	st := &d.states[b]
	if st.edge {
		st.edge = false
		return true
	}
	return false
}
