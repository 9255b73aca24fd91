package hub

// Build-time constants. These are compiled in rather than loaded from
// a config file: spec §1 excludes dynamic memory allocation during
// normal operation, so the slot table, port count, and similar sizes
// must be fixed at build time the way the teacher fixes
// StepperQueueSize and MessageMax in core/stepper.go and
// core/protocol.go.
const (
	// MaxPorts is the number of physical motor/sensor connectors.
	MaxPorts = 6

	// NumSlots (S in spec §4.7) is the number of persisted user
	// program slots.
	NumSlots = 5

	// ControlLoopHz is the nominal servo control tick rate (spec §4.5).
	ControlLoopHz = 1000

	// BLEMTU bounds a single GATT notification payload (spec GLOSSARY).
	BLEMTU = 158

	// StdoutRingSize must be at least 2x MTU per spec §4.6.
	StdoutRingSize = 4 * BLEMTU

	// StatusReportIntervalMs is the liveness-guard cadence for
	// STATUS_REPORT notifications (spec §4.6).
	StatusReportIntervalMs = 500

	// IdleTimeoutMs is how long the HMI waits in idle before
	// requesting shutdown (spec §4.8).
	IdleTimeoutMs = 3 * 60 * 1000

	// ShutdownAnimationMinMs is the minimum time the shutdown
	// animation must run before power-off (spec §4.8).
	ShutdownAnimationMinMs = 500

	// FirmwareHashSize is the width of the storage discriminator
	// (spec §4.7/§6).
	FirmwareHashSize = 16
)
