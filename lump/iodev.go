package lump

// maxModes bounds the per-device mode table; Powered Up devices can
// report up to 16 modes via CMD_EXT_MODE (spec §4.3 write path).
const maxModes = 16

// Mode holds the metadata info messages accumulate for one mode index
// (spec §4.3 INFO phase: NAME, FORMAT, and the optional RAW/PCT/SI/
// UNITS/MAPPING/MODE_COMBOS messages).
type Mode struct {
	Name     string
	HaveName bool

	DataType  uint8 // 0=u8 1=s8 2=s16 3=s32 4=float, per INFO_FORMAT
	DataCount uint8
	Figures   uint8
	Decimals  uint8
	HaveFormat bool

	RawMin, RawMax float32
	PctMin, PctMax float32
	SiMin, SiMax   float32
	Units          string
}

func (m *Mode) complete() bool {
	return m.HaveName && m.HaveFormat
}

// Device is the discovered sensor/motor's identity and mode table, the
// "iodev handle" spec §4.3 hands to higher layers once ready.
type Device struct {
	TypeID     uint8
	NumModes   uint8
	Speed      uint32
	Modes      [maxModes]Mode
	ViewMode   uint8 // mode shown to the caller by default

	// Mode/data state used by the ready predicate (spec §4.3).
	CurrentMode   uint8
	RequestedMode uint8
	ModeSwitchAt  uint32 // runtime tick of the last SELECT request
	LastWriteAt   uint32
	WriteInFlight bool
	LastData      [32]byte
	LastDataLen   int
}

// staleDataTicks / setDataTicks are spec §4.3's "stale-data window"
// and "set-data window" (empirically 2 ms, or 250 ms for the BOOST
// color-distance IR-TX mode). Expressed in runtime ticks at 10 kHz.
const (
	staleDataTicks        = 20 // 2 ms
	staleDataTicksIRTXMode = 2500 // 250 ms
	setDataTicks          = 20
)

// boostIRTXTypeID / boostIRTXMode identify the one combination spec
// §4.3 calls out by name for the longer quiet period.
const (
	boostIRTXTypeID = 61
	boostIRTXMode   = 4
)

func (d *Device) staleWindow() uint32 {
	if d.TypeID == boostIRTXTypeID && uint8(d.CurrentMode) == boostIRTXMode {
		return staleDataTicksIRTXMode
	}
	return staleDataTicks
}
