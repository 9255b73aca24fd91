package ioport

// DeviceType is the result of the pin-resistance classification table
// in spec §4.2 step 5.
type DeviceType uint8

const (
	TypeNone DeviceType = iota
	TypeTouchSensor
	TypeTrainPointSensor
	TypePower
	TypeTurnDir
	TypeLight2
	TypeTrainMotor
	TypeLargeMotor
	TypeLight1
	TypeMediumMotor
	TypeXMotor
	TypeLight
	TypeUARTCandidate
)

func (t DeviceType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeTouchSensor:
		return "touch-sensor"
	case TypeTrainPointSensor:
		return "train-point-sensor"
	case TypePower:
		return "power"
	case TypeTurnDir:
		return "turn-dir"
	case TypeLight2:
		return "light2"
	case TypeTrainMotor:
		return "train-motor"
	case TypeLargeMotor:
		return "large-motor"
	case TypeLight1:
		return "light1"
	case TypeMediumMotor:
		return "medium-motor"
	case TypeXMotor:
		return "x-motor"
	case TypeLight:
		return "light"
	case TypeUARTCandidate:
		return "uart-candidate"
	default:
		return "unknown"
	}
}

// idGroup is which of the three buckets an ID pin settled in when
// sampled through a pull resistor (spec §4.2 step 5's "ID1-group").
type idGroup uint8

const (
	groupGND idGroup = iota
	groupVCC
	groupPulled
	groupOpen
)

func levelToGroup(high, low Level) idGroup {
	switch {
	case high == LevelLow:
		return groupGND
	case low == LevelHigh:
		return groupVCC
	case high == LevelPulled || low == LevelPulled:
		return groupPulled
	default:
		return groupOpen
	}
}

// passiveTable is the lookup over (ID1-group, ID2-group) from spec
// §4.2 step 5. Any group landing on "open" for either pin means UART
// candidate regardless of the other pin's reading.
var passiveTable = map[[2]idGroup]DeviceType{
	{groupGND, groupGND}:    TypePower,
	{groupGND, groupVCC}:    TypeTurnDir,
	{groupGND, groupPulled}: TypeLight2,
	{groupVCC, groupGND}:    TypeTrainMotor,
	{groupVCC, groupVCC}:    TypeLargeMotor,
	{groupVCC, groupPulled}: TypeLight1,
	{groupPulled, groupGND}: TypeMediumMotor,
	{groupPulled, groupVCC}: TypeXMotor,
	{groupPulled, groupPulled}: TypeLight,
}

func classifyPassive(id1Group, id2Group idGroup) DeviceType {
	if id1Group == groupOpen || id2Group == groupOpen {
		return TypeUARTCandidate
	}
	if t, ok := passiveTable[[2]idGroup{id1Group, id2Group}]; ok {
		return t
	}
	return TypeNone
}
