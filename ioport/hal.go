// Package ioport implements the per-port device-class detection state
// machine (spec §4.2): sampling each port's ID1/ID2 pins to classify
// what, if anything, is plugged in, and handing UART candidates off to
// the lump package.
package ioport

// Pin identifies a single GPIO line. Grounded on core/gpio_hal.go's
// GPIOPin, renamed since this package has nothing to do with Klipper's
// digital_out protocol.
type Pin uint32

// Level is a three-state pin read: a port's ID pins are read both as a
// plain digital input and, for the passive-device lookup, through a
// pull resistor, so the driver needs more than high/low to classify a
// plug-in.
type Level uint8

const (
	LevelLow Level = iota
	LevelHigh
	LevelPulled // settled at an intermediate level, read through a pull resistor
)

// Driver is the hardware abstraction a board-support target implements
// to give this package control of one port's shared pins. Grounded
// directly on core/gpio_hal.go's GPIODriver interface shape (configure,
// set, read), narrowed to the specific pin roles spec §4.2 names.
type Driver interface {
	// DriveHigh / DriveLow / DriveInputPullUp / DriveInputPullDown
	// reconfigure a pin's mode before a sample is taken.
	DriveHigh(p Pin) error
	DriveLow(p Pin) error
	DriveInputPullUp(p Pin) error
	DriveInputPullDown(p Pin) error
	DriveInput(p Pin) error

	// Sample reads a pin's current level.
	Sample(p Pin) (Level, error)

	// EnableBusBuffer toggles the bus-buffer enable line that must be
	// asserted before UART traffic can flow on a detected UART port.
	EnableBusBuffer(enable bool) error

	// SelectUARTFunction switches TX/RX pin muxing from GPIO to the
	// port's UART peripheral, called once a UART candidate is accepted.
	SelectUARTFunction() error
}

var driver Driver

// SetDriver registers the board-support implementation. Mirrors the
// teacher's SetGPIODriver/MustGPIO global-singleton pattern.
func SetDriver(d Driver) {
	driver = d
}

// MustDriver returns the registered Driver or panics if none was set.
func MustDriver() Driver {
	if driver == nil {
		panic("ioport: no Driver registered")
	}
	return driver
}
