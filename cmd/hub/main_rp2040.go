//go:build rp2040

package main

import (
	"machine"
	"time"

	"hubcore/hub"
	"hubcore/ioport"
	rp2040 "hubcore/target/rp2040"

	"tinygo.org/x/drivers/flash"
)

// rebooter implements Rebooter over TinyGo's bootloader entry point,
// the rp2040 equivalent of the teacher's watchdog-reset ResetHandler
// in targets/rp2040/main.go (that one restarts the firmware; this one
// restarts into the UF2 bootloader instead, per spec §4.6
// REBOOT_TO_UPDATE).
type rebooter struct{}

func (rebooter) RebootToUpdate() error {
	machine.EnterBootloader()
	return nil
}

func main() {
	// Clear any watchdog state left over from the previous boot,
	// same as the teacher's main.go does before anything else runs.
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})

	machine.InitADC()

	pins := map[ioport.Pin]machine.Pin{
		1: machine.GPIO2, 2: machine.GPIO3,
		3: machine.GPIO4, 4: machine.GPIO5,
		5: machine.GPIO6, 6: machine.GPIO7,
		7: machine.GPIO8, 8: machine.GPIO9,
		9: machine.GPIO10, 10: machine.GPIO11,
		11: machine.GPIO12, 12: machine.GPIO13,
	}
	adcPins := map[ioport.Pin]machine.ADC{
		2: {Pin: machine.GPIO3}, 4: {Pin: machine.GPIO5},
		6: {Pin: machine.GPIO7}, 8: {Pin: machine.GPIO9},
	}
	gpioDriver := rp2040.NewGPIODriver(pins, adcPins, machine.GPIO14, true, nil)

	motor, err := rp2040.NewPIOMotor(0, 0, machine.GPIO16, machine.GPIO17, 125_000_000/20_000)
	if err != nil {
		panic(err)
	}
	tacho := rp2040.NewQuadratureTacho(machine.GPIO18, machine.GPIO19, 3000)

	uart := rp2040.NewUART(machine.UART1, machine.UART1_TX_PIN, machine.UART1_RX_PIN, gpioDriver, 3, true)

	machine.SPI0.Configure(machine.SPIConfig{Frequency: 8_000_000, SCK: machine.GPIO2, SDO: machine.GPIO3, SDI: machine.GPIO4})
	flashDevice := flash.NewSPI(machine.SPI0, machine.GPIO5, machine.NoPin)
	block := rp2040.NewNORBlockDevice(&flashDevice, 0, 256*1024)

	var hw Hardware
	hw.PortDriver = gpioDriver
	hw.Ports[0] = PortWiring{ID1: 1, ID2: 2, Motor: motor, Sensor: tacho}
	hw.Ports[1] = PortWiring{ID1: 3, ID2: 4, UART: uart}
	hw.Ports[2] = PortWiring{ID1: 5, ID2: 6}
	hw.Ports[3] = PortWiring{ID1: 7, ID2: 8}
	hw.Ports[4] = PortWiring{ID1: 9, ID2: 10}
	hw.Ports[5] = PortWiring{ID1: 11, ID2: 12}

	hw.Light = noopLight{} // real hub hardware drives the status light over a single PWM pin; wire in board revision
	hw.Buttons = noopButtons{}
	hw.Power = noopPower{}
	hw.Busy = noopBusy{}
	hw.Radio = noopRadio{}
	hw.Host = noopProgramHost{}
	hw.BLE = noopBLE{}
	hw.Block = block
	hw.FirmwareHash = firmwareHash()
	hw.Reboot = rebooter{}

	Run(&hw, func(wake uint32, have bool) {
		// A real board would arm a hardware alarm for wake and enter
		// WFI; TinyGo's machine package on this target has no portable
		// tick-accurate sleep-to-deadline primitive, so this polls at
		// roughly the control loop's own resolution instead.
		time.Sleep(time.Millisecond)
	})
}

// firmwareHash returns the build's stamped discriminator (spec §4.7
// "firmware_hash... changes whenever the firmware image does").
// firmwareHashBytes itself lives in firmware_hash_generated.go, a
// committed placeholder a release build overwrites by running
// cmd/genfwhash against the freshly linked image and pointing its
// -out flag back at that file.
func firmwareHash() [hub.FirmwareHashSize]byte {
	return firmwareHashBytes
}
