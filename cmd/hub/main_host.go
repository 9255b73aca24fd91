//go:build !rp2040

// A host build of the hub, for running the full stack against real
// GPIO/UART/flash-file bench wiring on a Linux SBC instead of target
// firmware (hostuart/hostboard), grounded on the teacher's
// host/cmd/gopper-host entry point doing the same job for the Klipper
// protocol side.
package main

import (
	"fmt"
	"os"
	"time"

	"hubcore/hostboard"
	"hubcore/hostuart"
	"hubcore/hub"
	"hubcore/ioport"
)

func main() {
	if err := hostboard.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "hub: ", err)
		os.Exit(1)
	}

	pinNames := map[ioport.Pin]string{
		1: "GPIO2", 2: "GPIO3",
		3: "GPIO4", 4: "GPIO17",
		5: "GPIO27", 6: "GPIO22",
		7: "GPIO10", 8: "GPIO9",
		9: "GPIO11", 10: "GPIO5",
		11: "GPIO6", 12: "GPIO13",
	}
	gpioDriver, err := hostboard.NewGPIODriver(pinNames, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "hub: ", err)
		os.Exit(1)
	}

	motor, err := hostboard.NewMotor("GPIO18", "GPIO23")
	if err != nil {
		fmt.Fprintln(os.Stderr, "hub: ", err)
		os.Exit(1)
	}
	tacho, err := hostboard.NewQuadratureTacho("GPIO24", "GPIO25", 3000)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hub: ", err)
		os.Exit(1)
	}

	block, err := hostboard.NewFileBlockDevice("hub_storage.bin", 256*1024)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hub: ", err)
		os.Exit(1)
	}

	light, err := hostboard.NewRGBLight("GPIO19", "GPIO26", "GPIO21")
	if err != nil {
		fmt.Fprintln(os.Stderr, "hub: ", err)
		os.Exit(1)
	}
	buttons, err := hostboard.NewButtonBank([]string{"GPIO12", "GPIO16", "GPIO20", "GPIO7"})
	if err != nil {
		fmt.Fprintln(os.Stderr, "hub: ", err)
		os.Exit(1)
	}

	uartPort, err := hostuart.Open("/dev/ttyAMA1", 2400, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hub: ", err)
		os.Exit(1)
	}

	var hw Hardware
	hw.PortDriver = gpioDriver
	hw.Ports[0] = PortWiring{ID1: 1, ID2: 2, Motor: motor, Sensor: tacho}
	hw.Ports[1] = PortWiring{ID1: 3, ID2: 4, UART: uartPort}
	hw.Ports[2] = PortWiring{ID1: 5, ID2: 6}
	hw.Ports[3] = PortWiring{ID1: 7, ID2: 8}
	hw.Ports[4] = PortWiring{ID1: 9, ID2: 10}
	hw.Ports[5] = PortWiring{ID1: 11, ID2: 12}

	hw.Light = light
	hw.Buttons = buttons
	hw.Power = noopPower{}
	hw.Busy = noopBusy{}
	hw.Radio = noopRadio{}
	hw.Host = noopProgramHost{}
	hw.BLE = noopBLE{}
	hw.Block = block
	hw.FirmwareHash = devFirmwareHash()

	Run(&hw, func(wake uint32, have bool) {
		// A host build has no IRQ to sleep until; poll at the control
		// loop's own resolution instead of busy-spinning.
		time.Sleep(time.Millisecond)
	})
}

func devFirmwareHash() [hub.FirmwareHashSize]byte {
	var h [hub.FirmwareHashSize]byte
	copy(h[:], "hub-host-bench-0")
	return h
}
