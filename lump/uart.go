package lump

import "time"

// UART is the hardware abstraction a board-support target or a host
// test harness provides for one port's UART peripheral. Grounded on
// the teacher's HAL interface/global-singleton shape
// (core/gpio_hal.go's GPIODriver/SetGPIODriver/MustGPIO), there is one
// UART per port rather than one global driver, so each port gets its
// own instance instead of a package-level registration.
type UART interface {
	// SetBaud reconfigures the line speed; takes effect for
	// subsequent Read/Write calls.
	SetBaud(baud uint32) error

	// Write sends b, blocking until accepted by the peripheral.
	Write(b []byte) error

	// ReadByte reads one byte, blocking up to timeout. Returns
	// (0, false) on timeout, matching the original's
	// pbdrv_uart_read_begin(..., EV3_UART_IO_TIMEOUT) contract.
	ReadByte(timeout time.Duration) (byte, bool)

	// PowerEnable asserts or deasserts power to the sensor (spec
	// §4.3 ERR handling: "power is coasted off the port").
	PowerEnable(on bool) error
}
