// Package main implements a USB firmware flashing tool for the hub:
// it finds a hub that has entered its USB bootloader (spec §4.6
// REBOOT_TO_UPDATE's counterpart on the host side), transfers a
// firmware image over bulk endpoints, then reopens the board's serial
// console to confirm it booted the new image. Grounded on the
// teacher's host/serial tooling for the console half and on
// guiperry-HASHER's internal/driver/device/usb_device.go for the
// gousb half.
package main

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/google/gousb"
)

// bootloaderVID/PID identify the board's USB bootloader interface
// (RP2040's native UF2 bootloader VID:PID, matching the teacher's
// target). A real deployment would read these from board config;
// there is only one board family in this tree so they are constants.
const (
	bootloaderVID = gousb.ID(0x2e8a)
	bootloaderPID = gousb.ID(0x0003)

	bulkOut = 0x01
	bulkIn  = 0x81

	transferChunk = 4096
)

// Bootloader is a USB-connected hub in bootloader mode.
type Bootloader struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	out    *gousb.OutEndpoint
	in     *gousb.InEndpoint
}

// OpenBootloader opens the first hub found in bootloader mode.
// Grounded on usb_device.go's OpenUSBDevice: open context, select
// VID/PID, select config 1, claim interface 0, open bulk endpoints.
func OpenBootloader() (*Bootloader, error) {
	ctx := gousb.NewContext()

	device, err := ctx.OpenDeviceWithVIDPID(bootloaderVID, bootloaderPID)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("open bootloader device: %w", err)
	}
	if device == nil {
		ctx.Close()
		return nil, fmt.Errorf("no hub found in bootloader mode (VID:0x%04x PID:0x%04x)", bootloaderVID, bootloaderPID)
	}

	config, err := device.Config(1)
	if err != nil {
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("set bootloader config: %w", err)
	}

	intf, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("claim bootloader interface: %w", err)
	}

	out, err := intf.OutEndpoint(bulkOut)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("open bulk OUT endpoint: %w", err)
	}
	in, err := intf.InEndpoint(bulkIn)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("open bulk IN endpoint: %w", err)
	}

	return &Bootloader{ctx: ctx, device: device, config: config, intf: intf, out: out, in: in}, nil
}

// Close releases every USB handle, in reverse acquisition order.
func (b *Bootloader) Close() error {
	if b.intf != nil {
		b.intf.Close()
	}
	if b.config != nil {
		b.config.Close()
	}
	if b.device != nil {
		b.device.Close()
	}
	if b.ctx != nil {
		b.ctx.Close()
	}
	return nil
}

// Flash writes image to the board's flash in transferChunk-sized bulk
// transfers and confirms each chunk with a one-byte ACK read, a
// stop-and-wait protocol simple enough to not need CRC framing on a
// USB transport that already guarantees in-order delivery.
func (b *Bootloader) Flash(image io.Reader, progress func(written, total int)) error {
	data, err := io.ReadAll(image)
	if err != nil {
		return fmt.Errorf("read firmware image: %w", err)
	}

	total := len(data)
	written := 0
	ack := make([]byte, 1)

	for written < total {
		end := written + transferChunk
		if end > total {
			end = total
		}
		chunk := data[written:end]

		if _, err := b.out.Write(chunk); err != nil {
			return fmt.Errorf("write chunk at offset %d: %w", written, err)
		}
		if _, err := b.in.Read(ack); err != nil {
			return fmt.Errorf("ack for chunk at offset %d: %w", written, err)
		}
		if ack[0] != 0x00 {
			return fmt.Errorf("bootloader rejected chunk at offset %d (code 0x%02x)", written, ack[0])
		}

		written = end
		if progress != nil {
			progress(written, total)
		}
	}
	return nil
}

// WaitForConsole polls device at baud until it accepts a connection
// or timeout elapses, giving a freshly flashed board time to boot
// before the caller tries to read its startup banner.
func WaitForConsole(device string, baud uint32, timeout time.Duration) (*bufio.Reader, io.Closer, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		port, err := openConsole(device, baud)
		if err == nil {
			return bufio.NewReader(port), port, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	return nil, nil, fmt.Errorf("console %s never came up: %w", device, lastErr)
}
