package main

import (
	"fmt"
	"io"
	"time"

	"hubcore/hostuart"
)

const consoleByteTimeout = 500 * time.Millisecond

// consoleReader adapts hostuart.Port's timeout-based ReadByte to
// io.Reader so the rest of the tool can use bufio.Scanner on it, the
// same shape hostuart's own lump.UART consumers use internally.
type consoleReader struct {
	port *hostuart.Port
}

func (c consoleReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, ok := c.port.ReadByte(consoleByteTimeout)
	if !ok {
		return 0, fmt.Errorf("console read timed out")
	}
	p[0] = b
	return 1, nil
}

func (c consoleReader) Close() error { return c.port.Close() }

func openConsole(device string, baud uint32) (io.ReadCloser, error) {
	port, err := hostuart.Open(device, baud, nil)
	if err != nil {
		return nil, err
	}
	return consoleReader{port: port}, nil
}
