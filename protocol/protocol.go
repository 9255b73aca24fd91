// Package protocol holds a small set of byte-level building blocks:
// scratch input/output buffers, a FIFO ring (backing cmd/hub's stdin
// buffer) and a CRC-16 used as storage's soft integrity check. The two
// protocols this repository speaks (the LUMP sensor protocol in lump,
// and the Pybricks BLE opcode table in ble) do not import it. Neither
// wire format uses a generic framing envelope, so there is no
// MessageBlock/transport layer here — each protocol package frames its
// own messages directly against its fixed layout.
package protocol

// MessageMax bounds ScratchOutput's backing array.
const MessageMax = 512
