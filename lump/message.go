// Package lump speaks the LEGO UART Messaging Protocol (spec §4.3):
// sync a freshly-detected UART device, pull its mode metadata, then
// keep a DATA stream flowing with keep-alive NACKs, surfacing a ready
// iodev handle to callers.
package lump

// Message type occupies the top two bits of the header byte (spec
// §4.3: "{type:2, size:3, cmd:3}").
type MsgType uint8

const (
	TypeSys  MsgType = 0 << 6
	TypeCmd  MsgType = 1 << 6
	TypeInfo MsgType = 2 << 6
	TypeData MsgType = 3 << 6

	typeMask = 0xC0
	cmdMask  = 0x07
)

// Single-byte SYS control messages.
const (
	SysSync byte = 0x0F
	SysAck  byte = 0x04
	SysNack byte = 0x02
)

// CMD-type subcommands.
const (
	CmdType    byte = 0
	CmdModes   byte = 1
	CmdSpeed   byte = 2
	CmdSelect  byte = 3
	CmdWrite   byte = 4
	CmdExtMode byte = 6
	CmdVersion byte = 5
)

// INFO sub-command byte: for INFO-type messages, the header's 3-bit
// cmd field carries the mode number (0-7; modes 8-15 set
// InfoModePlus8 in this byte instead), and this byte — the first byte
// of the payload — says which piece of mode metadata follows.
const (
	InfoName       byte = 0x00
	InfoRaw        byte = 0x01
	InfoPct        byte = 0x02
	InfoSi         byte = 0x03
	InfoUnits      byte = 0x04
	InfoMapping    byte = 0x05
	InfoModeCombos byte = 0x06
	InfoModePlus8  byte = 0x20
	InfoFormat     byte = 0x80
)

// sizeCodeToLen maps the 3-bit size field to a payload length (spec
// §4.3: "size selects one of {1,2,4,8,16,32} payload bytes").
var sizeCodeToLen = [8]int{1, 2, 4, 8, 16, 32, 32, 32}

// lenToSizeCode is the inverse of sizeCodeToLen, rounding up to the
// next supported size (spec §4.3 write path: "padded to the next
// supported size").
func lenToSizeCode(n int) uint8 {
	for code, l := range sizeCodeToLen[:6] {
		if n <= l {
			return uint8(code)
		}
	}
	return 5
}

// header builds a LUMP header byte.
func header(t MsgType, sizeCode uint8, cmd byte) byte {
	return byte(t) | (sizeCode << 3) | (cmd & cmdMask)
}

// msgType extracts the type field from a header byte.
func msgType(h byte) MsgType {
	return MsgType(h & typeMask)
}

// msgCmd extracts the cmd field.
func msgCmd(h byte) byte {
	return h & cmdMask
}

// msgPayloadLen extracts the payload length encoded in a header byte's
// size field (not counting the header byte itself or the checksum).
func msgPayloadLen(h byte) int {
	code := (h >> 3) & 0x07
	return sizeCodeToLen[code]
}

// checksum computes the XOR checksum spec §4.3 requires, seeded 0xFF,
// over the header byte and payload (not including the checksum byte
// itself).
func checksum(header byte, payload []byte) byte {
	c := byte(0xFF) ^ header
	for _, b := range payload {
		c ^= b
	}
	return c
}

// frame builds a full multi-byte message: header, payload, checksum.
// Single-byte SYS messages (sync/ack/nack) carry no checksum and are
// written directly by callers instead of through frame.
func frame(t MsgType, cmd byte, payload []byte) []byte {
	sizeCode := lenToSizeCode(len(payload))
	h := header(t, sizeCode, cmd)
	padded := make([]byte, sizeCodeToLen[sizeCode])
	copy(padded, payload)
	out := make([]byte, 0, 2+len(padded))
	out = append(out, h)
	out = append(out, padded...)
	out = append(out, checksum(h, padded))
	return out
}
