package lump

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := header(TypeCmd, lenToSizeCode(1), CmdSelect)
	if msgType(h) != TypeCmd {
		t.Fatalf("expected TypeCmd, got %v", msgType(h))
	}
	if msgCmd(h) != CmdSelect {
		t.Fatalf("expected CmdSelect, got %v", msgCmd(h))
	}
	if msgPayloadLen(h) != 1 {
		t.Fatalf("expected payload len 1, got %d", msgPayloadLen(h))
	}
}

func TestLenToSizeCodeRoundsUp(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 9: 16, 17: 32}
	for n, want := range cases {
		got := sizeCodeToLen[lenToSizeCode(n)]
		if got != want {
			t.Errorf("len %d: expected padded size %d, got %d", n, want, got)
		}
	}
}

func TestChecksumSeed(t *testing.T) {
	if checksum(0, nil) != 0xFF {
		t.Fatalf("expected empty-message checksum to equal the seed, got %#x", checksum(0, nil))
	}
}

func TestFrameChecksumVerifies(t *testing.T) {
	f := frame(TypeCmd, CmdSpeed, encodeU32(115200))
	h := f[0]
	payload := f[1 : len(f)-1]
	cksum := f[len(f)-1]
	if checksum(h, payload) != cksum {
		t.Fatalf("frame checksum does not verify")
	}
}

func TestEncodeDecodeU32(t *testing.T) {
	v := uint32(115200)
	if decodeU32(encodeU32(v)) != v {
		t.Fatalf("u32 round trip failed")
	}
}
