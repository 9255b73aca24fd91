package storage

// memDevice is an in-memory BlockDevice for tests, mirroring the
// host build's RAM-backed stand-in for SPI-NOR flash.
type memDevice struct {
	buf []byte
}

func newMemDevice(size int) *memDevice {
	return &memDevice{buf: make([]byte, size)}
}

func (d *memDevice) GetData() ([]byte, error) { return d.buf, nil }

func (d *memDevice) WriteAll(size uint32) error { return nil }

func (d *memDevice) WritableSize() uint32 { return uint32(len(d.buf)) }

type fakeSelector struct{ slot uint8 }

func (s *fakeSelector) SelectedSlot() uint8 { return s.slot }

type fakeRunning struct{ running bool }

func (r *fakeRunning) UserProgramRunning() bool { return r.running }
