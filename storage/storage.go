// Package storage persists settings and user-program slots through a
// block-device collaborator (spec §4.7). There is no teacher analogue
// for this concern — a Klipper MCU has nothing to persist across
// power cycles — so the layout and the multi-slot shift-on-delete
// algorithm are ported directly from
// original_source/lib/pbio/sys/storage.c's pbsys_storage_prepare_receive
// and pbsys_storage_set_program_size/set_program_data.
package storage

import (
	"encoding/binary"
	"errors"

	"hubcore/hub"
	"hubcore/protocol"
)

const (
	// userDataSize is U in spec §4.7's layout, the app-writable blob.
	userDataSize = 128

	// settingsSize holds the BLE-enabled flag byte, three reserved
	// bytes, and a 16-byte opaque IMU calibration blob this core
	// stores but never interprets (grounded on storage_settings.c's
	// pbsys_storage_settings_t: a flags byte plus pbio_imu_settings_t).
	settingsSize = 20

	slotInfoEntrySize = 8 // u32 offset + u32 size, per slot
)

// SettingsFlag is a bit in the persisted settings byte (spec §4.7
// layout "settings (IMU calib, BLE enable bit, reserved)"), grounded
// on storage_settings.c's PBSYS_STORAGE_SETTINGS_FLAGS_BLUETOOTH_ENABLED.
type SettingsFlag uint8

const SettingsFlagBluetoothEnabled SettingsFlag = 1 << 0

// SlotInfo locates one program slot within the program data region.
type SlotInfo struct {
	Offset uint32
	Size   uint32
}

// SlotSelector reports the HMI's currently selected slot (spec §4.8);
// storage consults it only when starting a new program receive.
type SlotSelector interface {
	SelectedSlot() uint8
}

// RunningChecker reports whether a user program is currently running,
// so storage can refuse writes the same way
// pbsys_storage_set_program_size/set_program_data do.
type RunningChecker interface {
	UserProgramRunning() bool
}

// BlockDevice is spec §6's external collaborator: "get_data(&map) →
// error" (loads the whole image at boot), "write_all(size) → error"
// (writes the first size bytes back), "writable_size() → usize". The
// slice GetData returns is shared, mutable backing storage — Manager
// reads and writes it in place, mirroring the source's single
// RAM-resident pbsys_storage_data_map_t rather than copying through a
// separate struct.
type BlockDevice interface {
	GetData() ([]byte, error)
	WriteAll(size uint32) error
	WritableSize() uint32
}

// Manager owns the in-RAM persisted image and the slot bookkeeping
// (spec §4.7). Storage is written from a single deinit step; every
// other caller only mutates the in-RAM map (spec §5 "Shared
// resources").
type Manager struct {
	dev          BlockDevice
	buf          []byte
	slots        SlotSelector
	running      RunningChecker
	firmwareHash [hub.FirmwareHashSize]byte

	incomingSlot uint8
	dirty        bool
}

// NewManager constructs a Manager. firmwareHash is compared against
// the persisted hash at Boot to detect a firmware mismatch (spec §4.7
// "Boot", §6 "first 6 hex chars of the build's git hash, ASCII,
// zero-padded to 16 bytes").
func NewManager(dev BlockDevice, slots SlotSelector, running RunningChecker, firmwareHash [hub.FirmwareHashSize]byte) *Manager {
	return &Manager{dev: dev, slots: slots, running: running, firmwareHash: firmwareHash}
}

func headerSize() int {
	return hub.FirmwareHashSize + settingsSize + userDataSize + hub.NumSlots*slotInfoEntrySize
}

// Boot loads the persisted image. If the stored firmware hash doesn't
// match, or the slot table points past the end of the device, the
// whole image is zeroed and settings re-defaulted (spec §4.7 "Boot").
// A CRC-16 trailer that doesn't verify is only logged through
// hub.DebugPrintln (SPEC_FULL.md's supplemented feature layered on top
// of the hash discriminator, reusing protocol.CRC16 verbatim).
func (m *Manager) Boot() error {
	buf, err := m.dev.GetData()
	if err != nil {
		return err
	}
	if len(buf) < headerSize()+2 {
		return errors.New("storage: block device too small for the persisted layout")
	}
	m.buf = buf

	if !m.verify() {
		m.reset()
	}
	return nil
}

func (m *Manager) verify() bool {
	if !bytesEqual(m.buf[:hub.FirmwareHashSize], m.firmwareHash[:]) {
		return false
	}
	used := m.usedProgramDataSize()
	size := headerSize() + int(used)
	if size+2 > len(m.buf) {
		return false
	}
	want := binary.LittleEndian.Uint16(m.buf[size : size+2])
	got := protocol.CRC16(m.buf[:size])
	if want != got {
		hub.DebugPrintln("storage: CRC-16 mismatch on load, keeping image")
	}
	return true
}

// reset zeroes the whole image, program data included, and restores
// default settings (spec §4.7 "Boot").
func (m *Manager) reset() {
	for i := range m.buf {
		m.buf[i] = 0
	}
	copy(m.buf[:hub.FirmwareHashSize], m.firmwareHash[:])
	m.setSettingsFlags(defaultSettingsFlags())
	m.incomingSlot = 0
	m.requestWrite()
}

func defaultSettingsFlags() SettingsFlag {
	return SettingsFlagBluetoothEnabled
}

func (m *Manager) requestWrite() { m.dirty = true }

// Dirty reports whether the in-RAM image has changed since boot or
// since Shutdown last wrote it back (spec §4.7 "Shutdown").
func (m *Manager) Dirty() bool { return m.dirty }

// Shutdown persists the used region to the block device if dirty
// (spec §4.7 "Shutdown": "the used region ... is written back ...
// before power-off"), appending the CRC-16 trailer the Boot check
// verifies.
func (m *Manager) Shutdown() error {
	if !m.dirty {
		return nil
	}
	used := m.usedProgramDataSize()
	size := headerSize() + int(used)
	crc := protocol.CRC16(m.buf[:size])
	binary.LittleEndian.PutUint16(m.buf[size:size+2], crc)
	if err := m.dev.WriteAll(uint32(size + 2)); err != nil {
		return err
	}
	m.dirty = false
	return nil
}

// --- settings ---

func (m *Manager) settingsOffset() int { return hub.FirmwareHashSize }

func (m *Manager) SettingsFlags() SettingsFlag {
	return SettingsFlag(m.buf[m.settingsOffset()])
}

func (m *Manager) setSettingsFlags(f SettingsFlag) {
	m.buf[m.settingsOffset()] = byte(f)
}

// BluetoothEnabled reports the persisted BLE-enable bit.
func (m *Manager) BluetoothEnabled() bool {
	return m.SettingsFlags()&SettingsFlagBluetoothEnabled != 0
}

// SetBluetoothEnabled toggles the persisted BLE-enable bit (spec
// §4.8 "On hubs with a BLE toggle button, that button toggles BLE
// enable").
func (m *Manager) SetBluetoothEnabled(enabled bool) {
	f := m.SettingsFlags()
	if enabled {
		f |= SettingsFlagBluetoothEnabled
	} else {
		f &^= SettingsFlagBluetoothEnabled
	}
	m.setSettingsFlags(f)
	m.requestWrite()
}

// --- user data ---

func (m *Manager) userDataOffset() int { return m.settingsOffset() + settingsSize }

// SetUserData writes into the app-writable free-form blob.
func (m *Manager) SetUserData(offset uint32, data []byte) error {
	if int(offset)+len(data) > userDataSize {
		return hub.NewError(hub.ErrInvalidArgument, "user data out of range")
	}
	copy(m.buf[m.userDataOffset()+int(offset):], data)
	m.requestWrite()
	return nil
}

// UserData reads size bytes from the app-writable blob.
func (m *Manager) UserData(offset, size uint32) ([]byte, error) {
	if int(offset)+int(size) > userDataSize {
		return nil, hub.NewError(hub.ErrInvalidArgument, "user data out of range")
	}
	start := m.userDataOffset() + int(offset)
	return m.buf[start : start+int(size)], nil
}

// --- slots ---

func (m *Manager) slotInfoOffset() int { return m.userDataOffset() + userDataSize }

func (m *Manager) programDataOffset() int { return headerSize() }

// SlotInfo returns slot's current (offset, size) within the program
// data region.
func (m *Manager) SlotInfo(slot uint8) SlotInfo {
	off := m.slotInfoOffset() + int(slot)*slotInfoEntrySize
	return SlotInfo{
		Offset: binary.LittleEndian.Uint32(m.buf[off : off+4]),
		Size:   binary.LittleEndian.Uint32(m.buf[off+4 : off+8]),
	}
}

func (m *Manager) setSlotInfo(slot uint8, info SlotInfo) {
	off := m.slotInfoOffset() + int(slot)*slotInfoEntrySize
	binary.LittleEndian.PutUint32(m.buf[off:off+4], info.Offset)
	binary.LittleEndian.PutUint32(m.buf[off+4:off+8], info.Size)
}

func (m *Manager) usedProgramDataSize() uint32 {
	var total uint32
	for slot := uint8(0); slot < hub.NumSlots; slot++ {
		total += m.SlotInfo(slot).Size
	}
	return total
}

// MaximumProgramSize is the total capacity left for every slot's
// program data combined (spec §4.7 invariant "Σ slot_size ≤ M").
func (m *Manager) MaximumProgramSize() uint32 {
	return m.dev.WritableSize() - uint32(headerSize())
}

// ProgramData returns the bytes stored for slot.
func (m *Manager) ProgramData(slot uint8) []byte {
	info := m.SlotInfo(slot)
	start := m.programDataOffset() + int(info.Offset)
	return m.buf[start : start+int(info.Size)]
}

// WriteUserProgramMeta implements WRITE_USER_PROGRAM_META (spec
// §4.6/§4.7), grounded on pbsys_storage_set_program_size.
//
// size == 0 starts a new receive: the currently selected slot becomes
// incoming_slot, and if it has used slots after it in the program
// data region, they shift left to fill the gap it leaves (spec §8
// scenario 5). A nonzero size commits the previously-prepared
// incoming slot at its now-reserved offset, word-aligned the way the
// source aligns flash writes.
func (m *Manager) WriteUserProgramMeta(size uint32) error {
	if m.running.UserProgramRunning() {
		return hub.NewError(hub.ErrBusy, "program running")
	}
	if size == 0 {
		m.prepareReceive()
		return nil
	}
	info := m.SlotInfo(m.incomingSlot)
	if info.Size != 0 {
		return hub.NewError(hub.ErrFailed, "incoming slot was not cleared first")
	}
	size = (size + 3) / 4 * 4 // word-align
	if info.Offset+size > m.MaximumProgramSize() {
		return hub.NewError(hub.ErrInvalidArgument, "program too large")
	}
	info.Size = size
	m.setSlotInfo(m.incomingSlot, info)
	m.requestWrite()
	return nil
}

func (m *Manager) prepareReceive() {
	if hub.NumSlots == 1 {
		m.incomingSlot = 0
		m.setSlotInfo(0, SlotInfo{Offset: 0, Size: 0})
		return
	}

	slot := m.slots.SelectedSlot()
	m.incomingSlot = slot

	usedBefore := m.usedProgramDataSize()
	current := m.SlotInfo(slot)
	usedAfter := usedBefore - current.Size

	isLast := current.Offset == usedAfter
	isEmpty := current.Size == 0
	if isEmpty || isLast {
		m.setSlotInfo(slot, SlotInfo{Offset: usedAfter, Size: 0})
		return
	}

	remainingOffsetBefore := current.Offset + current.Size
	remainingSize := usedBefore - remainingOffsetBefore
	shift := current.Size
	destination := current.Offset
	source := destination + shift

	for s := uint8(0); s < hub.NumSlots; s++ {
		info := m.SlotInfo(s)
		if info.Offset >= remainingOffsetBefore {
			info.Offset -= shift
			m.setSlotInfo(s, info)
		}
	}

	base := m.programDataOffset()
	copy(m.buf[base+int(destination):base+int(destination)+int(remainingSize)],
		m.buf[base+int(source):base+int(source)+int(remainingSize)])

	m.setSlotInfo(slot, SlotInfo{Offset: usedAfter, Size: 0})
}

// WriteUserRAM implements WRITE_USER_RAM (spec §4.6), grounded on
// pbsys_storage_set_program_data.
func (m *Manager) WriteUserRAM(offset uint32, data []byte) error {
	if m.running.UserProgramRunning() {
		return hub.NewError(hub.ErrBusy, "program running")
	}
	info := m.SlotInfo(m.incomingSlot)
	if info.Offset+offset+uint32(len(data)) > m.MaximumProgramSize() {
		return hub.NewError(hub.ErrInvalidArgument, "write out of range")
	}
	base := m.programDataOffset() + int(info.Offset) + int(offset)
	copy(m.buf[base:], data)
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
