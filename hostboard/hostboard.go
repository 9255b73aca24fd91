// Package hostboard implements the ioport.Driver and
// servo.MotorBackend/AngleSource hardware abstractions against a
// Linux single-board computer's GPIO header via periph.io/x/periph,
// for bench-testing the port detection state machine (C2) and the
// motor servo loop (C5) against real wiring instead of target
// firmware. Grounded on periph.io/x/periph/host/beagle/bone's pin
// lookup pattern (gpioreg.ByName over named header pins) for general
// GPIO access.
package hostboard

import (
	"fmt"
	"os"
	"sync"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"hubcore/hmi"
	"hubcore/ioport"
)

// Init loads periph's host drivers. Call once before constructing any
// hostboard collaborator.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("hostboard: periph init: %w", err)
	}
	return nil
}

// GPIODriver implements ioport.Driver over a fixed set of named GPIO
// header pins, resolved once at construction. ioport addresses pins
// through its own opaque ioport.Pin id rather than a string name
// (spec §4.2's detection state machine only ever refers to a port's
// ID1/ID2 pins by that id), so the caller supplies the id-to-header-
// pin mapping.
type GPIODriver struct {
	pins      map[ioport.Pin]gpio.PinIO
	busBuffer gpio.PinIO
}

// NewGPIODriver resolves pins (ioport.Pin -> header pin name, e.g.
// "GPIO17") and, if non-empty, busBufferName (the shared bus-buffer
// enable line spec §4.2 step 7 asserts before UART traffic flows).
func NewGPIODriver(pins map[ioport.Pin]string, busBufferName string) (*GPIODriver, error) {
	resolved := make(map[ioport.Pin]gpio.PinIO, len(pins))
	for id, name := range pins {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("hostboard: unknown gpio pin %q", name)
		}
		resolved[id] = p
	}
	d := &GPIODriver{pins: resolved}
	if busBufferName != "" {
		d.busBuffer = gpioreg.ByName(busBufferName)
		if d.busBuffer == nil {
			return nil, fmt.Errorf("hostboard: unknown gpio pin %q", busBufferName)
		}
	}
	return d, nil
}

func (d *GPIODriver) pin(p ioport.Pin) (gpio.PinIO, error) {
	pin, ok := d.pins[p]
	if !ok {
		return nil, fmt.Errorf("hostboard: no gpio mapped for pin %d", p)
	}
	return pin, nil
}

func (d *GPIODriver) DriveHigh(p ioport.Pin) error {
	pin, err := d.pin(p)
	if err != nil {
		return err
	}
	return pin.Out(gpio.High)
}

func (d *GPIODriver) DriveLow(p ioport.Pin) error {
	pin, err := d.pin(p)
	if err != nil {
		return err
	}
	return pin.Out(gpio.Low)
}

func (d *GPIODriver) DriveInputPullUp(p ioport.Pin) error {
	pin, err := d.pin(p)
	if err != nil {
		return err
	}
	return pin.In(gpio.PullUp, gpio.NoEdge)
}

func (d *GPIODriver) DriveInputPullDown(p ioport.Pin) error {
	pin, err := d.pin(p)
	if err != nil {
		return err
	}
	return pin.In(gpio.PullDown, gpio.NoEdge)
}

func (d *GPIODriver) DriveInput(p ioport.Pin) error {
	pin, err := d.pin(p)
	if err != nil {
		return err
	}
	return pin.In(gpio.Float, gpio.NoEdge)
}

// Sample reads p as a plain digital level. A Linux GPIO header has no
// way to observe an unsettled resistor-ladder midpoint the way a
// target MCU's ADC can, so this never reports ioport.LevelPulled. The
// passive lookup still sees the GND, VCC and open groups; the light,
// light1, light2, medium-motor and x-motor classifications, which need
// a pulled reading, are reached only on target hardware.
func (d *GPIODriver) Sample(p ioport.Pin) (ioport.Level, error) {
	pin, err := d.pin(p)
	if err != nil {
		return ioport.LevelLow, err
	}
	if pin.Read() {
		return ioport.LevelHigh, nil
	}
	return ioport.LevelLow, nil
}

func (d *GPIODriver) EnableBusBuffer(enable bool) error {
	if d.busBuffer == nil {
		return nil
	}
	if enable {
		return d.busBuffer.Out(gpio.High)
	}
	return d.busBuffer.Out(gpio.Low)
}

// SelectUARTFunction is a no-op on a Linux SBC bench rig: the UART
// peripheral's RX/TX lines are wired directly to the port rather than
// muxed from general-purpose pins, unlike the target MCU's pin
// function selector.
func (d *GPIODriver) SelectUARTFunction() error { return nil }

// pwmFrequency is a safe default for a driven H-bridge chip; well
// above audible range and within what periph's software PWM on a
// Raspberry Pi header can sustain.
const pwmFrequency = 20 * physic.KiloHertz

// Motor drives a half-bridge driver IC (one PWM magnitude line, one
// direction line) as servo.MotorBackend. Named and shaped after
// servo.MotorBackend rather than a specific chip, since the wiring
// convention (PWM + direction) is shared by most small H-bridge
// drivers used on bench rigs.
type Motor struct {
	pwm gpio.PinIO
	dir gpio.PinIO
}

// NewMotor resolves the PWM and direction header pins.
func NewMotor(pwmName, dirName string) (*Motor, error) {
	pwm := gpioreg.ByName(pwmName)
	if pwm == nil {
		return nil, fmt.Errorf("hostboard: unknown gpio pin %q", pwmName)
	}
	dir := gpioreg.ByName(dirName)
	if dir == nil {
		return nil, fmt.Errorf("hostboard: unknown gpio pin %q", dirName)
	}
	return &Motor{pwm: pwm, dir: dir}, nil
}

// SetDutyCycle implements servo.MotorBackend.
func (m *Motor) SetDutyCycle(u int32) {
	if u < 0 {
		m.dir.Out(gpio.Low)
		u = -u
	} else {
		m.dir.Out(gpio.High)
	}
	if u > 10000 {
		u = 10000
	}
	duty := gpio.Duty(int64(gpio.DutyMax) * int64(u) / 10000)
	m.pwm.PWM(duty, pwmFrequency)
}

// Coast implements servo.MotorBackend: zero duty leaves the driver IC
// outputs high-impedance on most half-bridge chips.
func (m *Motor) Coast() {
	m.pwm.Out(gpio.Low)
}

// Brake implements servo.MotorBackend. Driving the magnitude line
// high while direction is held low shorts both driver IC outputs to
// the same rail on the TB6612/DRV8833 family of chips this wiring
// convention targets.
func (m *Motor) Brake() {
	m.dir.Out(gpio.Low)
	m.pwm.Out(gpio.High)
}

// QuadratureTacho implements servo.AngleSource by counting edges on a
// two-pin quadrature encoder. periph's edge-triggered PinIn.WaitForEdge
// blocks, so decoding runs on its own goroutine (spec §5's
// single-threaded model applies to target firmware; a host bench rig
// has real OS threads and feeds the angle in through AngleSource same
// as any other polled collaborator).
type QuadratureTacho struct {
	a, b gpio.PinIO

	mdegPerPulse int32

	mu    sync.Mutex
	count int64
}

// NewQuadratureTacho starts decoding aName/bName, each produced pulse
// worth mdegPerPulse of rotation.
func NewQuadratureTacho(aName, bName string, mdegPerPulse int32) (*QuadratureTacho, error) {
	a := gpioreg.ByName(aName)
	if a == nil {
		return nil, fmt.Errorf("hostboard: unknown gpio pin %q", aName)
	}
	b := gpioreg.ByName(bName)
	if b == nil {
		return nil, fmt.Errorf("hostboard: unknown gpio pin %q", bName)
	}
	if err := a.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("hostboard: configure encoder pin A: %w", err)
	}
	if err := b.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("hostboard: configure encoder pin B: %w", err)
	}
	t := &QuadratureTacho{a: a, b: b, mdegPerPulse: mdegPerPulse}
	go t.run()
	return t, nil
}

func (t *QuadratureTacho) run() {
	for t.a.WaitForEdge(-1) {
		dir := int64(1)
		if t.b.Read() {
			dir = -1
		}
		t.mu.Lock()
		t.count += dir
		t.mu.Unlock()
	}
}

// Angle implements servo.AngleSource.
func (t *QuadratureTacho) Angle() int32 {
	t.mu.Lock()
	c := t.count
	t.mu.Unlock()
	return int32(c * int64(t.mdegPerPulse))
}

// FileBlockDevice implements storage.BlockDevice over a plain local
// file, standing in for the target's SPI NOR flash chip on a bench
// rig with no such chip attached. There is no pack library for "mirror
// a byte region to a local file"; os's ReadFile/WriteFile cover it
// directly.
type FileBlockDevice struct {
	path string
	size uint32
	buf  []byte
}

// NewFileBlockDevice reserves a size-byte region backed by path,
// creating it (zero-filled) if it doesn't already exist.
func NewFileBlockDevice(path string, size uint32) (*FileBlockDevice, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, make([]byte, size), 0o600); err != nil {
			return nil, fmt.Errorf("hostboard: create storage file: %w", err)
		}
	}
	return &FileBlockDevice{path: path, size: size}, nil
}

// GetData implements storage.BlockDevice: loads the file into an
// in-memory buffer the Manager mutates in place, the shared "RAM
// mirror" contract storage.BlockDevice describes.
func (b *FileBlockDevice) GetData() ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("hostboard: read storage file: %w", err)
	}
	if uint32(len(data)) < b.size {
		data = append(data, make([]byte, b.size-uint32(len(data)))...)
	}
	b.buf = data[:b.size]
	return b.buf, nil
}

// WriteAll implements storage.BlockDevice.
func (b *FileBlockDevice) WriteAll(size uint32) error {
	return os.WriteFile(b.path, b.buf[:size], 0o600)
}

// WritableSize implements storage.BlockDevice.
func (b *FileBlockDevice) WritableSize() uint32 {
	return b.size
}

// RGBLight implements hmi.LightDriver over three PWM-capable GPIO
// lines, one per color channel, the same PWM approach Motor uses for
// duty-cycle control.
type RGBLight struct {
	r, g, b gpio.PinIO
}

// NewRGBLight resolves the three channel pins.
func NewRGBLight(rName, gName, bName string) (*RGBLight, error) {
	r := gpioreg.ByName(rName)
	g := gpioreg.ByName(gName)
	bPin := gpioreg.ByName(bName)
	if r == nil || g == nil || bPin == nil {
		return nil, fmt.Errorf("hostboard: unknown gpio pin among %q %q %q", rName, gName, bName)
	}
	return &RGBLight{r: r, g: g, b: bPin}, nil
}

// SetColor implements hmi.LightDriver. hmi.Color names a fixed hue;
// this maps each to its nearest RGB channel mix and scales by
// brightness.
func (l *RGBLight) SetColor(c hmi.Color, brightness uint8) {
	r, g, b := colorMix(c)
	scale := func(ch uint8) gpio.Duty {
		return gpio.Duty(int64(gpio.DutyMax) * int64(ch) * int64(brightness) / (255 * 255))
	}
	l.r.PWM(scale(r), pwmFrequency)
	l.g.PWM(scale(g), pwmFrequency)
	l.b.PWM(scale(b), pwmFrequency)
}

// colorMix maps one of hmi's fixed hues to an 8-bit RGB triple.
func colorMix(c hmi.Color) (r, g, b uint8) {
	switch c {
	case hmi.ColorYellow:
		return 255, 255, 0
	case hmi.ColorBlue:
		return 0, 0, 255
	case hmi.ColorGreen:
		return 0, 255, 0
	case hmi.ColorRed:
		return 255, 0, 0
	default:
		return 0, 0, 0
	}
}

// ButtonBank implements hmi.ButtonSource over a fixed set of digital
// input pins, one per physical button.
type ButtonBank struct {
	pins []gpio.PinIO
}

// NewButtonBank resolves one pin per button, in hmi.Button order.
func NewButtonBank(names []string) (*ButtonBank, error) {
	pins := make([]gpio.PinIO, len(names))
	for i, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("hostboard: unknown gpio pin %q", name)
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("hostboard: configure button pin %q: %w", name, err)
		}
		pins[i] = p
	}
	return &ButtonBank{pins: pins}, nil
}

// Pressed implements hmi.ButtonSource. Buttons wired to a pull-up
// read low when pressed.
func (bb *ButtonBank) Pressed(b hmi.Button) bool {
	idx := int(b)
	if idx < 0 || idx >= len(bb.pins) {
		return false
	}
	return !bb.pins[idx].Read()
}
