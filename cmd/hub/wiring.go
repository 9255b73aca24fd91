package main

// Wiring assembles the C1-C8 packages into one running hub, the way
// targets/rp2040/main.go builds the global driver registries and
// enters the scheduler loop. It has no board-specific knowledge: a
// Hardware value supplies every collaborator interface, built either
// by main_rp2040.go (real peripherals) or main_host.go (hostuart/
// hostboard bench backends).

import (
	"time"

	"hubcore/ble"
	"hubcore/hmi"
	"hubcore/hub"
	"hubcore/ioport"
	"hubcore/lump"
	"hubcore/runtime"
	"hubcore/servo"
	"hubcore/storage"
)

const controlPeriodTicks = runtime.TimerFreq / hub.ControlLoopHz

// BLERadio is the external collaborator spec §6 leaves to the
// platform: ble.Plane only consumes Connected/Send, so anything
// that also owns GATT write delivery and connection-state changes
// has to hand them to the wiring layer through callbacks, the same
// push-callback shape lump.Driver uses to report onHub events.
type BLERadio interface {
	ble.BluetoothDriver
	SetConnectionHandler(func(connected bool))
	SetWriteHandler(func(frame []byte, withResponse bool) ble.ReplyCode)
}

// PortWiring names the board-specific collaborators for one physical
// port. UART, Motor and Sensor are nil on a port that doesn't carry
// that capability; ID1/ID2 are always required.
type PortWiring struct {
	ID1, ID2 ioport.Pin
	UART     lump.UART
	Motor    servo.MotorBackend
	Sensor   servo.AngleSource
}

// Hardware collects every board-specific collaborator Run needs. A
// target's main function builds one of these from real peripherals
// (target/rp2040) or bench backends (hostuart/hostboard) and calls
// Run, which never returns.
type Hardware struct {
	PortDriver ioport.Driver
	Ports      [hub.MaxPorts]PortWiring

	Light   hmi.LightDriver
	Buttons hmi.ButtonSource
	Power   hmi.PowerController
	Busy    hmi.InitBusyCounter
	Radio   hmi.Radio
	Host    hmi.ProgramHost

	BLE   BLERadio
	Block storage.BlockDevice

	FirmwareHash [hub.FirmwareHashSize]byte

	// Reboot jumps to the USB bootloader; nil on a build with no
	// bootloader to jump into (e.g. the host bench build).
	Reboot Rebooter
}

// supervisorSlots forwards storage.SlotSelector/RunningChecker to a
// *hmi.Supervisor filled in after construction, breaking the
// construction cycle between the supervisor (needs a Persister) and
// the storage manager (needs a SlotSelector/RunningChecker).
type supervisorSlots struct {
	sup *hmi.Supervisor
}

func (s *supervisorSlots) SelectedSlot() uint8      { return s.sup.SelectedSlot() }
func (s *supervisorSlots) UserProgramRunning() bool { return s.sup.UserProgramRunning() }

// Run wires hw's collaborators into one running hub and drives the
// scheduler forever. Grounded on targets/rp2040/main.go's shape:
// configure every driver, register every process and timer, then
// loop RunAndWait with a platform sleep between batches — except the
// platform sleep is this function's caller's job (see main_rp2040.go
// / main_host.go), since "sleep until the next interrupt" has no
// portable meaning here.
func Run(hw *Hardware, sleepUntil func(wake uint32, have bool)) {
	// Drive the runtime clock from wall time so timers fire.
	start := time.Now()
	runtime.SetClockSource(func() uint32 {
		return uint32(time.Since(start) / (time.Second / runtime.TimerFreq))
	})

	ioport.SetDriver(hw.PortDriver)

	sched := runtime.NewScheduler()
	registry := lump.NewRegistry()

	for i := 0; i < hub.MaxPorts; i++ {
		pw := hw.Ports[i]
		port := ioport.NewPort(pw.ID1, pw.ID2)

		idx := i
		hubProc := runtime.NewProcess("port", func(p *runtime.Process, ev runtime.Event, ok bool) bool {
			// EventDeviceReady/EventModeConfirmed need no action here:
			// the driver was already attached to the registry when
			// OnUARTCandidate fired, and it is its own collaborator
			// that reads mode data, not this hub-side process.
			if ok && ev.Kind == runtime.EventStatusChanged && ev.Data == lump.EventDeviceRemoved {
				registry.Detach(idx)
			}
			return false
		})
		sched.Start(hubProc)

		if pw.UART != nil {
			port.OnUARTCandidate = func(p *ioport.Port) {
				d := lump.NewDriver(pw.UART, sched, hubProc)
				registry.Attach(idx, d)
				go d.Run()
			}
		}

		if pw.Motor != nil {
			m := servo.New(pw.Motor, pw.Sensor, servo.DefaultGains())
			t := &runtime.Timer{WakeTime: runtime.Now() + controlPeriodTicks}
			t.Handler = func(tm *runtime.Timer) uint8 {
				m.Tick(controlPeriodTicks)
				tm.WakeTime = runtime.Now() + controlPeriodTicks
				return runtime.SFReschedule
			}
			sched.ScheduleTimer(t)
		}

		port.Start(sched)
	}

	light := hmi.NewLightController(hw.Light)
	buttons := hmi.NewButtonDebouncer(hw.Buttons)

	// supervisor and storage each need the other (storage needs the
	// supervisor's selected slot and running flag; the supervisor
	// needs storage as its Persister), so slots is a forward
	// reference filled in once supervisor exists.
	slots := &supervisorSlots{}
	store := storage.NewManager(hw.Block, slots, slots, hw.FirmwareHash)
	supervisor := hmi.NewSupervisor(light, buttons, hw.Host, store, hw.Power, hw.Busy, hw.Radio)
	slots.sup = supervisor

	if err := store.Boot(); err != nil {
		hub.DebugPrintln("storage boot failed: " + err.Error())
	}

	adapter := NewAdapter(store, supervisor, hw.Reboot)

	stdout := ble.NewStdoutRing(hub.StdoutRingSize)
	plane := ble.NewPlane(hw.BLE, adapter, stdout, supervisor, ble.DefaultConfig())

	hw.BLE.SetConnectionHandler(func(connected bool) {
		supervisor.SetBLEConnected(connected)
		if connected {
			plane.OnConnect(sched)
		} else {
			plane.OnDisconnect()
		}
	})
	hw.BLE.SetWriteHandler(func(frame []byte, withResponse bool) ble.ReplyCode {
		reply, _ := plane.HandleWrite(frame, withResponse)
		plane.Pump()
		return reply
	})

	light.Start(sched)
	supervisor.Start(sched)

	for {
		sched.RunAndWait()
		plane.Pump()
		wake, have := sched.NextWake()
		sleepUntil(wake, have)
	}
}
