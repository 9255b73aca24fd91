package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hubcore/hmi"
	"hubcore/hub"
)

const tickInterval = 16 * time.Millisecond

var (
	lightStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	flagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

var colorNames = map[hmi.Color]lipgloss.Color{
	hmi.ColorOff:    lipgloss.Color("235"),
	hmi.ColorYellow: lipgloss.Color("220"),
	hmi.ColorBlue:   lipgloss.Color("33"),
	hmi.ColorGreen:  lipgloss.Color("34"),
	hmi.ColorRed:    lipgloss.Color("160"),
}

var flagNames = []struct {
	flag hub.StatusFlag
	name string
}{
	{hub.FlagBatteryLow, "BATTERY_LOW"},
	{hub.FlagBatteryCritical, "BATTERY_CRITICAL"},
	{hub.FlagPowerButtonPressed, "POWER_BUTTON"},
	{hub.FlagUserProgramRunning, "PROGRAM_RUNNING"},
	{hub.FlagBLEAdvertising, "BLE_ADVERTISING"},
	{hub.FlagBLEConnected, "BLE_CONNECTED"},
	{hub.FlagUSBConnected, "USB_CONNECTED"},
	{hub.FlagFileIO, "FILE_IO"},
	{hub.FlagShutdownRequest, "SHUTDOWN_REQUEST"},
	{hub.FlagShutdown, "SHUTDOWN"},
}

type tickMsg time.Time

type model struct {
	sim      *hubSim
	snap     snapshot
	input    textinput.Model
	log      []string
	quitting bool
}

func newModel(sim *hubSim) model {
	ti := textinput.New()
	ti.Placeholder = `start 0   stop   write-stdin "go"   repl`
	ti.Prompt = "> "
	ti.Focus()
	return model{sim: sim, input: ti}
}

func (m model) Init() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.snap = m.sim.snapshot()
		return m, tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "f1":
			m.sim.press(hmi.ButtonLeft, true)
			m.sim.press(hmi.ButtonLeft, false)
			return m, nil
		case "f2":
			m.sim.press(hmi.ButtonCenter, true)
			m.sim.press(hmi.ButtonCenter, false)
			return m, nil
		case "f3":
			m.sim.press(hmi.ButtonRight, true)
			m.sim.press(hmi.ButtonRight, false)
			return m, nil
		case "f4":
			m.sim.press(hmi.ButtonBLEToggle, true)
			m.sim.press(hmi.ButtonBLEToggle, false)
			return m, nil
		case "f5":
			m.sim.toggleBLELink()
			return m, nil
		case "f6":
			if err := clipboard.WriteAll(m.snap.stdout); err != nil {
				m.log = appendLog(m.log, "clipboard: "+err.Error())
			} else {
				m.log = appendLog(m.log, "copied stdout to clipboard")
			}
			return m, nil
		case "enter":
			line := m.input.Value()
			m.input.SetValue("")
			if strings.TrimSpace(line) == "" {
				return m, nil
			}
			frame, err := parseCommand(line)
			if err != nil {
				m.log = appendLog(m.log, "error: "+err.Error())
				return m, nil
			}
			m.sim.writeFrame(frame)
			m.log = appendLog(m.log, "> "+line)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func appendLog(log []string, line string) []string {
	log = append(log, line)
	if len(log) > 10 {
		log = log[len(log)-10:]
	}
	return log
}

func (m model) View() string {
	if m.quitting {
		return "bye\n"
	}

	swatch := colorNames[m.snap.color]
	light := lightStyle.Background(swatch).Render(fmt.Sprintf(" %-6s brightness=%3d ", colorName(m.snap.color), m.snap.brightness))

	var flags []string
	for _, f := range flagNames {
		if m.snap.bits&uint32(f.flag) != 0 {
			flags = append(flags, flagStyle.Render(f.name))
		}
	}
	if len(flags) == 0 {
		flags = []string{dimStyle.Render("(none)")}
	}

	status := boxStyle.Render(fmt.Sprintf(
		"status light: %s\nslot: %d   ble connected: %v\nflags: %s",
		light, m.snap.slot, m.snap.bleConnected, strings.Join(flags, " "),
	))

	stdout := boxStyle.Width(60).Render("stdout:\n" + dimStyle.Render(lastLines(m.snap.stdout, 8)))

	logBox := boxStyle.Width(60).Render("log:\n" + strings.Join(m.log, "\n"))

	help := dimStyle.Render("F1/F2/F3 left/center/right  F4 ble-toggle-button  F5 link connect/disconnect  F6 copy stdout  Esc quit")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n", status, stdout, logBox, m.input.View(), help)
}

func colorName(c hmi.Color) string {
	switch c {
	case hmi.ColorOff:
		return "off"
	case hmi.ColorYellow:
		return "yellow"
	case hmi.ColorBlue:
		return "blue"
	case hmi.ColorGreen:
		return "green"
	case hmi.ColorRed:
		return "red"
	default:
		return "?"
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
