// Package tui implements the terminal status monitor behind "vpn-tray watch".
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yllada/vpn-tray/events"
	"github.com/yllada/vpn-tray/status"
)

// refreshInterval is how often polling and pending state are re-read.
const refreshInterval = 250 * time.Millisecond

// defaultLogLines is how many transcript lines the view keeps.
const defaultLogLines = 12

// Controls is the part of the status checker the monitor drives.
// checker.Checker implements it.
type Controls interface {
	CheckNow() bool
	Active() bool
	SetActive(active bool)
	Pending() int
	Current() status.ConnectionStatus
}

// --- Messages ---

// StatusMsg carries a new status.
type StatusMsg struct {
	Status status.ConnectionStatus
}

// PerformedMsg carries a finished action.
type PerformedMsg struct {
	Event events.ActionPerformed
}

// TickMsg triggers a refresh of polling and pending state.
type TickMsg time.Time

// pollingMsg reports the polling state after a toggle.
type pollingMsg struct {
	active bool
}

// Model is the Bubble Tea model of the monitor.
type Model struct {
	controls Controls
	status   status.ConnectionStatus
	active   bool
	pending  int
	lines    []string
	maxLines int
	spinner  spinner.Model

	width  int
	height int
}

// New creates the model showing the controls' current state.
func New(controls Controls, maxLines int) Model {
	if maxLines <= 0 {
		maxLines = defaultLogLines
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		controls: controls,
		status:   controls.Current(),
		active:   controls.Active(),
		pending:  controls.Pending(),
		maxLines: maxLines,
		spinner:  s,
		width:    80,
		height:   24,
	}
}

// Init starts the spinner and the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update handles messages. Checker calls run in commands because they may
// publish events that are sent back into the program.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "c":
			controls := m.controls
			return m, func() tea.Msg {
				controls.CheckNow()
				return nil
			}
		case "p":
			controls := m.controls
			next := !m.active
			return m, func() tea.Msg {
				controls.SetActive(next)
				return pollingMsg{active: next}
			}
		}
		return m, nil

	case StatusMsg:
		m.status = msg.Status
		return m, nil

	case PerformedMsg:
		m.appendEvent(msg.Event)
		return m, nil

	case pollingMsg:
		m.active = msg.active
		return m, nil

	case TickMsg:
		m.active = m.controls.Active()
		m.pending = m.controls.Pending()
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// appendEvent adds the event header and output, keeping the newest lines.
func (m *Model) appendEvent(ev events.ActionPerformed) {
	header := ev.At.Format("15:04:05") + " " + ev.Description
	m.lines = append(m.lines, header)
	if ev.Text != "" {
		for _, line := range strings.Split(ev.Text, "\n") {
			m.lines = append(m.lines, "  "+line)
		}
	}
	if extra := len(m.lines) - m.maxLines; extra > 0 {
		m.lines = append([]string(nil), m.lines[extra:]...)
	}
}

// Status returns the displayed status.
func (m Model) Status() status.ConnectionStatus {
	return m.status
}

// Lines returns the transcript lines shown.
func (m Model) Lines() []string {
	return append([]string(nil), m.lines...)
}

// Polling reports whether polling is shown as active.
func (m Model) Polling() bool {
	return m.active
}

// Run shows the monitor until the user quits or ctx is done.
func Run(ctx context.Context, bus *events.Bus, controls Controls, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(New(controls, defaultLogLines), opts...)

	unsubscribe := Subscribe(bus, p)
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// sender is the part of tea.Program used to forward events.
type sender interface {
	Send(msg tea.Msg)
}

// Subscribe forwards status changes and performed actions to p.
func Subscribe(bus *events.Bus, p sender) (unsubscribe func()) {
	u1 := bus.StateChanged.Subscribe(func(ev events.StateChanged) {
		p.Send(StatusMsg{Status: ev.Current})
	})
	u2 := bus.Performed.Subscribe(func(ev events.ActionPerformed) {
		p.Send(PerformedMsg{Event: ev})
	})
	return func() {
		u1()
		u2()
	}
}
