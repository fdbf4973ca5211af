package tui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/vpn-tray/events"
	"github.com/yllada/vpn-tray/status"
)

type fakeControls struct {
	mu      sync.Mutex
	checks  int
	active  bool
	pending int
	current status.ConnectionStatus
}

func (f *fakeControls) CheckNow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return true
}

func (f *fakeControls) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeControls) SetActive(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = active
}

func (f *fakeControls) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

func (f *fakeControls) Current() status.ConnectionStatus {
	return f.current
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestNew_ReadsControls(t *testing.T) {
	c := &fakeControls{active: true, current: status.ConnectionStatus{State: status.StateConnected}}
	m := New(c, 0)
	assert.True(t, m.Polling())
	assert.Equal(t, status.StateConnected, m.Status().State)
	assert.Equal(t, defaultLogLines, m.maxLines)
	assert.NotNil(t, m.Init())
}

func TestUpdate_Quit(t *testing.T) {
	m := New(&fakeControls{}, 0)
	for _, k := range []tea.KeyMsg{key("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := update(t, m, k)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestUpdate_CheckNowRunsInCommand(t *testing.T) {
	c := &fakeControls{}
	m := New(c, 0)

	_, cmd := update(t, m, key("c"))
	assert.Zero(t, c.checks, "nothing happens on the event loop")
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, c.checks)
}

func TestUpdate_TogglePolling(t *testing.T) {
	c := &fakeControls{active: true}
	m := New(c, 0)

	m, cmd := update(t, m, key("p"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.False(t, c.Active())

	m, _ = update(t, m, msg)
	assert.False(t, m.Polling())
	assert.Contains(t, m.View(), "polling paused")
}

func TestUpdate_Tick(t *testing.T) {
	c := &fakeControls{active: true}
	m := New(c, 0)
	assert.NotContains(t, m.View(), "checking")

	c.mu.Lock()
	c.pending = 1
	c.active = false
	c.mu.Unlock()

	m, cmd := update(t, m, TickMsg(time.Now()))
	assert.NotNil(t, cmd, "ticks reschedule themselves")
	assert.False(t, m.Polling())
	assert.Contains(t, m.View(), "checking")
}

func TestUpdate_Status(t *testing.T) {
	m := New(&fakeControls{}, 0)
	st := status.ConnectionStatus{
		State:   status.StateConnected,
		Server:  "de507.nordvpn.com",
		Country: "Germany",
		City:    "Berlin",
	}
	m, _ = update(t, m, StatusMsg{Status: st})
	assert.Equal(t, st, m.Status())

	view := m.View()
	assert.Contains(t, view, "Connected")
	assert.Contains(t, view, "de507.nordvpn.com")
	assert.Contains(t, view, "Berlin, Germany")
}

func TestUpdate_PerformedKeepsNewestLines(t *testing.T) {
	m := New(&fakeControls{}, 4)
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)

	m, _ = update(t, m, PerformedMsg{Event: events.ActionPerformed{
		Description: "Account (nordvpn account): exit 0, normal, 1s",
		Text:        "Email: me@example.com\nVPN Service: Active",
		At:          at,
	}})
	assert.Equal(t, []string{
		"09:30:00 Account (nordvpn account): exit 0, normal, 1s",
		"  Email: me@example.com",
		"  VPN Service: Active",
	}, m.Lines())

	m, _ = update(t, m, PerformedMsg{Event: events.ActionPerformed{Description: "Connect (nordvpn c): exit 0, normal, 3s", At: at}})
	m, _ = update(t, m, PerformedMsg{Event: events.ActionPerformed{Description: "Disconnect (nordvpn d): exit 0, normal, 1s", At: at}})

	lines := m.Lines()
	require.Len(t, lines, 4)
	assert.Equal(t, "  Email: me@example.com", lines[0])
	assert.True(t, strings.HasSuffix(lines[3], "Disconnect (nordvpn d): exit 0, normal, 1s"))
}

func TestView_Empty(t *testing.T) {
	view := New(&fakeControls{}, 0).View()
	assert.Contains(t, view, "VPN Tray")
	assert.Contains(t, view, "Unknown")
	assert.Contains(t, view, "No actions yet.")
	assert.Contains(t, view, "check now")
}

type fakeSender struct{ msgs []tea.Msg }

func (f *fakeSender) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

func TestSubscribe(t *testing.T) {
	bus := events.NewBus()
	s := &fakeSender{}
	unsubscribe := Subscribe(bus, s)

	bus.StateChanged.Publish(events.StateChanged{Current: status.ConnectionStatus{State: status.StateConnecting}})
	bus.Performed.Publish(events.ActionPerformed{ID: "x"})
	bus.Surfaced.Publish(events.ActionPerformed{ID: "x"})
	require.Len(t, s.msgs, 2)
	assert.Equal(t, StatusMsg{Status: status.ConnectionStatus{State: status.StateConnecting}}, s.msgs[0])

	unsubscribe()
	bus.Performed.Publish(events.ActionPerformed{ID: "y"})
	assert.Len(t, s.msgs, 2)
}
