package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/status"
)

var (
	white = lipgloss.Color("#E2E2E2")
	gray  = lipgloss.Color("#888888")
	muted = lipgloss.Color("#555555")
	blue  = lipgloss.Color("#5FAFFF")
	green = lipgloss.Color("#5FD787")
	amber = lipgloss.Color("#FFD787")
	red   = lipgloss.Color("#FF8787")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	labelStyle   = lipgloss.NewStyle().Foreground(gray).Bold(true).Width(12)
	valueStyle   = lipgloss.NewStyle().Foreground(white)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	keyStyle     = lipgloss.NewStyle().Foreground(blue).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(blue)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
)

// stateStyle colors a connection state.
func stateStyle(s status.State) lipgloss.Style {
	switch {
	case s == status.StateConnected:
		return lipgloss.NewStyle().Foreground(green).Bold(true)
	case s.IsTransitional():
		return lipgloss.NewStyle().Foreground(amber).Bold(true)
	case s == status.StateDisconnected:
		return lipgloss.NewStyle().Foreground(gray)
	default:
		return lipgloss.NewStyle().Foreground(red)
	}
}

// View renders the monitor.
func (m Model) View() string {
	sections := []string{
		m.renderHeader(),
		cardStyle.Render(m.renderStatus()),
		m.renderLog(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	header := titleStyle.Render(common.AppName)
	if m.pending > 0 {
		header += "  " + m.spinner.View() + mutedStyle.Render(" checking")
	}
	if !m.active {
		header += "  " + mutedStyle.Render("(polling paused)")
	}
	return header
}

func (m Model) renderStatus() string {
	rows := []string{
		labelStyle.Render("State") + stateStyle(m.status.State).Render(m.status.State.String()),
	}
	field := func(label, value string) {
		if value != "" {
			rows = append(rows, labelStyle.Render(label)+valueStyle.Render(value))
		}
	}
	field("Server", m.status.Server)
	field("Location", m.status.Location())
	field("IP", m.status.IP)
	field("Technology", m.status.Technology)
	field("Protocol", m.status.Protocol)
	field("Traffic", m.status.Traffic)
	field("Uptime", m.status.Uptime)
	return strings.Join(rows, "\n")
}

func (m Model) renderLog() string {
	if len(m.lines) == 0 {
		return mutedStyle.Render("No actions yet.")
	}
	return strings.Join(m.lines, "\n")
}

func (m Model) renderFooter() string {
	bindings := []struct{ key, desc string }{
		{"c", "check now"},
		{"p", "toggle polling"},
		{"q", "quit"},
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, keyStyle.Render(b.key)+" "+mutedStyle.Render(b.desc))
	}
	return strings.Join(parts, "  ")
}
