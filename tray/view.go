package tray

import (
	"strings"
	"time"

	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/status"
)

// detailSlots is the number of detail rows under the status row.
const detailSlots = 5

// Headline is the first menu row, e.g. "●  Connected".
func Headline(st status.ConnectionStatus) string {
	switch {
	case st.State == status.StateConnected:
		return "●  " + st.State.String()
	case st.State.IsTransitional():
		return "◐  " + st.State.String() + "..."
	case st.State == status.StateDisconnected:
		return "○  Not Connected"
	default:
		return "?  Status unknown"
	}
}

// Details are the rows shown under the headline; empty fields are left out.
func Details(st status.ConnectionStatus) []string {
	var rows []string
	add := func(label, value string) {
		if value != "" {
			rows = append(rows, "    "+label+": "+value)
		}
	}
	add("Server", st.Server)
	add("Location", st.Location())
	add("IP", st.IP)
	add("Traffic", st.Traffic)
	add("Uptime", st.Uptime)
	if len(rows) > detailSlots {
		rows = rows[:detailSlots]
	}
	return rows
}

// Tooltip is the hover text of the tray icon.
func Tooltip(st status.ConnectionStatus, pausedUntil time.Time) string {
	lines := []string{common.AppName + " - " + st.State.String()}
	if st.Server != "" {
		lines = append(lines, "Server: "+st.Server)
	}
	if loc := st.Location(); loc != "" {
		lines = append(lines, loc)
	}
	if st.Uptime != "" {
		lines = append(lines, "Uptime: "+st.Uptime)
	}
	if !pausedUntil.IsZero() {
		lines = append(lines, "Paused until "+pausedUntil.Format("15:04"))
	}
	return strings.Join(lines, "\n")
}
