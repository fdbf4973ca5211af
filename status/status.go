// Package status turns the wrapped tool's "status" reply into a typed record.
package status

import "fmt"

// State is the connection state reported by the wrapped tool.
type State int

const (
	StateUnknown State = iota
	StateDisconnected
	StateConnecting
	StateConnected
	StateDisconnecting
)

// stateNames holds the exact spelling the tool prints. Lookup is case-sensitive.
var stateNames = map[string]State{
	"Unknown":       StateUnknown,
	"Disconnected":  StateDisconnected,
	"Connecting":    StateConnecting,
	"Connected":     StateConnected,
	"Disconnecting": StateDisconnecting,
}

// String returns the tool's spelling of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return "Unknown"
	}
}

// IsTransitional reports whether the tunnel is being brought up or down.
func (s State) IsTransitional() bool {
	return s == StateConnecting || s == StateDisconnecting
}

// ParseState maps the tool's text to a State. Unrecognized text is Unknown.
func ParseState(text string) (State, bool) {
	s, ok := stateNames[text]
	return s, ok
}

// ConnectionStatus is one parsed status reply. The zero value is the
// Unknown status with every other field empty. Values are compared with ==.
type ConnectionStatus struct {
	State      State
	Server     string
	Country    string
	City       string
	IP         string
	Technology string
	Protocol   string
	Traffic    string
	Uptime     string
}

// Unknown returns the reset status.
func Unknown() ConnectionStatus {
	return ConnectionStatus{}
}

// IsUnknown reports whether s equals the reset status.
func (s ConnectionStatus) IsUnknown() bool {
	return s == ConnectionStatus{}
}

// Location returns "City, Country" with whichever parts are present.
func (s ConnectionStatus) Location() string {
	switch {
	case s.City != "" && s.Country != "":
		return s.City + ", " + s.Country
	case s.Country != "":
		return s.Country
	default:
		return s.City
	}
}

// Summary is a one-line description used for tooltips and logs.
func (s ConnectionStatus) Summary() string {
	if s.State != StateConnected {
		return s.State.String()
	}
	summary := fmt.Sprintf("Connected to %s", s.Server)
	if loc := s.Location(); loc != "" {
		summary += " (" + loc + ")"
	}
	return summary
}

// SameHeadline reports whether a and b agree on state and location, the
// fields that drive the coarse "status changed" notification.
func SameHeadline(a, b ConnectionStatus) bool {
	return a.State == b.State && a.Country == b.Country && a.City == b.City
}
