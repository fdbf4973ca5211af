package status

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/vpn-tray/common"
)

const connectedText = "Status: Connected\n" +
	"Current server: fi88.nordvpn.com\n" +
	"Country: Finland\n" +
	"City: Helsinki\n" +
	"Your new IP: 196.196.203.67\n" +
	"Current technology: OpenVPN\n" +
	"Current protocol: UDP\n" +
	"Transfer: 0.97 MiB received, 452.22 KiB sent\n" +
	"Uptime: 3 hours 24 minutes 5 seconds"

func TestParse_Connected(t *testing.T) {
	got := Parse(connectedText)

	want := ConnectionStatus{
		State:      StateConnected,
		Server:     "fi88.nordvpn.com",
		Country:    "Finland",
		City:       "Helsinki",
		IP:         "196.196.203.67",
		Technology: "OpenVPN",
		Protocol:   "UDP",
		Traffic:    "0.97 MiB ↓, 452.22 KiB ↑",
		Uptime:     "03:24:05",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, got.Traffic, "↓")
	assert.Contains(t, got.Traffic, "↑")
}

func TestParse_Idempotent(t *testing.T) {
	assert.Equal(t, Parse(connectedText), Parse(connectedText))
}

func TestParse_Garbage(t *testing.T) {
	got := Parse("garbage\nnotapair")
	assert.True(t, got.IsUnknown(), "got %+v", got)
	assert.Equal(t, Unknown(), got)
}

func TestParse_EmptyInput(t *testing.T) {
	assert.Equal(t, Unknown(), Parse(""))
	assert.Equal(t, Unknown(), Parse("\n\n  \r\n"))
}

func TestParse_ReorderedAndPartial(t *testing.T) {
	text := "City: Helsinki\n\n  Status:   Disconnected  \nCountry: Finland"
	got := Parse(text)

	assert.Equal(t, StateDisconnected, got.State)
	assert.Equal(t, "Helsinki", got.City)
	assert.Equal(t, "Finland", got.Country)
	assert.Empty(t, got.Server)
}

func TestParse_UnknownStatusValue(t *testing.T) {
	var buf bytes.Buffer
	p := NewParser(common.NewAppLogger(&buf, common.LevelDebug))

	got := p.Parse("Status: connected\nCountry: Finland")

	assert.Equal(t, StateUnknown, got.State, "state lookup is case-sensitive")
	assert.Equal(t, "Finland", got.Country)
	assert.Contains(t, buf.String(), "unrecognized status")
}

func TestParse_LogsSkippedLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewParser(common.NewAppLogger(&buf, common.LevelDebug))

	p.Parse("A new version of NordVPN is available\nStatus: Connected")

	assert.Contains(t, buf.String(), "skipping status line")
}

func TestParse_ValueWithColons(t *testing.T) {
	got := Parse("Status: Connected\nYour new IP: 2001:db8::1")
	assert.Equal(t, "2001:db8::1", got.IP)
}

func TestParse_NewerToolSpelling(t *testing.T) {
	got := Parse("Status: Connected\nHostname: de1.nordvpn.com\nIP: 10.0.0.1")
	assert.Equal(t, "de1.nordvpn.com", got.Server)
	assert.Equal(t, "10.0.0.1", got.IP)
}

func TestParse_ExactKeysWinOverNewerSpelling(t *testing.T) {
	got := Parse("Current server: fi88.nordvpn.com\nYour new IP: 196.196.203.67\nHostname: de1.nordvpn.com\nIP: 10.0.0.1")
	assert.Equal(t, "fi88.nordvpn.com", got.Server)
	assert.Equal(t, "196.196.203.67", got.IP)

	got = Parse("IP: 10.0.0.1\nHostname: de1.nordvpn.com\nYour new IP: 196.196.203.67\nCurrent server: fi88.nordvpn.com")
	assert.Equal(t, "fi88.nordvpn.com", got.Server)
	assert.Equal(t, "196.196.203.67", got.IP)
}

func TestParseUptime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3 hours 24 minutes 5 seconds", "03:24:05"},
		{"", ""},
		{"45 seconds", "00:00:45"},
		{"1 minute 1 second", "00:01:01"},
		{"1 hour 5 seconds", "01:00:05"},
		{"2 days 3 hours 4 minutes 5 seconds", "002:03:04:05"},
		{"12 days", "012:00:00:00"},
		{"2 days 5 seconds", "002:00:00:05"},
		{"nonsense", ""},
		{"x hours 3 seconds", "00:00:03"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseUptime(tt.in))
		})
	}
}

func TestState_String(t *testing.T) {
	for name, state := range stateNames {
		assert.Equal(t, name, state.String())
	}
	assert.Equal(t, "Unknown", State(99).String())
}

func TestConnectionStatus_Summary(t *testing.T) {
	st := Parse(connectedText)
	require.True(t, strings.HasPrefix(st.Summary(), "Connected to fi88"))
	assert.Equal(t, "Helsinki, Finland", st.Location())

	assert.Equal(t, "Disconnected", ConnectionStatus{State: StateDisconnected}.Summary())
}

func TestSameHeadline(t *testing.T) {
	a := Parse(connectedText)
	b := a
	b.Uptime = "03:24:06"
	assert.True(t, SameHeadline(a, b))

	b.City = "Espoo"
	assert.False(t, SameHeadline(a, b))
}
