package tray

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/status"
)

func TestIconFor_DecodesPerState(t *testing.T) {
	states := []status.State{
		status.StateUnknown,
		status.StateDisconnected,
		status.StateConnecting,
		status.StateConnected,
		status.StateDisconnecting,
	}
	for _, state := range states {
		img, err := png.Decode(bytes.NewReader(IconFor(state)))
		require.NoError(t, err, state.String())
		assert.Equal(t, common.TrayIconSize, img.Bounds().Dx())
		assert.Equal(t, common.TrayIconSize, img.Bounds().Dy())
	}
}

func TestIconFor_DistinctStates(t *testing.T) {
	connected := IconFor(status.StateConnected)
	assert.False(t, bytes.Equal(connected, IconFor(status.StateDisconnected)))
	assert.False(t, bytes.Equal(connected, IconFor(status.StateUnknown)))
	assert.False(t, bytes.Equal(IconFor(status.StateDisconnected), IconFor(status.StateUnknown)))
	assert.True(t, bytes.Equal(IconFor(status.StateConnecting), IconFor(status.StateDisconnecting)),
		"both transitions share the amber icon")
	assert.Equal(t, IconFor(status.StateUnknown), IconFor(status.State(42)))
}

func TestIconConfigFor_Symbols(t *testing.T) {
	assert.Equal(t, SymbolCheck, IconConfigFor(status.StateConnected).Symbol)
	assert.Equal(t, SymbolDots, IconConfigFor(status.StateConnecting).Symbol)
	assert.Equal(t, SymbolLock, IconConfigFor(status.StateDisconnected).Symbol)
	assert.Equal(t, SymbolQuestion, IconConfigFor(status.StateUnknown).Symbol)
}

func TestHeadline(t *testing.T) {
	tests := []struct {
		state status.State
		want  string
	}{
		{status.StateConnected, "●  Connected"},
		{status.StateConnecting, "◐  Connecting..."},
		{status.StateDisconnecting, "◐  Disconnecting..."},
		{status.StateDisconnected, "○  Not Connected"},
		{status.StateUnknown, "?  Status unknown"},
	}
	for _, tt := range tests {
		if got := Headline(status.ConnectionStatus{State: tt.state}); got != tt.want {
			t.Errorf("Headline(%v) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestDetails(t *testing.T) {
	st := status.ConnectionStatus{
		State:   status.StateConnected,
		Server:  "de507.nordvpn.com",
		Country: "Germany",
		City:    "Berlin",
		Uptime:  "00:05:02",
	}
	assert.Equal(t, []string{
		"    Server: de507.nordvpn.com",
		"    Location: Berlin, Germany",
		"    Uptime: 00:05:02",
	}, Details(st))

	assert.Empty(t, Details(status.Unknown()))
}

func TestTooltip(t *testing.T) {
	st := status.ConnectionStatus{
		State:   status.StateConnected,
		Server:  "de507.nordvpn.com",
		Country: "Germany",
		Uptime:  "00:05:02",
	}
	assert.Equal(t, "VPN Tray - Connected\nServer: de507.nordvpn.com\nGermany\nUptime: 00:05:02",
		Tooltip(st, time.Time{}))

	until := time.Date(2024, 5, 1, 14, 30, 0, 0, time.Local)
	assert.Equal(t, "VPN Tray - Disconnected\nPaused until 14:30",
		Tooltip(status.ConnectionStatus{State: status.StateDisconnected}, until))
}
