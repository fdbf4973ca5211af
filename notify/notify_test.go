package notify

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/events"
	"github.com/yllada/vpn-tray/status"
)

type fakeObject struct {
	calls  [][]interface{}
	nextID uint32
	err    error
}

func (f *fakeObject) Call(m string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	if m != method {
		return &dbus.Call{Err: errors.New("unexpected method " + m)}
	}
	f.calls = append(f.calls, args)
	if f.err != nil {
		return &dbus.Call{Err: f.err}
	}
	f.nextID++
	return &dbus.Call{Body: []interface{}{f.nextID}}
}

var _ common.Notifier = (*Notifier)(nil)

func TestSend_Arguments(t *testing.T) {
	obj := &fakeObject{}
	n := newNotifier(obj, nil)

	require.NoError(t, n.Send(Notification{Title: "Connect failed", Message: "boom", Kind: KindError}))

	require.Len(t, obj.calls, 1)
	args := obj.calls[0]
	require.Len(t, args, 8)
	assert.Equal(t, common.AppName, args[0])
	assert.Equal(t, uint32(0), args[1])
	assert.Equal(t, "dialog-error", args[2])
	assert.Equal(t, "Connect failed", args[3])
	assert.Equal(t, "boom", args[4])
	hints := args[6].(map[string]dbus.Variant)
	assert.Equal(t, byte(2), hints["urgency"].Value())
	assert.Equal(t, int32(5000), args[7])
}

func TestSend_ReplacesKeyedNotification(t *testing.T) {
	obj := &fakeObject{}
	n := newNotifier(obj, nil)

	require.NoError(t, n.Send(Notification{Title: "a", Replace: "status"}))
	require.NoError(t, n.Send(Notification{Title: "b", Replace: "status"}))
	require.NoError(t, n.Send(Notification{Title: "c"}))

	assert.Equal(t, uint32(0), obj.calls[0][1])
	assert.Equal(t, uint32(1), obj.calls[1][1], "second status note replaces the first")
	assert.Equal(t, uint32(0), obj.calls[2][1])
}

func TestSend_Disabled(t *testing.T) {
	obj := &fakeObject{}
	n := newNotifier(obj, nil)
	n.SetEnabled(false)

	assert.NoError(t, n.Notify("t", "m"))
	assert.Empty(t, obj.calls)
}

func TestSend_NoBus(t *testing.T) {
	n := newNotifier(nil, nil)
	assert.True(t, errors.Is(n.Notify("t", "m"), ErrUnavailable))
	assert.NoError(t, n.Close())
}

func TestSend_CallError(t *testing.T) {
	obj := &fakeObject{err: errors.New("service gone")}
	n := newNotifier(obj, nil)
	assert.Error(t, n.NotifyWithIcon("t", "m", "custom"))
	assert.Equal(t, "custom", obj.calls[0][2])
}

func TestForResult(t *testing.T) {
	ok := ForResult(events.ActionPerformed{Title: "Account", Text: "Email: me@example.com", OK: true})
	assert.Equal(t, KindInfo, ok.Kind)
	assert.Equal(t, "Account", ok.Title)

	bad := ForResult(events.ActionPerformed{Title: "Connect", OK: false, Description: "Connect (nordvpn c): config_error"})
	assert.Equal(t, KindError, bad.Kind)
	assert.Equal(t, "Connect failed", bad.Title)
	assert.Equal(t, "Connect (nordvpn c): config_error", bad.Message)
}

func TestForStatus(t *testing.T) {
	tests := []struct {
		state status.State
		title string
	}{
		{status.StateConnected, "VPN Connected"},
		{status.StateConnecting, "Connecting VPN"},
		{status.StateDisconnected, "VPN Disconnected"},
		{status.StateDisconnecting, "Disconnecting VPN"},
		{status.StateUnknown, "VPN status unknown"},
	}
	for _, tt := range tests {
		note := ForStatus(events.StatusChanged{State: tt.state, Status: status.ConnectionStatus{State: tt.state}})
		if note.Title != tt.title {
			t.Errorf("ForStatus(%v).Title = %v, want %v", tt.state, note.Title, tt.title)
		}
		assert.Equal(t, "status", note.Replace)
	}
}

func TestSubscribe(t *testing.T) {
	obj := &fakeObject{}
	n := newNotifier(obj, nil)
	bus := events.NewBus()
	unsubscribe := n.Subscribe(bus)

	bus.Surfaced.Publish(events.ActionPerformed{Title: "Account", OK: true})
	bus.Performed.Publish(events.ActionPerformed{Title: "quiet", OK: true})
	bus.StatusChanged.Publish(events.StatusChanged{State: status.StateConnected})
	assert.Len(t, obj.calls, 2)

	unsubscribe()
	bus.Surfaced.Publish(events.ActionPerformed{Title: "Account", OK: true})
	assert.Len(t, obj.calls, 2)
}
