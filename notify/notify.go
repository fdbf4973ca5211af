// Package notify shows desktop notifications through the freedesktop
// notification service on the session D-Bus.
package notify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/events"
	"github.com/yllada/vpn-tray/status"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = "/org/freedesktop/Notifications"
	method     = busName + ".Notify"
)

// ErrUnavailable is returned when no notification service is reachable.
var ErrUnavailable = errors.New("notification service unavailable")

// Kind selects the default icon and urgency.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindWarning
	KindError
)

// Notification represents a desktop notification.
type Notification struct {
	Title   string
	Message string
	Kind    Kind
	Icon    string
	// Replace updates the previous notification with the same key instead
	// of stacking a new one.
	Replace string
}

func (n Notification) icon() string {
	if n.Icon != "" {
		return n.Icon
	}
	switch n.Kind {
	case KindWarning:
		return "dialog-warning"
	case KindError:
		return "dialog-error"
	default:
		return "network-vpn"
	}
}

// urgency hint values: 0 low, 1 normal, 2 critical.
func (n Notification) urgency() byte {
	switch n.Kind {
	case KindError:
		return 2
	case KindWarning:
		return 1
	default:
		return 0
	}
}

// caller is the part of dbus.BusObject used here.
type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Notifier sends notifications. A Notifier without a bus object only logs.
type Notifier struct {
	mu       sync.Mutex
	obj      caller
	conn     *dbus.Conn
	log      common.Logger
	enabled  bool
	replaced map[string]uint32
}

// Dial connects to the session bus.
func Dial(log common.Logger) (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	n := newNotifier(conn.Object(busName, dbus.ObjectPath(objectPath)), log)
	n.conn = conn
	return n, nil
}

// DialOrLog connects to the session bus, or returns a notifier that only
// logs when there is none.
func DialOrLog(log common.Logger) *Notifier {
	n, err := Dial(log)
	if err != nil {
		if log != nil {
			log.Warn("desktop notifications disabled: %v", err)
		}
		return newNotifier(nil, log)
	}
	return n
}

func newNotifier(obj caller, log common.Logger) *Notifier {
	if log == nil {
		log = common.NopLogger{}
	}
	return &Notifier{
		obj:      obj,
		log:      log,
		enabled:  true,
		replaced: make(map[string]uint32),
	}
}

// SetEnabled turns notifications on or off.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Send shows notification. Disabled notifiers drop it silently.
func (n *Notifier) Send(note Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return nil
	}
	if n.obj == nil {
		n.log.Info("notification: %s: %s", note.Title, note.Message)
		return ErrUnavailable
	}

	var replaces uint32
	if note.Replace != "" {
		replaces = n.replaced[note.Replace]
	}
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(note.urgency()),
	}
	timeout := int32(common.NotificationTimeout.Milliseconds())

	call := n.obj.Call(method, 0, common.AppName, replaces, note.icon(),
		note.Title, note.Message, []string{}, hints, timeout)
	if call.Err != nil {
		n.log.Warn("Error showing notification: %v", call.Err)
		return call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return err
	}
	if note.Replace != "" {
		n.replaced[note.Replace] = id
	}
	return nil
}

// Notify implements common.Notifier.
func (n *Notifier) Notify(title, message string) error {
	return n.Send(Notification{Title: title, Message: message})
}

// NotifyWithIcon implements common.Notifier.
func (n *Notifier) NotifyWithIcon(title, message, icon string) error {
	return n.Send(Notification{Title: title, Message: message, Icon: icon})
}

// Close releases the bus connection.
func (n *Notifier) Close() error {
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

// ForResult builds the notification for a surfaced action result.
func ForResult(ev events.ActionPerformed) Notification {
	note := Notification{
		Title:   ev.Title,
		Message: ev.Text,
		Kind:    KindInfo,
	}
	if !ev.OK {
		note.Kind = KindError
		note.Title = ev.Title + " failed"
		if note.Message == "" {
			note.Message = ev.Description
		}
	}
	return note
}

// ForStatus builds the notification for a headline status change.
func ForStatus(ev events.StatusChanged) Notification {
	note := Notification{Replace: "status"}
	switch ev.State {
	case status.StateConnected:
		note.Title = "VPN Connected"
		note.Message = ev.Status.Summary()
		note.Kind = KindSuccess
		note.Icon = "network-vpn"
	case status.StateConnecting:
		note.Title = "Connecting VPN"
		note.Message = "Connecting..."
		note.Icon = "network-vpn-acquiring"
	case status.StateDisconnected:
		note.Title = "VPN Disconnected"
		note.Message = "You are not connected"
		note.Icon = "network-vpn-disconnected"
	case status.StateDisconnecting:
		note.Title = "Disconnecting VPN"
		note.Message = "Disconnecting..."
		note.Icon = "network-vpn-disconnected"
	default:
		note.Title = "VPN status unknown"
		note.Message = "The VPN client did not report a status"
		note.Kind = KindWarning
	}
	return note
}

// Subscribe wires the notifier to the bus: surfaced results and headline
// status changes become notifications.
func (n *Notifier) Subscribe(bus *events.Bus) (unsubscribe func()) {
	u1 := bus.Surfaced.Subscribe(func(ev events.ActionPerformed) {
		_ = n.Send(ForResult(ev))
	})
	u2 := bus.StatusChanged.Subscribe(func(ev events.StatusChanged) {
		_ = n.Send(ForStatus(ev))
	})
	return func() {
		u1()
		u2()
	}
}
