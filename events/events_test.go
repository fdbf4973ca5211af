package events

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/vpn-tray/action"
)

func TestListeners_OrderAndUnsubscribe(t *testing.T) {
	var l Listeners[int]
	var got []string

	unsubA := l.Subscribe(func(v int) { got = append(got, fmt.Sprintf("a%d", v)) })
	l.Subscribe(func(v int) { got = append(got, fmt.Sprintf("b%d", v)) })

	l.Publish(1)
	unsubA()
	unsubA()
	l.Publish(2)

	assert.Equal(t, []string{"a1", "b1", "b2"}, got)
	assert.Equal(t, 1, l.Len())
}

func TestListeners_SubscribeDuringPublish(t *testing.T) {
	var l Listeners[string]
	calls := 0
	l.Subscribe(func(string) {
		calls++
		l.Subscribe(func(string) { calls++ })
	})

	l.Publish("x")
	assert.Equal(t, 1, calls, "listeners added during publish see the next event only")
}

type recorder struct {
	performed []ActionPerformed
	surfaced  []ActionPerformed
}

func newRecorder(bus *Bus) *recorder {
	r := &recorder{}
	bus.Performed.Subscribe(func(ev ActionPerformed) { r.performed = append(r.performed, ev) })
	bus.Surfaced.Subscribe(func(ev ActionPerformed) { r.surfaced = append(r.surfaced, ev) })
	return r
}

func TestPublisher_Routing(t *testing.T) {
	tests := []struct {
		name        string
		force       bool
		ok          bool
		wantSurface bool
	}{
		{"quiet success", false, true, false},
		{"forced success", true, true, true},
		{"failure", false, false, true},
		{"forced failure", true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewBus()
			rec := newRecorder(bus)
			p := NewPublisher(bus, 10, nil)
			p.RegisterAction(action.Descriptor{ID: "a", Title: "Act", ForceDisplay: tt.force})

			p.Performed(ActionPerformed{ID: "a", Text: "done", OK: tt.ok, Description: "Act: exit 0"})

			require.Len(t, rec.performed, 1)
			assert.Equal(t, "Act", rec.performed[0].Title)
			if tt.wantSurface {
				assert.Len(t, rec.surfaced, 1)
			} else {
				assert.Empty(t, rec.surfaced)
			}
			assert.Len(t, p.Transcript("a"), 2)
		})
	}
}

func TestPublisher_RegisterIsIdempotent(t *testing.T) {
	bus := NewBus()
	rec := newRecorder(bus)
	p := NewPublisher(bus, 10, nil)

	d := action.Descriptor{ID: "a", Title: "Act"}
	p.RegisterAction(d)
	p.Performed(ActionPerformed{ID: "a", Text: "one", OK: true})
	p.RegisterAction(d)
	p.Performed(ActionPerformed{ID: "a", Text: "two", OK: true})

	assert.Len(t, rec.performed, 2, "one delivery per event, not per registration")
	assert.Len(t, p.Transcript("a"), 4, "re-registering keeps the transcript")

	d.ForceDisplay = true
	p.RegisterAction(d)
	p.Performed(ActionPerformed{ID: "a", OK: true})
	assert.Len(t, rec.surfaced, 1, "display policy is refreshed")
}

func TestPublisher_UnregisteredDropped(t *testing.T) {
	bus := NewBus()
	rec := newRecorder(bus)
	p := NewPublisher(bus, 10, nil)

	p.Performed(ActionPerformed{ID: "ghost", OK: false})
	assert.Empty(t, rec.performed)

	p.RegisterAction(action.Descriptor{ID: "a"})
	assert.True(t, p.Registered("a"))
	p.UnregisterAction("a")
	assert.False(t, p.Registered("a"))
	assert.Nil(t, p.Transcript("a"))
}

func TestPublisher_TrimsFromFront(t *testing.T) {
	p := NewPublisher(NewBus(), 5, nil)
	p.RegisterAction(action.Descriptor{ID: "a"})

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 4; i++ {
		p.Performed(ActionPerformed{ID: "a", Text: fmt.Sprintf("line%d", i), OK: true, Description: fmt.Sprintf("run%d", i), At: at})
	}

	lines := p.Transcript("a")
	assert.Equal(t, []string{"line1", "03:04:05 run2", "line2", "03:04:05 run3", "line3"}, lines)

	p.SetScrollback(2)
	assert.Equal(t, []string{"03:04:05 run3", "line3"}, p.Transcript("a"))
}

func TestPublisher_MultilineText(t *testing.T) {
	p := NewPublisher(NewBus(), 0, nil)
	p.RegisterAction(action.Descriptor{ID: "a"})
	p.Performed(ActionPerformed{ID: "a", Text: "x\ny\nz", OK: true, Description: "d"})

	lines := p.Transcript("a")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasSuffix(lines[0], " d"))
	assert.Equal(t, []string{"x", "y", "z"}, lines[1:])
}
