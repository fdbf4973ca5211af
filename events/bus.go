// Package events carries notifications from the invocation pipeline and the
// status checker to whoever displays or records them.
package events

import (
	"sync"
	"time"

	"github.com/yllada/vpn-tray/status"
)

// InvocationStarting is published right before a process is spawned.
type InvocationStarting struct {
	RequesterID string
	Executable  string
	Args        []string
	// CommandLine is the redacted rendering for display.
	CommandLine string
}

// ActionPerformed is published once per finished invocation.
type ActionPerformed struct {
	ID          string
	Title       string
	Text        string
	OK          bool
	Description string
	ExitCode    int
	Outcome     string
	Elapsed     time.Duration
	At          time.Time
}

// StateChanged carries the full status every time it structurally changes.
type StateChanged struct {
	Previous status.ConnectionStatus
	Current  status.ConnectionStatus
}

// StatusChanged is published only when the state, country or city changed.
type StatusChanged struct {
	State status.State
	// Status is the full record the change came with, for display.
	Status status.ConnectionStatus
}

// Listeners is an ordered registry of callbacks for one event type.
// Callbacks run synchronously on the publishing goroutine and must not
// block.
type Listeners[T any] struct {
	mu    sync.RWMutex
	next  int
	order []int
	fns   map[int]func(T)
}

// Subscribe registers fn and returns a function removing it again.
func (l *Listeners[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	l.order = append(l.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.fns, id)
			for i, v := range l.order {
				if v == id {
					l.order = append(l.order[:i], l.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish calls every listener in subscription order.
func (l *Listeners[T]) Publish(ev T) {
	l.mu.RLock()
	fns := make([]func(T), 0, len(l.order))
	for _, id := range l.order {
		fns = append(fns, l.fns[id])
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of listeners.
func (l *Listeners[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Bus groups the application's event streams. The zero value is ready to
// use.
type Bus struct {
	Starting      Listeners[InvocationStarting]
	Performed     Listeners[ActionPerformed]
	Surfaced      Listeners[ActionPerformed]
	StateChanged  Listeners[StateChanged]
	StatusChanged Listeners[StatusChanged]
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}
