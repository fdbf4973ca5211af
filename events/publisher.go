package events

import (
	"strings"
	"sync"

	"github.com/yllada/vpn-tray/action"
	"github.com/yllada/vpn-tray/common"
)

// transcript is the bounded scrollback of one action.
type transcript struct {
	title        string
	forceDisplay bool
	lines        []string
}

// Publisher routes performed actions to the bus and keeps a per-action
// transcript. Results of force-display actions and failures are surfaced;
// the rest are only recorded.
type Publisher struct {
	mu       sync.Mutex
	bus      *Bus
	log      common.Logger
	maxLines int
	entries  map[string]*transcript
}

// NewPublisher creates a publisher keeping at most maxLines lines per
// action. A non-positive maxLines means common.ScrollbackLines.
func NewPublisher(bus *Bus, maxLines int, log common.Logger) *Publisher {
	if log == nil {
		log = common.NopLogger{}
	}
	if maxLines <= 0 {
		maxLines = common.ScrollbackLines
	}
	return &Publisher{
		bus:      bus,
		log:      log,
		maxLines: maxLines,
		entries:  make(map[string]*transcript),
	}
}

// RegisterAction starts tracking d. Registering an id again only refreshes
// its title and display policy; the transcript is kept.
func (p *Publisher) RegisterAction(d action.Descriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.entries[d.ID]; ok {
		t.title = d.Title
		t.forceDisplay = d.ForceDisplay
		return
	}
	p.entries[d.ID] = &transcript{title: d.Title, forceDisplay: d.ForceDisplay}
	p.log.Debug("registered action %s (%s)", d.ID, d.Title)
}

// UnregisterAction stops tracking id and drops its transcript.
func (p *Publisher) UnregisterAction(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, id)
}

// Registered reports whether id is tracked.
func (p *Publisher) Registered(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[id]
	return ok
}

// Performed records ev in the action's transcript and publishes it.
// Events for unregistered ids are dropped.
func (p *Publisher) Performed(ev ActionPerformed) {
	p.mu.Lock()
	t, ok := p.entries[ev.ID]
	if !ok {
		p.mu.Unlock()
		p.log.Warn("result for unregistered action %s dropped", ev.ID)
		return
	}
	if ev.Title == "" {
		ev.Title = t.title
	}
	t.lines = append(t.lines, entryLines(ev)...)
	t.lines = trimFront(t.lines, p.maxLines)
	surface := t.forceDisplay || !ev.OK
	p.mu.Unlock()

	p.bus.Performed.Publish(ev)
	if surface {
		p.bus.Surfaced.Publish(ev)
	}
}

// Transcript returns a copy of the scrollback of id.
func (p *Publisher) Transcript(id string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.entries[id]; ok {
		return append([]string(nil), t.lines...)
	}
	return nil
}

// SetScrollback changes the line limit and trims existing transcripts.
func (p *Publisher) SetScrollback(maxLines int) {
	if maxLines <= 0 {
		maxLines = common.ScrollbackLines
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maxLines = maxLines
	for _, t := range p.entries {
		t.lines = trimFront(t.lines, maxLines)
	}
}

func entryLines(ev ActionPerformed) []string {
	header := ev.At.Format("15:04:05") + " " + ev.Description
	lines := []string{header}
	if ev.Text != "" {
		lines = append(lines, strings.Split(ev.Text, "\n")...)
	}
	return lines
}

// trimFront drops the oldest lines beyond limit.
func trimFront(lines []string, limit int) []string {
	if len(lines) <= limit {
		return lines
	}
	for i := 0; i < len(lines)-limit; i++ {
		lines[i] = ""
	}
	return lines[len(lines)-limit:]
}
