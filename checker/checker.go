// Package checker polls the wrapped tool for its connection status and
// publishes changes.
package checker

import (
	"sync"
	"time"

	"github.com/yllada/vpn-tray/action"
	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/events"
	"github.com/yllada/vpn-tray/process"
	"github.com/yllada/vpn-tray/queue"
	"github.com/yllada/vpn-tray/status"
)

// Submitter queues an invocation. queue.Serializer implements it.
type Submitter interface {
	Submit(t queue.Task) bool
}

// StatusSource provides the current status check action. action.Catalog
// implements it.
type StatusSource interface {
	Status() action.Descriptor
}

// Config holds configuration for the checker.
type Config struct {
	// Interval is the polling period.
	Interval time.Duration
	// SkipWhenPending drops a tick while an earlier check is still queued
	// or running. When false every tick queues a check.
	SkipWhenPending bool
}

// DefaultConfig returns the default polling configuration.
func DefaultConfig() Config {
	return Config{
		Interval:        common.PollInterval,
		SkipWhenPending: true,
	}
}

// Checker is the polling state machine. It is inactive until SetActive(true)
// and publishes StateChanged only when the parsed status structurally
// differs from the last one published.
type Checker struct {
	mu         sync.Mutex
	submitter  Submitter
	source     StatusSource
	parser     *status.Parser
	bus        *events.Bus
	log        common.Logger
	config     Config
	active     bool
	current    status.ConnectionStatus
	pending    int
	generation uint64
	stopChan   chan struct{}
	resetChan  chan struct{}
	wg         sync.WaitGroup

	// publishMu orders compare, swap and publish across goroutines.
	publishMu sync.Mutex
}

// New creates an inactive checker.
func New(submitter Submitter, source StatusSource, bus *events.Bus, config Config, log common.Logger) *Checker {
	if log == nil {
		log = common.NopLogger{}
	}
	config.Interval = clampInterval(config.Interval)
	return &Checker{
		submitter: submitter,
		source:    source,
		parser:    status.NewParser(log),
		bus:       bus,
		log:       log,
		config:    config,
		current:   status.Unknown(),
		resetChan: make(chan struct{}, 1),
	}
}

func clampInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return common.PollInterval
	}
	if d < common.MinPollInterval {
		return common.MinPollInterval
	}
	return d
}

// SetActive starts or stops polling. Activating runs one check right away.
// Deactivating resets the status to Unknown; checks already queued still
// run but their results are ignored.
func (c *Checker) SetActive(active bool) {
	c.mu.Lock()
	if c.active == active {
		c.mu.Unlock()
		return
	}
	c.active = active
	c.generation++

	if active {
		c.stopChan = make(chan struct{})
		c.wg.Add(1)
		go c.runLoop(c.stopChan)
		c.mu.Unlock()

		c.log.Info("Status polling started (interval: %v)", c.Interval())
		c.check(false)
		return
	}

	gen := c.generation
	close(c.stopChan)
	c.mu.Unlock()
	c.wg.Wait()

	c.log.Info("Status polling stopped")
	c.apply(gen, status.Unknown())
}

// Active reports whether polling is running.
func (c *Checker) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetInterval changes the polling period. A running timer restarts with
// the new period; a check in flight is not affected.
func (c *Checker) SetInterval(d time.Duration) {
	c.mu.Lock()
	c.config.Interval = clampInterval(d)
	active := c.active
	c.mu.Unlock()

	if active {
		select {
		case c.resetChan <- struct{}{}:
		default:
		}
	}
}

// Interval returns the polling period.
func (c *Checker) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Interval
}

// CheckNow queues a check outside the timer. It reports whether a check
// was queued.
func (c *Checker) CheckNow() bool {
	return c.check(true)
}

// Current returns the last published status.
func (c *Checker) Current() status.ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Pending returns the number of checks queued or running.
func (c *Checker) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Stop deactivates the checker.
func (c *Checker) Stop() {
	c.SetActive(false)
}

func (c *Checker) runLoop(stop <-chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.resetChan:
			ticker.Reset(c.Interval())
		case <-ticker.C:
			c.check(false)
		}
	}
}

// check submits one status request. manual checks run while inactive too.
func (c *Checker) check(manual bool) bool {
	c.mu.Lock()
	if !manual && !c.active {
		c.mu.Unlock()
		return false
	}
	if c.config.SkipWhenPending && c.pending > 0 {
		c.mu.Unlock()
		c.log.Debug("status check still pending, skipping tick")
		return false
	}
	c.pending++
	gen := c.generation
	c.mu.Unlock()

	desc := c.source.Status()
	req := desc.Request()
	ok := c.submitter.Submit(queue.Task{
		Request: req,
		Done:    func(res process.Result) { c.complete(gen, res) },
	})
	if ok {
		return true
	}

	c.mu.Lock()
	c.pending--
	c.mu.Unlock()

	c.log.Warn("status check not queued: tool %q is not runnable", req.Path)
	c.apply(gen, status.Unknown())
	return false
}

func (c *Checker) complete(gen uint64, res process.Result) {
	c.mu.Lock()
	c.pending--
	c.mu.Unlock()

	var text string
	if res.Outcome.Ran() {
		text = res.Stdout
	} else {
		c.log.Warn("status check failed: %v", res.Err)
	}
	c.apply(gen, c.parser.Parse(text))
}

// apply publishes st if it differs from the current status. Results from
// an earlier generation are dropped. Publication happens under publishMu,
// so listeners see changes in the order they were applied and the last
// event always matches Current.
func (c *Checker) apply(gen uint64, st status.ConnectionStatus) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.log.Debug("discarding status result from before deactivation")
		return
	}
	prev := c.current
	if st == prev {
		c.mu.Unlock()
		return
	}
	c.current = st
	c.mu.Unlock()

	c.log.Debug("status changed: %s -> %s", prev.Summary(), st.Summary())
	c.bus.StateChanged.Publish(events.StateChanged{Previous: prev, Current: st})

	if !status.SameHeadline(prev, st) {
		c.log.Info("Connection state changed: %s -> %s", prev.State, st.State)
		c.bus.StatusChanged.Publish(events.StatusChanged{State: st.State, Status: st})
	}
}
