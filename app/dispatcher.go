package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yllada/vpn-tray/action"
	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/events"
	"github.com/yllada/vpn-tray/process"
	"github.com/yllada/vpn-tray/queue"
)

// Submitter queues an invocation. queue.Serializer implements it.
type Submitter interface {
	Submit(t queue.Task) bool
}

// Catalog finds actions by id or title. action.Catalog implements it.
type Catalog interface {
	Lookup(key string) (action.Descriptor, error)
	Get(id string) (action.Descriptor, error)
}

// StatusChecker runs a status check outside the polling timer.
// checker.Checker implements it.
type StatusChecker interface {
	CheckNow() bool
}

// SecretLookup resolves argument placeholders. keyring.Store.Lookup
// satisfies it.
type SecretLookup func(name string) (string, bool)

// Dispatcher is the single entry point for running an action: it resolves
// placeholders, registers the action with the publisher, queues the
// invocation and turns its result into a performed event.
type Dispatcher struct {
	mu        sync.Mutex
	catalog   Catalog
	submitter Submitter
	publisher *events.Publisher
	checker   StatusChecker
	secrets   SecretLookup
	log       common.Logger
	timeout   time.Duration
	pause     time.Duration
	now       func() time.Time

	resumeTimer *time.Timer
	resumeAt    time.Time
	pauseGen    uint64
}

// DispatcherConfig holds the dispatcher's collaborators.
type DispatcherConfig struct {
	Catalog   Catalog
	Submitter Submitter
	Publisher *events.Publisher
	Checker   StatusChecker
	Secrets   SecretLookup
	// Timeout applies to actions without their own timeout.
	Timeout time.Duration
	// Pause is how long the pause action stays disconnected.
	Pause time.Duration
	Log   common.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Log == nil {
		cfg.Log = common.NopLogger{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = common.ActionTimeout
	}
	if cfg.Pause <= 0 {
		cfg.Pause = common.PauseDuration
	}
	if cfg.Secrets == nil {
		cfg.Secrets = func(string) (string, bool) { return "", false }
	}
	return &Dispatcher{
		catalog:   cfg.Catalog,
		submitter: cfg.Submitter,
		publisher: cfg.Publisher,
		checker:   cfg.Checker,
		secrets:   cfg.Secrets,
		log:       cfg.Log,
		timeout:   cfg.Timeout,
		pause:     cfg.Pause,
		now:       time.Now,
	}
}

// SetChecker sets the checker used by the check-now action.
func (d *Dispatcher) SetChecker(c StatusChecker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checker = c
}

// Dispatch runs the action with the given id or title.
func (d *Dispatcher) Dispatch(key string) error {
	return d.DispatchWith(key, false, nil)
}

// DispatchWith runs an action. force shows the result even when the action
// would normally only record it. done, if set, receives the performed event
// once the invocation finishes; it is not called for check-now.
func (d *Dispatcher) DispatchWith(key string, force bool, done func(events.ActionPerformed)) error {
	desc, err := d.catalog.Lookup(key)
	if err != nil {
		return err
	}
	if force {
		desc.ForceDisplay = true
	}

	if sys, ok := desc.Scope.(action.SystemScope); ok {
		switch sys.Command {
		case action.SystemCheckNow:
			return d.checkNow()
		case action.SystemPause:
			return d.startPause(desc, done)
		}
	}

	if isConnectionChange(desc) {
		d.cancelPause("connection changed manually")
	}
	return d.run(desc, done)
}

// isConnectionChange reports whether desc brings the tunnel up or down.
func isConnectionChange(desc action.Descriptor) bool {
	tool, ok := desc.Scope.(action.ToolScope)
	return ok && (tool.Builtin == "connect" || tool.Builtin == "disconnect")
}

func (d *Dispatcher) checkNow() error {
	d.mu.Lock()
	c := d.checker
	d.mu.Unlock()

	if c == nil {
		return errors.New("status checker not available")
	}
	if !c.CheckNow() {
		d.log.Debug("manual status check not queued")
	}
	return nil
}

// run resolves desc and queues it.
func (d *Dispatcher) run(desc action.Descriptor, done func(events.ActionPerformed)) error {
	display := desc.Request().CommandLine()
	d.publisher.RegisterAction(desc)

	resolved, err := desc.Resolve(d.secrets)
	if err != nil {
		res := process.Result{RequesterID: desc.ID, Outcome: process.OutcomeConfigError, Err: err}
		d.report(desc, process.Request{Path: desc.Executable, Display: display}, res, done)
		return err
	}

	req := resolved.Request()
	if desc.Timeout <= 0 {
		req.Timeout = d.timeout
	}
	if len(desc.Placeholders()) > 0 {
		req.Display = display
	}

	accepted := d.submitter.Submit(queue.Task{
		Request: req,
		Done: func(res process.Result) {
			d.report(desc, req, res, done)
		},
	})
	if accepted {
		d.log.Debug("queued %s (%s)", desc.ID, req.CommandLine())
		return nil
	}

	err = common.CheckExecutable(req.Path)
	if err == nil {
		err = common.ErrQueueClosed
	}
	res := process.Result{RequesterID: desc.ID, Outcome: process.OutcomeConfigError, Err: err}
	d.report(desc, req, res, done)
	return fmt.Errorf("%s: %w", desc.Title, err)
}

func (d *Dispatcher) report(desc action.Descriptor, req process.Request, res process.Result, done func(events.ActionPerformed)) {
	ev := Performed(desc, req, res, d.now())
	if !ev.OK {
		d.log.Warn("%s", ev.Description)
	}
	d.publisher.Performed(ev)
	if done != nil {
		done(ev)
	}
}

// Performed converts a result into the event the publisher fans out.
func Performed(desc action.Descriptor, req process.Request, res process.Result, at time.Time) events.ActionPerformed {
	return events.ActionPerformed{
		ID:          desc.ID,
		Title:       desc.Title,
		Text:        res.Text(),
		OK:          res.OK(),
		Description: res.Describe(desc.Title, req),
		ExitCode:    res.ExitCode,
		Outcome:     res.Outcome.String(),
		Elapsed:     res.Elapsed,
		At:          at,
	}
}

// startPause disconnects and schedules a reconnect. A later pause restarts
// the wait.
func (d *Dispatcher) startPause(desc action.Descriptor, done func(events.ActionPerformed)) error {
	d.cancelPause("pause restarted")

	if err := d.run(desc, done); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pauseGen++
	gen := d.pauseGen
	d.resumeTimer = time.AfterFunc(d.pause, func() { d.resume(gen) })
	d.resumeAt = d.now().Add(d.pause)
	d.log.Info("VPN paused for %v", d.pause)
	return nil
}

// resume reconnects after a pause unless the pause was cancelled.
func (d *Dispatcher) resume(gen uint64) {
	d.mu.Lock()
	if d.resumeTimer == nil || gen != d.pauseGen {
		d.mu.Unlock()
		return
	}
	d.resumeTimer = nil
	d.resumeAt = time.Time{}
	d.mu.Unlock()

	d.log.Info("Pause over, reconnecting")
	connect, err := d.catalog.Get(action.IDConnect)
	if err != nil {
		d.log.Error("cannot resume after pause: %v", err)
		return
	}
	if err := d.run(connect, nil); err != nil {
		d.log.Error("cannot resume after pause: %v", err)
	}
}

func (d *Dispatcher) cancelPause(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.resumeTimer == nil {
		return
	}
	d.resumeTimer.Stop()
	d.resumeTimer = nil
	d.pauseGen++
	d.resumeAt = time.Time{}
	d.log.Info("Pause cancelled: %s", reason)
}

// Paused reports whether a reconnect is scheduled and when.
func (d *Dispatcher) Paused() (bool, time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resumeTimer != nil, d.resumeAt
}

// Close cancels a pending reconnect.
func (d *Dispatcher) Close() {
	d.cancelPause("shutting down")
}
