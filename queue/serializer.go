// Package queue serializes invocations of the wrapped tool so that at most
// one of its processes runs at any time.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/process"
)

// Runner executes one request to completion.
type Runner interface {
	Run(ctx context.Context, req process.Request) process.Result
}

// Task is one queued invocation plus the callback that receives its result.
type Task struct {
	Request process.Request
	// Done is called on the worker goroutine once the request finished or
	// was abandoned at shutdown. It may be nil.
	Done func(process.Result)
}

// Serializer is a single-lane FIFO in front of a Runner. Submissions from
// any goroutine are executed strictly one at a time in arrival order.
type Serializer struct {
	mu       sync.Mutex
	runner   Runner
	log      common.Logger
	pending  []Task
	busy     bool
	running  bool
	closed   bool
	signal   chan struct{}
	stopChan chan struct{}
	done     chan struct{}
	onDepth  func(depth int)
}

// NewSerializer creates a serializer. Call Start to begin processing.
func NewSerializer(runner Runner, log common.Logger) *Serializer {
	if log == nil {
		log = common.NopLogger{}
	}
	return &Serializer{
		runner: runner,
		log:    log,
		signal: make(chan struct{}, 1),
	}
}

// SetOnDepth sets a callback receiving the number of queued plus running
// tasks whenever it changes.
func (s *Serializer) SetOnDepth(callback func(depth int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDepth = callback
}

// Submit queues t. It returns false without side effects when the request
// has no runnable executable or the serializer has been stopped.
func (s *Serializer) Submit(t Task) bool {
	if err := common.CheckExecutable(t.Request.Path); err != nil {
		s.log.Debug("rejecting %s: %v", t.Request.RequesterID, err)
		return false
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.pending = append(s.pending, t)
	depth := s.depthLocked()
	onDepth := s.onDepth
	s.mu.Unlock()

	if onDepth != nil {
		onDepth(depth)
	}
	select {
	case s.signal <- struct{}{}:
	default:
	}
	return true
}

// SubmitWait queues req and blocks until it has run or ctx is done. The
// request keeps its place in the lane even if ctx ends first.
func (s *Serializer) SubmitWait(ctx context.Context, req process.Request) (process.Result, error) {
	if err := common.CheckExecutable(req.Path); err != nil {
		return process.Result{RequesterID: req.RequesterID, Outcome: process.OutcomeConfigError, Err: err}, err
	}

	ch := make(chan process.Result, 1)
	if !s.Submit(Task{Request: req, Done: func(res process.Result) { ch <- res }}) {
		return process.Result{}, common.ErrQueueClosed
	}

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		return process.Result{}, ctx.Err()
	}
}

// Len returns the number of queued plus running tasks.
func (s *Serializer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depthLocked()
}

func (s *Serializer) depthLocked() int {
	n := len(s.pending)
	if s.busy {
		n++
	}
	return n
}

// Start launches the worker. ctx is handed to every run; cancelling it
// kills the running process and stops the worker.
func (s *Serializer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running || s.closed {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.log.Debug("serializer started")
	go s.loop(ctx)
}

// Stop stops accepting work, waits for the running task to finish and
// abandons the rest. Abandoned tasks receive a result carrying
// ErrQueueClosed.
func (s *Serializer) Stop() {
	s.mu.Lock()
	s.closed = true
	wasRunning := s.running
	s.running = false
	if wasRunning {
		close(s.stopChan)
	}
	done := s.done
	s.mu.Unlock()

	if wasRunning {
		<-done
		s.log.Debug("serializer stopped")
		return
	}
	s.abandon()
}

func (s *Serializer) loop(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-s.stopChan:
			s.abandon()
			return
		case <-ctx.Done():
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
			s.abandon()
			return
		default:
		}

		task, ok := s.next()
		if !ok {
			select {
			case <-s.signal:
			case <-s.stopChan:
			case <-ctx.Done():
			}
			continue
		}

		res := s.runner.Run(ctx, task.Request)
		s.finish()
		if task.Done != nil {
			task.Done(res)
		}
	}
}

func (s *Serializer) next() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return Task{}, false
	}
	t := s.pending[0]
	s.pending[0] = Task{}
	s.pending = s.pending[1:]
	s.busy = true
	return t, true
}

func (s *Serializer) finish() {
	s.mu.Lock()
	s.busy = false
	depth := s.depthLocked()
	onDepth := s.onDepth
	s.mu.Unlock()

	if onDepth != nil {
		onDepth(depth)
	}
}

func (s *Serializer) abandon() {
	s.mu.Lock()
	tasks := s.pending
	s.pending = nil
	onDepth := s.onDepth
	s.mu.Unlock()

	if len(tasks) > 0 {
		s.log.Info("abandoning %d queued invocation(s)", len(tasks))
	}
	for _, t := range tasks {
		if t.Done != nil {
			t.Done(process.Result{
				RequesterID: t.Request.RequesterID,
				Outcome:     process.OutcomeStartFailure,
				Err:         fmt.Errorf("%w: %s not run", common.ErrQueueClosed, t.Request.CommandLine()),
			})
		}
	}
	if onDepth != nil && len(tasks) > 0 {
		onDepth(0)
	}
}
