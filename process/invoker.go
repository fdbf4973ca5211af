package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/yllada/vpn-tray/common"
)

// spinnerChars are the progress glyphs the wrapped tool prints before its
// real output when attached to a pipe.
const spinnerChars = "-\\|/ \r"

// drainGrace is how long a killed process gets to close its pipes.
const drainGrace = time.Second

// Hooks receive invocation lifecycle notifications. Both are optional and
// are called on the goroutine running Run.
type Hooks struct {
	// OnStarting is called right before the process is spawned.
	OnStarting func(req Request)
	// OnReady is called once with the final result, whatever the outcome.
	OnReady func(req Request, res Result)
}

// Invoker runs one external command at a time per call. It holds no state
// between calls and is safe for concurrent use; serialization is the
// caller's job.
type Invoker struct {
	log   common.Logger
	hooks Hooks
}

// NewInvoker creates an invoker.
func NewInvoker(log common.Logger, hooks Hooks) *Invoker {
	if log == nil {
		log = common.NopLogger{}
	}
	return &Invoker{log: log, hooks: hooks}
}

type chunk struct {
	stderr bool
	data   []byte
	eof    bool
}

// Run executes req and blocks until the process exits, stalls, or ctx is
// done. Each wait for output is bounded by req.Timeout; a process that keeps
// producing output is never cut off by it. ctx is the only hard deadline.
func (inv *Invoker) Run(ctx context.Context, req Request) (res Result) {
	started := time.Now()
	res = Result{RequesterID: req.RequesterID}
	defer func() {
		res.Elapsed = time.Since(started)
		if inv.hooks.OnReady != nil {
			inv.hooks.OnReady(req, res)
		}
	}()

	if err := common.CheckExecutable(req.Path); err != nil {
		inv.log.Warn("not running %q: %v", req.Path, err)
		res.Outcome = OutcomeConfigError
		res.Err = err
		return res
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = common.ActionTimeout
	}

	if inv.hooks.OnStarting != nil {
		inv.hooks.OnStarting(req)
	}

	cmd := exec.CommandContext(ctx, req.Path, req.Args...)
	cmd.WaitDelay = drainGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return startFailure(res, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return startFailure(res, err)
	}

	inv.log.Debug("starting %s", req.CommandLine())
	if err := cmd.Start(); err != nil {
		inv.log.Error("failed to start %s: %v", req.Path, err)
		return startFailure(res, err)
	}

	quit := make(chan struct{})
	chunks := make(chan chunk, 16)
	go pump(stdout, false, chunks, quit)
	go pump(stderr, true, chunks, quit)

	var outBuf, errBuf bytes.Buffer
	stallErr := inv.collect(ctx, chunks, timeout, &outBuf, &errBuf)
	if stallErr != nil {
		inv.log.Warn("%s: %v, killing pid %d", req.Path, stallErr, cmd.Process.Pid)
		_ = cmd.Process.Kill()
		drain(chunks, &outBuf, &errBuf)
	}
	close(quit)

	waitErr := cmd.Wait()

	res.Stdout = strings.TrimSpace(strings.TrimLeft(outBuf.String(), spinnerChars))
	res.Stderr = strings.TrimSpace(errBuf.String())
	res.ExitCode, res.ExitStatus = exitInfo(cmd, waitErr)

	if stallErr != nil {
		res.Outcome = OutcomeStalled
		res.Err = stallErr
	} else {
		res.Outcome = OutcomeCompleted
	}

	inv.log.Debug("%s finished: outcome=%s exit=%d status=%s",
		req.Path, res.Outcome, res.ExitCode, res.ExitStatus)
	return res
}

// collect reads chunks until both streams close. It returns a non-nil error
// when a wait slice expires or ctx is done before that.
func (inv *Invoker) collect(ctx context.Context, chunks <-chan chunk, timeout time.Duration, out, errOut *bytes.Buffer) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	open := 2
	for open > 0 {
		select {
		case c := <-chunks:
			if c.eof {
				open--
				continue
			}
			if c.stderr {
				errOut.Write(c.data)
			} else {
				out.Write(c.data)
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(timeout)
		case <-timer.C:
			return fmt.Errorf("%w (%s)", common.ErrStalled, timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// drain keeps whatever a killed process flushed before its pipes closed.
func drain(chunks <-chan chunk, out, errOut *bytes.Buffer) {
	grace := time.NewTimer(drainGrace)
	defer grace.Stop()

	open := 2
	for open > 0 {
		select {
		case c := <-chunks:
			switch {
			case c.eof:
				open--
			case c.stderr:
				errOut.Write(c.data)
			default:
				out.Write(c.data)
			}
		case <-grace.C:
			return
		}
	}
}

func pump(r io.Reader, isStderr bool, chunks chan<- chunk, quit <-chan struct{}) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case chunks <- chunk{stderr: isStderr, data: data}:
			case <-quit:
				return
			}
		}
		if err != nil {
			select {
			case chunks <- chunk{stderr: isStderr, eof: true}:
			case <-quit:
			}
			return
		}
	}
}

func startFailure(res Result, err error) Result {
	res.Outcome = OutcomeStartFailure
	res.Err = fmt.Errorf("%w: %v", common.ErrStartFailed, err)
	return res
}

// exitInfo extracts the exit code. A process terminated by a signal has no
// exit code and is reported as crashed with code -1.
func exitInfo(cmd *exec.Cmd, waitErr error) (int, ExitStatus) {
	state := cmd.ProcessState
	if state == nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			state = exitErr.ProcessState
		}
	}
	if state == nil {
		return -1, ExitCrashed
	}
	code := state.ExitCode()
	if code == -1 {
		return -1, ExitCrashed
	}
	return code, ExitNormal
}
