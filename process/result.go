// Package process runs a single external command and captures its output.
package process

import (
	"fmt"
	"strings"
	"time"
)

// Outcome tells callers whether a process ran at all and how it ended.
type Outcome int

const (
	// OutcomeCompleted means the process ran and exited on its own.
	OutcomeCompleted Outcome = iota
	// OutcomeConfigError means preconditions failed and nothing was spawned.
	OutcomeConfigError
	// OutcomeStartFailure means the process could not be launched.
	OutcomeStartFailure
	// OutcomeStalled means output stopped arriving within the timeout slice
	// and the process was killed. Output read so far is kept.
	OutcomeStalled
)

// String returns a short label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeConfigError:
		return "config_error"
	case OutcomeStartFailure:
		return "start_failure"
	case OutcomeStalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// Ran reports whether a process was actually spawned.
func (o Outcome) Ran() bool {
	return o == OutcomeCompleted || o == OutcomeStalled
}

// ExitStatus distinguishes a normal exit from a crash (killed by a signal).
type ExitStatus int

const (
	ExitNormal ExitStatus = iota
	ExitCrashed
)

// String returns the exit status name.
func (s ExitStatus) String() string {
	if s == ExitCrashed {
		return "crashed"
	}
	return "normal"
}

// Request describes one invocation.
type Request struct {
	// RequesterID identifies the action the result belongs to.
	RequesterID string
	Path        string
	Args        []string
	// Timeout bounds each wait for output, not the whole run.
	Timeout time.Duration
	// Display, when set, is shown instead of the real command line so that
	// resolved secrets stay out of logs and transcripts.
	Display string
}

// CommandLine renders the request for logs and transcripts.
func (r Request) CommandLine() string {
	if r.Display != "" {
		return r.Display
	}
	if len(r.Args) == 0 {
		return r.Path
	}
	return r.Path + " " + strings.Join(r.Args, " ")
}

// Result is the outcome of one invocation. Failures are data, never panics.
type Result struct {
	RequesterID string
	Outcome     Outcome
	Stdout      string
	Stderr      string
	ExitCode    int
	ExitStatus  ExitStatus
	Elapsed     time.Duration
	// Err explains ConfigError, StartFailure and Stalled outcomes.
	Err error
}

// OK reports a clean run: the process ran to completion, exited 0 normally
// and wrote nothing to stderr.
func (r Result) OK() bool {
	return r.Outcome == OutcomeCompleted &&
		r.ExitCode == 0 &&
		r.ExitStatus == ExitNormal &&
		r.Stderr == ""
}

// Text is what a transcript shows: stdout, then stderr, then the local
// error for runs that never produced output.
func (r Result) Text() string {
	parts := make([]string, 0, 3)
	if r.Stdout != "" {
		parts = append(parts, r.Stdout)
	}
	if r.Stderr != "" {
		parts = append(parts, r.Stderr)
	}
	if r.Err != nil {
		parts = append(parts, r.Err.Error())
	}
	return strings.Join(parts, "\n")
}

// Describe formats the one-line summary shown next to a transcript entry.
func (r Result) Describe(title string, req Request) string {
	switch r.Outcome {
	case OutcomeConfigError, OutcomeStartFailure:
		return fmt.Sprintf("%s (%s): %s", title, req.CommandLine(), r.Outcome)
	default:
		return fmt.Sprintf("%s (%s): exit %d, %s, %s",
			title, req.CommandLine(), r.ExitCode, r.ExitStatus, r.Elapsed.Round(time.Millisecond))
	}
}
