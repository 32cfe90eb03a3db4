// Package process runs external command-line tools under a deadline.
//
// Every invocation gets its own timeout. A timeout is reported as ErrTimeout
// and the whole process tree is killed; the caller decides what to do next.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Sentinel errors for process execution.
var (
	ErrNotFound = errors.New("executable not found")
	ErrTimeout  = errors.New("process timed out")
)

// waitDelay bounds how long Wait blocks on I/O after the process was killed.
const waitDelay = 5 * time.Second

// maxStderrInError caps the stderr excerpt embedded in ExitError messages.
const maxStderrInError = 512

// Command describes one external invocation.
type Command struct {
	Name    string
	Args    []string
	Timeout time.Duration // zero = no per-command deadline
	Env     []string      // appended to the parent environment
	Dir     string
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Combined returns stdout followed by stderr.
func (r Result) Combined() string {
	return string(r.Stdout) + string(r.Stderr)
}

// ExitError reports a process that ran but exited with a non-zero status.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if len(msg) > maxStderrInError {
		msg = msg[:maxStderrInError] + "..."
	}
	if msg == "" {
		return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Name, e.Code, msg)
}

// Runner executes external commands. Tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct{}

// Compile-time interface check.
var _ Runner = ExecRunner{}

// Run starts the command, waits for it and captures both output streams.
// Output is returned even on failure so callers can parse partial reports
// (qpdf exits non-zero on warnings but still prints its findings).
func (ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.Name, c.Args...) // #nosec G204 -- tool paths come from the locator
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			KillProcessGroup(cmd.Process.Pid)
		}
		return nil
	}
	cmd.WaitDelay = waitDelay
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return res, fmt.Errorf("%w: %s", ErrNotFound, c.Name)
	}
	// Parent cancellation wins over the per-command deadline.
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%w: %s after %s", ErrTimeout, c.Name, c.Timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &ExitError{
			Name:   c.Name,
			Code:   exitErr.ExitCode(),
			Stderr: stderr.String(),
		}
	}
	return res, fmt.Errorf("running %s: %w", c.Name, err)
}
