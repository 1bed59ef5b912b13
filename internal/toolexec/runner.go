// Package toolexec runs the external command-line tools (ffmpeg, fpcalc,
// ffprobe) the pipeline depends on, behind a narrow interface so tests can
// substitute deterministic fakes.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/franz/tunetrack/internal/util"
)

// Result holds the captured output of one tool invocation
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes an external tool and waits for it to exit.
//
// Implementations must return an error wrapping util.ErrToolMissing when the
// binary cannot be started, util.ErrTimeout when the invocation exceeded its
// bound, and util.ErrToolFailed (together with the captured Result) on a
// non-zero exit.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// ExecRunner runs tools as child processes
type ExecRunner struct {
	// Timeout bounds each invocation when ctx carries no deadline of its own.
	// Zero means util.DefaultToolTimeout.
	Timeout time.Duration
}

// NewExecRunner creates an ExecRunner with the given per-invocation timeout
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes name with args and captures stdout and stderr
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		timeout := r.Timeout
		if timeout <= 0 {
			timeout = util.DefaultToolTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// ffmpeg may leave grandchildren holding the pipes after a kill
	cmd.WaitDelay = 2 * time.Second

	util.DebugLog("exec: %s %v", name, args)

	err := cmd.Run()
	res := &Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		return res, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%s: %w", name, util.ErrTimeout)
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, fmt.Errorf("%s exited with status %d: %w", name, res.ExitCode, util.ErrToolFailed)
	}

	// Anything else means the process never started: not on PATH, not
	// executable, or removed underneath us
	return res, fmt.Errorf("%s: %v: %w", name, err, util.ErrToolMissing)
}

// LookPath reports whether name resolves to an executable
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, util.ErrToolMissing)
	}
	return path, nil
}
