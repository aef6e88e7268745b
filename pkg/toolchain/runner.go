package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ToolResult is what a subprocess left behind. ExitCode is -1 when the process never started
// or was killed.
type ToolResult struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// Succeeded only says the process exited zero. Callers still have to check that the
// artifacts they expected exist.
func (r ToolResult) Succeeded() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// Output is stdout and stderr joined, trimmed for logging.
func (r ToolResult) Output() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// Runner runs external tools.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (ToolResult, error)
}

// DefaultWaitDelay is how long Run waits for output pipes to close after the tool is killed.
const DefaultWaitDelay = 2 * time.Second

// ExecRunner runs tools with os/exec, bounding each invocation by Timeout. On timeout the
// tool's whole process group is killed.
type ExecRunner struct {
	Timeout   time.Duration
	WaitDelay time.Duration
}

func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout, WaitDelay: DefaultWaitDelay}
}

// Run returns an error when the tool fails to start, exits non-zero or runs past the
// timeout. The result is filled in either way.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (ToolResult, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay
	killProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()
	result := ToolResult{
		Command:  strings.TrimSpace(name + " " + strings.Join(args, " ")),
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		return result, fmt.Errorf("%s timed out after %s", name, r.Timeout)
	}

	if err != nil {
		return result, fmt.Errorf("%s failed (exit %d): %w", name, result.ExitCode, err)
	}

	return result, nil
}
