// Package runner executes external commands with an explicit deadline and a
// typed outcome, so no stage of the installer can block indefinitely on a
// subprocess.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"mbsetup/internal/logger"
)

// Result captures one subprocess invocation.
type Result struct {
	Command  string // executable plus arguments, space-joined
	ExitCode int
	Output   string // combined stdout and stderr
	TimedOut bool
}

// CommandError wraps a failed invocation together with its Result so callers
// can propagate the subprocess exit code.
type CommandError struct {
	Result Result
	Err    error
}

func (e *CommandError) Error() string {
	if e.Result.TimedOut {
		return fmt.Sprintf("%s timed out", e.Result.Command)
	}
	out := strings.TrimSpace(e.Result.Output)
	if out == "" {
		return fmt.Sprintf("%s failed: %v", e.Result.Command, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Result.Command, out)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Runner runs one external command to completion.
type Runner interface {
	// Run executes name with args under the given timeout. A zero timeout
	// means no deadline beyond ctx. The Result is populated on failure too.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error)
}

// ExecRunner is the real Runner backed by os/exec.
type ExecRunner struct {
	// Dir is the working directory for every command; empty means inherit.
	Dir string
}

func (r ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	logger.Debug("running command", "command", name, "args", strings.Join(args, " "))
	output, err := cmd.CombinedOutput()

	result := Result{
		Command: strings.Join(append([]string{name}, args...), " "),
		Output:  string(output),
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, &CommandError{Result: result, Err: context.DeadlineExceeded}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		return result, &CommandError{Result: result, Err: err}
	}

	return result, nil
}
