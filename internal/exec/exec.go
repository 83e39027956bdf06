// Package exec runs external tools such as git on behalf of covlens.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/zjy-dev/covlens/internal/logger"
)

// Result holds the outcome of a command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs external commands. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, dir, command string, args ...string) (*Result, error)
}

// CommandRunner runs commands on the host.
type CommandRunner struct{}

// NewCommandRunner creates a CommandRunner.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{}
}

// Run executes command in dir. A non-zero exit status is reported through
// Result.ExitCode, not as an error; errors mean the command could not run
// or ctx ended first.
func (r *CommandRunner) Run(ctx context.Context, dir, command string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running %s %s in %s", command, strings.Join(args, " "), dir)
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", command, err)
		}
	}

	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}, nil
}

// Output runs command and returns its stdout, failing on a non-zero exit.
func Output(ctx context.Context, r Runner, dir, command string, args ...string) (string, error) {
	res, err := r.Run(ctx, dir, command, args...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s exited with %d: %s", command, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, nil
}
