// Package nm drives NetworkManager through its nmcli command line client.
//
// Client implements the adapter, connectivity and connection capabilities of
// the reconnection engine; Monitor turns "nmcli monitor" output into status
// notifications. All commands run with terse (-t) output so they can be
// parsed reliably.
package nm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrNotRunning indicates NetworkManager is not running (nmcli exit code 8).
var ErrNotRunning = errors.New("nm: NetworkManager is not running")

// Exit codes documented in nmcli(1).
const (
	exitTimeout            = 3
	exitActivationFailed   = 4
	exitNotRunning         = 8
	exitConnectionNotFound = 10
)

// CommandError reports an nmcli invocation that exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("nmcli %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Runner executes nmcli.
type Runner interface {
	// Output runs nmcli to completion and returns its stdout. A non-zero
	// exit is reported as *CommandError.
	Output(ctx context.Context, args ...string) ([]byte, error)

	// Feed is Output with input written to nmcli's stdin. Secrets go
	// through here so they never appear on the command line.
	Feed(ctx context.Context, input string, args ...string) ([]byte, error)

	// Stream starts a long-running nmcli and returns its stdout.
	Stream(ctx context.Context, args ...string) (Process, error)
}

// Process is a started nmcli whose output is read until EOF.
type Process interface {
	io.Reader

	// Wait releases the process once its output is drained.
	Wait() error
}

// ExecRunner runs the nmcli binary.
type ExecRunner struct {
	// Binary defaults to "nmcli" resolved through PATH.
	Binary string
}

func (r ExecRunner) binary() string {
	if r.Binary == "" {
		return "nmcli"
	}
	return r.Binary
}

// Output implements Runner.
func (r ExecRunner) Output(ctx context.Context, args ...string) ([]byte, error) {
	return r.run(ctx, nil, args)
}

// Feed implements Runner.
func (r ExecRunner) Feed(ctx context.Context, input string, args ...string) ([]byte, error) {
	return r.run(ctx, strings.NewReader(input), args)
}

func (r ExecRunner) run(ctx context.Context, stdin io.Reader, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.binary(), args...)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return out, &CommandError{
				Args:     args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return out, fmt.Errorf("run nmcli: %w", err)
	}
	return out, nil
}

// Stream implements Runner.
func (r ExecRunner) Stream(ctx context.Context, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, r.binary(), args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("pipe nmcli output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start nmcli: %w", err)
	}
	return &execProcess{Reader: stdout, cmd: cmd}, nil
}

type execProcess struct {
	io.Reader
	cmd *exec.Cmd
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}
