// Package shell is the process-invocation seam for the harness.
//
// Device management goes through external binaries (adb, emulator, xcrun).
// Runner abstracts those invocations so lifecycle logic can be exercised
// against scripted output without a device attached.
package shell

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes external commands.
type Runner interface {
	// Output runs a command to completion and returns its stdout.
	// A non-zero exit returns an error carrying stderr (or stdout when
	// stderr is empty).
	Output(name string, args ...string) (string, error)

	// Start launches a command detached and returns once the process has
	// been spawned. The harness never owns the process beyond this point;
	// readiness and shutdown always go through management commands.
	Start(name string, args ...string) error
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner that invokes real processes.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Output runs the command and captures stdout/stderr.
func (r *ExecRunner) Output(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = strings.TrimSpace(stdout.String())
		}
		return "", fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, errMsg)
	}

	return stdout.String(), nil
}

// Start launches the command without waiting for it.
func (r *ExecRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	// Reap the child when it eventually exits so it doesn't zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}
