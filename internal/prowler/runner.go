package prowler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/cloudaudit/prowlersweep/internal/model"
)

// Invocation describes one Prowler run.
type Invocation struct {
	// Region is passed to Prowler's -f flag, uninterpreted.
	Region string

	// AccountName is passed to Prowler's -F flag so the report files under
	// ./output are named after the account rather than the account number.
	AccountName string

	// ExtraArgs are per-invocation arguments appended after the runner's
	// global extra arguments.
	ExtraArgs []string
}

// Runner launches one scan against the currently installed default
// credentials and reports the subprocess exit code.
//
// Design decision: Runner is an interface so the scan pipeline can be tested
// with controlled exit codes instead of spawning real processes. The exit
// code is data, not an error: Run returns a non-nil error only when the
// process could not be launched or was killed before exiting.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (int, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	// binary is the Prowler executable name or path.
	binary string

	// extraArgs are appended to every invocation.
	extraArgs []string

	// stdout and stderr receive the subprocess output streams.
	stdout io.Writer
	stderr io.Writer
}

// ExecRunnerOption configures an ExecRunner.
type ExecRunnerOption func(*ExecRunner)

// WithExtraArgs sets arguments appended to every Prowler invocation.
func WithExtraArgs(args []string) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.extraArgs = args
	}
}

// WithOutput redirects the subprocess output streams.
// Used in tests; the default is the process's own stdout and stderr, which
// is what gives the live-streaming behavior.
func WithOutput(stdout, stderr io.Writer) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewExecRunner creates an ExecRunner for the given Prowler binary.
func NewExecRunner(binary string, opts ...ExecRunnerOption) *ExecRunner {
	r := &ExecRunner{
		binary: binary,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run launches "prowler aws -f <region> -F <account> [extra args...]" and
// blocks until the process exits. Blocking is deliberate: the next account's
// credential install must not begin while a scan that reads the shared
// credentials file is still running.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (int, error) {
	args := []string{"aws", "-f", inv.Region, "-F", inv.AccountName}
	args = append(args, r.extraArgs...)
	args = append(args, inv.ExtraArgs...)

	cmd := exec.CommandContext(ctx, r.binary, args...) //nolint:gosec // Binary and args are operator-configured
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The process ran and exited non-zero; if the context was
		// cancelled the exit is a kill, not a scan result.
		if ctx.Err() != nil {
			return -1, fmt.Errorf("scan interrupted: %w", ctx.Err())
		}
		return exitErr.ExitCode(), nil
	}

	if errors.Is(err, exec.ErrNotFound) {
		return -1, fmt.Errorf("prowler binary %q not found in PATH (install prowler or use --prowler): %w", r.binary, err)
	}

	return -1, fmt.Errorf("failed to run prowler: %w", err)
}

// Classify maps a Prowler exit code to a scan status.
// findingsCode is the tool's "completed with failed checks" exit code
// (3 for current Prowler releases).
func Classify(exitCode, findingsCode int) model.ScanStatus {
	switch exitCode {
	case 0:
		return model.StatusPassed
	case findingsCode:
		return model.StatusFindings
	default:
		return model.StatusError
	}
}
