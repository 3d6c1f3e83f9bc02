package prowler

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cloudaudit/prowlersweep/internal/model"
)

// writeStub writes an executable shell script that echoes its arguments and
// exits with the given code, standing in for the real Prowler binary.
func writeStub(t *testing.T, exitCode string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "prowler-stub")
	script := "#!/bin/sh\necho \"args: $@\"\nexit " + exitCode + "\n"
	if err := os.WriteFile(path, []byte(script), 0700); err != nil {
		t.Fatalf("failed to write stub: %v", err)
	}
	return path
}

// TestExecRunnerRun verifies argument construction, output streaming, and
// exit code propagation against a stub binary.
func TestExecRunnerRun(t *testing.T) {
	t.Parallel()

	t.Run("zero exit code", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		runner := NewExecRunner(writeStub(t, "0"), WithOutput(&stdout, &stderr))

		code, err := runner.Run(context.Background(), Invocation{
			Region:      "us-east-1",
			AccountName: "acme-prod",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if code != 0 {
			t.Errorf("expected exit code 0, got %d", code)
		}
		if want := "args: aws -f us-east-1 -F acme-prod"; !strings.Contains(stdout.String(), want) {
			t.Errorf("expected %q in stdout, got %q", want, stdout.String())
		}
	})

	t.Run("findings exit code is returned not errored", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer
		runner := NewExecRunner(writeStub(t, "3"), WithOutput(&stdout, &stdout))

		code, err := runner.Run(context.Background(), Invocation{Region: "eu-west-1", AccountName: "beta"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if code != 3 {
			t.Errorf("expected exit code 3, got %d", code)
		}
	})

	t.Run("extra args are appended in order", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer
		runner := NewExecRunner(writeStub(t, "0"),
			WithOutput(&stdout, &stdout),
			WithExtraArgs([]string{"--no-banner"}),
		)

		_, err := runner.Run(context.Background(), Invocation{
			Region:      "us-east-1",
			AccountName: "acme",
			ExtraArgs:   []string{"--severity", "critical"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "args: aws -f us-east-1 -F acme --no-banner --severity critical"
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("expected %q in stdout, got %q", want, stdout.String())
		}
	})

	t.Run("missing binary returns error with hint", func(t *testing.T) {
		t.Parallel()

		runner := NewExecRunner("prowlersweep-no-such-binary",
			WithOutput(new(bytes.Buffer), new(bytes.Buffer)))

		code, err := runner.Run(context.Background(), Invocation{Region: "us-east-1", AccountName: "acme"})
		if err == nil {
			t.Fatal("expected error for missing binary")
		}
		if code != -1 {
			t.Errorf("expected exit code -1, got %d", code)
		}
		if !strings.Contains(err.Error(), "--prowler") {
			t.Errorf("expected hint about --prowler flag, got %v", err)
		}
	})

	t.Run("cancelled context interrupts the scan", func(t *testing.T) {
		t.Parallel()

		if runtime.GOOS == "windows" {
			t.Skip("stub scripts require a POSIX shell")
		}

		// A stub that sleeps long enough to be killed by cancellation.
		path := filepath.Join(t.TempDir(), "prowler-stub")
		if err := os.WriteFile(path, []byte("#!/bin/sh\nsleep 30\n"), 0700); err != nil {
			t.Fatalf("failed to write stub: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		go cancel()

		runner := NewExecRunner(path, WithOutput(new(bytes.Buffer), new(bytes.Buffer)))
		if _, err := runner.Run(ctx, Invocation{Region: "us-east-1", AccountName: "acme"}); err == nil {
			t.Error("expected error for cancelled scan")
		}
	})
}

// TestClassify verifies the exit-code classification contract:
// 0 is success, the findings code is a warning-level completion, and
// everything else is an error. The run continues in all three cases,
// which is the caller's concern; Classify only names the outcome.
func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		exitCode     int
		findingsCode int
		want         model.ScanStatus
	}{
		{"zero is passed", 0, 3, model.StatusPassed},
		{"findings code is findings", 3, 3, model.StatusFindings},
		{"other non-zero is error", 1, 3, model.StatusError},
		{"unexpected large code is error", 137, 3, model.StatusError},
		{"launch failure marker is error", -1, 3, model.StatusError},
		{"custom findings code is honored", 5, 5, model.StatusFindings},
		{"default findings code not special when overridden", 3, 5, model.StatusError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.exitCode, tt.findingsCode); got != tt.want {
				t.Errorf("Classify(%d, %d) = %v, want %v", tt.exitCode, tt.findingsCode, got, tt.want)
			}
		})
	}
}
