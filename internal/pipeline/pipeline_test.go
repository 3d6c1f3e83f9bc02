package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudaudit/prowlersweep/internal/model"
)

// recordingStep appends its name to a shared trace when executed, and can
// be configured to fail.
type recordingStep struct {
	name  string
	err   error
	trace *[]string
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Do(_ context.Context, _ *AccountScan) error {
	*s.trace = append(*s.trace, s.name)
	return s.err
}

// newTestScan returns a minimal AccountScan for pipeline tests.
func newTestScan() *AccountScan {
	return NewAccountScan(&model.AccountRecord{
		Name:            "acme",
		AccessKeyID:     "AKIA1",
		SecretAccessKey: "secret1",
	}, "us-east-1")
}

// TestPipelineExecute verifies step ordering and error short-circuiting.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("steps run in order", func(t *testing.T) {
		t.Parallel()

		var trace []string
		p := New()
		p.AddSteps(
			&recordingStep{name: "first", trace: &trace},
			&recordingStep{name: "second", trace: &trace},
			&recordingStep{name: "third", trace: &trace},
		)

		if err := p.Execute(context.Background(), newTestScan()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(trace) != 3 || trace[0] != "first" || trace[1] != "second" || trace[2] != "third" {
			t.Errorf("unexpected execution order: %v", trace)
		}
	})

	t.Run("step error aborts remaining steps", func(t *testing.T) {
		t.Parallel()

		var trace []string
		stepErr := errors.New("install failed")
		p := New()
		p.AddSteps(
			&recordingStep{name: "install", err: stepErr, trace: &trace},
			&recordingStep{name: "scan", trace: &trace},
		)

		err := p.Execute(context.Background(), newTestScan())
		if !errors.Is(err, stepErr) {
			t.Errorf("expected step error, got %v", err)
		}
		if len(trace) != 1 {
			t.Errorf("expected only the failing step to run, got %v", trace)
		}
	})

	t.Run("cancelled context stops before next step", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var trace []string
		p := New()
		p.AddSteps(&recordingStep{name: "never", trace: &trace})

		if err := p.Execute(ctx, newTestScan()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(trace) != 0 {
			t.Errorf("expected no steps to run, got %v", trace)
		}
	})
}

// TestPipelineStepNames verifies step introspection.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	var trace []string
	p := New()
	p.AddSteps(
		&recordingStep{name: "a", trace: &trace},
		&recordingStep{name: "b", trace: &trace},
	)

	if got := p.StepCount(); got != 2 {
		t.Errorf("StepCount() = %d, want 2", got)
	}
	names := p.StepNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("unexpected step names: %v", names)
	}
}
