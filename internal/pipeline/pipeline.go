package pipeline

import (
	"context"
	"log/slog"

	"github.com/cloudaudit/prowlersweep/internal/identity"
	"github.com/cloudaudit/prowlersweep/internal/model"
)

// AccountScan is the mutable state threaded through the steps for one
// account. It is created fresh per account and discarded after the outcome
// is recorded; no state survives to the next account except the credentials
// file on disk, which the next install fully overwrites.
type AccountScan struct {
	// Record is the account being processed.
	Record *model.AccountRecord

	// Outcome accumulates the classified result as steps execute.
	Outcome *model.ScanOutcome

	// Caller is the identity resolved by the verify step, if it ran.
	Caller *identity.Caller

	// ExtraArgs are per-account Prowler arguments from the config file.
	ExtraArgs []string
}

// NewAccountScan creates the scan state for one account and region.
func NewAccountScan(record *model.AccountRecord, region string) *AccountScan {
	return &AccountScan{
		Record:  record,
		Outcome: model.NewScanOutcome(record.Name, region),
	}
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the accumulated scan state.
//
// Design decision: We use an interface rather than function types because
// it allows steps to carry configuration state and provides a Name() method
// for logging.
type Step interface {
	// Do executes the pipeline step. Returning an error aborts the
	// remaining steps for this account; errors that should not block the
	// account's scan (read-back failures, verification failures) must be
	// logged and swallowed by the step itself.
	Do(ctx context.Context, scan *AccountScan) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes the steps for one account in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddSteps after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddSteps appends steps to the pipeline in execution order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence for one account.
//
// Cancellation is checked between steps, not during: a step that blocks
// (notably the Prowler subprocess) handles its own interruption. The first
// step error stops the remaining steps and is returned; the caller decides
// what that means for the run (for prowlersweep: skip this account's scan,
// continue with the next account).
func (p *Pipeline) Execute(ctx context.Context, scan *AccountScan) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("account processing cancelled",
				"step", step.Name(),
				"account", scan.Record.Name,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"account", scan.Record.Name,
		)

		if err := step.Do(ctx, scan); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"account", scan.Record.Name,
				"error", err,
			)
			return err
		}
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
