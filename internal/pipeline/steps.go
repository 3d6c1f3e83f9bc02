package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudaudit/prowlersweep/internal/credentials"
	"github.com/cloudaudit/prowlersweep/internal/identity"
	"github.com/cloudaudit/prowlersweep/internal/log"
	"github.com/cloudaudit/prowlersweep/internal/model"
	"github.com/cloudaudit/prowlersweep/internal/prowler"
)

// InstallCredentialsStep overwrites the shared credentials file with the
// account's keys. This must be the first step: everything downstream
// (verification, the scan itself) observes whatever this step installed.
//
// An install failure is the one step error that aborts the account: running
// Prowler after a failed install would scan whichever account's credentials
// happen to still be in the file.
type InstallCredentialsStep struct {
	// store is the credential slot being written.
	store credentials.Store

	// logger for structured logging.
	logger *slog.Logger
}

// NewInstallCredentialsStep creates the credential install step.
func NewInstallCredentialsStep(store credentials.Store, logger *slog.Logger) *InstallCredentialsStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &InstallCredentialsStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *InstallCredentialsStep) Name() string {
	return "install_credentials"
}

// Do installs the account's credentials and logs the file back for
// operator verification.
func (s *InstallCredentialsStep) Do(_ context.Context, scan *AccountScan) error {
	record := scan.Record

	s.logger.Debug("overwriting default profile credentials",
		"account", record.Name,
		"path", s.store.Path(),
	)

	if err := s.store.Install(record.AccessKeyID, record.SecretAccessKey); err != nil {
		scan.Outcome.Finish(model.StatusSkipped, -1)
		scan.Outcome.Err = err.Error()
		return fmt.Errorf("credential install failed for account %s: %w", record.Name, err)
	}

	s.logger.Info("default profile credentials updated",
		"account", record.Name,
		"access_key_id", record.AccessKeyID,
		"path", s.store.Path(),
	)

	// Read-after-write is verification only, never decision logic: a read
	// failure here is logged and the scan proceeds on the write's success.
	content, err := s.store.Read()
	if err != nil {
		s.logger.Error("unable to read back credentials file", "error", err)
		return nil
	}

	// The raw file contains the secret key; mask it before logging so the
	// verification output stays shareable.
	masked := strings.ReplaceAll(content, record.SecretAccessKey, log.MaskValue)
	s.logger.Debug("current credentials file content", "contents", masked)

	return nil
}

// VerifyIdentityStep resolves the installed credentials against STS.
// Purely advisory: a verification failure is logged as a warning and the
// scan still runs, since STS needs network access that the operator may
// not want to grant prowlersweep itself.
type VerifyIdentityStep struct {
	// verifier resolves the caller identity.
	verifier identity.Verifier

	// logger for structured logging.
	logger *slog.Logger
}

// NewVerifyIdentityStep creates the identity verification step.
func NewVerifyIdentityStep(verifier identity.Verifier, logger *slog.Logger) *VerifyIdentityStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyIdentityStep{verifier: verifier, logger: logger}
}

// Name returns the step name.
func (s *VerifyIdentityStep) Name() string {
	return "verify_identity"
}

// Do asks STS who the installed credentials belong to.
func (s *VerifyIdentityStep) Do(ctx context.Context, scan *AccountScan) error {
	caller, err := s.verifier.Verify(ctx)
	if err != nil {
		s.logger.Warn("identity verification failed, proceeding with scan",
			"account", scan.Record.Name,
			"error", err,
		)
		return nil
	}

	scan.Caller = caller
	scan.Outcome.CallerARN = caller.ARN

	s.logger.Info("credentials verified",
		"account", scan.Record.Name,
		"aws_account_id", caller.AccountID,
		"arn", caller.ARN,
	)
	return nil
}

// RunScanStep launches Prowler and classifies its exit code.
// A failed scan never returns an error: the outcome records what happened
// and the run moves on to the next account regardless.
type RunScanStep struct {
	// runner launches the Prowler subprocess.
	runner prowler.Runner

	// findingsCode is the exit code classified as "completed with findings".
	findingsCode int

	// logger for structured logging.
	logger *slog.Logger
}

// NewRunScanStep creates the scan execution step.
func NewRunScanStep(runner prowler.Runner, findingsCode int, logger *slog.Logger) *RunScanStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunScanStep{runner: runner, findingsCode: findingsCode, logger: logger}
}

// Name returns the step name.
func (s *RunScanStep) Name() string {
	return "run_scan"
}

// Do runs one Prowler scan and records the classified outcome.
func (s *RunScanStep) Do(ctx context.Context, scan *AccountScan) error {
	outcome := scan.Outcome

	s.logger.Info("starting prowler scan",
		"account", scan.Record.Name,
		"region", outcome.Region,
	)

	code, err := s.runner.Run(ctx, prowler.Invocation{
		Region:      outcome.Region,
		AccountName: scan.Record.Name,
		ExtraArgs:   scan.ExtraArgs,
	})
	if err != nil {
		outcome.Finish(model.StatusError, code)
		outcome.Err = err.Error()
		s.logger.Error("prowler scan could not run",
			"account", scan.Record.Name,
			"error", err,
		)
		return nil
	}

	status := prowler.Classify(code, s.findingsCode)
	outcome.Finish(status, code)

	switch status {
	case model.StatusPassed:
		s.logger.Info("prowler scan completed, all checks passed",
			"account", scan.Record.Name,
		)
	case model.StatusFindings:
		s.logger.Warn("prowler scan completed with findings",
			"account", scan.Record.Name,
			"exit_code", code,
		)
	default:
		s.logger.Error("prowler scan failed",
			"account", scan.Record.Name,
			"exit_code", code,
		)
	}

	return nil
}

// OutcomeRecorder persists one scan outcome. Implemented by database.Run;
// declared here so the step can be tested with an in-memory fake and so
// this package does not depend on the database package.
type OutcomeRecorder interface {
	SaveOutcome(ctx context.Context, outcome *model.ScanOutcome) error
}

// SaveOutcomeStep records the account's outcome in the history database.
// Persistence failures are logged and swallowed: history is a convenience,
// not a reason to interrupt scanning.
type SaveOutcomeStep struct {
	// recorder persists outcomes.
	recorder OutcomeRecorder

	// logger for structured logging.
	logger *slog.Logger
}

// NewSaveOutcomeStep creates the outcome persistence step.
func NewSaveOutcomeStep(recorder OutcomeRecorder, logger *slog.Logger) *SaveOutcomeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveOutcomeStep{recorder: recorder, logger: logger}
}

// Name returns the step name.
func (s *SaveOutcomeStep) Name() string {
	return "save_outcome"
}

// Do persists the outcome.
func (s *SaveOutcomeStep) Do(ctx context.Context, scan *AccountScan) error {
	if err := s.recorder.SaveOutcome(ctx, scan.Outcome); err != nil {
		s.logger.Error("failed to save scan outcome",
			"account", scan.Record.Name,
			"error", err,
		)
	}
	return nil
}

// ScanPipeline assembles the standard per-account pipeline:
// install, optionally verify, scan, optionally record.
// Pass a nil verifier or recorder to omit the corresponding step.
func ScanPipeline(store credentials.Store, runner prowler.Runner, verifier identity.Verifier, recorder OutcomeRecorder, findingsCode int, opts ...Option) *Pipeline {
	p := New(opts...)

	p.AddSteps(NewInstallCredentialsStep(store, p.logger))
	if verifier != nil {
		p.AddSteps(NewVerifyIdentityStep(verifier, p.logger))
	}
	p.AddSteps(NewRunScanStep(runner, findingsCode, p.logger))
	if recorder != nil {
		p.AddSteps(NewSaveOutcomeStep(recorder, p.logger))
	}

	return p
}
