package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoAccountsFile is returned when no accounts CSV file is specified.
	ErrNoAccountsFile = errors.New("no accounts file specified")

	// ErrNoRegion is returned when no AWS region is specified.
	ErrNoRegion = errors.New("no AWS region specified")

	// ErrNoProwlerBinary is returned when the Prowler binary name is empty.
	ErrNoProwlerBinary = errors.New("prowler binary must not be empty")

	// ErrInvalidFindingsExitCode is returned when the findings exit code is
	// outside the 1-255 range. Exit code 0 always means success and cannot
	// double as the findings code.
	ErrInvalidFindingsExitCode = errors.New("invalid findings exit code: must be between 1 and 255")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
