package model

import "time"

// ScanStatus classifies the result of one Prowler invocation.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and counting. The String() method provides
// human-readable output when needed.
type ScanStatus int

const (
	// StatusPassed indicates the scan completed and every check passed
	// (Prowler exited with code 0).
	StatusPassed ScanStatus = iota

	// StatusFindings indicates the scan ran to completion but detected
	// failed checks. Prowler signals this with a dedicated exit code
	// (3 by default); it is a successful scan, not an operational failure.
	StatusFindings

	// StatusError indicates the scan did not complete normally: any exit
	// code other than 0 or the findings code, or a failure to launch the
	// Prowler process at all.
	StatusError

	// StatusSkipped indicates no scan was attempted for the account.
	// This happens in dry-run mode, when the account is marked skip in the
	// configuration file, or when the credential install failed and running
	// Prowler would have scanned a previous account's identity.
	StatusSkipped
)

// String returns a human-readable representation of the scan status.
func (s ScanStatus) String() string {
	switch s {
	case StatusPassed:
		return "PASSED"
	case StatusFindings:
		return "FINDINGS"
	case StatusError:
		return "ERROR"
	case StatusSkipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// ParseScanStatus converts a status name produced by String() back into a
// ScanStatus. Unknown names map to StatusError, the conservative reading
// for history rows written by a different version.
func ParseScanStatus(s string) ScanStatus {
	switch s {
	case "PASSED":
		return StatusPassed
	case "FINDINGS":
		return StatusFindings
	case "SKIPPED":
		return StatusSkipped
	default:
		return StatusError
	}
}

// ScanOutcome is the classified result of one account's scan.
// It is the unit stored in the history database and aggregated into the
// run summary. Prowler's own report files (OCSF JSON, CSV, HTML under
// ./output) are Prowler's concern; prowlersweep records only the outcome.
type ScanOutcome struct {
	// AccountName is the display name of the scanned account.
	AccountName string `json:"account_name"`

	// Region is the AWS region the scan was scoped to.
	Region string `json:"region"`

	// Status is the classified result of the invocation.
	Status ScanStatus `json:"-"`

	// StatusText is the human-readable status, included in JSON output.
	StatusText string `json:"status"`

	// ExitCode is Prowler's raw exit code. It is -1 when the process could
	// not be launched at all or when the scan was skipped.
	ExitCode int `json:"exit_code"`

	// StartedAt is when the account's processing began (credential install,
	// not process launch, so install time is included in Duration).
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall-clock time spent on the account.
	Duration time.Duration `json:"duration"`

	// Err describes what went wrong for StatusError and StatusSkipped
	// outcomes. Empty for passed scans and scans with findings.
	Err string `json:"error,omitempty"`

	// CallerARN is the identity resolved by STS verification, when the
	// --verify flag was used. Empty otherwise.
	CallerARN string `json:"caller_arn,omitempty"`
}

// NewScanOutcome creates a ScanOutcome for the given account and region
// with the start time set to now.
func NewScanOutcome(accountName, region string) *ScanOutcome {
	return &ScanOutcome{
		AccountName: accountName,
		Region:      region,
		ExitCode:    -1,
		StartedAt:   time.Now(),
	}
}

// Finish sets the status and derived fields and stamps the duration.
func (o *ScanOutcome) Finish(status ScanStatus, exitCode int) {
	o.Status = status
	o.StatusText = status.String()
	o.ExitCode = exitCode
	o.Duration = time.Since(o.StartedAt)
}

// Succeeded reports whether the scan itself ran to completion.
// Scans with findings count as succeeded; the checks failed, not the scan.
func (o *ScanOutcome) Succeeded() bool {
	return o.Status == StatusPassed || o.Status == StatusFindings
}
