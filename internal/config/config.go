package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultProwlerBinary is the Prowler executable looked up on PATH.
	// Operators with multiple Prowler versions can point --prowler at a
	// specific installation.
	DefaultProwlerBinary = "prowler"

	// DefaultFindingsExitCode is the exit code Prowler uses to signal
	// "scan completed, failed checks present". Prowler returns 3 in this
	// case; it is distinct from operational failures and is classified as
	// a warning, not an error. Configurable because Prowler's exit-code
	// contract has shifted between major versions.
	DefaultFindingsExitCode = 3

	// AppName is the application name used for XDG directory paths.
	AppName = "prowlersweep"
)

// Config holds all configuration options for a prowlersweep run.
// This struct is populated from CLI flags and the optional YAML config file
// and passed through the application via dependency injection rather than
// global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ProwlerConfig, ReportConfig). The number of options is manageable,
// and nesting would add complexity without significant benefit.
type Config struct {
	// AccountsFile is the path to the CSV file listing account credentials.
	// Required columns: "Account Name", "Access Key ID", "Secret Access Key".
	AccountsFile string

	// Region is the AWS region every scan in the run is scoped to.
	// It is passed to Prowler verbatim (-f flag); prowlersweep does not
	// validate region names.
	Region string

	// ProwlerBinary is the Prowler executable name or path.
	ProwlerBinary string

	// ProwlerExtraArgs are additional arguments appended to every Prowler
	// invocation after the fixed "aws -f <region> -F <account>" arguments.
	ProwlerExtraArgs []string

	// FindingsExitCode is the Prowler exit code meaning "completed with
	// failed checks". See DefaultFindingsExitCode.
	FindingsExitCode int

	// CredentialsFile is the AWS credentials file to overwrite per account.
	// Empty means the standard location (~/.aws/credentials).
	//
	// Every install is a full overwrite of this file with a single
	// [default] profile. Any other profiles an operator keeps there are
	// lost. This destructive behavior is deliberate (one active identity
	// at a time) but worth knowing about before pointing prowlersweep at
	// a credentials file you care about.
	CredentialsFile string

	// Verify enables an STS GetCallerIdentity call after each credential
	// install, confirming the keys resolve to a real identity before the
	// (much slower) Prowler run starts.
	Verify bool

	// DryRun parses and validates the accounts file without writing
	// credentials or launching Prowler.
	DryRun bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// ConfigFilePath is the path to the YAML configuration file.
	// If empty, the tool searches for .prowlersweep in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// Accounts holds per-account configuration loaded from the config file.
	Accounts *File

	// JSONReport enables JSON run-summary output instead of the
	// human-readable format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown run-summary output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the run summary.
	// When set, the summary is written to this file instead of stdout.
	ReportFile string

	// SaveToDB indicates whether to record scan outcomes in the history
	// database. Disabled by --no-save.
	SaveToDB bool

	// DBDir is the directory path for the SQLite history database.
	// Defaults to the XDG data directory.
	DBDir string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because several defaults are non-zero (binary name, findings
// exit code). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		ProwlerBinary:    DefaultProwlerBinary,
		FindingsExitCode: DefaultFindingsExitCode,
		SaveToDB:         true,
	}
}

// DefaultCredentialsFile returns the standard AWS credentials file path
// (~/.aws/credentials). It returns an error if the home directory cannot
// be determined.
func DefaultCredentialsFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".aws", "credentials"), nil
}

// XDGDataDir returns the XDG data directory for prowlersweep.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/prowlersweep
// On macOS: ~/Library/Application Support/prowlersweep
// On Windows: %LOCALAPPDATA%\prowlersweep
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for prowlersweep.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific sentinel error describing what is invalid.
//
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.AccountsFile == "" {
		return ErrNoAccountsFile
	}

	if c.Region == "" {
		return ErrNoRegion
	}

	if c.ProwlerBinary == "" {
		return ErrNoProwlerBinary
	}

	// The findings code must be a real, non-success exit code.
	if c.FindingsExitCode <= 0 || c.FindingsExitCode > 255 {
		return ErrInvalidFindingsExitCode
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
