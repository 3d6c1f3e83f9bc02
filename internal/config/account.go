package config

// AccountConfig holds per-account overrides for a single account name.
// Account names are matched against the "Account Name" column of the CSV.
type AccountConfig struct {
	// ExtraArgs are additional Prowler arguments for this account only,
	// appended after the global extra arguments.
	ExtraArgs []string `yaml:"extraArgs,omitempty"`

	// Skip excludes the account from scanning without removing its row
	// from the CSV. Skipped accounts appear in the run summary as SKIPPED.
	Skip bool `yaml:"skip,omitempty"`
}

// Defaults holds settings applied to every account unless overridden.
type Defaults struct {
	// Prowler overrides the Prowler binary name or path.
	Prowler string `yaml:"prowler,omitempty"`

	// ExtraArgs are additional Prowler arguments for every invocation.
	ExtraArgs []string `yaml:"extraArgs,omitempty"`

	// FindingsExitCode overrides the exit code treated as "completed with
	// findings". Zero means use the built-in default.
	FindingsExitCode int `yaml:"findingsExitCode,omitempty"`
}

// File represents the structure of the .prowlersweep configuration file.
type File struct {
	// Defaults contains settings applied to all accounts.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Accounts maps account names to their per-account overrides.
	Accounts map[string]AccountConfig `yaml:"accounts,omitempty"`
}

// GetAccountConfig returns the configuration for a specific account name.
// Accounts without an entry get a zero-value config.
func (cf *File) GetAccountConfig(name string) AccountConfig {
	if cf == nil {
		return AccountConfig{}
	}
	return cf.Accounts[name]
}
