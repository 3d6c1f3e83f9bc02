package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".prowlersweep"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads defaults and per-account overrides from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers should
// handle this error appropriately based on whether the config file path was
// explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Accounts == nil {
		cf.Accounts = make(map[string]AccountConfig)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .prowlersweep in the current directory
//  3. Look for .prowlersweep in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if
// not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// ApplyFile folds file-level defaults into the Config.
// CLI flags take precedence: a file value is only applied where the Config
// still carries the built-in default.
func (c *Config) ApplyFile(cf *File) {
	if cf == nil {
		return
	}
	c.Accounts = cf

	if cf.Defaults.Prowler != "" && c.ProwlerBinary == DefaultProwlerBinary {
		c.ProwlerBinary = cf.Defaults.Prowler
	}
	if cf.Defaults.FindingsExitCode != 0 && c.FindingsExitCode == DefaultFindingsExitCode {
		c.FindingsExitCode = cf.Defaults.FindingsExitCode
	}
	if len(cf.Defaults.ExtraArgs) > 0 && len(c.ProwlerExtraArgs) == 0 {
		c.ProwlerExtraArgs = append(c.ProwlerExtraArgs, cf.Defaults.ExtraArgs...)
	}
}
