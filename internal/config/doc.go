// Package config provides configuration structures and utilities for
// prowlersweep. It defines the main configuration options for the scan run,
// the Prowler invocation, credential file placement, and report generation
// preferences.
package config
