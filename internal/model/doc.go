// Package model defines the core data structures used throughout prowlersweep.
//
// This package contains the following main types:
//   - AccountRecord: One AWS account's credentials parsed from the input CSV
//   - ScanOutcome: The classified result of one Prowler invocation
//   - RunSummary: Aggregated results for a whole multi-account run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (accounts, pipeline, database, report) need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
