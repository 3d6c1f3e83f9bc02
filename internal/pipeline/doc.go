// Package pipeline orchestrates the per-account scan sequence.
//
// Each account flows through the same ordered steps: install the account's
// credentials as the default profile, optionally verify them against STS,
// run Prowler, and record the outcome in the history database. The steps
// are strictly sequential and block until complete, because the credentials
// file is a single shared slot: a scan must never observe credentials that
// belong to a different account.
//
// Step failures are isolated to the account being processed. A failed
// install aborts that account's remaining steps (running Prowler against a
// stale identity would be worse than skipping), but the orchestrator always
// moves on to the next account; nothing in this package terminates a run.
package pipeline
