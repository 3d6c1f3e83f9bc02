// Package main provides the entry point for the prowlersweep CLI.
//
// Prowlersweep runs Prowler security scans across a fleet of AWS accounts.
// It reads account credentials from a CSV file, installs each account's keys
// as the default AWS profile, and runs one Prowler scan per account.
//
// Usage:
//
//	prowlersweep scan <accounts.csv> <region>
//	prowlersweep history <account-name>
//
// See --help for all available options.
package main

// main is the entry point for prowlersweep.
func main() {
	Execute()
}
