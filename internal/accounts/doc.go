// Package accounts parses AWS account credentials from a CSV file.
//
// The input format is header-addressed: the first line names the columns and
// the required columns ("Account Name", "Access Key ID", "Secret Access Key")
// may appear in any order, with any number of extra columns around them.
//
// Rows missing a required value are skipped with a warning rather than
// aborting the run; only a missing header column or an unreadable file is
// fatal. This mirrors the error taxonomy of the overall tool: bad input
// structure stops everything, a bad individual row costs only that account.
package accounts
