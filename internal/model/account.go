package model

import "errors"

// Validation errors for AccountRecord.
// These are sentinel errors so callers can distinguish which field is missing
// with errors.Is() when deciding how to describe a skipped row.
var (
	// ErrEmptyAccountName is returned when the account name field is empty.
	ErrEmptyAccountName = errors.New("account name is empty")

	// ErrEmptyAccessKeyID is returned when the access key ID field is empty.
	ErrEmptyAccessKeyID = errors.New("access key ID is empty")

	// ErrEmptySecretAccessKey is returned when the secret access key field is empty.
	ErrEmptySecretAccessKey = errors.New("secret access key is empty")
)

// AccountRecord is one AWS account's credentials parsed from a single CSV row.
// The credential fields are opaque strings; prowlersweep does not validate
// that they are syntactically well-formed AWS keys, only that they are present.
// Whether they actually work is Prowler's (or STS's) problem.
//
// A record lives only for the duration of its own scan. Nothing retains it
// after the scan completes; the only persistent trace is the ScanOutcome row
// written to the history database.
type AccountRecord struct {
	// Name identifies the account in logs, reports, and Prowler's -F output
	// file label. It carries no semantic meaning beyond labeling.
	Name string

	// AccessKeyID is the AWS access key ID to install as the default profile.
	AccessKeyID string

	// SecretAccessKey is the AWS secret access key to install as the default
	// profile. It must never be logged; the log package masks it defensively,
	// but callers should not pass it as a log attribute in the first place.
	SecretAccessKey string
}

// Validate reports whether the record is complete enough to process.
// A record is valid iff all three fields are non-empty. Invalid records are
// skipped by the caller, never partially processed: no credential write and
// no scan happens for them.
func (r AccountRecord) Validate() error {
	if r.Name == "" {
		return ErrEmptyAccountName
	}
	if r.AccessKeyID == "" {
		return ErrEmptyAccessKeyID
	}
	if r.SecretAccessKey == "" {
		return ErrEmptySecretAccessKey
	}
	return nil
}
