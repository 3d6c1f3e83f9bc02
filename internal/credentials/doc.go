// Package credentials owns the AWS credentials file that Prowler reads its
// default identity from.
//
// The file is a single mutable slot: each Install fully overwrites it with
// one [default] profile, so the credentials on disk always belong to exactly
// one account. Any other profiles previously present in the file are
// discarded. That destructive overwrite is intentional (the tool scans one
// identity at a time) but it is an operational hazard for operators who keep
// named profiles in the same file.
//
// There is no file locking. prowlersweep assumes single-instance, sequential
// execution; two concurrent instances writing the same credentials file
// would race, and the tool makes no attempt to detect that.
package credentials
