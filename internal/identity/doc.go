// Package identity resolves which AWS identity the freshly installed
// credentials actually belong to.
//
// A Prowler run takes minutes to hours; a typo'd key in the CSV would waste
// all of it scanning nothing. With --verify, prowlersweep calls STS
// GetCallerIdentity right after each credential install, which fails in
// seconds for dead keys and logs the resolved account ID and ARN for live
// ones. Verification failures are logged and the scan proceeds anyway:
// the call needs network access, and a flaky STS endpoint should not veto
// a scan the operator asked for.
package identity
