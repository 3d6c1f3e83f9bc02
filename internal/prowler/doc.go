// Package prowler launches the external Prowler CLI and classifies its
// exit codes.
//
// Prowler is invoked as an opaque subprocess: its stdout and stderr are
// passed through to the terminal unbuffered so operators watch scan progress
// live, and prowlersweep never parses its output. The only signal consumed
// is the exit code:
//
//	0      every check passed
//	3      scan completed with failed checks (configurable; a warning,
//	       not an operational failure)
//	other  the scan itself failed
//
// No timeout is imposed on the subprocess. A full Prowler run takes minutes
// to hours depending on the account, and the right ceiling is an operational
// decision; operators who need one should supervise prowlersweep externally.
// Context cancellation (Ctrl-C) does terminate an in-flight scan.
package prowler
