// Package log provides secure logging functionality with automatic masking
// of AWS credential material, built on top of the standard slog package.
//
// prowlersweep handles long-lived AWS access keys for every account it scans,
// and its logs are exactly the kind of artifact that gets pasted into tickets
// and chat. The SecureHandler masks secret access keys and other credential
// attributes before they reach the underlying handler, so even verbose logs
// are safe to share.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Info("credentials installed",
//	    "account", "acme-prod",
//	    "secret_access_key", key, // masked before output
//	)
//	slog.SetDefault(logger)
package log
