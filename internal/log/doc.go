// Package log provides the labelscan logger: a log/slog handler that masks
// credentials before anything reaches the output.
//
// The enhancement adapter handles an API key on every call, and request
// errors, retries and configuration are logged while it is in scope. The
// SecureHandler masks:
//   - attributes whose key names a credential (api_key, authorization, ...)
//   - string values that look like a credential (Bearer tokens, sk- keys, JWTs)
//   - credential-shaped substrings inside messages and error values
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Warn("enhancement failed", "api_key", key) // api_key=***REDACTED***
package log
