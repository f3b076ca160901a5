package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() to tell them apart.
var (
	// ErrEmptyInput is returned when no label text, file or image is given.
	ErrEmptyInput = errors.New("no input specified: provide ingredient text, --file or --image")

	// ErrInvalidTimeout is returned when the enhancement or OCR timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the batch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidEndpoint is returned when the enhancement endpoint is not an
	// absolute http or https URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint: must be an absolute http(s) URL")

	// ErrInvalidProxy is returned when the proxy address is not host:port.
	ErrInvalidProxy = errors.New("invalid proxy address: must be host:port")

	// ErrConflictingSave is returned when --save and --no-store are both set.
	// A scan that is never stored cannot be marked as saved.
	ErrConflictingSave = errors.New("conflicting storage flags: --save and --no-store cannot be used together")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
