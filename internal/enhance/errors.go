package enhance

import "errors"

// Enhancement failure reasons. They are never returned from Enhance
// directly; they appear wrapped in analyzer.Enhancement.Err.
var (
	// ErrNoTokens is reported when there is nothing to analyze.
	ErrNoTokens = errors.New("no ingredient tokens to analyze")

	// ErrNoCredential is reported when Enhance is called without an API key.
	ErrNoCredential = errors.New("no credential supplied")

	// ErrUnexpectedStatus is reported for any non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrEmptyResponse is reported when the response carries no choices or
	// an empty message.
	ErrEmptyResponse = errors.New("empty completion response")

	// ErrMalformedJSON is reported when the message content is not JSON.
	ErrMalformedJSON = errors.New("completion content is not valid JSON")

	// ErrSchemaViolation is reported when the content does not match the
	// AnalysisResult schema.
	ErrSchemaViolation = errors.New("completion content does not match analysis schema")

	// ErrInconsistentItem is reported when a breakdown item pairs a zero
	// severity with a non-Healthy classification or the other way round.
	ErrInconsistentItem = errors.New("breakdown item severity contradicts classification")

	// ErrInvalidProxyAddress is returned by NewAdapter when the proxy
	// address is not in host:port form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrInvalidEndpoint is returned by NewAdapter when the endpoint is not
	// an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid enhancement endpoint")
)
