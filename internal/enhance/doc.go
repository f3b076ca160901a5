// Package enhance asks an OpenAI-compatible chat-completions service to
// analyze a normalized ingredient list.
//
// The Adapter sends one zero-temperature request per call with a system
// instruction that restricts the reply to the AnalysisResult JSON object.
// The reply is validated against a JSON Schema, decoded, and passed through
// analyzer.Finalize so the service's own health score is never used.
//
// Enhance never returns a Go error. Every failure (transport error, non-2xx
// status, malformed JSON, schema violation, timeout) is reported as the
// failure arm of analyzer.Enhancement so the caller can fall back to the
// rule tables explicitly.
package enhance
