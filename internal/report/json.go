package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/labelscan/internal/model"
)

// JSONWriter encodes reports as JSON. A report's scan encodes the same
// way as the scan_json column, so stored and printed scans look alike.
type JSONWriter struct {
	baseWriter
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents output using prefix and indent as in json.MarshalIndent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a compact JSONWriter on output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes the full report.
func (w *JSONWriter) Write(report *model.ScanReport) (int, error) {
	return w.encode(report)
}

// WriteSummary encodes only the summary.
func (w *JSONWriter) WriteSummary(summary *model.Summary) (int, error) {
	return w.encode(summary)
}

func (w *JSONWriter) encode(v any) (int, error) {
	cw := &countingWriter{w: w.output}
	enc := json.NewEncoder(cw)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}
	if err := enc.Encode(v); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// JSONReport wraps a report with the version that produced it.
type JSONReport struct {
	Version string            `json:"version"`
	Report  *model.ScanReport `json:"report"`
	Summary *model.Summary    `json:"summary,omitempty"`
}

// NewJSONReport wraps report with the producing version and its summary.
func NewJSONReport(report *model.ScanReport, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Report:  report,
		Summary: summaryOf(report),
	}
}

// FullJSONWriter is a JSONWriter that emits JSONReport envelopes.
type FullJSONWriter struct {
	*JSONWriter
	version string
}

// NewFullJSONWriter creates a FullJSONWriter stamping version on each report.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write encodes report inside a JSONReport envelope.
func (w *FullJSONWriter) Write(report *model.ScanReport) (int, error) {
	return w.encode(NewJSONReport(report, w.version))
}
