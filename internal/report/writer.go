package report

import (
	"io"

	"github.com/nao1215/labelscan/internal/model"
)

// Writer renders scan reports in one output format.
type Writer interface {
	// Write renders the full report and returns the bytes written.
	Write(report *model.ScanReport) (int, error)

	// WriteSummary renders only the condensed view of a scan.
	WriteSummary(summary *model.Summary) (int, error)
}

// MultiWriter fans a report out to several Writers.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a MultiWriter over writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders report with each writer in turn and stops at the first error.
func (m *MultiWriter) Write(report *model.ScanReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (m *MultiWriter) WriteSummary(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// summaryOf returns the summary of report, tolerating a nil report.
func summaryOf(report *model.ScanReport) *model.Summary {
	if report == nil {
		return &model.Summary{}
	}
	return report.Summary()
}

// engineText returns the display form of an engine.
// Scans loaded from storage carry no engine.
func engineText(engine model.Engine) string {
	if engine == "" {
		return "-"
	}
	return string(engine)
}

// truncateString shortens s to maxLen runes, ending in "..." when cut.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

const dateLayout = "2006-01-02 15:04:05 MST"
