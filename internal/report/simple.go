package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/labelscan/internal/model"
)

const rulerWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
// Output is plain ASCII so it can be piped to files unchanged.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether empty classification sections are shown.
	showEmpty bool

	// verbose adds reasons, raw text and provenance to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder
	summary := summaryOf(report)

	w.writeHeader(&sb, summary)
	if w.verbose && report != nil {
		w.writeProvenance(&sb, report)
	}
	w.writeScore(&sb, summary)
	if report != nil && report.Scan != nil {
		w.writeBreakdown(&sb, report.Scan.Analysis)
		if w.verbose {
			w.writeLabel(&sb, report.Scan)
		}
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeScore(&sb, summary)
	w.writeFlags(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", rulerWidth))
	sb.WriteString("\n")
	sb.WriteString("                         LABELSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", rulerWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Scan ID:        %s\n", summary.ScanID)
	fmt.Fprintf(sb, "Scan Date:      %s\n", summary.DateScanned.Format(dateLayout))
	fmt.Fprintf(sb, "Source:         %s\n", summary.Source)
	fmt.Fprintf(sb, "Engine:         %s\n", engineText(summary.Engine))
	fmt.Fprintf(sb, "Saved:          %s\n", savedText(summary.Saved))

	if summary.Error != "" {
		fmt.Fprintf(sb, "Status:         ERROR - %s\n", summary.Error)
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeProvenance writes where the analysis and label text came from.
func (w *SimpleWriter) writeProvenance(sb *strings.Builder, report *model.ScanReport) {
	if report.FallbackReason != "" {
		fmt.Fprintf(sb, "Fallback:       %s\n", report.FallbackReason)
	}
	if report.Fingerprint != "" {
		fmt.Fprintf(sb, "Fingerprint:    %s\n", truncateString(report.Fingerprint, 19))
	}
	if report.Scan != nil && report.Scan.ImagePath != nil {
		fmt.Fprintf(sb, "Image:          %s\n", *report.Scan.ImagePath)
	}
	if meta := report.ImageMeta; meta != nil {
		if meta.CapturedAt != nil {
			fmt.Fprintf(sb, "Captured:       %s\n", meta.CapturedAt.Format(dateLayout))
		}
		if camera := cameraText(meta); camera != "" {
			fmt.Fprintf(sb, "Camera:         %s\n", camera)
		}
	}
	if len(report.PerformedSteps) > 0 {
		fmt.Fprintf(sb, "Steps:          %s\n", strings.Join(report.PerformedSteps, " > "))
	}
	sb.WriteString("\n")
}

// writeSection writes a section title between rulers.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", rulerWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", rulerWidth))
	sb.WriteString("\n\n")
}

// writeScore writes the score and classification counts.
func (w *SimpleWriter) writeScore(sb *strings.Builder, summary *model.Summary) {
	writeSection(sb, "HEALTH SCORE")

	fmt.Fprintf(sb, "  SCORE:    %d/100\n", summary.HealthScore)
	if summary.Verdict != "" {
		fmt.Fprintf(sb, "  VERDICT:  %s\n", summary.Verdict)
	}
	sb.WriteString("\n")

	fmt.Fprintf(sb, "  HARMFUL:  %d\n", summary.HarmfulCount)
	fmt.Fprintf(sb, "  MODERATE: %d\n", summary.ModerateCount)
	fmt.Fprintf(sb, "  HEALTHY:  %d\n", summary.HealthyCount)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d ingredients\n", summary.TotalIngredients())
	sb.WriteString("\n")
}

// writeFlags writes the flagged ingredients.
func (w *SimpleWriter) writeFlags(sb *strings.Builder, summary *model.Summary) {
	if !summary.HasFlags() && !w.showEmpty {
		return
	}

	writeSection(sb, "FLAGGED")

	if !summary.HasFlags() {
		sb.WriteString("  Nothing flagged\n\n")
		return
	}
	for _, flag := range summary.Flags {
		fmt.Fprintf(sb, "  [!] %s\n", flag)
	}
	sb.WriteString("\n")
}

// writeBreakdown writes the ingredients grouped by classification,
// most concerning first.
func (w *SimpleWriter) writeBreakdown(sb *strings.Builder, analysis model.AnalysisResult) {
	if len(analysis.Breakdown) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "INGREDIENTS")

	upper := cases.Upper(language.English)
	for i := len(model.Classifications) - 1; i >= 0; i-- {
		class := model.Classifications[i]
		items := analysis.ItemsBy(class)
		if len(items) == 0 && !w.showEmpty {
			continue
		}

		fmt.Fprintf(sb, "[%s] %s\n", classIndicator(class), upper.String(class.String()))
		if len(items) == 0 {
			sb.WriteString("  None\n\n")
			continue
		}
		for _, item := range items {
			fmt.Fprintf(sb, "  * %s (severity %d)\n", item.Ingredient, item.Severity)
			if w.verbose && item.Reason != "" {
				fmt.Fprintf(sb, "    Reason: %s\n", item.Reason)
			}
		}
		sb.WriteString("\n")
	}
}

// classIndicator returns a visual indicator for a classification.
func classIndicator(class model.Classification) string {
	switch class {
	case model.ClassificationHarmful:
		return "!!"
	case model.ClassificationModeratelyHarmful:
		return "!"
	case model.ClassificationHealthy:
		return "+"
	default:
		return "?"
	}
}

// writeLabel writes the raw label text and notes.
func (w *SimpleWriter) writeLabel(sb *strings.Builder, scan *model.Scan) {
	writeSection(sb, "LABEL")

	fmt.Fprintf(sb, "  %s\n", scan.RawText)
	if notes := scan.Notes(); notes != "" {
		fmt.Fprintf(sb, "\n  Notes: %s\n", notes)
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", rulerWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by labelscan\n")
	sb.WriteString("https://github.com/nao1215/labelscan\n")
	sb.WriteString(strings.Repeat("=", rulerWidth))
	sb.WriteString("\n")
}
