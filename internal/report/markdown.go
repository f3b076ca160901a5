package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/labelscan/internal/analyzer"
	"github.com/nao1215/labelscan/internal/model"
)

// Score bands used to pick the alert level of a report.
const (
	scoreBandPoor     = 40
	scoreBandFair     = 60
	scoreBandGood     = 80
	scoreBandPerfect  = 100
	maxReasonColumn   = 60
	maxRawTextDetails = 2000
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown.
// It is meant for sharing a scan, for example in an issue or a wiki page.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format, including the
// per-ingredient breakdown.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	summary := summaryOf(report)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary, report)
	w.writeScore(md, summary)
	w.writeFlags(md, summary)
	if report != nil && report.Scan != nil {
		w.writeBreakdown(md, report.Scan.Analysis)
		w.writeLabel(md, report.Scan)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary, nil)
	w.writeScore(md, summary)
	w.writeFlags(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
// report may be nil when only a summary is available.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary, report *model.ScanReport) {
	md.H1("Label Scan Report")
	md.PlainText("")

	rows := [][]string{
		{"Scan ID", "`" + summary.ScanID.String() + "`"},
		{"Scan Date", summary.DateScanned.Format(dateLayout)},
		{"Source", string(summary.Source)},
		{"Engine", engineText(summary.Engine)},
	}
	if report != nil {
		if report.FallbackReason != "" {
			rows = append(rows, []string{"Fallback Reason", truncateString(report.FallbackReason, maxReasonColumn)})
		}
		if report.Scan != nil && report.Scan.ImagePath != nil {
			rows = append(rows, []string{"Image", "`" + *report.Scan.ImagePath + "`"})
		}
		if meta := report.ImageMeta; meta != nil {
			rows = append(rows, imageMetaRows(meta)...)
		}
	}
	rows = append(rows,
		[]string{"Saved", savedText(summary.Saved)},
		[]string{"Status", w.getStatusText(summary)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// imageMetaRows renders the photo metadata rows that are present.
func imageMetaRows(meta *model.ImageMeta) [][]string {
	var rows [][]string
	if meta.CapturedAt != nil {
		rows = append(rows, []string{"Captured", meta.CapturedAt.Format(dateLayout)})
	}
	if camera := cameraText(meta); camera != "" {
		rows = append(rows, []string{"Camera", camera})
	}
	if meta.HasGPS {
		rows = append(rows, []string{"GPS", "present"})
	}
	return rows
}

// getStatusText returns the status text based on summary state.
func (w *MarkdownWriter) getStatusText(summary *model.Summary) string {
	if summary.Error != "" {
		return "❌ Error - " + summary.Error
	}
	return "✅ Complete"
}

// writeScore writes the score table, chart and alert.
func (w *MarkdownWriter) writeScore(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Health Score")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Classification", "Count"},
		Rows: [][]string{
			{"🔴 Harmful", strconv.Itoa(summary.HarmfulCount)},
			{"🟠 Moderately Harmful", strconv.Itoa(summary.ModerateCount)},
			{"🟢 Healthy", strconv.Itoa(summary.HealthyCount)},
			{"**Total**", "**" + strconv.Itoa(summary.TotalIngredients()) + "**"},
			{"**Score**", fmt.Sprintf("**%d/100** (%s)", summary.HealthScore, scoreColor(summary.HealthScore))},
		},
	})
	md.PlainText("")

	if summary.TotalIngredients() > 0 {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of the classification counts.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Ingredient Classification"),
		piechart.WithShowData(true),
	)

	if summary.HarmfulCount > 0 {
		chart.LabelAndIntValue(string(model.ClassificationHarmful), uint64(summary.HarmfulCount))
	}
	if summary.ModerateCount > 0 {
		chart.LabelAndIntValue(string(model.ClassificationModeratelyHarmful), uint64(summary.ModerateCount))
	}
	if summary.HealthyCount > 0 {
		chart.LabelAndIntValue(string(model.ClassificationHealthy), uint64(summary.HealthyCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert whose level follows the score band.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	score := summary.HealthScore
	switch {
	case score < scoreBandPoor:
		md.Cautionf("Health score %d/100. %d harmful ingredient(s) found; %s",
			score, summary.HarmfulCount, summary.Verdict)
	case score < scoreBandFair:
		md.Warningf("Health score %d/100. %s", score, summary.Verdict)
	case score < scoreBandGood:
		md.Importantf("Health score %d/100. %s", score, summary.Verdict)
	case score < scoreBandPerfect:
		md.Note(fmt.Sprintf("Health score %d/100. %s", score, summary.Verdict))
	default:
		md.Tip("No concerning additives detected.")
	}
	md.PlainText("")
}

// writeFlags writes the flagged ingredients.
func (w *MarkdownWriter) writeFlags(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Flagged Ingredients")
	md.PlainText("")

	if !summary.HasFlags() {
		md.PlainText("Nothing flagged.")
		md.PlainText("")
		return
	}

	md.BulletList(summary.Flags...)
	md.PlainText("")
}

// writeBreakdown writes one table per classification, most concerning first.
func (w *MarkdownWriter) writeBreakdown(md *markdown.Markdown, analysis model.AnalysisResult) {
	md.H2("Breakdown")
	md.PlainText("")

	if len(analysis.Breakdown) == 0 {
		md.PlainText("No ingredients were recognized on this label.")
		md.PlainText("")
		return
	}

	sections := []struct {
		class  model.Classification
		header string
	}{
		{model.ClassificationHarmful, "### 🔴 Harmful"},
		{model.ClassificationModeratelyHarmful, "### 🟠 Moderately Harmful"},
		{model.ClassificationHealthy, "### 🟢 Healthy"},
	}

	for _, sec := range sections {
		items := analysis.ItemsBy(sec.class)
		if len(items) == 0 {
			continue
		}

		md.PlainText(sec.header)
		md.PlainText("")
		w.writeBreakdownTable(md, items)
	}
}

// writeBreakdownTable writes a table of breakdown items.
func (w *MarkdownWriter) writeBreakdownTable(md *markdown.Markdown, items []model.BreakdownItem) {
	rows := make([][]string, len(items))
	for i, item := range items {
		reason := item.Reason
		if reason == "" {
			reason = "-"
		}
		rows[i] = []string{
			"`" + item.Ingredient + "`",
			strconv.Itoa(int(item.Severity)),
			truncateString(reason, maxReasonColumn),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Ingredient", "Severity", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeLabel writes the raw label text and notes in collapsible blocks.
func (w *MarkdownWriter) writeLabel(md *markdown.Markdown, scan *model.Scan) {
	if scan.RawText != "" {
		md.Details("Label text", truncateString(scan.RawText, maxRawTextDetails))
	}
	if notes := scan.Notes(); notes != "" {
		md.Details("Notes", notes)
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [labelscan](https://github.com/nao1215/labelscan)*")
}

// scoreColor renders the score's hue as a CSS hsl() colour.
func scoreColor(score int) string {
	return fmt.Sprintf("hsl(%d, 70%%, 45%%)", analyzer.ScoreHue(score))
}

func savedText(saved bool) string {
	if saved {
		return "yes"
	}
	return "no (expires after 24h)"
}

func cameraText(meta *model.ImageMeta) string {
	switch {
	case meta.CameraMake != "" && meta.CameraModel != "":
		return meta.CameraMake + " " + meta.CameraModel
	case meta.CameraModel != "":
		return meta.CameraModel
	default:
		return meta.CameraMake
	}
}
