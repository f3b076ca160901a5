package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/labelscan/internal/analyzer"
	"github.com/nao1215/labelscan/internal/model"
)

// createTestReport creates a report with one harmful, one moderate and two
// healthy ingredients.
func createTestReport() *model.ScanReport {
	report := model.NewScanReport(model.SourceText, "Water, Sugar, E102, Oats")
	tokens := []string{"water", "sugar", "e102", "oats"}
	report.Scan.SetAnalysis(tokens, analyzer.Classify(tokens))
	report.Scan.Timestamp = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	report.Fingerprint = model.Fingerprint(tokens)
	report.PerformedSteps = []string{"normalize", "analyze"}
	return report
}

// cleanReport creates a report with nothing flagged.
func cleanReport() *model.ScanReport {
	report := model.NewScanReport(model.SourceText, "Water, Oats")
	tokens := []string{"water", "oats"}
	report.Scan.SetAnalysis(tokens, analyzer.Classify(tokens))
	return report
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "LABELSCAN REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, report.Scan.ID.String()) {
			t.Error("expected output to contain scan id")
		}
		if !strings.Contains(output, "Engine:         rules") {
			t.Error("expected output to contain engine")
		}
		if !strings.Contains(output, "Status:         Complete") {
			t.Error("expected complete status")
		}
	})

	t.Run("writes score and counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		want := []string{
			"HEALTH SCORE",
			"HARMFUL:  1",
			"MODERATE: 1",
			"HEALTHY:  2",
			"TOTAL:    4 ingredients",
		}
		for _, s := range want {
			if !strings.Contains(output, s) {
				t.Errorf("expected output to contain %q", s)
			}
		}
	})

	t.Run("groups ingredients most concerning first", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		harmful := strings.Index(output, "[!!] HARMFUL")
		moderate := strings.Index(output, "[!] MODERATELY HARMFUL")
		healthy := strings.Index(output, "[+] HEALTHY")
		if harmful < 0 || moderate < 0 || healthy < 0 {
			t.Fatalf("missing classification sections:\n%s", output)
		}
		if harmful >= moderate || moderate >= healthy {
			t.Error("expected harmful, moderate, healthy order")
		}
		if !strings.Contains(output, "* e102 (severity 4)") {
			t.Error("expected e102 with its severity")
		}
	})

	t.Run("verbose adds reasons and label", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		report.Scan.SetNotes("kids cereal")
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, s := range []string{"Reason:", "LABEL", "Water, Sugar, E102, Oats", "Notes: kids cereal", "Steps:          normalize > analyze"} {
			if !strings.Contains(output, s) {
				t.Errorf("expected verbose output to contain %q", s)
			}
		}
	})

	t.Run("hides empty sections by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(cleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "HARMFUL\n  None") {
			t.Error("empty sections should be hidden")
		}
	})

	t.Run("shows empty sections when configured", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(cleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!!] HARMFUL\n  None") {
			t.Errorf("expected empty harmful section:\n%s", buf.String())
		}
	})

	t.Run("writes error status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		report.SetError(errors.New("ocr failed: no text recognized"))
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "ERROR - ocr failed: no text recognized") {
			t.Error("expected error status")
		}
	})

	t.Run("tolerates nil report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "TOTAL:    0 ingredients") {
			t.Error("expected empty totals")
		}
	})
}

// TestSimpleWriterWriteSummary tests the summary output.
func TestSimpleWriterWriteSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		report    *model.ScanReport
		showEmpty bool
		contains  []string
		excludes  []string
	}{
		{
			name:     "flagged label lists flags",
			report:   createTestReport(),
			contains: []string{"FLAGGED", "[!] sugar", "[!] e102"},
			excludes: []string{"INGREDIENTS"},
		},
		{
			name:     "clean label omits flags",
			report:   cleanReport(),
			excludes: []string{"FLAGGED"},
		},
		{
			name:      "clean label with show empty",
			report:    cleanReport(),
			showEmpty: true,
			contains:  []string{"FLAGGED", "Nothing flagged"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w := NewSimpleWriter(&buf, WithShowEmpty(tt.showEmpty))
			if _, err := w.WriteSummary(tt.report.Summary()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			output := buf.String()
			for _, s := range tt.contains {
				if !strings.Contains(output, s) {
					t.Errorf("expected output to contain %q", s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(output, s) {
					t.Errorf("expected output not to contain %q", s)
				}
			}
		})
	}
}

// TestClassIndicator tests the text indicators.
func TestClassIndicator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class model.Classification
		want  string
	}{
		{model.ClassificationHarmful, "!!"},
		{model.ClassificationModeratelyHarmful, "!"},
		{model.ClassificationHealthy, "+"},
		{model.Classification("Unknown"), "?"},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			t.Parallel()

			if got := classIndicator(tt.class); got != tt.want {
				t.Errorf("classIndicator(%q) = %q, want %q", tt.class, got, tt.want)
			}
		})
	}
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes the scan record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		report.Credential = "sk-should-never-appear"
		if _, err := NewJSONWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			Scan struct {
				ScanID   string `json:"scan_id"`
				Analysis struct {
					HealthScore int      `json:"health_score"`
					Flags       []string `json:"flags"`
				} `json:"analysis"`
			} `json:"scan"`
			Engine string `json:"engine"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Scan.ScanID != report.Scan.ID.String() {
			t.Errorf("scan id = %q", decoded.Scan.ScanID)
		}
		if decoded.Scan.Analysis.HealthScore != report.Scan.Analysis.HealthScore {
			t.Errorf("health score = %d", decoded.Scan.Analysis.HealthScore)
		}
		if len(decoded.Scan.Analysis.Flags) != 2 {
			t.Errorf("flags = %v", decoded.Scan.Analysis.Flags)
		}
		if decoded.Engine != "rules" {
			t.Errorf("engine = %q", decoded.Engine)
		}
		if strings.Contains(buf.String(), "sk-should-never-appear") {
			t.Error("credential must not be serialized")
		}
	})

	t.Run("compact output is one line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Count(output, "\n") != 1 || !strings.HasSuffix(output, "\n") {
			t.Error("expected a single line with a trailing newline")
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"scan\"") {
			t.Error("expected two-space indentation")
		}
	})

	t.Run("writes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		if _, err := NewJSONWriter(&buf).WriteSummary(report.Summary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var summary model.Summary
		if err := json.Unmarshal(buf.Bytes(), &summary); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if summary.HarmfulCount != 1 || summary.ModerateCount != 1 || summary.HealthyCount != 2 {
			t.Errorf("unexpected counts %+v", summary)
		}
	})
}

// TestWithIndent tests custom indentation.
func TestWithIndent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		indent string
		want   string
	}{
		{"tab indent", "", "\t", "\n\t\"scan_id\""},
		{"prefixed", ">", "  ", "\n>  \"scan_id\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w := NewJSONWriter(&buf, WithIndent(tt.prefix, tt.indent))
			if _, err := w.WriteSummary(createTestReport().Summary()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %q in output:\n%s", tt.want, buf.String())
			}
		})
	}
}

// TestFullJSONWriter tests the versioned wrapper.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report := createTestReport()
	if _, err := NewFullJSONWriter(&buf, "v1.2.3").Write(report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Version string          `json:"version"`
		Report  json.RawMessage `json:"report"`
		Summary *model.Summary  `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Version != "v1.2.3" {
		t.Errorf("version = %q", decoded.Version)
	}
	if len(decoded.Report) == 0 {
		t.Error("expected report body")
	}
	if decoded.Summary == nil || decoded.Summary.ScanID != report.Scan.ID {
		t.Errorf("unexpected summary %+v", decoded.Summary)
	}
}

// TestMultiWriter tests writing to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("byte count %d, want %d", n, text.Len()+js.Len())
		}
		if !strings.Contains(text.String(), "LABELSCAN REPORT") || !json.Valid(js.Bytes()) {
			t.Error("expected both outputs to be written")
		}
	})

	t.Run("writes summaries", func(t *testing.T) {
		t.Parallel()

		var text, md bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewMarkdownWriter(&md))
		if _, err := mw.WriteSummary(createTestReport().Summary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text.Len() == 0 || md.Len() == 0 {
			t.Error("expected both summaries to be written")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(NewJSONWriter(failingWriter{}), NewJSONWriter(&after))
		if _, err := mw.Write(createTestReport()); !errors.Is(err, errWriteFailed) {
			t.Errorf("expected write error, got %v", err)
		}
		if after.Len() != 0 {
			t.Error("later writers must not run after a failure")
		}
	})
}

var errWriteFailed = errors.New("write failed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errWriteFailed
}

// TestMarkdownWriter tests the markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, s := range []string{
			"# Label Scan Report",
			report.Scan.ID.String(),
			"2025-03-14 09:26:53 UTC",
			"✅ Complete",
		} {
			if !strings.Contains(output, s) {
				t.Errorf("expected output to contain %q", s)
			}
		}
	})

	t.Run("writes classification pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "```mermaid") || !strings.Contains(output, "pie") {
			t.Error("expected mermaid pie chart")
		}
		if !strings.Contains(output, "Ingredient Classification") {
			t.Error("expected chart title")
		}
	})

	t.Run("no chart for an empty label", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := model.NewScanReport(model.SourceText, "")
		report.Scan.SetAnalysis(nil, analyzer.Classify(nil))
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart")
		}
		if !strings.Contains(output, "No ingredients were recognized") {
			t.Error("expected empty breakdown message")
		}
	})

	t.Run("writes breakdown tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, s := range []string{"## Breakdown", "### 🔴 Harmful", "### 🟠 Moderately Harmful", "### 🟢 Healthy", "`e102`"} {
			if !strings.Contains(output, s) {
				t.Errorf("expected output to contain %q", s)
			}
		}
	})

	t.Run("writes flags and label details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		report.Scan.SetNotes("from the corner shop")
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, s := range []string{"## Flagged Ingredients", "- sugar", "- e102", "<details>", "from the corner shop"} {
			if !strings.Contains(output, s) {
				t.Errorf("expected output to contain %q", s)
			}
		}
	})

	t.Run("writes provenance rows", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		captured := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		report := createTestReport()
		report.Engine = model.EngineFallback
		report.FallbackReason = "enhancement timed out"
		report.Scan.SetImagePath("/photos/label.jpg")
		report.ImageMeta = &model.ImageMeta{CapturedAt: &captured, CameraMake: "Google", CameraModel: "Pixel 8", HasGPS: true}
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, s := range []string{"rules-fallback", "enhancement timed out", "/photos/label.jpg", "Google Pixel 8", "2025-01-02 03:04:05 UTC", "present"} {
			if !strings.Contains(output, s) {
				t.Errorf("expected output to contain %q", s)
			}
		}
	})

	t.Run("writes error status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		report.SetError(errors.New("ocr failed"))
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "❌ Error - ocr failed") {
			t.Error("expected error status")
		}
	})

	t.Run("writes footer", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSummary(createTestReport().Summary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Report generated by [labelscan]") {
			t.Error("expected footer")
		}
	})
}

// TestMarkdownWriterScoreAlert tests the alert level chosen for each score band.
func TestMarkdownWriterScoreAlert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  string
	}{
		{0, "[!CAUTION]"},
		{39, "[!CAUTION]"},
		{40, "[!WARNING]"},
		{59, "[!WARNING]"},
		{60, "[!IMPORTANT]"},
		{79, "[!IMPORTANT]"},
		{80, "[!NOTE]"},
		{99, "[!NOTE]"},
		{100, "[!TIP]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			summary := &model.Summary{HealthScore: tt.score, Verdict: "verdict"}
			if _, err := NewMarkdownWriter(&buf).WriteSummary(summary); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("score %d: expected %s alert in:\n%s", tt.score, tt.want, buf.String())
			}
		})
	}
}

// TestScoreColor tests the score colour rendering.
func TestScoreColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  string
	}{
		{0, "hsl(0, 70%, 45%)"},
		{50, "hsl(60, 70%, 45%)"},
		{100, "hsl(120, 70%, 45%)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := scoreColor(tt.score); got != tt.want {
				t.Errorf("scoreColor(%d) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}
}

// TestTruncateString tests the truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "short", 10, "short"},
		{"exact length unchanged", "exactly10!", 10, "exactly10!"},
		{"long string truncated", "this is a very long string", 10, "this is..."},
		{"tiny limit", "abcdef", 3, "abc"},
		{"multibyte runes", "crème brûlée", 8, "crème..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
