package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/labelscan/internal/database"
	"github.com/nao1215/labelscan/internal/model"
)

// Score directions between two scans.
const (
	scoreDirectionImproved  = "improved"
	scoreDirectionWorsened  = "worsened"
	scoreDirectionUnchanged = "unchanged"
)

const compareDateLayout = "2006-01-02 15:04"

// NewCompareCmd creates the compare command.
// This command compares two scans stored in the history.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [old-scan-id] [new-scan-id]",
		Short: "Compare two scans",
		Long: `Compare displays the differences between two scans:
- Flags that appeared or disappeared
- Ingredients that were added or removed
- The change in health score and classification counts

With no arguments the two most recent scans are compared. With one
argument that scan is compared with the most recent one.

Examples:
  # Compare the latest two scans
  labelscan compare

  # Compare a scan with the latest one
  labelscan compare 7f0c1c1e-4b7a-4a57-9d1e-5e8f0b7f2a10

  # Compare two specific scans as JSON
  labelscan compare --json <old-id> <new-id>`,
		Args: cobra.MaximumNArgs(2),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown cannot be used together")
	}

	// Validate arguments before opening the database.
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := parseScanID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	cfg := loadConfig(cmd)
	if err := applyConfigFile(cfg); err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	previous, current, err := resolveComparedScans(context.Background(), db, ids)
	if err != nil {
		return err
	}

	comparison := compareScans(previous, current)

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return outputComparisonJSON(out, comparison)
	case markdownOutput:
		outputComparisonMarkdown(out, comparison)
	default:
		outputComparisonText(out, comparison)
	}
	return nil
}

// resolveComparedScans loads the two scans named by ids, filling in the
// most recent scans for missing ids.
func resolveComparedScans(ctx context.Context, db *database.ScanDB, ids []uuid.UUID) (*model.Scan, *model.Scan, error) {
	load := func(id uuid.UUID) (*model.Scan, error) {
		scan, err := db.GetScan(ctx, id)
		if err != nil {
			return nil, describeLookupError(id, err)
		}
		return scan, nil
	}

	switch len(ids) {
	case 2:
		previous, err := load(ids[0])
		if err != nil {
			return nil, nil, err
		}
		current, err := load(ids[1])
		if err != nil {
			return nil, nil, err
		}
		return previous, current, nil

	case 1:
		previous, err := load(ids[0])
		if err != nil {
			return nil, nil, err
		}
		current, err := db.GetLatestScan(ctx)
		if err != nil {
			return nil, nil, err
		}
		if current.ID == previous.ID {
			return nil, nil, fmt.Errorf("scan %s is already the most recent scan", previous.ID)
		}
		return previous, current, nil

	default:
		recent, err := db.ListScans(ctx, database.ListOptions{Limit: 2})
		if err != nil {
			return nil, nil, err
		}
		if len(recent) < 2 {
			return nil, nil, fmt.Errorf("at least 2 scans are required for comparison (found %d)", len(recent))
		}
		// ListScans is newest first.
		return recent[1], recent[0], nil
	}
}

// ComparisonResult holds the result of comparing two scans.
type ComparisonResult struct {
	// PreviousScan contains metadata about the older scan.
	PreviousScan ScanMetadata `json:"previous_scan"`

	// CurrentScan contains metadata about the newer scan.
	CurrentScan ScanMetadata `json:"current_scan"`

	// NewFlags are flagged in the current scan only.
	NewFlags []string `json:"new_flags,omitempty"`

	// ResolvedFlags were flagged in the previous scan only.
	ResolvedFlags []string `json:"resolved_flags,omitempty"`

	// AddedIngredients appear in the current ingredient list only.
	AddedIngredients []string `json:"added_ingredients,omitempty"`

	// RemovedIngredients appear in the previous ingredient list only.
	RemovedIngredients []string `json:"removed_ingredients,omitempty"`

	// UnchangedCount is the number of ingredients present in both scans.
	UnchangedCount int `json:"unchanged_count"`

	// SameIngredients is true when both scans have the same ingredient list.
	SameIngredients bool `json:"same_ingredients"`

	ScoreChange ScoreChange `json:"score_change"`
}

// ScanMetadata contains metadata about a scan for comparison display.
type ScanMetadata struct {
	ScanID        uuid.UUID `json:"scan_id"`
	Timestamp     time.Time `json:"timestamp"`
	HealthScore   int       `json:"health_score"`
	HarmfulCount  int       `json:"harmful_count"`
	ModerateCount int       `json:"moderate_count"`
	HealthyCount  int       `json:"healthy_count"`
	Total         int       `json:"total"`
}

// ScoreChange describes how the health picture moved between scans.
type ScoreChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	ScoreDelta    int `json:"score_delta"`
	HarmfulDelta  int `json:"harmful_delta"`
	ModerateDelta int `json:"moderate_delta"`
	HealthyDelta  int `json:"healthy_delta"`
}

func newScanMetadata(scan *model.Scan) ScanMetadata {
	analysis := scan.Analysis
	return ScanMetadata{
		ScanID:        scan.ID,
		Timestamp:     scan.Timestamp,
		HealthScore:   analysis.HealthScore,
		HarmfulCount:  analysis.Count(model.ClassificationHarmful),
		ModerateCount: analysis.Count(model.ClassificationModeratelyHarmful),
		HealthyCount:  analysis.Count(model.ClassificationHealthy),
		Total:         len(analysis.Breakdown),
	}
}

// compareScans compares two scans and generates a comparison result.
func compareScans(previous, current *model.Scan) *ComparisonResult {
	result := &ComparisonResult{
		PreviousScan: newScanMetadata(previous),
		CurrentScan:  newScanMetadata(current),
		SameIngredients: model.Fingerprint(previous.CleanedIngredients) ==
			model.Fingerprint(current.CleanedIngredients),
	}

	result.NewFlags, result.ResolvedFlags, _ = diffSets(previous.Analysis.Flags, current.Analysis.Flags)
	result.AddedIngredients, result.RemovedIngredients, result.UnchangedCount =
		diffSets(previous.CleanedIngredients, current.CleanedIngredients)

	result.ScoreChange = calculateScoreChange(result.PreviousScan, result.CurrentScan)

	return result
}

// diffSets returns the values only in current, the values only in previous,
// and the number of values in both. Output keeps the input order.
func diffSets(previous, current []string) (added, removed []string, common int) {
	for _, v := range current {
		if !slices.Contains(previous, v) {
			added = append(added, v)
		}
	}
	for _, v := range previous {
		if slices.Contains(current, v) {
			common++
		} else {
			removed = append(removed, v)
		}
	}
	return added, removed, common
}

// calculateScoreChange calculates the change between two scans.
// A higher health score is better.
func calculateScoreChange(previous, current ScanMetadata) ScoreChange {
	change := ScoreChange{
		ScoreDelta:    current.HealthScore - previous.HealthScore,
		HarmfulDelta:  current.HarmfulCount - previous.HarmfulCount,
		ModerateDelta: current.ModerateCount - previous.ModerateCount,
		HealthyDelta:  current.HealthyCount - previous.HealthyCount,
	}

	switch {
	case change.ScoreDelta > 0:
		change.Direction = scoreDirectionImproved
	case change.ScoreDelta < 0:
		change.Direction = scoreDirectionWorsened
	default:
		change.Direction = scoreDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(w io.Writer, result *ComparisonResult) {
	prev, cur, change := result.PreviousScan, result.CurrentScan, result.ScoreChange

	fmt.Fprintln(w, "# Scan Comparison")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "\n**Health Status:** %s\n\n", formatScoreDirection(change.Direction))

	fmt.Fprintln(w, "| Metric | Previous | Current | Change |")
	fmt.Fprintln(w, "|--------|----------|---------|--------|")
	fmt.Fprintf(w, "| Scan | `%s` | `%s` | - |\n", prev.ScanID, cur.ScanID)
	fmt.Fprintf(w, "| Date | %s | %s | - |\n",
		prev.Timestamp.Format(compareDateLayout), cur.Timestamp.Format(compareDateLayout))
	fmt.Fprintf(w, "| Harmful | %d | %d | %s |\n", prev.HarmfulCount, cur.HarmfulCount, formatDelta(change.HarmfulDelta))
	fmt.Fprintf(w, "| Moderate | %d | %d | %s |\n", prev.ModerateCount, cur.ModerateCount, formatDelta(change.ModerateDelta))
	fmt.Fprintf(w, "| Healthy | %d | %d | %s |\n", prev.HealthyCount, cur.HealthyCount, formatDelta(change.HealthyDelta))
	fmt.Fprintf(w, "| **Score** | **%d** | **%d** | **%s** |\n", prev.HealthScore, cur.HealthScore, formatDelta(change.ScoreDelta))

	writeMarkdownList(w, "New Flags", result.NewFlags, "- %s\n")
	writeMarkdownList(w, "Resolved Flags", result.ResolvedFlags, "- ~~%s~~\n")
	writeMarkdownList(w, "Added Ingredients", result.AddedIngredients, "- `%s`\n")
	writeMarkdownList(w, "Removed Ingredients", result.RemovedIngredients, "- ~~`%s`~~\n")

	if result.SameIngredients {
		fmt.Fprint(w, "\n---\n\n*Both scans have the same ingredient list*\n")
	} else if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\n---\n\n*%d ingredients unchanged*\n", result.UnchangedCount)
	}
}

func writeMarkdownList(w io.Writer, title string, items []string, format string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n## %s (%d)\n\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(w, format, item)
	}
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(w io.Writer, result *ComparisonResult) {
	prev, cur, change := result.PreviousScan, result.CurrentScan, result.ScoreChange

	fmt.Fprintln(w, "Scan Comparison")
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "\nHealth Status: %s\n", formatScoreDirection(change.Direction))

	fmt.Fprintf(w, "\nPrevious scan: %s  %s\n", prev.ScanID, prev.Timestamp.Format(compareDateLayout))
	fmt.Fprintf(w, "Current scan:  %s  %s\n", cur.ScanID, cur.Timestamp.Format(compareDateLayout))

	row := func(name string, previous, current, delta int) {
		fmt.Fprintf(w, "  %-10s  %-10d  %-10d  %-10s\n", name, previous, current, formatDelta(delta))
	}

	fmt.Fprintln(w, "\nClassification Summary:")
	fmt.Fprintf(w, "  %-10s  %-10s  %-10s  %-10s\n", "Class", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 45))
	row("Harmful", prev.HarmfulCount, cur.HarmfulCount, change.HarmfulDelta)
	row("Moderate", prev.ModerateCount, cur.ModerateCount, change.ModerateDelta)
	row("Healthy", prev.HealthyCount, cur.HealthyCount, change.HealthyDelta)
	fmt.Fprintln(w, "  "+strings.Repeat("-", 45))
	row("Score", prev.HealthScore, cur.HealthScore, change.ScoreDelta)

	writeTextList(w, "New Flags", "[+]", result.NewFlags)
	writeTextList(w, "Resolved Flags", "[-]", result.ResolvedFlags)
	writeTextList(w, "Added Ingredients", "[+]", result.AddedIngredients)
	writeTextList(w, "Removed Ingredients", "[-]", result.RemovedIngredients)

	if result.SameIngredients {
		fmt.Fprintln(w, "\nSame ingredient list in both scans.")
	} else if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\nUnchanged: %d ingredients\n", result.UnchangedCount)
	}
}

func writeTextList(w io.Writer, title, marker string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(w, "  %s %s\n", marker, item)
	}
}

// formatScoreDirection formats the score direction for display.
func formatScoreDirection(direction string) string {
	switch direction {
	case scoreDirectionImproved:
		return "IMPROVED (score increased)"
	case scoreDirectionWorsened:
		return "WORSENED (score decreased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
