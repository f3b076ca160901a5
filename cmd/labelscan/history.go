package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/labelscan/internal/database"
	"github.com/nao1215/labelscan/internal/model"
)

const (
	defaultHistoryLimit = 20
	historyDateLayout   = "2006-01-02 15:04:05"
	maxFlagsColumn      = 40
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scans",
		Long: `History lists scans newest first.

Unsaved scans older than 24 hours are removed before listing. Use
'labelscan save' to keep a scan permanently.

Examples:
  # Show the 20 most recent scans
  labelscan history

  # Show saved scans only
  labelscan history --saved

  # Show scans of label photos only
  labelscan history --source image

  # Show every scan of the same ingredient list as a given scan
  labelscan history --like 7f0c1c1e-4b7a-4a57-9d1e-5e8f0b7f2a10

  # Output JSON
  labelscan history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Bool("saved", false, "Only list saved scans")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of scans (0 for all)")
	cmd.Flags().String("source", "", "Only list scans from this source (text or image)")
	cmd.Flags().String("like", "", "List scans of the same ingredient list as this scan id")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	return cmd
}

// historyEntry is one line of the history listing.
type historyEntry struct {
	ScanID      uuid.UUID    `json:"scan_id"`
	Timestamp   time.Time    `json:"timestamp"`
	Source      model.Source `json:"source"`
	HealthScore int          `json:"health_score"`
	Flags       []string     `json:"flags"`
	Saved       bool         `json:"saved"`
	Notes       string       `json:"notes,omitempty"`
}

func newHistoryEntry(scan *model.Scan) historyEntry {
	return historyEntry{
		ScanID:      scan.ID,
		Timestamp:   scan.Timestamp,
		Source:      scan.Source,
		HealthScore: scan.Analysis.HealthScore,
		Flags:       scan.Analysis.Flags,
		Saved:       scan.Saved,
		Notes:       scan.Notes(),
	}
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	savedOnly, err := cmd.Flags().GetBool("saved")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	like, err := cmd.Flags().GetString("like")
	if err != nil {
		return err
	}
	sourceFlag, err := cmd.Flags().GetString("source")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	if limit < 0 {
		return fmt.Errorf("invalid limit %d: must not be negative", limit)
	}

	// Validate arguments before opening the database.
	var source model.Source
	if sourceFlag != "" {
		source, err = model.ParseSource(sourceFlag)
		if err != nil {
			return fmt.Errorf("%w %q: want text or image", err, sourceFlag)
		}
	}

	var likeID uuid.UUID
	if like != "" {
		likeID, err = parseScanID(like)
		if err != nil {
			return err
		}
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

	ctx := context.Background()

	var scans []*model.Scan
	if like != "" {
		scans, err = similarScans(ctx, db, likeID)
	} else {
		scans, err = db.ListScans(ctx, database.ListOptions{SavedOnly: savedOnly, Source: source, Limit: limit})
	}
	if err != nil {
		return err
	}

	entries := make([]historyEntry, 0, len(scans))
	for _, scan := range scans {
		entries = append(entries, newHistoryEntry(scan))
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}
	writeHistoryText(cmd.OutOrStdout(), entries)
	return nil
}

// similarScans returns the stored scans whose ingredient list matches the given scan.
func similarScans(ctx context.Context, db *database.ScanDB, id uuid.UUID) ([]*model.Scan, error) {
	scan, err := db.GetScan(ctx, id)
	if err != nil {
		return nil, describeLookupError(id, err)
	}
	return db.FindByFingerprint(ctx, model.Fingerprint(scan.CleanedIngredients))
}

// writeHistoryText writes the history as an aligned table.
func writeHistoryText(w io.Writer, entries []historyEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scans found.")
		fmt.Fprintln(w, "\nUse 'labelscan scan <label text>' to analyze a label.")
		return
	}

	fmt.Fprintf(w, "Scans (%d):\n\n", len(entries))
	fmt.Fprintf(w, "  %-36s  %-19s  %-5s  %-5s  %-5s  %s\n", "ID", "Date", "Src", "Score", "Saved", "Flags")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 100))

	for _, e := range entries {
		saved := ""
		if e.Saved {
			saved = "yes"
		}
		flags := "-"
		if len(e.Flags) > 0 {
			flags = strings.Join(e.Flags, ", ")
			if len(flags) > maxFlagsColumn {
				flags = flags[:maxFlagsColumn-3] + "..."
			}
		}
		fmt.Fprintf(w, "  %-36s  %-19s  %-5s  %5d  %-5s  %s\n",
			e.ScanID,
			e.Timestamp.Local().Format(historyDateLayout),
			e.Source,
			e.HealthScore,
			saved,
			flags,
		)
	}

	fmt.Fprintln(w, "\nUse 'labelscan show <id>' to see a scan in full.")
}
