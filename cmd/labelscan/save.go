package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/labelscan/internal/database"
)

// NewSaveCmd creates the save command.
func NewSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save [scan-id]",
		Short: "Keep a scan permanently",
		Long: `Save exempts a scan from the 24 hour expiry. Without a scan id the
most recent scan is saved.

Examples:
  # Save the scan you just ran
  labelscan save --notes "kids cereal, avoid"

  # Save a specific scan
  labelscan save 7f0c1c1e-4b7a-4a57-9d1e-5e8f0b7f2a10`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSaveCmd,
	}

	cmd.Flags().String("notes", "", "Notes to attach (empty keeps existing notes)")

	return cmd
}

// runSaveCmd executes the save command.
func runSaveCmd(cmd *cobra.Command, args []string) error {
	notes, err := cmd.Flags().GetString("notes")
	if err != nil {
		return err
	}

	var id uuid.UUID
	if len(args) == 1 {
		if id, err = parseScanID(args[0]); err != nil {
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

	if id == uuid.Nil {
		latest, err := db.GetLatestScan(ctx)
		if errors.Is(err, database.ErrScanNotFound) {
			return errors.New("no scans to save (use 'labelscan scan' first)")
		}
		if err != nil {
			return err
		}
		id = latest.ID
	}

	if err := db.MarkSaved(ctx, id, notes); err != nil {
		return describeLookupError(id, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved scan %s\n", id)
	return nil
}
