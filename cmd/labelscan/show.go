package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <scan-id>",
		Short: "Show a stored scan",
		Long: `Show prints the full report of a scan from the history.

Examples:
  labelscan show 7f0c1c1e-4b7a-4a57-9d1e-5e8f0b7f2a10
  labelscan show --markdown -o scan.md 7f0c1c1e-4b7a-4a57-9d1e-5e8f0b7f2a10`,
		Args: cobra.ExactArgs(1),
		RunE: runShowCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, args []string) error {
	id, err := parseScanID(args[0])
	if err != nil {
		return err
	}

	cfg := loadConfig(cmd)
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if err := applyConfigFile(cfg); err != nil {
		return err
	}
	if err := cfg.ValidateSettings(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	scan, err := db.GetScan(context.Background(), id)
	if err != nil {
		return describeLookupError(id, err)
	}

	output, closeOutput, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // close error is irrelevant after a failed write

	writer := newReportWriter(output, cfg.JSONReport, cfg.MarkdownReport, true)
	if _, err := writer.Write(storedReport(scan)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return closeOutput()
}
