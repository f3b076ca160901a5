package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for labelscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labelscan",
		Short: "Score food ingredient labels",
		Long: `labelscan classifies the ingredients of a food label as Healthy,
Moderately Harmful or Harmful and computes a 0-100 health score.

Labels are analyzed with built-in rule tables. When an API key is available,
an OpenAI-compatible model refines the analysis; if it fails, labelscan
falls back to the rule tables and tells you so.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .labelscan.yaml in current or home directory)")
	cmd.PersistentFlags().String("db", "",
		"Scan history database (default: labelscan.db in the XDG data directory)")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewSaveCmd())
	cmd.AddCommand(NewDeleteCmd())
	cmd.AddCommand(NewCleanupCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
