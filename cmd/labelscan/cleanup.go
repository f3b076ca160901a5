package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewCleanupCmd creates the cleanup command.
func NewCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired scans",
		Long: `Cleanup removes unsaved scans older than 24 hours.

Listing the history does this automatically; this command is useful from cron.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig(cmd)
			if err := applyConfigFile(cfg); err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			removed, err := db.CleanupExpired(context.Background(), time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired scan(s)\n", removed)
			return nil
		},
	}
}
