package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCmd creates the delete command.
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <scan-id>",
		Short: "Delete a scan from the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseScanID(args[0])
			if err != nil {
				return err
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

			if err := db.DeleteScan(context.Background(), id); err != nil {
				return describeLookupError(id, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted scan %s\n", id)
			return nil
		},
	}
}
