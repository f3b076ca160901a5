package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/labelscan/internal/config"
)

//go:embed templates/labelscan.yaml
var configTemplate embed.FS

const configTemplatePath = "templates/labelscan.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a labelscan configuration file",
		Long: `Init writes a commented .labelscan.yaml to the current directory.

The generated file documents every option with its default value:
enhancement endpoint and model, OCR command, history location, report
format and batch concurrency. The API key is never stored in it; the
file names the environment variable that holds the key.

Without --config, labelscan reads the first file found among:
  ./.labelscan.yaml
  $XDG_CONFIG_HOME/labelscan/config.yaml
  ~/.labelscan.yaml

Examples:
  # Create .labelscan.yaml in the current directory
  labelscan init

  # Create the file in your home directory
  labelscan init -o ~/.labelscan.yaml

  # Create the file in the XDG config directory
  labelscan init -o "${XDG_CONFIG_HOME:-$HOME/.config}/labelscan/config.yaml"

  # Overwrite an existing file
  labelscan init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(configTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to change defaults such as:")
	fmt.Fprintln(out, "  - The enhancement endpoint, model and API key variable")
	fmt.Fprintln(out, "  - The OCR command used for label photos")
	fmt.Fprintln(out, "  - The report format and history location")

	return nil
}
