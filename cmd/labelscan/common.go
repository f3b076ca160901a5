package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/labelscan/internal/analyzer"
	"github.com/nao1215/labelscan/internal/config"
	"github.com/nao1215/labelscan/internal/database"
	"github.com/nao1215/labelscan/internal/enhance"
	seclog "github.com/nao1215/labelscan/internal/log"
	"github.com/nao1215/labelscan/internal/model"
	"github.com/nao1215/labelscan/internal/report"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getGlobalString retrieves a string persistent flag from the command or its parent.
func getGlobalString(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return value
}

// loadConfig creates a Config from the global flags, then fills in
// whatever the configuration file sets. Callers apply their own flags
// before calling applyConfigFile when those must win over the file.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getGlobalString(cmd, "config")
	cfg.DBPath = getGlobalString(cmd, "db")
	return cfg
}

// applyConfigFile merges the configuration file into cfg.
// If the user explicitly specified a path, a missing file is an error.
// Otherwise a missing file is silently ignored.
func applyConfigFile(cfg *config.Config) error {
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	file.Apply(cfg)
	return nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Secrets are redacted before anything reaches w.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	return seclog.NewSecureLogger(w, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// openDB opens the scan history configured in cfg.
func openDB(cfg *config.Config) (*database.ScanDB, error) {
	db, err := database.Open(cfg.DatabasePath(), database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// newService creates the analysis service. With a credential, labels are
// sent to the enhancement endpoint and fall back to the rule tables on failure.
func newService(cfg *config.Config, credential string, logger *slog.Logger) (*analyzer.Service, error) {
	if credential == "" {
		return analyzer.NewService(analyzer.WithLogger(logger)), nil
	}

	adapter, err := enhance.NewAdapter(enhance.Config{
		Endpoint:     cfg.Endpoint,
		Model:        cfg.Model,
		Timeout:      cfg.Timeout,
		MaxRetries:   uint64(max(cfg.MaxRetries, 0)), //nolint:gosec // clamped to non-negative
		ProxyAddress: cfg.ProxyAddress,
	}, enhance.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create enhancement adapter: %w", err)
	}

	return analyzer.NewService(
		analyzer.WithEnhancer(adapter),
		analyzer.WithLogger(logger),
	), nil
}

// parseScanID parses a scan id given on the command line.
func parseScanID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid scan id %q: %w", arg, err)
	}
	return id, nil
}

// describeLookupError turns a not-found error into a user-facing message.
func describeLookupError(id uuid.UUID, err error) error {
	if errors.Is(err, database.ErrScanNotFound) {
		return fmt.Errorf("scan %s not found (it may have expired; use 'labelscan history' to list scans)", id)
	}
	return err
}

// openOutput returns the report destination: path, or stdout when path is empty.
// The returned close function is always safe to call.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports contain the user's notes and label text, so keep them private.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-chosen output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter selects the report writer for the requested format.
func newReportWriter(w io.Writer, jsonOutput, markdownOutput, verbose bool) report.Writer {
	switch {
	case jsonOutput:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case markdownOutput:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(verbose))
	}
}

// storedReport wraps a scan loaded from history for the report writers.
// The engine is not persisted, so it is left empty.
func storedReport(scan *model.Scan) *model.ScanReport {
	return &model.ScanReport{
		Scan:        scan,
		Fingerprint: model.Fingerprint(scan.CleanedIngredients),
	}
}
