package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	seclog "github.com/nao1215/labelscan/internal/log"
	"github.com/nao1215/labelscan/internal/mcpserver"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run labelscan as an MCP server over stdio",
		Long: `Serve exposes label analysis to MCP clients such as editors and
assistants. The server speaks JSON-RPC on stdin and stdout; logs go to
stderr as JSON.

Tools:
  analyze_ingredients  Analyze label text and store the scan
  list_scans           List recent scans
  get_scan             Fetch one scan by id
  save_scan            Keep a scan permanently

The history tools are not registered with --no-store.

Example client configuration:
  {"command": "labelscan", "args": ["serve"]}`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("api-key", "",
		"Enhancement API key (default: read from the configured environment variable)")
	cmd.Flags().Bool("offline", false, "Always use the rule tables")
	cmd.Flags().Bool("no-store", false, "Do not keep a scan history")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig(cmd)

	var err error
	if cfg.Credential, err = cmd.Flags().GetString("api-key"); err != nil {
		return err
	}
	if cfg.Offline, err = cmd.Flags().GetBool("offline"); err != nil {
		return err
	}
	if cfg.NoStore, err = cmd.Flags().GetBool("no-store"); err != nil {
		return err
	}
	if err := applyConfigFile(cfg); err != nil {
		return err
	}
	if err := cfg.ValidateSettings(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// stdout carries the protocol.
	logger := seclog.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)

	credential := cfg.ResolveCredential(os.Getenv)
	service, err := newService(cfg, credential, logger)
	if err != nil {
		return err
	}

	serverCfg := mcpserver.Config{
		Version:    getVersion(),
		Service:    service,
		Credential: credential,
		Logger:     logger,
	}

	if !cfg.NoStore {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		serverCfg.Store = db
		logger.Debug("scan history opened", "path", db.Path())
	}

	logger.Info("starting MCP server", "version", getVersion(), "store", serverCfg.Store != nil)

	return mcpserver.Serve(mcpserver.New(serverCfg))
}
