package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/labelscan/internal/analyzer"
	"github.com/nao1215/labelscan/internal/config"
	"github.com/nao1215/labelscan/internal/model"
	"github.com/nao1215/labelscan/internal/ocr"
	"github.com/nao1215/labelscan/internal/pipeline"
	"github.com/nao1215/labelscan/internal/report"
)

// stdinArg reads a label from standard input when given as a scan argument.
const stdinArg = "-"

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [label-text...]",
		Short: "Analyze one or more ingredient labels",
		Long: `Scan normalizes an ingredient list, classifies every ingredient and
computes a 0-100 health score.

Each argument is one label. Use "-" to read a label from standard input,
--file to read labels from files and --image to recognize a label photo.
Several labels are analyzed concurrently.

If an API key is available (--api-key or the environment variable named by
enhancement.api_key_env, OPENAI_API_KEY by default), labels are analyzed by
the configured model and rescored locally. If the model fails, the rule
tables answer instead and the report says why.

Every scan is kept in the history for 24 hours unless saved.

Examples:
  # Analyze a label
  labelscan scan "Sugar, Water, Citric Acid (E330), Tartrazine"

  # Read a label from a pipe
  cat label.txt | labelscan scan -

  # Recognize a label photo and keep the scan permanently
  labelscan scan --image cereal.jpg --save --notes "breakfast"

  # Never call the model
  labelscan scan --offline "Palm Oil, Salt"

  # Write a Markdown report to a file, with the text report on screen
  labelscan scan --markdown -o report.md "Sugar, E621"`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Input flags
	cmd.Flags().StringSliceP("file", "f", nil,
		"Read a label from a text file (repeatable)")
	cmd.Flags().StringSliceP("image", "i", nil,
		"Recognize a label photo with OCR (repeatable)")

	// Enhancement flags
	cmd.Flags().String("api-key", "",
		"API key for model-backed analysis (default: read from OPENAI_API_KEY)")
	cmd.Flags().Bool("offline", false,
		"Use the rule tables only, even if an API key is available")
	cmd.Flags().String("endpoint", config.DefaultEndpoint,
		"OpenAI-compatible chat-completions URL")
	cmd.Flags().String("model", config.DefaultModel,
		"Model used for analysis")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for one model analysis including retries")
	cmd.Flags().Int("retries", config.DefaultMaxRetries,
		"Retries after timeouts, rate limits and server errors")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy (host:port) for model requests")

	// OCR flags
	cmd.Flags().String("ocr-command", config.DefaultOCRCommand,
		"OCR command line; {image} is replaced by the photo path")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultConcurrency,
		"Number of labels analyzed concurrently")

	// History flags
	cmd.Flags().Bool("save", false,
		"Keep the scan permanently instead of 24 hours")
	cmd.Flags().String("notes", "",
		"Notes attached to a saved scan")
	cmd.Flags().Bool("no-store", false,
		"Do not record the scan in the history")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Also write the report to this file (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildScanConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrEmptyInput) {
			return errors.New("no labels provided (pass label text, '-' for stdin, --file or --image)")
		}
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildScanConfig creates a Config from cobra command flags, then fills in
// the configuration file for anything the flags left at its default.
func buildScanConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := loadConfig(cmd)
	flags := cmd.Flags()

	var err error
	getters := []func() error{
		func() (err error) { cfg.Credential, err = flags.GetString("api-key"); return },
		func() (err error) { cfg.Offline, err = flags.GetBool("offline"); return },
		func() (err error) { cfg.Endpoint, err = flags.GetString("endpoint"); return },
		func() (err error) { cfg.Model, err = flags.GetString("model"); return },
		func() (err error) { cfg.Timeout, err = flags.GetDuration("timeout"); return },
		func() (err error) { cfg.MaxRetries, err = flags.GetInt("retries"); return },
		func() (err error) { cfg.ProxyAddress, err = flags.GetString("proxy"); return },
		func() (err error) { cfg.OCRCommand, err = flags.GetString("ocr-command"); return },
		func() (err error) { cfg.Concurrency, err = flags.GetInt("batch"); return },
		func() (err error) { cfg.Save, err = flags.GetBool("save"); return },
		func() (err error) { cfg.Notes, err = flags.GetString("notes"); return },
		func() (err error) { cfg.NoStore, err = flags.GetBool("no-store"); return },
		func() (err error) { cfg.JSONReport, err = flags.GetBool("json"); return },
		func() (err error) { cfg.MarkdownReport, err = flags.GetBool("markdown"); return },
		func() (err error) { cfg.ReportFile, err = flags.GetString("output"); return },
		func() (err error) { cfg.ImagePaths, err = flags.GetStringSlice("image"); return },
	}
	for _, get := range getters {
		if err = get(); err != nil {
			return nil, err
		}
	}

	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	files, err := flags.GetStringSlice("file")
	if err != nil {
		return nil, err
	}
	cfg.Inputs, err = collectInputs(args, files, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// collectInputs gathers label texts from arguments, files and stdin.
// Stdin is read at most once.
func collectInputs(args, files []string, stdin io.Reader) ([]string, error) {
	inputs := make([]string, 0, len(args)+len(files))
	stdinRead := false

	for _, arg := range args {
		if arg != stdinArg {
			inputs = append(inputs, arg)
			continue
		}
		if stdinRead {
			return nil, errors.New("standard input can only be read once")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		stdinRead = true
		inputs = append(inputs, string(data))
	}

	for _, path := range files {
		data, err := os.ReadFile(path) //nolint:gosec // user-provided label file
		if err != nil {
			return nil, fmt.Errorf("failed to read label file: %w", err)
		}
		inputs = append(inputs, string(data))
	}

	return inputs, nil
}

// scanInputs converts the configured labels into pipeline inputs.
func scanInputs(cfg *config.Config, credential string) []pipeline.Input {
	inputs := make([]pipeline.Input, 0, len(cfg.Inputs)+len(cfg.ImagePaths))
	for _, text := range cfg.Inputs {
		inputs = append(inputs, pipeline.TextInput(text, credential))
	}
	for _, path := range cfg.ImagePaths {
		inputs = append(inputs, pipeline.ImageInput(path, credential))
	}
	return inputs
}

// runScan analyzes every configured label and writes one report per label.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	credential := cfg.ResolveCredential(os.Getenv)

	logger.Info("starting scan",
		"labels", len(cfg.Inputs),
		"images", len(cfg.ImagePaths),
		"mode", analyzer.SelectMode(credential),
		"concurrency", cfg.Concurrency,
		"store", !cfg.NoStore,
	)

	service, err := newService(cfg, credential, logger)
	if err != nil {
		return err
	}

	pipelineCfg := pipeline.DefaultPipelineConfig{
		Service: service,
		Save:    cfg.Save,
		Notes:   cfg.Notes,
		Logger:  logger,
	}

	if len(cfg.ImagePaths) > 0 {
		recognizer, err := ocr.NewCommandRecognizer(cfg.OCRCommand,
			ocr.WithTimeout(cfg.OCRTimeout),
			ocr.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("invalid OCR command: %w", err)
		}
		pipelineCfg.Recognizer = recognizer
	}

	if !cfg.NoStore {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
		pipelineCfg.Store = db
	}

	inputs := scanInputs(cfg, credential)
	startTime := time.Now()

	newPipeline := func() *pipeline.Pipeline { return pipeline.DefaultPipeline(pipelineCfg) }
	logger.Debug("pipeline ready", "steps", strings.Join(newPipeline().StepNames(), ","))

	bp := pipeline.NewBatchProcessor(newPipeline,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	reports, batchErr := bp.ProcessBatch(ctx, inputs)
	if batchErr != nil {
		finished := finishedReports(reports)
		logger.Warn("scan cancelled", "finished", len(finished), "labels", len(inputs))
		if err := outputReports(cfg, finished, stdout); err != nil {
			return err
		}
		return fmt.Errorf("scan cancelled after %d of %d labels: %w", len(finished), len(inputs), batchErr)
	}

	logger.Info("scan complete",
		"labels", len(inputs),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	if err := outputReports(cfg, reports, stdout); err != nil {
		return err
	}

	return summarizeFailures(reports, stderr)
}

// finishedReports drops labels that never started or were cut short.
func finishedReports(reports []*model.ScanReport) []*model.ScanReport {
	finished := make([]*model.ScanReport, 0, len(reports))
	for _, r := range reports {
		if r != nil && r.Error == nil {
			finished = append(finished, r)
		}
	}
	return finished
}

// outputReports writes every report in the requested format. With --output
// the file gets that format and the terminal still gets the text report.
func outputReports(cfg *config.Config, reports []*model.ScanReport, stdout io.Writer) error {
	writer := newReportWriter(stdout, cfg.JSONReport, cfg.MarkdownReport, cfg.Verbose)

	closeOutput := func() error { return nil }
	if cfg.ReportFile != "" {
		file, closeFile, err := openOutput(cfg.ReportFile, stdout)
		if err != nil {
			return err
		}
		closeOutput = closeFile
		defer closeFile() //nolint:errcheck // close error is irrelevant after a failed write

		writer = report.NewMultiWriter(
			newReportWriter(file, cfg.JSONReport, cfg.MarkdownReport, cfg.Verbose),
			report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)),
		)
	}

	for _, r := range reports {
		if r == nil {
			continue
		}
		if _, err := writer.Write(r); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	return closeOutput()
}

// summarizeFailures reports labels whose analysis failed and enhancement
// fallbacks. It returns an error when any label failed.
func summarizeFailures(reports []*model.ScanReport, stderr io.Writer) error {
	var failed []string
	for i, r := range reports {
		if r == nil {
			continue
		}
		if r.Engine == model.EngineFallback {
			fmt.Fprintf(stderr, "Label %d: model analysis failed (%s); rule tables were used instead.\n",
				i+1, r.FallbackReason)
		}
		if r.ErrorMessage != "" {
			failed = append(failed, fmt.Sprintf("label %d: %s", i+1, r.ErrorMessage))
		}
	}

	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d labels failed:\n  %s", len(failed), len(reports), strings.Join(failed, "\n  "))
}
