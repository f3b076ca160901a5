package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/labelscan/internal/model"
)

// DefaultConcurrency is the batch concurrency used when none is configured.
const DefaultConcurrency = 4

// Input is one label to run through the pipeline.
type Input struct {
	// Source is where the label came from.
	Source model.Source

	// Text is the raw label text. For image sources it is filled by OCR.
	Text string

	// ImagePath is the label photo for image sources.
	ImagePath string

	// Credential selects enhanced analysis when non-empty.
	Credential string
}

// TextInput is a text label analyzed with the given credential.
func TextInput(text, credential string) Input {
	return Input{Source: model.SourceText, Text: text, Credential: credential}
}

// ImageInput is a photographed label analyzed with the given credential.
func ImageInput(path, credential string) Input {
	return Input{Source: model.SourceImage, ImagePath: path, Credential: credential}
}

// NewReport creates the report a pipeline run fills in for in.
func NewReport(in Input) *model.ScanReport {
	report := model.NewScanReport(in.Source, in.Text)
	if in.Source == model.SourceImage {
		report.Scan.SetImagePath(in.ImagePath)
	}
	report.Credential = in.Credential
	return report
}

// label returns a short name for logging.
func (in Input) label() string {
	if in.Source == model.SourceImage {
		return in.ImagePath
	}
	return "text"
}

// BatchProcessor runs one fresh pipeline per label, a bounded number at a time.
type BatchProcessor struct {
	newPipeline func() *Pipeline
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a batch processor. newPipeline is called once
// per label.
func NewBatchProcessor(newPipeline func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		newPipeline: newPipeline,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch analyzes inputs concurrently and returns one report per
// input, in input order. A failed label keeps its error on its report.
// The error return is set only when ctx is cancelled. The slice then holds
// every label that was started and nil for the rest.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, inputs []Input) ([]*model.ScanReport, error) {
	start := time.Now()
	bp.logger.Debug("batch started", "labels", len(inputs), "concurrency", bp.concurrency)

	results := make([]*model.ScanReport, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bp.logger.Debug("analyzing label", "label", in.label(), "n", i+1, "of", len(inputs))

			report := NewReport(in)
			if err := bp.newPipeline().Execute(gctx, report); err != nil {
				bp.logger.Warn("label failed", "label", in.label(), "error", err)
			}
			results[i] = report
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	bp.logger.Debug("batch finished", "labels", len(inputs), "elapsed", time.Since(start))
	return results, err
}
