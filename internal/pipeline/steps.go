package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/labelscan/internal/analyzer"
	"github.com/nao1215/labelscan/internal/ingredient"
	"github.com/nao1215/labelscan/internal/model"
	"github.com/nao1215/labelscan/internal/ocr"
)

// ErrNoImagePath is returned by OCRStep when an image scan carries no path.
var ErrNoImagePath = errors.New("image scan has no image path")

// OCRStep fills in the raw text of image scans. Text scans pass through.
type OCRStep struct {
	recognizer ocr.Recognizer
	readMeta   func(path string) (*model.ImageMeta, error)
	logger     *slog.Logger
}

// OCRStepOption configures an OCRStep.
type OCRStepOption func(*OCRStep)

// WithOCRLogger sets a custom logger for the OCR step.
func WithOCRLogger(logger *slog.Logger) OCRStepOption {
	return func(s *OCRStep) {
		s.logger = logger
	}
}

// WithImageMetaReader replaces the EXIF reader. Nil disables metadata.
func WithImageMetaReader(read func(path string) (*model.ImageMeta, error)) OCRStepOption {
	return func(s *OCRStep) {
		s.readMeta = read
	}
}

// NewOCRStep creates an OCR step backed by recognizer.
func NewOCRStep(recognizer ocr.Recognizer, opts ...OCRStepOption) *OCRStep {
	s := &OCRStep{
		recognizer: recognizer,
		readMeta:   ocr.ReadImageMeta,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *OCRStep) Name() string {
	return "ocr"
}

// Do recognizes the label photo and records its metadata.
func (s *OCRStep) Do(ctx context.Context, report *model.ScanReport) error {
	scan := report.Scan
	if scan.Source != model.SourceImage {
		return nil
	}
	if scan.ImagePath == nil {
		return ErrNoImagePath
	}
	path := *scan.ImagePath

	text, err := s.recognizer.Recognize(ctx, path)
	if err != nil {
		return fmt.Errorf("ocr failed: %w", err)
	}
	scan.RawText = text

	if s.readMeta != nil {
		meta, err := s.readMeta(path)
		if err != nil {
			// Metadata is informational; a damaged EXIF block never fails the scan.
			s.logger.Debug("image metadata unavailable", "image", path, "error", err)
		} else {
			report.ImageMeta = meta
		}
	}

	return nil
}

// NormalizeStep turns the raw text into the cleaned token list.
type NormalizeStep struct{}

// NewNormalizeStep creates a normalization step.
func NewNormalizeStep() *NormalizeStep {
	return &NormalizeStep{}
}

// Name returns the step name.
func (s *NormalizeStep) Name() string {
	return "normalize"
}

// Do normalizes the raw text and fingerprints the result.
func (s *NormalizeStep) Do(_ context.Context, report *model.ScanReport) error {
	tokens := ingredient.Normalize(report.Scan.RawText)
	report.Scan.CleanedIngredients = tokens
	report.Fingerprint = model.Fingerprint(tokens)
	return nil
}

// AnalyzeStep classifies the cleaned tokens, enhanced when the report
// carries a credential.
type AnalyzeStep struct {
	service *analyzer.Service
}

// NewAnalyzeStep creates an analysis step. A nil service analyzes with
// the rule tables only.
func NewAnalyzeStep(service *analyzer.Service) *AnalyzeStep {
	if service == nil {
		service = analyzer.NewService()
	}
	return &AnalyzeStep{service: service}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do analyzes the tokens and records which engine answered.
func (s *AnalyzeStep) Do(ctx context.Context, report *model.ScanReport) error {
	tokens := report.Scan.CleanedIngredients
	outcome := s.service.Analyze(ctx, tokens, report.Credential)

	report.Scan.SetAnalysis(tokens, outcome.Analysis)
	report.Engine = outcome.Engine
	report.FallbackReason = ""
	if outcome.FallbackReason != nil {
		report.FallbackReason = outcome.FallbackReason.Error()
	}
	return nil
}

// Store persists scans. *database.ScanDB satisfies it.
type Store interface {
	SaveScan(ctx context.Context, scan *model.Scan) error
}

// StoreStep persists the finished scan.
type StoreStep struct {
	store Store
	save  bool
	notes string
}

// StoreStepOption configures a StoreStep.
type StoreStepOption func(*StoreStep)

// WithSaved marks stored scans as saved, with optional notes.
func WithSaved(save bool, notes string) StoreStepOption {
	return func(s *StoreStep) {
		s.save = save
		s.notes = notes
	}
}

// NewStoreStep creates a persistence step.
func NewStoreStep(store Store, opts ...StoreStepOption) *StoreStep {
	s := &StoreStep{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return "store"
}

// Do writes the scan to the store.
func (s *StoreStep) Do(ctx context.Context, report *model.ScanReport) error {
	if s.save {
		report.Scan.Saved = true
		if s.notes != "" {
			report.Scan.SetNotes(s.notes)
		}
	}
	if err := s.store.SaveScan(ctx, report.Scan); err != nil {
		return fmt.Errorf("failed to store scan: %w", err)
	}
	return nil
}

// DefaultPipelineConfig holds the collaborators of the standard pipeline.
type DefaultPipelineConfig struct {
	// Recognizer handles image sources. Nil omits the OCR step.
	Recognizer ocr.Recognizer

	// Service analyzes tokens. Nil uses the rule tables only.
	Service *analyzer.Service

	// Store persists scans. Nil omits the store step.
	Store Store

	// Save marks stored scans as saved.
	Save bool

	// Notes are attached to saved scans.
	Notes string

	// Logger is passed to steps that log.
	Logger *slog.Logger
}

// DefaultPipeline creates the standard scan pipeline:
// ocr (when a recognizer is set), normalize, analyze, store (when a store is set).
func DefaultPipeline(cfg DefaultPipelineConfig, pipelineOpts ...Option) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(append([]Option{WithLogger(logger)}, pipelineOpts...)...)

	if cfg.Recognizer != nil {
		p.AddStep(NewOCRStep(cfg.Recognizer, WithOCRLogger(logger)))
	}
	p.AddSteps(
		NewNormalizeStep(),
		NewAnalyzeStep(cfg.Service),
	)
	if cfg.Store != nil {
		p.AddStep(NewStoreStep(cfg.Store, WithSaved(cfg.Save, cfg.Notes)))
	}

	return p
}
