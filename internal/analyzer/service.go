package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/nao1215/labelscan/internal/model"
)

// ErrNoEnhancer is the fallback reason when a credential is supplied but
// the service was built without an Enhancer.
var ErrNoEnhancer = errors.New("no enhancer configured")

// Mode is the analysis mode selected for one call.
type Mode int

const (
	// ModeDeterministic uses the rule tables only.
	ModeDeterministic Mode = iota
	// ModeEnhanced asks an Enhancer first and falls back to the rule tables.
	ModeEnhanced
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDeterministic:
		return "deterministic"
	case ModeEnhanced:
		return "enhanced"
	default:
		return "unknown"
	}
}

// SelectMode picks the mode for one call from the credential.
func SelectMode(credential string) Mode {
	if strings.TrimSpace(credential) == "" {
		return ModeDeterministic
	}
	return ModeEnhanced
}

// Enhancement is the outcome of one enhancement attempt: a usable analysis
// when Err is nil, otherwise the reason the attempt failed.
type Enhancement struct {
	Analysis model.AnalysisResult
	Err      error
}

// Enhanced wraps a successful enhancement.
func Enhanced(result model.AnalysisResult) Enhancement {
	return Enhancement{Analysis: result}
}

// Failed wraps a failed enhancement.
func Failed(reason error) Enhancement {
	return Enhancement{Err: reason}
}

// OK reports whether the enhancement succeeded.
func (e Enhancement) OK() bool {
	return e.Err == nil
}

// Enhancer is an alternate producer of AnalysisResults.
// Implementations report failure through Enhancement.Err and must not panic.
type Enhancer interface {
	Enhance(ctx context.Context, tokens []string, credential string) Enhancement
}

// Outcome is the result of Service.Analyze.
type Outcome struct {
	// Analysis is always a valid result.
	Analysis model.AnalysisResult

	// Engine names the producer of Analysis.
	Engine model.Engine

	// FallbackReason is set when Engine is model.EngineFallback.
	FallbackReason error
}

// Service runs the classify-or-enhance operation.
type Service struct {
	enhancer Enhancer
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEnhancer sets the producer used in enhanced mode.
func WithEnhancer(e Enhancer) Option {
	return func(s *Service) {
		s.enhancer = e
	}
}

// WithLogger sets the logger for fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a Service. Without WithEnhancer every call is
// answered by the rule tables.
func NewService(opts ...Option) *Service {
	s := &Service{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze classifies tokens, using the Enhancer when credential is
// non-empty. It never fails; enhancement failures are recorded in the
// Outcome and answered by Classify on the same tokens.
func (s *Service) Analyze(ctx context.Context, tokens []string, credential string) Outcome {
	if SelectMode(credential) == ModeDeterministic {
		return Outcome{Analysis: Classify(tokens), Engine: model.EngineRules}
	}

	var enhancement Enhancement
	if s.enhancer == nil {
		enhancement = Failed(ErrNoEnhancer)
	} else {
		enhancement = s.enhancer.Enhance(ctx, tokens, credential)
	}

	if !enhancement.OK() {
		s.logger.Warn("enhancement failed, using rule tables",
			"ingredients", len(tokens),
			"reason", enhancement.Err)
		return Outcome{
			Analysis:       Classify(tokens),
			Engine:         model.EngineFallback,
			FallbackReason: enhancement.Err,
		}
	}

	// Enhancers are untrusted; rescore whatever they return.
	return Outcome{
		Analysis: Finalize(enhancement.Analysis),
		Engine:   model.EngineEnhanced,
	}
}
