package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/labelscan/internal/model"
)

// Step is one stage of a label scan. Steps run in order on the same report.
type Step interface {
	// Do advances the report. A returned error fails the label; problems
	// that only degrade the result are recorded on the report instead.
	Do(ctx context.Context, report *model.ScanReport) error

	// Name identifies the step in logs and in ScanReport.PerformedSteps.
	Name() string
}

// Pipeline runs a fixed sequence of steps over one label.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step over report. It stops at the first failure and
// on cancellation between steps, recording either on the report. Only
// steps that succeed are added to PerformedSteps.
func (p *Pipeline) Execute(ctx context.Context, report *model.ScanReport) error {
	logger := p.logger.With(
		"scan_id", report.Scan.ID.String(),
		"source", string(report.Scan.Source),
	)

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			logger.Warn("scan cancelled", "before_step", step.Name(), "reason", err)
			report.SetError(err)
			return err
		}

		if err := p.runStep(ctx, logger, step, report); err != nil {
			report.SetError(err)
			return err
		}
		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}

func (p *Pipeline) runStep(ctx context.Context, logger *slog.Logger, step Step, report *model.ScanReport) error {
	start := time.Now()
	logger.Debug("step started", "step", step.Name())

	if err := step.Do(ctx, report); err != nil {
		logger.Error("step failed", "step", step.Name(), "error", err)
		return err
	}

	logger.Debug("step finished", "step", step.Name(), "elapsed", time.Since(start))
	return nil
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
