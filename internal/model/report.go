package model

import "time"

// Engine identifies which producer generated an AnalysisResult.
type Engine string

const (
	// EngineRules is the deterministic rule-table classifier.
	EngineRules Engine = "rules"

	// EngineEnhanced is the external language-model producer, rescored locally.
	EngineEnhanced Engine = "enhanced"

	// EngineFallback means enhancement was attempted, failed, and the
	// rule-table classifier produced the result instead.
	EngineFallback Engine = "rules-fallback"
)

// ImageMeta contains metadata extracted from a label photo.
type ImageMeta struct {
	// CapturedAt is the EXIF original capture time, if present.
	CapturedAt *time.Time `json:"captured_at,omitempty"`

	// CameraMake is the EXIF Make tag.
	CameraMake string `json:"camera_make,omitempty"`

	// CameraModel is the EXIF Model tag.
	CameraModel string `json:"camera_model,omitempty"`

	// HasGPS is true when the photo carries GPS coordinates.
	HasGPS bool `json:"has_gps"`
}

// ScanReport is the envelope one pipeline run fills in.
// It wraps the persisted Scan with provenance that is not part of the
// Scan record itself.
type ScanReport struct {
	// === Persisted Record ===

	// Scan is the record handed to storage.
	Scan *Scan `json:"scan"`

	// === Provenance ===

	// Engine is the producer that generated Scan.Analysis.
	Engine Engine `json:"engine"`

	// FallbackReason explains why enhancement was abandoned.
	// Only set when Engine is EngineFallback.
	FallbackReason string `json:"fallback_reason,omitempty"`

	// Fingerprint identifies the normalized token list.
	Fingerprint string `json:"fingerprint,omitempty"`

	// ImageMeta is set for image scans whose photo carried EXIF data.
	ImageMeta *ImageMeta `json:"image_meta,omitempty"`

	// Credential is the enhancement credential selected for this run.
	// An empty credential selects deterministic mode.
	Credential string `json:"-"`

	// === Run State ===

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains any error that occurred during the run.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewScanReport creates a report for a label captured from source.
func NewScanReport(source Source, rawText string) *ScanReport {
	return &ScanReport{
		Scan:   NewScan(source, rawText),
		Engine: EngineRules,
	}
}

// SetError records err on the report, keeping the first error seen.
func (r *ScanReport) SetError(err error) {
	if err == nil || r.Error != nil {
		return
	}
	r.Error = err
	r.ErrorMessage = err.Error()
}

// Summary returns the condensed view of the report.
func (r *ScanReport) Summary() *Summary {
	return NewSummary(r)
}
