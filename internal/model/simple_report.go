package model

import (
	"time"

	"github.com/google/uuid"
)

// Summary is a condensed, human-readable view of a scan.
// It keeps the counts and flags a reader scans first and drops the
// per-ingredient reasons.
type Summary struct {
	// ScanID identifies the summarized scan.
	ScanID uuid.UUID `json:"scan_id"`

	// DateScanned is when the scan was performed.
	DateScanned time.Time `json:"date_scanned"`

	// Source is "image" or "text".
	Source Source `json:"source"`

	// Engine is the producer of the analysis.
	Engine Engine `json:"engine"`

	// === Score ===

	// HealthScore is the 0..100 score.
	HealthScore int `json:"health_score"`

	// Verdict is the one-sentence summary of the analysis.
	Verdict string `json:"verdict"`

	// === Classification Counts ===

	// HarmfulCount is the number of Harmful ingredients.
	HarmfulCount int `json:"harmful_count"`

	// ModerateCount is the number of Moderately Harmful ingredients.
	ModerateCount int `json:"moderate_count"`

	// HealthyCount is the number of Healthy ingredients.
	HealthyCount int `json:"healthy_count"`

	// Flags lists the flagged ingredients.
	Flags []string `json:"flags,omitempty"`

	// Saved reports whether the scan is exempt from expiry.
	Saved bool `json:"saved"`

	// Error contains any error message if the run failed.
	Error string `json:"error,omitempty"`
}

// NewSummary creates a Summary from a ScanReport.
func NewSummary(report *ScanReport) *Summary {
	s := &Summary{
		Engine: report.Engine,
		Error:  report.ErrorMessage,
	}
	if report.Scan == nil {
		return s
	}

	scan := report.Scan
	s.ScanID = scan.ID
	s.DateScanned = scan.Timestamp
	s.Source = scan.Source
	s.Saved = scan.Saved
	s.HealthScore = scan.Analysis.HealthScore
	s.Verdict = scan.Analysis.Summary
	s.Flags = append(s.Flags, scan.Analysis.Flags...)
	s.countByClassification(scan.Analysis)

	return s
}

// countByClassification counts breakdown items by classification.
func (s *Summary) countByClassification(a AnalysisResult) {
	for _, item := range a.Breakdown {
		switch item.Classification {
		case ClassificationHarmful:
			s.HarmfulCount++
		case ClassificationModeratelyHarmful:
			s.ModerateCount++
		case ClassificationHealthy:
			s.HealthyCount++
		}
	}
}

// TotalIngredients returns the number of analyzed ingredients.
func (s *Summary) TotalIngredients() int {
	return s.HarmfulCount + s.ModerateCount + s.HealthyCount
}

// HasFlags returns true if any ingredient was flagged.
func (s *Summary) HasFlags() bool {
	return len(s.Flags) > 0
}
