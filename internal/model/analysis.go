package model

// BreakdownItem is the verdict for a single ingredient token.
type BreakdownItem struct {
	// Ingredient is the normalized token this verdict applies to.
	Ingredient string `json:"ingredient"`

	// Classification is Healthy, Moderately Harmful or Harmful.
	Classification Classification `json:"classification"`

	// Severity is the penalty weight (0..5). It is 0 exactly when the
	// classification is Healthy.
	Severity Severity `json:"severity"`

	// Reason is a short human-readable explanation of the verdict.
	Reason string `json:"reason"`
}

// AnalysisResult is the structured analysis of one ingredient label.
// It is produced once per analysis call and treated as an immutable value.
type AnalysisResult struct {
	// HealthScore is clamp(100 - sum(severity*6), 0, 100) over Breakdown.
	HealthScore int `json:"health_score"`

	// Summary is a one-sentence human-readable verdict.
	Summary string `json:"summary"`

	// Breakdown holds one item per unique token, in token order.
	Breakdown []BreakdownItem `json:"breakdown"`

	// Flags lists the ingredients whose classification is not Healthy,
	// in breakdown order.
	Flags []string `json:"flags"`
}

// Clone returns a deep copy of the result so that callers holding the
// original cannot observe later modifications.
func (a AnalysisResult) Clone() AnalysisResult {
	out := a
	out.Breakdown = append(make([]BreakdownItem, 0, len(a.Breakdown)), a.Breakdown...)
	out.Flags = append(make([]string, 0, len(a.Flags)), a.Flags...)
	return out
}

// Count returns the number of breakdown items with the given classification.
func (a AnalysisResult) Count(c Classification) int {
	n := 0
	for _, item := range a.Breakdown {
		if item.Classification == c {
			n++
		}
	}
	return n
}

// ItemsBy returns the breakdown items with the given classification,
// preserving breakdown order.
func (a AnalysisResult) ItemsBy(c Classification) []BreakdownItem {
	var result []BreakdownItem
	for _, item := range a.Breakdown {
		if item.Classification == c {
			result = append(result, item)
		}
	}
	return result
}
