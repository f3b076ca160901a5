package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/nao1215/labelscan/internal/model"
)

const (
	// maxScore is the score of a label with no penalties.
	maxScore = 100

	// summaryClean is used when nothing was flagged.
	summaryClean = "No concerning additives detected."

	// summaryCautionFormat lists the flagged ingredients.
	summaryCautionFormat = "Contains %s; review before frequent consumption."

	// maxHue is the hue of a perfect score (green). Zero is red.
	maxHue = 120
)

// Classify builds the deterministic analysis of a token list.
// It never fails: an empty list scores 100 with an empty breakdown.
func Classify(tokens []string) model.AnalysisResult {
	breakdown := make([]model.BreakdownItem, 0, len(tokens))
	for _, token := range tokens {
		breakdown = append(breakdown, classifyToken(token))
	}

	flags := Flags(breakdown)
	return model.AnalysisResult{
		HealthScore: Score(breakdown),
		Summary:     Summarize(flags),
		Breakdown:   breakdown,
		Flags:       flags,
	}
}

// Score computes clamp(100 - sum(severity*6), 0, 100) over a breakdown.
func Score(breakdown []model.BreakdownItem) int {
	penalty := 0
	for _, item := range breakdown {
		penalty += int(item.Severity) * model.SeverityWeight
	}
	return clamp(maxScore-penalty, 0, maxScore)
}

// Flags returns the ingredients whose classification is not Healthy,
// in breakdown order and without duplicates.
func Flags(breakdown []model.BreakdownItem) []string {
	flags := make([]string, 0)
	seen := make(map[string]struct{})
	for _, item := range breakdown {
		if item.Classification == model.ClassificationHealthy {
			continue
		}
		if _, dup := seen[item.Ingredient]; dup {
			continue
		}
		seen[item.Ingredient] = struct{}{}
		flags = append(flags, item.Ingredient)
	}
	return flags
}

// Summarize renders the one-sentence verdict for a flag list.
func Summarize(flags []string) string {
	if len(flags) == 0 {
		return summaryClean
	}
	return fmt.Sprintf(summaryCautionFormat, strings.Join(flags, ", "))
}

// Finalize re-derives the score and flags of a result from its breakdown.
// The producer's own score and flags are discarded. An empty summary is
// replaced by the rule-based one.
func Finalize(result model.AnalysisResult) model.AnalysisResult {
	out := result.Clone()
	if out.Breakdown == nil {
		out.Breakdown = []model.BreakdownItem{}
	}
	out.HealthScore = Score(out.Breakdown)
	out.Flags = Flags(out.Breakdown)
	if strings.TrimSpace(out.Summary) == "" {
		out.Summary = Summarize(out.Flags)
	}
	return out
}

// ScoreHue maps a score to an HSL hue between 0 (red) and 120 (green).
// Scores outside 0..100 are clamped first.
func ScoreHue(score int) int {
	score = clamp(score, 0, maxScore)
	return int(math.Round(float64(score) / maxScore * maxHue))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
