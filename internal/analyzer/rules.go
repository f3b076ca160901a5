package analyzer

import (
	"regexp"

	"github.com/nao1215/labelscan/internal/model"
)

// Reasons attached to rule-table verdicts.
const (
	reasonHarmfulAdditive = "Artificial additive with potential adverse effects"
	reasonENumber         = "E-number additive; caution advised"
	reasonModeration      = "Consume in moderation"
	reasonCommon          = "Common food ingredient"
)

// harmfulENumbers are azo colours with reported adverse effects.
var harmfulENumbers = map[string]struct{}{
	"e102": {},
	"e110": {},
	"e122": {},
	"e124": {},
	"e129": {},
}

// eNumberPattern matches a generic additive code such as e330.
var eNumberPattern = regexp.MustCompile(`^e\d{3}$`)

// moderateReasons is the moderate-risk lexicon. An empty reason selects
// reasonModeration.
var moderateReasons = map[string]string{
	"sugar":         "Added sugar",
	"palm oil":      "High in saturated fat",
	"salt":          "",
	"glucose syrup": "",
	"fructose":      "",
}

// classifyToken applies the rule tables in precedence order.
// The first matching rule wins.
func classifyToken(token string) model.BreakdownItem {
	item := model.BreakdownItem{Ingredient: token}

	if _, ok := harmfulENumbers[token]; ok {
		item.Classification = model.ClassificationHarmful
		item.Severity = model.SeverityHigh
		item.Reason = reasonHarmfulAdditive
		return item
	}

	if eNumberPattern.MatchString(token) {
		item.Classification = model.ClassificationModeratelyHarmful
		item.Severity = model.SeverityModerate
		item.Reason = reasonENumber
		return item
	}

	if reason, ok := moderateReasons[token]; ok {
		if reason == "" {
			reason = reasonModeration
		}
		item.Classification = model.ClassificationModeratelyHarmful
		item.Severity = model.SeverityModerate
		item.Reason = reason
		return item
	}

	item.Classification = model.ClassificationHealthy
	item.Severity = model.SeverityNone
	item.Reason = reasonCommon
	return item
}
