package model

import "fmt"

// Classification is the verdict assigned to a single ingredient.
// The JSON form is the display string ("Moderately Harmful", not an enum name).
type Classification string

const (
	// ClassificationHealthy marks a common food ingredient with no penalty.
	ClassificationHealthy Classification = "Healthy"

	// ClassificationModeratelyHarmful marks an ingredient worth limiting,
	// such as added sugar or a generic E-number additive.
	ClassificationModeratelyHarmful Classification = "Moderately Harmful"

	// ClassificationHarmful marks an additive with known adverse effects.
	ClassificationHarmful Classification = "Harmful"
)

// Classifications lists every classification from least to most concerning.
var Classifications = []Classification{
	ClassificationHealthy,
	ClassificationModeratelyHarmful,
	ClassificationHarmful,
}

// String returns the display form of the classification.
func (c Classification) String() string {
	return string(c)
}

// Valid reports whether c is one of the known classifications.
func (c Classification) Valid() bool {
	return c.Rank() >= 0
}

// Rank returns the display order of the classification (Healthy first).
// It is used for sorting and colouring only and carries no scoring weight.
// Unknown values rank -1.
func (c Classification) Rank() int {
	switch c {
	case ClassificationHealthy:
		return 0
	case ClassificationModeratelyHarmful:
		return 1
	case ClassificationHarmful:
		return 2
	default:
		return -1
	}
}

// Severity is the penalty weight of one ingredient, from 0 to 5.
// The health score subtracts SeverityWeight points per severity unit.
type Severity int

const (
	// SeverityNone is the severity of every Healthy ingredient.
	SeverityNone Severity = 0

	// SeverityModerate is assigned to moderately harmful ingredients.
	SeverityModerate Severity = 2

	// SeverityHigh is assigned to harmful additives.
	SeverityHigh Severity = 4

	// SeverityMax is the upper bound accepted from any producer.
	SeverityMax Severity = 5
)

// SeverityWeight is the number of score points one severity unit costs.
const SeverityWeight = 6

// Valid reports whether s is within the accepted 0..5 range.
func (s Severity) Valid() bool {
	return s >= SeverityNone && s <= SeverityMax
}

// String returns a human-readable representation of the severity.
func (s Severity) String() string {
	if !s.Valid() {
		return "UNKNOWN"
	}
	return fmt.Sprintf("%d/%d", int(s), int(SeverityMax))
}
