// internal/models/results.go
package models

import "raphael-assistant/internal/common/errors"

// Fixed confidence tiers reported by the classifier.
const (
	ConfidenceNumeric  = 0.9
	ConfidenceKeyword  = 0.8
	ConfidenceFallback = 0.5
)

type ClassificationResult struct {
	Intent         Intent  `json:"intent"`
	Confidence     float64 `json:"confidence"`
	MatchedPattern *string `json:"matchedPattern,omitempty"`
}

type ValidationResult struct {
	Valid             bool      `json:"valid"`
	MissingFields     []string  `json:"missingFields"`
	CorrectedEntities EntityBag `json:"correctedEntities"`
}

// ActionOutcome is the result of one dispatch call.
type ActionOutcome struct {
	ResponseFragment    string       `json:"responseFragment"`
	SideEffectPerformed bool         `json:"sideEffectPerformed"`
	Err                 *errors.Kind `json:"error,omitempty"`
}

// TurnResult is what a processed turn hands back to its caller.
type TurnResult struct {
	ResponseText string `json:"responseText"`
	Intent       Intent `json:"intent"`
}
