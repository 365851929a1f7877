// Package classifier maps a raw chat message to one intent with a fixed
// confidence tier. It is a deterministic rule engine: a numeric expression
// wins outright, then the first matching row of an ordered keyword table,
// then the general fallback.
package classifier

import (
	"raphael-assistant/internal/models"
)

const numericLabel = "numeric expression"

// Classifier is safe for concurrent use; its tables are read-only.
type Classifier struct {
	rules      []Rule
	replyRules []replyRule
}

func New() *Classifier {
	return NewWithRules(DefaultRules())
}

// NewWithRules builds a classifier over a custom ordered table.
func NewWithRules(rules []Rule) *Classifier {
	return &Classifier{
		rules:      rules,
		replyRules: defaultReplyRules(),
	}
}

// Classify returns the intent for message.
func (c *Classifier) Classify(message string) models.ClassificationResult {
	text := normalize(message)

	if numericPattern.MatchString(text) {
		return result(models.IntentCalculate, models.ConfidenceNumeric, numericLabel)
	}

	for _, rule := range c.rules {
		if intent, label, ok := rule.match(text); ok {
			return result(intent, models.ConfidenceKeyword, label)
		}
	}

	return models.ClassificationResult{
		Intent:     models.IntentGeneral,
		Confidence: models.ConfidenceFallback,
	}
}

// ClassifyWithReply falls back to the assistant's own reply when the
// message alone is general.
func (c *Classifier) ClassifyWithReply(message, reply string) models.ClassificationResult {
	res := c.Classify(message)
	if res.Intent != models.IntentGeneral || reply == "" {
		return res
	}

	text := normalize(reply)
	for _, rule := range c.replyRules {
		if label, ok := firstMatch(rule.patterns, text); ok {
			return result(rule.intent, models.ConfidenceKeyword, "reply: "+label)
		}
	}
	return res
}

// order reports the table's intents in priority order.
func (c *Classifier) order() []models.Intent {
	out := make([]models.Intent, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Intent
	}
	return out
}

func result(intent models.Intent, confidence float64, label string) models.ClassificationResult {
	return models.ClassificationResult{
		Intent:         intent,
		Confidence:     confidence,
		MatchedPattern: &label,
	}
}
