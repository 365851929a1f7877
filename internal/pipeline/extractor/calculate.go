package extractor

import (
	"regexp"
	"strings"

	"raphael-assistant/internal/models"
)

var (
	numericRun = regexp.MustCompile(`[\d+\-*/().%\s]+`)
	hasDigit   = regexp.MustCompile(`\d`)
	// an operator sitting between two operands
	operatorBetween = regexp.MustCompile(`[\d.)]\s*(?:\*\*|[+\-*/%])\s*[-+(.\d]`)

	wordExpressionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bwhat\s+is\s+(.+?)(?:\s*\?|$)`),
		regexp.MustCompile(`(?i)\bwhat's\s+(.+?)(?:\s*\?|$)`),
		regexp.MustCompile(`(?i)\bcalculate\s+(.+?)(?:\s*\?|$)`),
		regexp.MustCompile(`(?i)\bsolve\s+(.+?)(?:\s*\?|$)`),
		regexp.MustCompile(`(?i)\bcompute\s+(.+?)(?:\s*\?|$)`),
	}
)

// ExtractCalculation captures the longest numeric run of the message as
// expression. When that run has no operator between operands the natural
// language phrasing after "what is", "calculate" and friends is kept as
// wordExpression.
func ExtractCalculation(message string) models.EntityBag {
	bag := models.EntityBag{}

	run := longestNumericRun(message)
	if run != "" {
		bag[models.EntityExpression] = models.StringValue(run)
	}
	if run != "" && operatorBetween.MatchString(run) {
		return bag
	}

	for _, re := range wordExpressionPatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			if expr := trimSentence(m[1]); expr != "" {
				bag[models.EntityWordExpression] = models.StringValue(expr)
				break
			}
		}
	}
	return bag
}

func longestNumericRun(message string) string {
	best := ""
	for _, candidate := range numericRun.FindAllString(message, -1) {
		candidate = strings.TrimSpace(candidate)
		if !hasDigit.MatchString(candidate) {
			continue
		}
		if len(candidate) > len(best) {
			best = candidate
		}
	}
	return best
}
