// Package extractor turns a raw message into the typed entities its intent
// needs. Every probe list is ordered and the first satisfying rule wins.
package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"raphael-assistant/internal/models"
)

// Extract runs the extractor registered for intent. Intents without an
// extractor yield an empty bag.
func Extract(message string, intent models.Intent) models.EntityBag {
	switch intent {
	case models.IntentCalculate:
		return ExtractCalculation(message)
	case models.IntentAddCalendarEvent:
		return ExtractEvent(message)
	case models.IntentAddTask:
		return ExtractTask(message)
	case models.IntentAddExpense:
		return ExtractExpense(message)
	case models.IntentStoreMemory:
		return ExtractMemory(message)
	case models.IntentRetrieveMemory:
		return ExtractMemoryQuery(message)
	default:
		return models.EntityBag{}
	}
}

// keyword is a case-insensitive word-bounded probe with the value it yields.
type keyword struct {
	value string
	re    *regexp.Regexp
}

func words(value string, ws ...string) keyword {
	alts := make([]string, len(ws))
	for i, w := range ws {
		alts[i] = regexp.QuoteMeta(w)
	}
	return keyword{
		value: value,
		re:    regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`),
	}
}

func firstKeyword(table []keyword, text string) (keyword, bool) {
	for _, k := range table {
		if k.re.MatchString(text) {
			return k, true
		}
	}
	return keyword{}, false
}

// titleCase upper-cases the first letter of every word.
func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		r, size := utf8.DecodeRuneInString(f)
		fields[i] = string(unicode.ToUpper(r)) + strings.ToLower(f[size:])
	}
	return strings.Join(fields, " ")
}

var trailingPunct = regexp.MustCompile(`[\s?!.,;:]+$`)

func trimSentence(s string) string {
	return strings.TrimSpace(trailingPunct.ReplaceAllString(strings.TrimSpace(s), ""))
}
