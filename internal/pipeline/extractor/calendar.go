package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"raphael-assistant/internal/models"
)

var (
	clock24      = regexp.MustCompile(`\b((?:[01]?\d|2[0-3]):[0-5]\d)\b(\s*[AaPp]\.?[Mm])?`)
	hourMeridie  = regexp.MustCompile(`(?i)\b(1[0-2]|0?[1-9])\s*([ap])\.?m\b`)
	clockMeridie = regexp.MustCompile(`(?i)\b(1[0-2]|0?[1-9]):([0-5]\d)\s*([ap])\.?m\b`)
	atHour       = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})\b`)
	namedTime    = regexp.MustCompile(`(?i)\b(noon|midnight|morning|afternoon|evening|tonight)\b`)
)

// eventNouns are checked before any custom title is derived.
var eventNouns = []keyword{
	words("Meeting", "meeting"),
	words("Appointment", "appointment"),
	words("Call", "call"),
	words("Lunch", "lunch"),
	words("Dinner", "dinner"),
	words("Conference", "conference"),
}

var (
	leadingVerb = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:schedule|book|create|add|set\s+up|plan|remind\s+me\s+(?:to|about))\s+(?:an?\s+|the\s+|my\s+)?`)
	titleStop   = regexp.MustCompile(`(?i)\s+(?:at|on|for|tomorrow|today|tonight|next\s+week|to\s+(?:my\s+)?calendar)\b`)
)

const customTitleWords = 4

// ExtractEvent pulls the time, date and title of a calendar event.
func ExtractEvent(message string) models.EntityBag {
	bag := models.EntityBag{}

	if t, ok := extractTime(message); ok {
		bag[models.EntityTime] = models.TimeValue(t)
	}
	if d, ok := extractDate(message); ok {
		bag[models.EntityDate] = d
	}
	if noun, ok := firstKeyword(eventNouns, message); ok {
		bag[models.EntityTitle] = models.StringValue(noun.value)
	} else if title := customTitle(message); title != "" {
		bag[models.EntityCustomTitle] = models.StringValue(title)
	}
	return bag
}

func extractTime(message string) (string, bool) {
	for _, m := range clock24.FindAllStringSubmatch(message, -1) {
		if m[2] == "" {
			return m[1], true
		}
	}
	if m := hourMeridie.FindStringSubmatch(message); m != nil {
		return fmt.Sprintf("%s%sm", strings.TrimLeft(m[1], "0"), strings.ToLower(m[2])), true
	}
	if m := clockMeridie.FindStringSubmatch(message); m != nil {
		return fmt.Sprintf("%s:%s%sm", strings.TrimLeft(m[1], "0"), m[2], strings.ToLower(m[3])), true
	}
	if m := atHour.FindStringSubmatch(message); m != nil {
		return m[1], true
	}
	if m := namedTime.FindStringSubmatch(message); m != nil {
		return strings.ToLower(m[1]), true
	}
	return "", false
}

// customTitle keeps the first few words after the scheduling verb, cut at
// the first time or date marker.
func customTitle(message string) string {
	rest := trimSentence(leadingVerb.ReplaceAllString(message, ""))
	if loc := titleStop.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	if len(fields) > customTitleWords {
		fields = fields[:customTitleWords]
	}
	return titleCase(strings.Join(fields, " "))
}
