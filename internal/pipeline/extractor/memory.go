package extractor

import (
	"regexp"
	"strings"

	"raphael-assistant/internal/models"
)

var memoryCategories = []keyword{
	words("personal_info", "my name", "i am", "i'm called", "call me"),
	words("preferences", "i like", "i love", "i prefer", "i hate", "my favorite"),
	words("goals", "i want to", "my goal", "i hope", "i plan"),
	words("important_dates", "birthday", "anniversary", "important date"),
	words("contacts", "my friend", "my family", "contact", "phone number"),
	words("work_school", "work", "job", "school", "class", "teacher", "boss"),
}

// DefaultMemoryCategory applies when no category probe matches.
const DefaultMemoryCategory = "general"

var memoryQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwhat\s+do\s+you\s+know\s+about\s+(.+)`),
	regexp.MustCompile(`(?i)\btell\s+me\s+about\s+(.+)`),
	regexp.MustCompile(`(?i)\bdo\s+you\s+remember\s+(.+)`),
	regexp.MustCompile(`(?i)\bwhat\s+did\s+i\s+(?:tell\s+you|say)\s+about\s+(.+)`),
	regexp.MustCompile(`(?i)\brecall\s+(.+)`),
}

// ExtractMemory keeps the whole message as the memory and tags it with the
// first matching category.
func ExtractMemory(message string) models.EntityBag {
	text := strings.TrimSpace(message)
	if text == "" {
		return models.EntityBag{}
	}
	category := DefaultMemoryCategory
	if c, ok := firstKeyword(memoryCategories, text); ok {
		category = c.value
	}
	return models.EntityBag{
		models.EntityMemoryText: models.StringValue(text),
		models.EntityCategory:   models.StringValue(category),
	}
}

// ExtractMemoryQuery pulls the topic of a recall request, or the whole
// message when no recall phrasing is present.
func ExtractMemoryQuery(message string) models.EntityBag {
	query := ""
	for _, re := range memoryQueryPatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			query = trimSentence(m[1])
			break
		}
	}
	if query == "" {
		query = trimSentence(message)
	}
	if query == "" {
		return models.EntityBag{}
	}
	return models.EntityBag{models.EntityQuery: models.StringValue(query)}
}
