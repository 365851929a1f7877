package extractor

import (
	"regexp"
	"strings"

	"raphael-assistant/internal/models"
)

var subjects = []keyword{
	words("Math", "math", "mathematics", "algebra", "calculus", "geometry"),
	words("English", "english", "literature", "writing"),
	words("Science", "science", "physics", "chemistry", "biology"),
	words("History", "history", "geography", "social studies"),
	words("Computer", "computer", "programming", "coding"),
	words("Art", "art"),
	words("Music", "music"),
}

var assignmentTypes = []keyword{
	words("homework", "homework"),
	words("assignment", "assignment", "assignments"),
	words("project", "project", "projects"),
	words("essay", "essay", "essays"),
	words("report", "report", "reports"),
	words("presentation", "presentation", "presentations"),
	words("task", "task", "tasks"),
	words("todo", "todo", "to-do"),
}

var (
	dueMarker       = regexp.MustCompile(`(?i)\b(?:due|by)\b`)
	descriptionLead = regexp.MustCompile(`(?i)^[\s:\-]*(?:to\s+|for\s+|about\s+)?`)
)

// ExtractTask finds the subject, assignment type, description and due date
// of a homework task.
func ExtractTask(message string) models.EntityBag {
	bag := models.EntityBag{}

	if s, ok := firstKeyword(subjects, message); ok {
		bag[models.EntitySubject] = models.StringValue(s.value)
	}

	description := ""
	if t, ok := firstKeyword(assignmentTypes, message); ok {
		bag[models.EntityAssignmentType] = models.StringValue(t.value)
		loc := t.re.FindStringIndex(message)
		description = descriptionAfter(message[loc[1]:])
	}
	if description == "" {
		description = strings.TrimSpace(message)
	}
	if description != "" {
		bag[models.EntityDescription] = models.StringValue(description)
	}

	if d, ok := extractDate(message); ok {
		bag[models.EntityDueDate] = d
	}
	return bag
}

// descriptionAfter is the text that follows the assignment keyword, up to a
// due marker.
func descriptionAfter(rest string) string {
	if loc := dueMarker.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	rest = descriptionLead.ReplaceAllString(rest, "")
	return trimSentence(rest)
}
