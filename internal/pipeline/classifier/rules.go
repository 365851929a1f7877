package classifier

import (
	"regexp"
	"strings"

	"raphael-assistant/internal/models"
)

// numericPattern forces the calculate intent ahead of any keyword rule.
var numericPattern = regexp.MustCompile(`\d+\s*[+\-*/%]\s*\d+`)

type pattern struct {
	label string
	re    *regexp.Regexp
}

// phrase compiles a case-insensitive substring match, so "remembered"
// still hits "remember".
func phrase(p string) pattern {
	return pattern{label: p, re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p))}
}

// raw wraps a hand-written regular expression.
func raw(label, expr string) pattern {
	return pattern{label: label, re: regexp.MustCompile(`(?i)` + expr)}
}

func phrases(ps ...string) []pattern {
	out := make([]pattern, len(ps))
	for i, p := range ps {
		out[i] = phrase(p)
	}
	return out
}

func firstMatch(patterns []pattern, text string) (string, bool) {
	for _, p := range patterns {
		if p.re.MatchString(text) {
			return p.label, true
		}
	}
	return "", false
}

// split resolves a matched domain into its write or read intent: any write
// marker selects the write intent, otherwise the read intent.
type split struct {
	write, read models.Intent
	writes      []pattern
}

func (s *split) resolve(text string) models.Intent {
	if _, ok := firstMatch(s.writes, text); ok {
		return s.write
	}
	return s.read
}

// Rule is one row of the ordered keyword table.
type Rule struct {
	Intent   models.Intent
	patterns []pattern
	split    *split
}

func (r Rule) match(text string) (models.Intent, string, bool) {
	label, ok := firstMatch(r.patterns, text)
	if !ok {
		return "", "", false
	}
	if r.split != nil {
		return r.split.resolve(text), label, true
	}
	return r.Intent, label, true
}

// DefaultRules is the keyword table in priority order. Memory store beats
// memory retrieval, calendar write beats calendar read, and both come
// before calculate, tasks and expenses.
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent: models.IntentStoreMemory,
			patterns: phrases(
				"remember", "store", "save", "keep in mind", "note that",
				"my name is", "i am", "i like", "i love", "i hate", "i prefer",
			),
		},
		{
			Intent: models.IntentRetrieveMemory,
			patterns: phrases(
				"what do you know about", "tell me about", "recall",
				"what did i say about", "what did i tell you about", "remind me",
			),
		},
		{
			Intent: models.IntentAddCalendarEvent,
			patterns: phrases(
				"schedule", "book", "set up a meeting", "add to calendar", "create event",
				"appointment", "remind me to", "meeting at",
			),
		},
		{
			Intent: models.IntentGetCalendarEvents,
			patterns: phrases(
				"what's on my calendar", "what is on my calendar", "my calendar", "my schedule",
				"what do i have today", "any meetings", "events today", "my appointments",
			),
		},
		{
			Intent: models.IntentCalculate,
			patterns: append(
				phrases("calculate", "compute", "solve", "plus", "minus", "times",
					"multiplied by", "divided by", "percent", "%"),
				raw("what is <number>", `\bwhat(?:\s+is|'s)\s+[-+(.\d]`),
			),
		},
		{
			Intent: models.IntentAddTask,
			patterns: phrases(
				"homework", "assignment", "task", "todo", "to-do",
				"need to do", "i have to", "what's due",
			),
			split: &split{
				write:  models.IntentAddTask,
				read:   models.IntentGetTasks,
				writes: phrases("add", "new", "have"),
			},
		},
		{
			Intent: models.IntentAddExpense,
			patterns: phrases(
				"spent", "spend", "bought", "paid", "cost", "expense", "purchase",
				"budget", "financial summary", "money",
			),
			split: &split{
				write:  models.IntentAddExpense,
				read:   models.IntentGetBudget,
				writes: phrases("add", "new", "spent", "bought", "paid", "cost", "purchase"),
			},
		},
	}
}

type replyRule struct {
	intent   models.Intent
	patterns []pattern
}

// defaultReplyRules recognise what the assistant said it is doing. Only
// consulted when the message alone classified as general.
func defaultReplyRules() []replyRule {
	return []replyRule{
		{models.IntentStoreMemory, []pattern{
			raw("i'll remember", `\bi'll remember\b`), raw("i'll store", `\bi'll store\b`),
			raw("i'll save", `\bi'll save\b`), raw("storing", `\bstoring\b`),
		}},
		{models.IntentRetrieveMemory, []pattern{
			raw("here's what i remember", `here's what i remember`),
			raw("i recall", `\bi recall\b`), raw("you told me", `\byou told me\b`),
		}},
		{models.IntentAddCalendarEvent, []pattern{
			raw("scheduling", `\bscheduling\b`), raw("i'll add event", `i'll add.*\bevent`),
			raw("creating appointment", `creating.*\bappointment`),
		}},
		{models.IntentGetCalendarEvents, []pattern{
			raw("your schedule", `\byour schedule\b`), raw("events today", `\bevents today\b`),
			raw("calendar shows", `\bcalendar shows\b`),
		}},
		{models.IntentCalculate, []pattern{
			raw("the result is", `\bthe result is\b`), raw("calculation", `\bcalculation\b`),
			raw("equals", `\bequals\b`),
		}},
		{models.IntentGetTasks, []pattern{
			raw("pending homework", `\bpending homework\b`), raw("homework list", `\bhomework list\b`),
		}},
		{models.IntentAddTask, []pattern{
			raw("i'll add homework", `i'll add.*\bhomework`), raw("recording assignment", `recording.*\bassignment`),
		}},
		{models.IntentAddExpense, []pattern{
			raw("recorded expense", `recorded.*\bexpense`), raw("added expense", `added.*\bexpense`),
		}},
		{models.IntentGetBudget, []pattern{
			raw("budget", `\bbudget\b`), raw("spending", `\bspending\b`),
		}},
	}
}

func normalize(text string) string {
	return strings.TrimSpace(text)
}
