package extractor

import (
	"regexp"
	"strconv"

	"raphael-assistant/internal/models"
)

const amountNumber = `(\d+(?:\.\d{1,2})?)`

// amountPatterns are tried in order; an explicit dollar sign beats a bare
// number anywhere in the message.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s?` + amountNumber),
	regexp.MustCompile(`(?i)` + amountNumber + `\s*dollars?\b`),
	regexp.MustCompile(`(?i)` + amountNumber + `\s*bucks?\b`),
	regexp.MustCompile(`(?i)\bspent\s+` + amountNumber),
	regexp.MustCompile(`(?i)\bcost\s+` + amountNumber),
	regexp.MustCompile(`(?i)\bpaid\s+` + amountNumber),
	regexp.MustCompile(`\b` + amountNumber + `\b`),
}

var expenseCategories = []keyword{
	words("food", "food", "lunch", "dinner", "breakfast", "restaurant", "coffee", "snack", "snacks"),
	words("transportation", "gas", "fuel", "bus", "taxi", "uber", "lyft", "parking", "train"),
	words("shopping", "shopping", "clothes", "shirt", "shoes", "amazon"),
	words("groceries", "groceries", "grocery", "supermarket", "store", "walmart", "target"),
	words("utilities", "electricity", "water", "internet", "phone", "bill", "bills"),
	words("health", "doctor", "medicine", "pharmacy", "medical", "health"),
	words("entertainment", "movie", "movies", "concert", "game", "games", "entertainment", "fun"),
}

// DefaultExpenseCategory applies when no category keyword matches.
const DefaultExpenseCategory = "general"

var (
	spendVerb      = regexp.MustCompile(`(?i)\b(?:spent|paid|bought|purchased)\s+`)
	leadingAmount  = regexp.MustCompile(`(?i)^\$?\s?\d+(?:\.\d{1,2})?\s*(?:dollars?|bucks?)?\s*`)
	leadingLink    = regexp.MustCompile(`(?i)^(?:on|for)\s+`)
	descriptionEnd = regexp.MustCompile(`(?i)[,;.!?]|(?:^|\s+)(?:at|from)\b`)
)

// ExtractExpense finds the amount, category and description of a purchase.
func ExtractExpense(message string) models.EntityBag {
	bag := models.EntityBag{}

	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		if amount, err := strconv.ParseFloat(m[1], 64); err == nil {
			bag[models.EntityAmount] = models.NumberValue(amount)
			break
		}
	}

	category := DefaultExpenseCategory
	if c, ok := firstKeyword(expenseCategories, message); ok {
		category = c.value
	}
	bag[models.EntityCategory] = models.StringValue(category)

	if d := expenseDescription(message); d != "" {
		bag[models.EntityDescription] = models.StringValue(d)
	}
	return bag
}

func expenseDescription(message string) string {
	loc := spendVerb.FindStringIndex(message)
	if loc == nil {
		return ""
	}
	rest := leadingAmount.ReplaceAllString(message[loc[1]:], "")
	rest = leadingLink.ReplaceAllString(rest, "")
	if end := descriptionEnd.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return trimSentence(rest)
}
