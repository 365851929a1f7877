// internal/models/intent.go
package models

import "fmt"

// Intent is the closed set of actions a message can resolve to.
type Intent string

const (
	IntentGeneral           Intent = "general"
	IntentStoreMemory       Intent = "store_memory"
	IntentRetrieveMemory    Intent = "retrieve_memory"
	IntentAddCalendarEvent  Intent = "add_calendar_event"
	IntentGetCalendarEvents Intent = "get_calendar_events"
	IntentCalculate         Intent = "calculate"
	IntentAddTask           Intent = "add_task"
	IntentGetTasks          Intent = "get_tasks"
	IntentAddExpense        Intent = "add_expense"
	IntentGetBudget         Intent = "get_budget"
)

// AllIntents lists every intent in declaration order.
var AllIntents = []Intent{
	IntentGeneral,
	IntentStoreMemory,
	IntentRetrieveMemory,
	IntentAddCalendarEvent,
	IntentGetCalendarEvents,
	IntentCalculate,
	IntentAddTask,
	IntentGetTasks,
	IntentAddExpense,
	IntentGetBudget,
}

func (i Intent) String() string {
	return string(i)
}

// ParseIntent maps a label back onto the closed set.
func ParseIntent(s string) (Intent, error) {
	for _, i := range AllIntents {
		if string(i) == s {
			return i, nil
		}
	}
	return "", fmt.Errorf("unknown intent %q", s)
}
