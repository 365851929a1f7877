// Package validator checks an entity bag against the fields its intent
// requires and fills the optional ones that have defaults.
package validator

import (
	"raphael-assistant/internal/models"
)

// requirement is satisfied when any of its keys is present. It is reported
// under name when missing.
type requirement struct {
	name string
	keys []string
}

type fieldDefault struct {
	key   string
	value models.Value
}

type schema struct {
	required []requirement
	defaults []fieldDefault
}

var schemas = map[models.Intent]schema{
	models.IntentAddCalendarEvent: {
		required: []requirement{
			{name: models.EntityTitle, keys: []string{models.EntityTitle, models.EntityCustomTitle}},
			{name: models.EntityTime, keys: []string{models.EntityTime}},
		},
		defaults: []fieldDefault{
			{key: models.EntityDate, value: models.DateValue("today", models.DayOffset(0))},
		},
	},
	models.IntentAddTask: {
		required: []requirement{
			{name: models.EntitySubject, keys: []string{models.EntitySubject}},
			{name: models.EntityDescription, keys: []string{models.EntityDescription, models.EntityAssignmentType}},
		},
		defaults: []fieldDefault{
			{key: models.EntityDueDate, value: models.DateValue("next week", models.DayOffset(7))},
		},
	},
	models.IntentAddExpense: {
		required: []requirement{
			{name: models.EntityAmount, keys: []string{models.EntityAmount}},
		},
		defaults: []fieldDefault{
			{key: models.EntityCategory, value: models.StringValue("general")},
		},
	},
}

// Validate reports the missing required fields of entities in table order
// and returns a copy with defaults applied. Required values are never
// invented.
func Validate(entities models.EntityBag, intent models.Intent) models.ValidationResult {
	corrected := entities.Clone()
	missing := []string{}

	s, ok := schemas[intent]
	if !ok {
		return models.ValidationResult{Valid: true, MissingFields: missing, CorrectedEntities: corrected}
	}

	for _, req := range s.required {
		if !satisfied(corrected, req) {
			missing = append(missing, req.name)
		}
	}
	for _, d := range s.defaults {
		if !corrected.Has(d.key) {
			corrected[d.key] = d.value
		}
	}

	return models.ValidationResult{
		Valid:             len(missing) == 0,
		MissingFields:     missing,
		CorrectedEntities: corrected,
	}
}

func satisfied(bag models.EntityBag, req requirement) bool {
	for _, k := range req.keys {
		if bag.Has(k) {
			return true
		}
	}
	return false
}
