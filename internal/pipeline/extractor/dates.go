package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"raphael-assistant/internal/models"
)

type dateWord struct {
	keyword
	offset *int
}

// dateVocabulary is shared by event dates and task due dates.
var dateVocabulary = []dateWord{
	{words("tomorrow", "tomorrow"), models.DayOffset(1)},
	{words("today", "today"), models.DayOffset(0)},
	{words("next week", "next week"), models.DayOffset(7)},
	{words("monday", "monday"), nil},
	{words("tuesday", "tuesday"), nil},
	{words("wednesday", "wednesday"), nil},
	{words("thursday", "thursday"), nil},
	{words("friday", "friday"), nil},
	{words("saturday", "saturday"), nil},
	{words("sunday", "sunday"), nil},
}

func extractDate(text string) (models.Value, bool) {
	for _, d := range dateVocabulary {
		if d.re.MatchString(text) {
			return models.DateValue(d.value, d.offset), true
		}
	}
	return models.Value{}, false
}

// ResolveDate turns a date reference into a calendar day relative to now.
// Each parser is tried in order and the first success wins.
func ResolveDate(text string, now time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, try := range []func(string, time.Time) (time.Time, bool){
		tryRelativeDate,
		tryWeekday,
		tryDateLayouts,
	} {
		if d, ok := try(s, today); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

func tryRelativeDate(s string, today time.Time) (time.Time, bool) {
	switch s {
	case "today", "tonight":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	case "next week":
		return today.AddDate(0, 0, 7), true
	}
	return time.Time{}, false
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// tryWeekday picks the next occurrence of the named day, today included.
func tryWeekday(s string, today time.Time) (time.Time, bool) {
	s = strings.TrimPrefix(s, "next ")
	s = strings.TrimPrefix(s, "this ")
	wd, ok := weekdays[s]
	if !ok {
		return time.Time{}, false
	}
	delta := (int(wd) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, delta), true
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"01-02-2006",
	"January 2 2006",
	"Jan 2 2006",
}

func tryDateLayouts(s string, today time.Time) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, today.Location()); err == nil {
			return d, true
		}
	}
	// month-name dates without a year land in the current year
	withYear := strings.ReplaceAll(s, ",", "") + " " + strconv.Itoa(today.Year())
	for _, layout := range dateLayouts[4:] {
		if d, err := time.ParseInLocation(layout, withYear, today.Location()); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

var namedTimes = map[string]int{
	"midnight":  0,
	"morning":   9,
	"noon":      12,
	"afternoon": 14,
	"evening":   18,
	"night":     20,
	"tonight":   20,
}

// ResolveTime turns a time reference into hour and minute.
func ResolveTime(text string) (hour, minute int, ok bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	for _, try := range []func(string) (int, int, bool){
		tryNamedTime,
		try12Hour,
		try24Hour,
		tryBareHour,
	} {
		if h, m, ok := try(s); ok {
			return h, m, true
		}
	}
	return 0, 0, false
}

func tryNamedTime(s string) (int, int, bool) {
	h, ok := namedTimes[s]
	return h, 0, ok
}

var twelveHour = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\.?$`)

func try12Hour(s string) (int, int, bool) {
	m := twelveHour.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	h, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if h < 1 || h > 12 || minute > 59 {
		return 0, 0, false
	}
	switch {
	case m[3] == "p" && h != 12:
		h += 12
	case m[3] == "a" && h == 12:
		h = 0
	}
	return h, minute, true
}

var twentyFourHour = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

func try24Hour(s string) (int, int, bool) {
	m := twentyFourHour.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	h, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if h > 23 || minute > 59 {
		return 0, 0, false
	}
	return h, minute, true
}

func tryBareHour(s string) (int, int, bool) {
	h, err := strconv.Atoi(s)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	return h, 0, true
}
