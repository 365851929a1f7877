package dispatcher

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"raphael-assistant/internal/common/errors"
	"raphael-assistant/internal/models"
	"raphael-assistant/internal/pipeline/extractor"
	"raphael-assistant/internal/services/calendar"
)

// Placeholders used when required event fields are missing and the
// dispatcher is not blocking.
const (
	placeholderTitle = "Event"
	placeholderTime  = "15:00"
	eventDescription = "Event created by Raphael AI"
)

const (
	calendarUnavailable = "📅 Calendar service not available in test mode."
	dateNotUnderstood   = "📅 Could not parse date. Please use format like 'today', 'tomorrow', or 'YYYY-MM-DD'"
	noEventsToday       = "📅 No events scheduled for today."
)

func (d *Dispatcher) addCalendarEvent(ctx context.Context, userID string, entities models.EntityBag, _ string) models.ActionOutcome {
	title := entities.Text(models.EntityTitle)
	if title == "" {
		title = entities.Text(models.EntityCustomTitle)
	}
	if title == "" {
		title = placeholderTitle
	}
	timeText := entities.Text(models.EntityTime)
	if timeText == "" {
		timeText = placeholderTime
	}
	date := entities[models.EntityDate]

	day, ok := d.resolveDay(date)
	if !ok {
		return models.ActionOutcome{ResponseFragment: dateNotUnderstood, Err: errors.KindParseError.Ptr()}
	}
	hour, minute, ok := extractor.ResolveTime(timeText)
	if !ok {
		hour, minute, _ = extractor.ResolveTime(placeholderTime)
	}
	start := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)

	_, err := d.calendar.CreateEvent(ctx, calendar.EventRequest{
		Summary:     title,
		Start:       start,
		End:         start.Add(calendar.DefaultDuration),
		Description: eventDescription,
	})
	if stderrors.Is(err, calendar.ErrUnavailable) {
		return d.failed("calendar", calendarUnavailable, calendar.AsStandardError(err))
	}
	if err != nil {
		return d.failed("calendar", fmt.Sprintf("📅 Error creating calendar event: %v", err), calendar.AsStandardError(err))
	}

	d.logger.Info("calendar event created", map[string]interface{}{
		"userId": userID,
		"title":  title,
		"start":  start.Format(time.RFC3339),
	})
	return models.ActionOutcome{
		ResponseFragment:    fmt.Sprintf("📅 Event '%s' created for %s at %s", title, date.Text, timeText),
		SideEffectPerformed: true,
	}
}

// resolveDay prefers the extracted day offset and falls back to parsing
// the date text.
func (d *Dispatcher) resolveDay(date models.Value) (time.Time, bool) {
	today := d.today()
	if date.Offset != nil {
		return today.AddDate(0, 0, *date.Offset), true
	}
	return extractor.ResolveDate(date.Text, today)
}

func (d *Dispatcher) getCalendarEvents(ctx context.Context, _ string, _ models.EntityBag, _ string) models.ActionOutcome {
	start, end := calendar.DayBounds(d.today())

	events, err := d.calendar.ListEventsInRange(ctx, start, end)
	if stderrors.Is(err, calendar.ErrUnavailable) {
		return d.failed("calendar", calendarUnavailable, calendar.AsStandardError(err))
	}
	if err != nil {
		return d.failed("calendar", fmt.Sprintf("📅 Error retrieving calendar events: %v", err), calendar.AsStandardError(err))
	}
	if len(events) == 0 {
		return models.ActionOutcome{ResponseFragment: noEventsToday}
	}

	if len(events) > d.config.EventListLimit {
		events = events[:d.config.EventListLimit]
	}
	lines := make([]string, len(events))
	for i, ev := range events {
		summary := ev.Summary
		if summary == "" {
			summary = "Untitled"
		}
		if ev.AllDay {
			lines[i] = fmt.Sprintf("• %s (all day)", summary)
			continue
		}
		lines[i] = fmt.Sprintf("• %s at %s", summary, ev.Start.Format("15:04"))
	}
	return models.ActionOutcome{ResponseFragment: "📅 Today's events:\n" + strings.Join(lines, "\n")}
}
