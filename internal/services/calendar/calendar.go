// Package calendar creates and lists events on the user's calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnavailable   = errors.New("CALENDAR_UNAVAILABLE")
	ErrRequestFailed = errors.New("CALENDAR_REQUEST_FAILED")
	ErrInvalidEvent  = errors.New("INVALID_EVENT")
)

// DefaultDuration applies when an event has no explicit end.
const DefaultDuration = time.Hour

type EventRequest struct {
	Summary     string
	Start       time.Time
	End         time.Time
	Description string
}

type Event struct {
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool
}

// Calendar is the narrow contract the dispatcher depends on.
type Calendar interface {
	CreateEvent(ctx context.Context, req EventRequest) (string, error)
	ListEventsInRange(ctx context.Context, start, end time.Time) ([]Event, error)
}

// Unavailable stands in when no calendar is configured. Every call fails
// with ErrUnavailable.
type Unavailable struct {
	Reason string
}

func (u Unavailable) CreateEvent(context.Context, EventRequest) (string, error) {
	return "", u.err()
}

func (u Unavailable) ListEventsInRange(context.Context, time.Time, time.Time) ([]Event, error) {
	return nil, u.err()
}

func (u Unavailable) err() error {
	if u.Reason == "" {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}

// DayBounds returns midnight of day and of the following day.
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

func (r EventRequest) normalize() (EventRequest, error) {
	if r.Summary == "" {
		return r, fmt.Errorf("%w: summary is required", ErrInvalidEvent)
	}
	if r.Start.IsZero() {
		return r, fmt.Errorf("%w: start is required", ErrInvalidEvent)
	}
	if r.End.IsZero() {
		r.End = r.Start.Add(DefaultDuration)
	}
	if !r.End.After(r.Start) {
		return r, fmt.Errorf("%w: end must be after start", ErrInvalidEvent)
	}
	return r, nil
}
