package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"

	"raphael-assistant/internal/common/config"
	httpclient "raphael-assistant/internal/common/http"
	"raphael-assistant/internal/common/logger"
)

const calendarScope = "https://www.googleapis.com/auth/calendar"

// GoogleCalendar talks to the Google Calendar v3 REST API.
type GoogleCalendar struct {
	client     *httpclient.Client
	baseURL    string
	calendarID string
	timeZone   string
	logger     logger.Logger
}

// NewGoogleCalendar authenticates with a service-account key file.
func NewGoogleCalendar(ctx context.Context, cfg config.CalendarConfig, log logger.Logger) (*GoogleCalendar, error) {
	key, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read credentials: %v", ErrUnavailable, err)
	}
	jwt, err := google.JWTConfigFromJSON(key, calendarScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parse credentials: %v", ErrUnavailable, err)
	}

	hc := jwt.Client(ctx)
	hc.Timeout = config.GetDuration(cfg.Timeout)
	client := httpclient.NewClient(hc.Timeout, httpclient.WithHTTPClient(hc), httpclient.WithMaxRetries(1))

	return NewGoogleCalendarWithClient(client, cfg.BaseURL, cfg.CalendarID, cfg.TimeZone, log), nil
}

func NewGoogleCalendarWithClient(client *httpclient.Client, baseURL, calendarID, timeZone string, log logger.Logger) *GoogleCalendar {
	return &GoogleCalendar{
		client:     client,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		calendarID: calendarID,
		timeZone:   timeZone,
		logger:     log.WithFields(map[string]interface{}{"component": "calendar"}),
	}
}

type eventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type apiEvent struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
	HTMLLink    string    `json:"htmlLink,omitempty"`
}

func (g *GoogleCalendar) eventsURL() string {
	return fmt.Sprintf("%s/calendars/%s/events", g.baseURL, url.PathEscape(g.calendarID))
}

// CreateEvent inserts the event and returns its web link.
func (g *GoogleCalendar) CreateEvent(ctx context.Context, req EventRequest) (string, error) {
	req, err := req.normalize()
	if err != nil {
		return "", err
	}

	body := apiEvent{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       eventTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: g.timeZone},
		End:         eventTime{DateTime: req.End.Format(time.RFC3339), TimeZone: g.timeZone},
	}

	var created apiEvent
	if err := g.client.DoJSON(ctx, http.MethodPost, g.eventsURL(), body, &created, nil); err != nil {
		return "", g.wrap("create event", err)
	}

	g.logger.Info("calendar event created", map[string]interface{}{
		"summary": req.Summary,
		"start":   req.Start.Format(time.RFC3339),
	})
	return created.HTMLLink, nil
}

// ListEventsInRange returns single events starting in [start, end) ordered
// by start time.
func (g *GoogleCalendar) ListEventsInRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	q := url.Values{}
	q.Set("timeMin", start.Format(time.RFC3339))
	q.Set("timeMax", end.Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	var page struct {
		Items []apiEvent `json:"items"`
	}
	if err := g.client.DoJSON(ctx, http.MethodGet, g.eventsURL()+"?"+q.Encode(), nil, &page, nil); err != nil {
		return nil, g.wrap("list events", err)
	}

	events := make([]Event, 0, len(page.Items))
	for _, item := range page.Items {
		ev := Event{Summary: item.Summary}
		ev.Start, ev.AllDay = parseEventTime(item.Start)
		ev.End, _ = parseEventTime(item.End)
		events = append(events, ev)
	}
	return events, nil
}

func parseEventTime(t eventTime) (time.Time, bool) {
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed, false
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse("2006-01-02", t.Date); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func (g *GoogleCalendar) wrap(op string, err error) error {
	if errors.Is(err, httpclient.ErrTimeout) {
		return fmt.Errorf("%w: %s timed out", ErrRequestFailed, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrRequestFailed, op, err)
}
