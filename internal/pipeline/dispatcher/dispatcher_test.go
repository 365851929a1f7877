package dispatcher

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raphael-assistant/internal/common/errors"
	"raphael-assistant/internal/common/logger"
	"raphael-assistant/internal/models"
	"raphael-assistant/internal/services/calendar"
	"raphael-assistant/internal/services/storage"
)

var fixedNow = time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC)

type stubCalendar struct {
	created   []calendar.EventRequest
	events    []calendar.Event
	err       error
	listStart time.Time
	listEnd   time.Time
}

func (s *stubCalendar) CreateEvent(_ context.Context, req calendar.EventRequest) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.created = append(s.created, req)
	return "https://calendar.example/event/1", nil
}

func (s *stubCalendar) ListEventsInRange(_ context.Context, start, end time.Time) ([]calendar.Event, error) {
	s.listStart, s.listEnd = start, end
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

type failingStore struct{}

func (failingStore) Append(context.Context, string, string, storage.Record) (string, error) {
	return "", storage.ErrWriteFailed
}

func (failingStore) Query(context.Context, string, string, storage.QueryOptions) ([]storage.Record, error) {
	return nil, storage.ErrQueryFailed
}

func (failingStore) Get(context.Context, string, string, string) (storage.Record, error) {
	return storage.Record{}, storage.ErrNotFound
}

func (failingStore) Delete(context.Context, string, string, string) error {
	return storage.ErrWriteFailed
}

func newTestDispatcher(t *testing.T, store storage.Store, cal calendar.Calendar, cfg Config) (*Dispatcher, *storage.Repository) {
	t.Helper()
	// Records are stamped one minute apart so newest-first order is stable.
	stamp := fixedNow
	repo := storage.NewRepository(store, func() time.Time {
		stamp = stamp.Add(time.Minute)
		return stamp
	})
	d := New(repo, cal, cfg, logger.NewTestLogger(t), WithClock(func() time.Time { return fixedNow }))
	return d, repo
}

func requireKind(t *testing.T, want errors.Kind, outcome models.ActionOutcome) {
	t.Helper()
	require.NotNil(t, outcome.Err)
	assert.Equal(t, want, *outcome.Err)
}

func TestDispatch_AddCalendarEvent(t *testing.T) {
	cal := &stubCalendar{}
	d, _ := newTestDispatcher(t, storage.NewMemoryStore(), cal, DefaultConfig())

	outcome := d.Dispatch(context.Background(), "user-1", models.IntentAddCalendarEvent, models.EntityBag{
		models.EntityTitle: models.StringValue("Meeting"),
		models.EntityTime:  models.TimeValue("3pm"),
		models.EntityDate:  models.DateValue("tomorrow", models.DayOffset(1)),
	}, "Schedule a meeting tomorrow at 3pm")

	assert.Equal(t, "📅 Event 'Meeting' created for tomorrow at 3pm", outcome.ResponseFragment)
	assert.True(t, outcome.SideEffectPerformed)
	assert.Nil(t, outcome.Err)

	require.Len(t, cal.created, 1)
	req := cal.created[0]
	assert.Equal(t, "Meeting", req.Summary)
	assert.Equal(t, time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.Hour, req.End.Sub(req.Start))
	assert.Equal(t, "Event created by Raphael AI", req.Description)
}

func TestDispatch_AddCalendarEvent_Placeholders(t *testing.T) {
	cal := &stubCalendar{}
	d, _ := newTestDispatcher(t, storage.NewMemoryStore(), cal, DefaultConfig())

	outcome := d.Dispatch(context.Background(), "user-1", models.IntentAddCalendarEvent, models.EntityBag{}, "add something to my calendar")

	assert.Equal(t, "📅 Event 'Event' created for today at 15:00", outcome.ResponseFragment)
	require.Len(t, cal.created, 1)
	assert.Equal(t, time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC), cal.created[0].Start)
}

func TestDispatch_AddCalendarEvent_WeekdayText(t *testing.T) {
	cal := &stubCalendar{}
	d, _ := newTestDispatcher(t, storage.NewMemoryStore(), cal, DefaultConfig())

	outcome := d.Dispatch(context.Background(), "user-1", models.IntentAddCalendarEvent, models.EntityBag{
		models.EntityTitle: models.StringValue("Lunch"),
		models.EntityTime:  models.TimeValue("12:30"),
		models.EntityDate:  models.DateValue("friday", nil),
	}, "lunch on friday at 12:30")

	assert.True(t, outcome.SideEffectPerformed)
	require.Len(t, cal.created, 1)
	assert.Equal(t, time.Date(2026, 10, 23, 12, 30, 0, 0, time.UTC), cal.created[0].Start)
}

func TestDispatch_AddCalendarEvent_Blocking(t *testing.T) {
	cal := &stubCalendar{}
	cfg := DefaultConfig()
	cfg.BlockOnMissingFields = true
	d, _ := newTestDispatcher(t, storage.NewMemoryStore(), cal, cfg)

	outcome := d.Dispatch(context.Background(), "user-1", models.IntentAddCalendarEvent, models.EntityBag{}, "add to calendar")

	assert.Equal(t, "❓ I need a little more detail to do that. Missing: title, time.", outcome.ResponseFragment)
	assert.False(t, outcome.SideEffectPerformed)
	requireKind(t, errors.KindValidationError, outcome)
	assert.Empty(t, cal.created)
}

func TestDispatch_CalendarFailures(t *testing.T) {
	tests := []struct {
		name     string
		calendar calendar.Calendar
		intent   models.Intent
		expected string
	}{
		{
			name:     "create unavailable",
			calendar: calendar.Unavailable{Reason: "test mode"},
			intent:   models.IntentAddCalendarEvent,
			expected: "📅 Calendar service not available in test mode.",
		},
		{
			name:     "list unavailable",
			calendar: calendar.Unavailable{},
			intent:   models.IntentGetCalendarEvents,
			expected: "📅 Calendar service not available in test mode.",
		},
		{
			name:     "create failed",
			calendar: &stubCalendar{err: stderrors.New("boom")},
			intent:   models.IntentAddCalendarEvent,
			expected: "📅 Error creating calendar event: boom",
		},
		{
			name:     "list failed",
			calendar: &stubCalendar{err: stderrors.New("boom")},
			intent:   models.IntentGetCalendarEvents,
			expected: "📅 Error retrieving calendar events: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDispatcher(t, storage.NewMemoryStore(), tt.calendar, DefaultConfig())

			outcome := d.Dispatch(context.Background(), "user-1", tt.intent, models.EntityBag{
				models.EntityTitle: models.StringValue("Meeting"),
				models.EntityTime:  models.TimeValue("3pm"),
			}, "meeting at 3pm")

			assert.Equal(t, tt.expected, outcome.ResponseFragment)
			assert.False(t, outcome.SideEffectPerformed)
			requireKind(t, errors.KindCollaboratorUnavailable, outcome)
		})
	}
}

func TestDispatch_GetCalendarEvents(t *testing.T) {
	cal := &stubCalendar{events: []calendar.Event{
		{Summary: "Standup", Start: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)},
		{Summary: "Offsite", AllDay: true},
		{Start: time.Date(2026, 10, 19, 16, 0, 0, 0, time.UTC)},
	}}
	d, _ := newTestDispatcher(t, storage.NewMemoryStore(), cal, DefaultConfig())

	outcome := d.Dispatch(context.Background(), "user-1", models.IntentGetCalendarEvents, models.EntityBag{}, "what's on my calendar today")

	assert.Equal(t, "📅 Today's events:\n• Standup at 09:30\n• Offsite (all day)\n• Untitled at 16:00", outcome.ResponseFragment)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), cal.listStart)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), cal.listEnd)
}

func TestDispatch_GetCalendarEvents_LimitAndEmpty(t *testing.T) {
	events := make([]calendar.Event, 7)
	for i := range events {
		events[i] = calendar.Event{Summary: "e", Start: fixedNow}
	}
	cal := &stubCalendar{events: events}
	d, _ := newTestDispatcher(t, storage.NewMemoryStore(), cal, DefaultConfig())

	outcome := d.Dispatch(context.Background(), "user-1", models.IntentGetCalendarEvents, nil, "today's events")
	assert.Len(t, strings.Split(outcome.ResponseFragment, "\n"), 6)

	cal.events = nil
	outcome = d.Dispatch(context.Background(), "user-1", models.IntentGetCalendarEvents, nil, "today's events")
	assert.Equal(t, "📅 No events scheduled for today.", outcome.ResponseFragment)
	assert.Nil(t, outcome.Err)
}

func TestDispatch_Calculate(t *testing.T) {
	tests := []struct {
		name     string
		entities models.EntityBag
		message  string
		expected string
		kind     *errors.Kind
	}{
		{
			name:     "numeric run",
			entities: models.EntityBag{models.EntityExpression: models.StringValue("2+3*4")},
			message:  "2+3*4",
			expected: "🔢 The result is: 14",
		},
		{
			name: "word expression preferred",
			entities: models.EntityBag{
				models.EntityExpression:     models.StringValue("15"),
				models.EntityWordExpression: models.StringValue("15 plus 5"),
			},
			message:  "what is 15 plus 5?",
			expected: "🔢 The result is: 20",
		},
		{
			name:     "falls back to message",
			entities: models.EntityBag{},
			message:  "7 * 6",
			expected: "🔢 The result is: 42",
		},
		{
			name:     "division by zero",
			entities: models.EntityBag{models.EntityExpression: models.StringValue("10/0")},
			message:  "10/0",
			expected: "🔢 Division by zero is not allowed",
			kind:     errors.KindParseError.Ptr(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDispatcher(t, storage.NewMemoryStore(), calendar.Unavailable{}, DefaultConfig())

			outcome := d.Dispatch(context.Background(), "user-1", models.IntentCalculate, tt.entities, tt.message)

			assert.Equal(t, tt.expected, outcome.ResponseFragment)
			assert.False(t, outcome.SideEffectPerformed)
			assert.Equal(t, tt.kind, outcome.Err)
		})
	}
}

func TestDispatch_Tasks(t *testing.T) {
	d, repo := newTestDispatcher(t, storage.NewMemoryStore(), calendar.Unavailable{}, DefaultConfig())
	ctx := context.Background()

	outcome := d.Dispatch(ctx, "user-1", models.IntentGetTasks, nil, "show my homework")
	assert.Equal(t, "", outcome.ResponseFragment)
	assert.Nil(t, outcome.Err)

	outcome = d.Dispatch(ctx, "user-1", models.IntentAddTask, models.EntityBag{
		models.EntitySubject:     models.StringValue("Math"),
		models.EntityDescription: models.StringValue("finish chapter 3"),
		models.EntityDueDate:     models.DateValue("tomorrow", models.DayOffset(1)),
	}, "add math homework to finish chapter 3 due tomorrow")
	assert.Equal(t, "📚 Added task for Math: finish chapter 3", outcome.ResponseFragment)
	assert.True(t, outcome.SideEffectPerformed)

	tasks, err := repo.Tasks(ctx, "user-1", models.TaskStatusPending, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "2026-10-20", tasks[0].DueDate)

	outcome = d.Dispatch(ctx, "user-1", models.IntentGetTasks, nil, "show my homework")
	assert.Equal(t, "📚 Pending tasks:\n• Math: finish chapter 3", outcome.ResponseFragment)
	assert.False(t, outcome.SideEffectPerformed)
}

func TestDispatch_AddTask_Placeholders(t *testing.T) {
	d, repo := newTestDispatcher(t, storage.NewMemoryStore(), calendar.Unavailable{}, DefaultConfig())
	ctx := context.Background()

	outcome := d.Dispatch(ctx, "user-1", models.IntentAddTask, models.EntityBag{}, "remind me of stuff")
	assert.Equal(t, "📚 Added task for General: remind me of stuff", outcome.ResponseFragment)

	tasks, err := repo.Tasks(ctx, "user-1", "", 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "2026-10-26", tasks[0].DueDate)
}

func TestDispatch_ExpenseAndBudget(t *testing.T) {
	d, _ := newTestDispatcher(t, storage.NewMemoryStore(), calendar.Unavailable{}, DefaultConfig())
	ctx := context.Background()

	outcome := d.Dispatch(ctx, "user-1", models.IntentGetBudget, nil, "show my budget")
	assert.Equal(t, "", outcome.ResponseFragment)

	outcome = d.Dispatch(ctx, "user-1", models.IntentAddExpense, models.EntityBag{
		models.EntityAmount:      models.NumberValue(12.5),
		models.EntityCategory:    models.StringValue("food"),
		models.EntityDescription: models.StringValue("lunch"),
	}, "I spent $12.50 on lunch")
	assert.Equal(t, "💰 Added expense: $12.50 for food", outcome.ResponseFragment)
	assert.True(t, outcome.SideEffectPerformed)

	outcome = d.Dispatch(ctx, "user-1", models.IntentGetBudget, nil, "show my budget")
	assert.Equal(t, "💰 Budget summary: Income: $0.00, Expenses: $12.50, Balance: $-12.50", outcome.ResponseFragment)
}

func TestDispatch_AddExpense_MissingAmount(t *testing.T) {
	d, _ := newTestDispatcher(t, storage.NewMemoryStore(), calendar.Unavailable{}, DefaultConfig())

	outcome := d.Dispatch(context.Background(), "user-1", models.IntentAddExpense, models.EntityBag{}, "I bought stuff")

	assert.Equal(t, "💰 Added expense: $0.00 for general", outcome.ResponseFragment)
	assert.True(t, outcome.SideEffectPerformed)
}

func TestDispatch_Memory(t *testing.T) {
	d, _ := newTestDispatcher(t, storage.NewMemoryStore(), calendar.Unavailable{}, DefaultConfig())
	ctx := context.Background()

	for _, text := range []string{"My favorite color is blue", "I work at Acme", "my sister is called Mia"} {
		outcome := d.Dispatch(ctx, "user-1", models.IntentStoreMemory, models.EntityBag{
			models.EntityMemoryText: models.StringValue(text),
		}, "remember that "+text)
		assert.Equal(t, "✅ I've stored this information in my memory.", outcome.ResponseFragment)
		assert.True(t, outcome.SideEffectPerformed)
	}

	outcome := d.Dispatch(ctx, "user-1", models.IntentRetrieveMemory, models.EntityBag{
		models.EntityQuery: models.StringValue("favorite color"),
	}, "what do you know about my favorite color")
	assert.Equal(t, "📝 Here's what I remember: My favorite color is blue", outcome.ResponseFragment)

	outcome = d.Dispatch(ctx, "user-1", models.IntentRetrieveMemory, models.EntityBag{
		models.EntityQuery: models.StringValue("my"),
	}, "what do you know about my")
	assert.Equal(t, "📝 Here's what I remember: my sister is called Mia; My favorite color is blue", outcome.ResponseFragment)

	outcome = d.Dispatch(ctx, "user-2", models.IntentRetrieveMemory, models.EntityBag{
		models.EntityQuery: models.StringValue("color"),
	}, "recall color")
	assert.Equal(t, "", outcome.ResponseFragment)
}

func TestDispatch_StorageFailures(t *testing.T) {
	d, _ := newTestDispatcher(t, failingStore{}, calendar.Unavailable{}, DefaultConfig())
	ctx := context.Background()

	outcome := d.Dispatch(ctx, "user-1", models.IntentStoreMemory, models.EntityBag{
		models.EntityMemoryText: models.StringValue("I like tea"),
	}, "remember I like tea")
	assert.Equal(t, "", outcome.ResponseFragment)
	assert.False(t, outcome.SideEffectPerformed)
	requireKind(t, errors.KindCollaboratorUnavailable, outcome)

	outcome = d.Dispatch(ctx, "user-1", models.IntentGetBudget, nil, "budget")
	assert.Contains(t, outcome.ResponseFragment, "💰 Error retrieving budget:")
	requireKind(t, errors.KindCollaboratorUnavailable, outcome)

	outcome = d.Dispatch(ctx, "user-1", models.IntentAddTask, models.EntityBag{
		models.EntitySubject:     models.StringValue("Art"),
		models.EntityDescription: models.StringValue("sketch"),
	}, "add art task sketch")
	assert.Contains(t, outcome.ResponseFragment, "📚 Error adding task:")
	assert.False(t, outcome.SideEffectPerformed)
}

func TestDispatch_GeneralIsEmpty(t *testing.T) {
	d, _ := newTestDispatcher(t, storage.NewMemoryStore(), calendar.Unavailable{}, DefaultConfig())

	outcome := d.Dispatch(context.Background(), "user-1", models.IntentGeneral, nil, "hello there")

	assert.Equal(t, models.ActionOutcome{}, outcome)
}
