// Package dispatcher performs the side effect behind an intent and renders
// the fragment appended to the reply. It never returns an error: every
// collaborator failure becomes text.
package dispatcher

import (
	"context"
	"strings"
	"time"

	"raphael-assistant/internal/common/errors"
	"raphael-assistant/internal/common/logger"
	"raphael-assistant/internal/common/metrics"
	"raphael-assistant/internal/models"
	"raphael-assistant/internal/pipeline/validator"
	"raphael-assistant/internal/services/calendar"
	"raphael-assistant/internal/services/storage"
)

type Config struct {
	// BlockOnMissingFields returns a prompt for the missing fields instead
	// of acting on placeholders.
	BlockOnMissingFields bool
	MemoryScanLimit      int
	RecallLimit          int
	EventListLimit       int
	TaskListLimit        int
}

func DefaultConfig() Config {
	return Config{
		MemoryScanLimit: 10,
		RecallLimit:     3,
		EventListLimit:  5,
		TaskListLimit:   5,
	}
}

type action func(ctx context.Context, userID string, entities models.EntityBag, message string) models.ActionOutcome

type Dispatcher struct {
	repo     *storage.Repository
	calendar calendar.Calendar
	config   Config
	now      func() time.Time
	logger   logger.Logger
	actions  map[models.Intent]action
}

type Option func(*Dispatcher)

// WithClock fixes "now" for date resolution.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func New(repo *storage.Repository, cal calendar.Calendar, cfg Config, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		repo:     repo,
		calendar: cal,
		config:   cfg,
		now:      time.Now,
		logger:   log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.actions = map[models.Intent]action{
		models.IntentStoreMemory:       d.storeMemory,
		models.IntentRetrieveMemory:    d.retrieveMemory,
		models.IntentAddCalendarEvent:  d.addCalendarEvent,
		models.IntentGetCalendarEvents: d.getCalendarEvents,
		models.IntentCalculate:         d.calculate,
		models.IntentAddTask:           d.addTask,
		models.IntentGetTasks:          d.getTasks,
		models.IntentAddExpense:        d.addExpense,
		models.IntentGetBudget:         d.getBudget,
	}
	return d
}

// Dispatch validates entities for intent and runs its action. general and
// unknown intents produce an empty outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, intent models.Intent, entities models.EntityBag, message string) models.ActionOutcome {
	run, ok := d.actions[intent]
	if !ok {
		return models.ActionOutcome{}
	}

	validation := validator.Validate(entities, intent)
	if !validation.Valid {
		stdErr := errors.NewMissingEntitiesError(string(intent), validation.MissingFields)
		d.logger.Warn("missing required entities", map[string]interface{}{
			"userId":    userID,
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
			"blocked":   d.config.BlockOnMissingFields,
		})
		if d.config.BlockOnMissingFields {
			metrics.ActionsDispatched.WithLabelValues(string(intent), metrics.OutcomeBlocked).Inc()
			return models.ActionOutcome{
				ResponseFragment: missingFieldsPrompt(validation.MissingFields),
				Err:              stdErr.Kind().Ptr(),
			}
		}
	}

	outcome := run(ctx, userID, validation.CorrectedEntities, message)

	result := metrics.OutcomeRead
	switch {
	case outcome.Err != nil:
		result = metrics.OutcomeFailed
	case outcome.SideEffectPerformed:
		result = metrics.OutcomePerformed
	}
	metrics.ActionsDispatched.WithLabelValues(string(intent), result).Inc()
	return outcome
}

func missingFieldsPrompt(fields []string) string {
	return "❓ I need a little more detail to do that. Missing: " + strings.Join(fields, ", ") + "."
}

// failed records a collaborator failure and renders it.
func (d *Dispatcher) failed(collaborator, fragment string, stdErr *errors.StandardError) models.ActionOutcome {
	kind := stdErr.Kind()
	d.logger.WithError(stdErr.Unwrap()).Error("collaborator call failed", map[string]interface{}{
		"collaborator": collaborator,
		"errorCode":    string(stdErr.Code),
		"errorKind":    string(kind),
		"retryable":    stdErr.Retryable,
	})
	metrics.CollaboratorErrors.WithLabelValues(collaborator, string(kind)).Inc()
	return models.ActionOutcome{ResponseFragment: fragment, Err: kind.Ptr()}
}

func (d *Dispatcher) today() time.Time {
	now := d.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
