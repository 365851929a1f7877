// Package pipeline runs one chat turn end to end: generate the free-text
// reply, resolve the intent, extract entities, dispatch the side effect and
// compose the final response.
package pipeline

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"raphael-assistant/internal/common/errors"
	"raphael-assistant/internal/common/logger"
	"raphael-assistant/internal/common/metrics"
	"raphael-assistant/internal/common/observability"
	"raphael-assistant/internal/models"
	"raphael-assistant/internal/pipeline/classifier"
	"raphael-assistant/internal/pipeline/dispatcher"
	"raphael-assistant/internal/pipeline/extractor"
	"raphael-assistant/internal/services/genai"
)

// Replies used when the generator cannot answer.
const (
	ReplyGeneratorUnavailable = "Sorry, AI services are currently unavailable. Please check your API configuration."
	ReplyGeneratorFailed      = "I encountered an error while processing your request. Please try again."
)

type Pipeline struct {
	classifier    *classifier.Classifier
	dispatcher    *dispatcher.Dispatcher
	generator     genai.Generator
	classifyReply bool
	obs           *observability.Observability
	logger        logger.Logger
}

type Option func(*Pipeline)

// WithReplyClassification lets the generated reply decide the intent when
// the message alone is general.
func WithReplyClassification(enabled bool) Option {
	return func(p *Pipeline) { p.classifyReply = enabled }
}

func WithObservability(obs *observability.Observability) Option {
	return func(p *Pipeline) { p.obs = obs }
}

func New(cls *classifier.Classifier, disp *dispatcher.Dispatcher, gen genai.Generator, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: cls,
		dispatcher: disp,
		generator:  gen,
		logger:     log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessTurn handles one message. The only error it returns is the
// empty-message rejection; every other failure ends up in ResponseText.
func (p *Pipeline) ProcessTurn(ctx context.Context, userID, message string, history []models.HistoryEntry, pc models.PersonalContext) (models.TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.TurnResult{}, errors.NewEmptyMessageError()
	}

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "pipeline.ProcessTurn", attribute.String("user.id", userID))
	defer span.End()

	reply, generated := p.generate(ctx, genai.BuildPrompt(pc, history, message))

	classification := p.classifier.Classify(message)
	if p.classifyReply && generated && classification.Intent == models.IntentGeneral {
		classification = p.classifier.ClassifyWithReply(message, reply)
	}
	intent := classification.Intent
	metrics.Classifications.WithLabelValues(string(intent), tier(classification.Confidence)).Inc()
	span.SetAttributes(attribute.String("intent", string(intent)))

	entities := extractor.Extract(message, intent)
	outcome := p.dispatcher.Dispatch(ctx, userID, intent, entities, message)

	response := Compose(reply, outcome.ResponseFragment)

	elapsed := time.Since(start)
	metrics.TurnsProcessed.WithLabelValues(string(intent)).Inc()
	metrics.TurnDuration.WithLabelValues(string(intent)).Observe(elapsed.Seconds())
	p.obs.RecordTurn(ctx, string(intent), elapsed)

	fields := map[string]interface{}{
		"userId":     userID,
		"intent":     string(intent),
		"confidence": classification.Confidence,
		"entities":   entities.Flatten(),
		"sideEffect": outcome.SideEffectPerformed,
		"durationMs": elapsed.Milliseconds(),
	}
	if classification.MatchedPattern != nil {
		fields["matchedPattern"] = *classification.MatchedPattern
	}
	if outcome.Err != nil {
		fields["errorKind"] = string(*outcome.Err)
	}
	p.logger.Info("turn processed", fields)

	return models.TurnResult{ResponseText: response, Intent: intent}, nil
}

// generate never fails: collaborator errors become a canned reply. The
// second return reports whether the text came from the generator.
func (p *Pipeline) generate(ctx context.Context, prompt string) (string, bool) {
	reply, err := p.generator.Generate(ctx, prompt)
	if err == nil {
		return reply, true
	}

	stdErr := genai.AsStandardError(err)
	metrics.CollaboratorErrors.WithLabelValues("genai", string(stdErr.Kind())).Inc()
	p.logger.WithError(err).Warn("generative reply failed", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"retryable": stdErr.Retryable,
	})
	if stdErr.Code == errors.ErrCodeGenAIUnavailable {
		return ReplyGeneratorUnavailable, false
	}
	return ReplyGeneratorFailed, false
}

// Compose appends fragment to reply on its own line.
func Compose(reply, fragment string) string {
	if fragment == "" {
		return reply
	}
	return reply + "\n" + fragment
}

func tier(confidence float64) string {
	switch confidence {
	case models.ConfidenceNumeric:
		return "numeric"
	case models.ConfidenceKeyword:
		return "keyword"
	default:
		return "fallback"
	}
}
