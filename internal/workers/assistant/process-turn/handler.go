package processturn

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"raphael-assistant/internal/common/errors"
	"raphael-assistant/internal/common/logger"
	"raphael-assistant/internal/common/metrics"
	"raphael-assistant/internal/common/validation"
	"raphael-assistant/internal/models"
	"raphael-assistant/pkg/registry"
)

const (
	TaskType = "process-turn"
)

// Job variables are checked against the registered activity contract.
var inputSchema, outputSchema = activitySchemas()

func activitySchemas() (*validation.Schema, *validation.Schema) {
	reg, err := registry.Default()
	if err != nil {
		panic(err)
	}
	activity, ok := reg.Find(TaskType)
	if !ok {
		panic(fmt.Sprintf("activity %q is not registered", TaskType))
	}
	in, err := activity.InputValidator()
	if err != nil {
		panic(err)
	}
	out, err := activity.OutputValidator()
	if err != nil {
		panic(err)
	}
	return in, out
}

// TurnProcessor is the chat service as seen by the worker.
type TurnProcessor interface {
	Chat(ctx context.Context, userID, message string) (models.TurnResult, error)
}

type Handler struct {
	config       *Config
	processor    TurnProcessor
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, processor TurnProcessor, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:       config,
		processor:    processor,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return h.fail(ctx, client, job, errors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err)))
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		return h.fail(ctx, client, job, err)
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return h.fail(ctx, client, job, errors.NewInternalError(err))
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey": job.Key,
		"intent": output.Intent,
	})
	return nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
	return stdErr
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := check(inputSchema, input); err != nil {
		return nil, errors.NewInvalidRequestError(err.Error())
	}

	result, err := h.processor.Chat(ctx, input.UserID, input.Message)
	if err != nil {
		return nil, err
	}

	output := &Output{
		ResponseText: result.ResponseText,
		Intent:       string(result.Intent),
	}
	if err := check(outputSchema, output); err != nil {
		return nil, errors.NewInternalError(err)
	}
	return output, nil
}

// Execute runs the turn without a job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func check(schema *validation.Schema, doc interface{}) error {
	result, err := schema.Validate(doc)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("%s", strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}
