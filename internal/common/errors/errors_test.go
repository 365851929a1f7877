package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_Kind(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  *StandardError
		want Kind
	}{
		{"expression", NewExpressionInvalidError(cause), KindParseError},
		{"missing entities", NewMissingEntitiesError("add_expense", []string{"amount"}), KindValidationError},
		{"empty message", NewEmptyMessageError(), KindValidationError},
		{"invalid request", NewInvalidRequestError("bad"), KindValidationError},
		{"storage unavailable", NewStorageUnavailableError(cause), KindCollaboratorUnavailable},
		{"storage write", NewStorageWriteFailedError("memories", cause), KindCollaboratorUnavailable},
		{"storage query", NewStorageQueryFailedError("memories", cause), KindCollaboratorUnavailable},
		{"storage timeout", NewStorageQueryTimeoutError("memories", cause), KindCollaboratorUnavailable},
		{"not found", NewDocumentNotFoundError("memories", cause), KindCollaboratorUnavailable},
		{"calendar unavailable", NewCalendarUnavailableError(cause), KindCollaboratorUnavailable},
		{"calendar request", NewCalendarRequestFailedError(cause), KindCollaboratorUnavailable},
		{"genai unavailable", NewGenAIUnavailableError(cause), KindCollaboratorUnavailable},
		{"genai timeout", NewGenAITimeoutError(cause), KindCollaboratorUnavailable},
		{"genai failed", NewGenAIFailedError(cause), KindCollaboratorUnavailable},
		{"auth", NewAuthenticationError("expired"), KindInternalError},
		{"internal", NewInternalError(cause), KindInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Kind())
			assert.Equal(t, tt.want, KindOf(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindInternalError, KindOf(errors.New("plain")))
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStorageWriteFailedError("homework_tasks", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "collection: homework_tasks, error: connection refused", err.Details)
	assert.Equal(t, "StandardError[STORAGE_WRITE_FAILED]: Storage write failed", err.Error())
}

func TestMissingEntitiesDetails(t *testing.T) {
	err := NewMissingEntitiesError("add_calendar_event", []string{"title", "time"})
	assert.Equal(t, "intent: add_calendar_event, missing: title,time", err.Details)
	assert.False(t, err.Retryable)
}

func TestNormalize(t *testing.T) {
	stdErr := NewGenAITimeoutError(errors.New("deadline"))
	assert.Same(t, stdErr, Normalize(fmt.Errorf("outer: %w", stdErr)))

	plain := Normalize(errors.New("plain"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "plain", plain.Details)
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable code keeps its retry budget", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewStorageQueryFailedError("memories", errors.New("x")))
		assert.Equal(t, "STORAGE_QUERY_FAILED", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
		assert.True(t, bpmn.Retryable)
		assert.Equal(t, "CollaboratorUnavailable", bpmn.ErrorVariables["errorKind"])
	})

	t.Run("non retryable error gets no retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewEmptyMessageError())
		assert.Equal(t, 0, bpmn.Retries)
		assert.False(t, bpmn.Retryable)
	})

	t.Run("error variables carry code and details", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewInvalidRequestError("userId is required"))
		vars := bpmn.ToErrorVariables()
		require.Contains(t, vars, "timestamp")
		assert.Equal(t, "INVALID_REQUEST", vars["errorCode"])
		assert.Equal(t, "userId is required", vars["errorDetails"])
		assert.Equal(t, false, vars["retryable"])
	})
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodeGenAIFailed))
	assert.Equal(t, 2, GetRetryCount(ErrCodeGenAITimeout))
	assert.Equal(t, 1, GetRetryCount("TIMEOUT_ERROR"))
	assert.Equal(t, 0, GetRetryCount(ErrCodeMissingEntities))
	assert.True(t, IsRetryableErrorCode(ErrCodeStorageUnavailable))
	assert.False(t, IsRetryableErrorCode(ErrCodeAuthenticationFailed))
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeStorageWriteFailed:    "STORAGE",
		ErrCodeDocumentNotFound:      "STORAGE",
		ErrCodeCalendarRequestFailed: "CALENDAR",
		ErrCodeGenAITimeout:          "AI",
		ErrCodeAuthenticationFailed:  "AUTH",
		ErrCodeExpressionInvalid:     "VALIDATION",
		ErrCodeMissingEntities:       "VALIDATION",
		ErrCodeEmptyMessage:          "VALIDATION",
		ErrCodeInvalidRequest:        "VALIDATION",
		ErrCodeInternal:              "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), string(code))
	}
}
