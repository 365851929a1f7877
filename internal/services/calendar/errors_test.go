package calendar

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "raphael-assistant/internal/common/errors"
)

func TestAsStandardError(t *testing.T) {
	_, err := Unavailable{Reason: "test mode"}.CreateEvent(context.Background(), EventRequest{})
	stdErr := AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeCalendarUnavailable, stdErr.Code)
	assert.False(t, stdErr.Retryable)

	stdErr = AsStandardError(errors.New("quota exceeded"))
	assert.Equal(t, apperrors.ErrCodeCalendarRequestFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}
