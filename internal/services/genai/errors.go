package genai

import (
	"errors"

	apperrors "raphael-assistant/internal/common/errors"
)

// AsStandardError maps a generation failure onto an error code.
func AsStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrUnavailable):
		return apperrors.NewGenAIUnavailableError(err)
	case errors.Is(err, ErrTimeout):
		return apperrors.NewGenAITimeoutError(err)
	default:
		return apperrors.NewGenAIFailedError(err)
	}
}
