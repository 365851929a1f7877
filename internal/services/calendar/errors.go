package calendar

import (
	"errors"

	apperrors "raphael-assistant/internal/common/errors"
)

// AsStandardError maps a calendar failure onto an error code.
func AsStandardError(err error) *apperrors.StandardError {
	if errors.Is(err, ErrUnavailable) {
		return apperrors.NewCalendarUnavailableError(err)
	}
	return apperrors.NewCalendarRequestFailedError(err)
}
