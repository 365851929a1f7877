package storage

import (
	"context"
	"errors"

	apperrors "raphael-assistant/internal/common/errors"
)

// AsStandardError maps a backend failure on collection onto an error code.
func AsStandardError(collection string, err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewStorageQueryTimeoutError(collection, err)
	case errors.Is(err, ErrNotFound):
		return apperrors.NewDocumentNotFoundError(collection, err)
	case errors.Is(err, ErrWriteFailed):
		return apperrors.NewStorageWriteFailedError(collection, err)
	case errors.Is(err, ErrQueryFailed), errors.Is(err, ErrInvalidOptions):
		return apperrors.NewStorageQueryFailedError(collection, err)
	default:
		return apperrors.NewStorageUnavailableError(err)
	}
}
