package genai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "raphael-assistant/internal/common/errors"
)

func TestAsStandardError(t *testing.T) {
	assert.Equal(t, apperrors.ErrCodeGenAIUnavailable, AsStandardError(fmt.Errorf("%w: no key", ErrUnavailable)).Code)
	assert.Equal(t, apperrors.ErrCodeGenAITimeout, AsStandardError(ErrTimeout).Code)
	assert.Equal(t, apperrors.ErrCodeGenAIFailed, AsStandardError(errors.New("500")).Code)
}
