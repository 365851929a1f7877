// Package genai produces the free-text half of every reply.
package genai

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnavailable = errors.New("GENAI_UNAVAILABLE")
	ErrTimeout     = errors.New("GENAI_TIMEOUT")
	ErrFailed      = errors.New("GENAI_FAILED")
)

// Generator turns a prompt into reply text. Nothing beyond the string is
// assumed about the backend's response.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Unavailable stands in when no API key is configured.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Generate(context.Context, string) (string, error) {
	if u.Reason == "" {
		return "", ErrUnavailable
	}
	return "", fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}

// Static always answers with Text. The CLI uses it for offline runs.
type Static struct {
	Text string
}

func (s Static) Generate(context.Context, string) (string, error) {
	return s.Text, nil
}
