package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"raphael-assistant/internal/common/config"
	httpclient "raphael-assistant/internal/common/http"
	"raphael-assistant/internal/common/logger"
)

// EmptyReply is used when the model answers with no text.
const EmptyReply = "I'm sorry, I couldn't generate a response."

// GeminiClient calls the generateContent endpoint of the Generative
// Language API.
type GeminiClient struct {
	config *config.GenAIConfig
	client *httpclient.Client
	logger logger.Logger
}

func NewGeminiClient(cfg *config.GenAIConfig, log logger.Logger) *GeminiClient {
	return &GeminiClient{
		config: cfg,
		client: httpclient.NewClient(config.GetDuration(cfg.Timeout), httpclient.WithMaxRetries(cfg.MaxRetries)),
		logger: log.WithFields(map[string]interface{}{"component": "genai", "model": cfg.Model}),
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimSuffix(g.config.BaseURL, "/"), g.config.Model)
	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: g.config.MaxTokens,
			Temperature:     g.config.Temperature,
		},
	}

	var resp generateResponse
	err := g.client.DoJSON(ctx, http.MethodPost, url, body, &resp, map[string]string{
		"x-goog-api-key": g.config.APIKey,
	})
	if err != nil {
		if errors.Is(err, httpclient.ErrTimeout) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrFailed, err)
	}

	text := resp.text()
	if text == "" {
		g.logger.Warn("model returned no text", map[string]interface{}{"candidates": len(resp.Candidates)})
		return EmptyReply, nil
	}

	g.logger.Debug("reply generated", map[string]interface{}{
		"promptLength": len(prompt),
		"replyLength":  len(text),
	})
	return text, nil
}

func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}
