package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"goforge/internal/logging"
)

// GeminiBackend adapts the Gemini API via the official genai SDK.
type GeminiBackend struct {
	client      *genai.Client
	temperature float32
	maxTokens   int32
}

// NewGeminiBackend creates a Gemini backend. It fails when the API key is
// missing or the SDK client cannot be constructed.
func NewGeminiBackend(ctx context.Context, apiKey string, temperature float32, maxTokens int) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiBackend{
		client:      c,
		temperature: temperature,
		maxTokens:   int32(maxTokens),
	}, nil
}

func (b *GeminiBackend) Name() string { return "gemini" }

func (b *GeminiBackend) generateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: ptr(b.temperature),
	}
	if b.maxTokens > 0 {
		cfg.MaxOutputTokens = b.maxTokens
	}
	return cfg
}

func ptr[T any](v T) *T {
	return &v
}

// Generate performs a synchronous completion.
func (b *GeminiBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx, model, genai.Text(prompt), b.generateConfig())
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini: empty response for model %s", model)
	}
	if resp.UsageMetadata != nil {
		logging.Debug("completion usage",
			"provider", "gemini", "model", model,
			"prompt_tokens", resp.UsageMetadata.PromptTokenCount,
			"completion_tokens", resp.UsageMetadata.CandidatesTokenCount)
	}
	return text, nil
}

// responseText concatenates the text parts of the first candidate,
// skipping thought parts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var text string
	for _, part := range candidate.Content.Parts {
		if part.Thought {
			continue
		}
		text += part.Text
	}
	return text
}

// GenerateStream performs a streaming completion.
func (b *GeminiBackend) GenerateStream(ctx context.Context, model, prompt string) (*Stream, error) {
	iter := b.client.Models.GenerateContentStream(ctx, model, genai.Text(prompt), b.generateConfig())

	stream, send := NewStream(16)
	go func() {
		defer close(send)
		for resp, err := range iter {
			if err != nil {
				send <- Chunk{Err: fmt.Errorf("gemini: %w", err), Done: true}
				return
			}
			if resp == nil {
				break
			}
			if text := responseText(resp); text != "" {
				select {
				case send <- Chunk{Text: text}:
				case <-ctx.Done():
					send <- Chunk{Err: ctx.Err(), Done: true}
					return
				}
			}
		}
		send <- Chunk{Done: true}
	}()
	return stream, nil
}
