package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"goforge/internal/logging"
)

// OllamaBackend adapts a local or remote Ollama server via its API client.
type OllamaBackend struct {
	client      *api.Client
	temperature float32
	maxTokens   int
}

// NewOllamaBackend creates an Ollama backend for the given base URL
// (default http://localhost:11434).
func NewOllamaBackend(baseURL string, temperature float32, maxTokens int, timeout time.Duration) (*OllamaBackend, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid endpoint %q: %w", baseURL, err)
	}
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if parsed.Scheme == "http" {
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			logging.Warn("ollama connection uses unencrypted HTTP to remote host", "host", host)
		}
	}
	return &OllamaBackend{
		client:      api.NewClient(parsed, &http.Client{Timeout: timeout}),
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (b *OllamaBackend) Name() string { return "ollama" }

func (b *OllamaBackend) request(model, prompt string, stream bool) *api.ChatRequest {
	return &api.ChatRequest{
		Model:    model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options: map[string]any{
			"temperature": b.temperature,
			"num_predict": b.maxTokens,
		},
	}
}

// Generate performs a synchronous completion by accumulating the chat
// callback output.
func (b *OllamaBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	var out string
	err := b.client.Chat(ctx, b.request(model, prompt, false), func(resp api.ChatResponse) error {
		out += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return out, nil
}

// GenerateStream performs a streaming completion.
func (b *OllamaBackend) GenerateStream(ctx context.Context, model, prompt string) (*Stream, error) {
	stream, send := NewStream(16)
	go func() {
		defer close(send)
		err := b.client.Chat(ctx, b.request(model, prompt, true), func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				select {
				case send <- Chunk{Text: resp.Message.Content}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
		if err != nil {
			send <- Chunk{Err: fmt.Errorf("ollama: %w", err), Done: true}
			return
		}
		send <- Chunk{Done: true}
	}()
	return stream, nil
}
