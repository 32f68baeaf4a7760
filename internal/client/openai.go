package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"goforge/internal/logging"
)

// OpenAIBackend speaks the OpenAI-compatible chat completions protocol.
// It covers local servers (LM Studio, llama.cpp), OpenRouter, and any other
// endpoint exposing /chat/completions.
type OpenAIBackend struct {
	name        string
	baseURL     string
	apiKey      string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
}

// NewOpenAIBackend creates a backend for an OpenAI-compatible endpoint.
// baseURL is the API root including the version segment, e.g.
// http://localhost:1234/v1.
func NewOpenAIBackend(name, baseURL, apiKey string, temperature float32, maxTokens int, timeout time.Duration) *OpenAIBackend {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIBackend{
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (b *OpenAIBackend) Name() string { return b.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type chatStreamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Generate performs a synchronous chat completion.
func (b *OpenAIBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := b.post(ctx, chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", b.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: status %d: %s", b.name, resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", b.name, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: response carried no choices", b.name)
	}
	if parsed.Usage.CompletionTokens > 0 {
		logging.Debug("completion usage",
			"provider", b.name, "model", model,
			"prompt_tokens", parsed.Usage.PromptTokens,
			"completion_tokens", parsed.Usage.CompletionTokens)
	}
	return parsed.Choices[0].Message.Content, nil
}

// GenerateStream performs a streaming chat completion. Frames arrive as
// "data: {json}" lines terminated by a "data: [DONE]" sentinel.
func (b *OpenAIBackend) GenerateStream(ctx context.Context, model, prompt string) (*Stream, error) {
	resp, err := b.post(ctx, chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%s: status %d: %s", b.name, resp.StatusCode, truncate(string(body), 200))
	}

	stream, send := NewStream(16)
	go func() {
		defer resp.Body.Close()
		defer close(send)

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				send <- Chunk{Done: true}
				return
			}
			var event chatStreamEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				logging.Debug("skipping malformed stream frame", "provider", b.name, "error", err)
				continue
			}
			if len(event.Choices) == 0 {
				continue
			}
			select {
			case send <- Chunk{Text: event.Choices[0].Delta.Content}:
			case <-ctx.Done():
				send <- Chunk{Err: ctx.Err(), Done: true}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			send <- Chunk{Err: fmt.Errorf("%s: stream read: %w", b.name, err), Done: true}
			return
		}
		// Stream ended without a [DONE] sentinel; treat as complete.
		send <- Chunk{Done: true}
	}()
	return stream, nil
}

func (b *OpenAIBackend) post(ctx context.Context, reqBody chatRequest) (*http.Response, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", b.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
	if b.name == "openrouter" {
		req.Header.Set("HTTP-Referer", "https://github.com/goforge/goforge")
		req.Header.Set("X-Title", "goforge")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.name, err)
	}
	return resp, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
