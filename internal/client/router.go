package client

import (
	"context"
	"fmt"
	"strings"

	"goforge/internal/config"
	"goforge/internal/logging"
)

// Candidate is one (provider, model) pair the router may try.
type Candidate struct {
	Provider string
	Model    string
	Backend  Backend
}

func (c Candidate) String() string {
	return c.Provider + "/" + c.Model
}

// Router tries candidates strictly in configured order. A candidate fails
// on transport error, on an empty response, or on an error-shaped response
// body; the next candidate is tried and earlier ones are never revisited.
// Sequential fallback is the only retry policy.
type Router struct {
	candidates []Candidate
}

// NewRouter builds the candidate list from active providers in configured
// order, each contributing its candidate models in order. Providers whose
// backend cannot be constructed (e.g. missing API key) are skipped with a
// warning; ErrNoCandidates is returned only when nothing usable remains.
func NewRouter(ctx context.Context, cfg *config.Config) (*Router, error) {
	var candidates []Candidate
	backends := map[string]Backend{}

	for _, p := range cfg.ActiveProviders() {
		models := p.CandidateModels()
		if len(models) == 0 {
			logging.Warn("active provider has no usable models", "provider", p.Name)
			continue
		}

		backend, ok := backends[p.Name]
		if !ok {
			var err error
			backend, err = buildBackend(ctx, p, cfg.Model)
			if err != nil {
				logging.Warn("skipping provider", "provider", p.Name, "error", err)
				continue
			}
			backends[p.Name] = backend
		}

		for _, model := range models {
			candidates = append(candidates, Candidate{Provider: p.Name, Model: model, Backend: backend})
		}
	}

	return NewRouterFromCandidates(candidates)
}

// NewRouterFromCandidates builds a router over an explicit candidate list.
func NewRouterFromCandidates(candidates []Candidate) (*Router, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return &Router{candidates: candidates}, nil
}

func buildBackend(ctx context.Context, p *config.ProviderConfig, model config.ModelConfig) (Backend, error) {
	switch kind := p.AdapterKind(); kind {
	case "openai", "local", "openrouter":
		if p.Endpoint == "" {
			return nil, fmt.Errorf("%s: endpoint is required", p.Name)
		}
		return NewOpenAIBackend(p.Name, p.Endpoint, p.APIKey, model.Temperature, model.MaxTokens, p.Timeout), nil
	case "gemini":
		return NewGeminiBackend(ctx, p.APIKey, model.Temperature, model.MaxTokens)
	case "ollama":
		return NewOllamaBackend(p.Endpoint, model.Temperature, model.MaxTokens, p.Timeout)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", kind)
	}
}

// Candidates returns the ordered candidate list.
func (r *Router) Candidates() []Candidate {
	return r.candidates
}

// Query sends the prompt to each candidate in order and returns the first
// usable response. It returns an error wrapping ErrExhausted after every
// candidate failed, or the context error when cancelled.
func (r *Router) Query(ctx context.Context, prompt string) (string, error) {
	var failures []string
	for _, c := range r.candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := c.Backend.Generate(ctx, c.Model, prompt)
		switch {
		case err != nil:
			logging.Warn("candidate failed", "candidate", c.String(), "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", c, err))
		case strings.TrimSpace(text) == "":
			logging.Warn("candidate returned empty response", "candidate", c.String())
			failures = append(failures, fmt.Sprintf("%s: empty response", c))
		case errorShaped(text):
			logging.Warn("candidate returned error payload", "candidate", c.String())
			failures = append(failures, fmt.Sprintf("%s: error payload", c))
		default:
			logging.Debug("candidate succeeded", "candidate", c.String(), "length", len(text))
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrExhausted, strings.Join(failures, "; "))
}

// QueryStream streams the prompt's completion from the first candidate
// whose stream can be initiated. Backends without streaming support yield
// the full response as a single chunk. Failures after the stream has begun
// surface as chunk errors and do not trigger fallback.
func (r *Router) QueryStream(ctx context.Context, prompt string) (*Stream, error) {
	var failures []string
	for _, c := range r.candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if streamer, ok := c.Backend.(Streamer); ok {
			stream, err := streamer.GenerateStream(ctx, c.Model, prompt)
			if err != nil {
				logging.Warn("candidate stream failed to start", "candidate", c.String(), "error", err)
				failures = append(failures, fmt.Sprintf("%s: %v", c, err))
				continue
			}
			logging.Debug("streaming from candidate", "candidate", c.String())
			return stream, nil
		}

		text, err := c.Backend.Generate(ctx, c.Model, prompt)
		if err != nil || strings.TrimSpace(text) == "" || errorShaped(text) {
			logging.Warn("candidate failed", "candidate", c.String(), "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", c, err))
			continue
		}
		return singleChunkStream(text), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrExhausted, strings.Join(failures, "; "))
}
