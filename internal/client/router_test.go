package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name      string
	responses map[string]string // model -> response
	errs      map[string]error  // model -> error
	calls     []string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Generate(_ context.Context, model, _ string) (string, error) {
	f.calls = append(f.calls, model)
	if err, ok := f.errs[model]; ok {
		return "", err
	}
	return f.responses[model], nil
}

func TestRouterShortCircuitsOnFirstSuccess(t *testing.T) {
	backend := &fakeBackend{
		name:      "fake",
		responses: map[string]string{"m1": "first answer", "m2": "second answer"},
	}
	r, err := NewRouterFromCandidates([]Candidate{
		{Provider: "fake", Model: "m1", Backend: backend},
		{Provider: "fake", Model: "m2", Backend: backend},
	})
	require.NoError(t, err)

	text, err := r.Query(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "first answer", text)
	assert.Equal(t, []string{"m1"}, backend.calls)
}

func TestRouterFallsThroughFailures(t *testing.T) {
	backend := &fakeBackend{
		name: "fake",
		errs: map[string]error{"down": errors.New("connection refused")},
		responses: map[string]string{
			"empty":  "   ",
			"broken": `{"error": {"message": "quota exceeded"}}`,
			"good":   "it works",
		},
	}
	r, err := NewRouterFromCandidates([]Candidate{
		{Provider: "fake", Model: "down", Backend: backend},
		{Provider: "fake", Model: "empty", Backend: backend},
		{Provider: "fake", Model: "broken", Backend: backend},
		{Provider: "fake", Model: "good", Backend: backend},
	})
	require.NoError(t, err)

	text, err := r.Query(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "it works", text)
	assert.Equal(t, []string{"down", "empty", "broken", "good"}, backend.calls)
}

func TestRouterExhaustion(t *testing.T) {
	backend := &fakeBackend{
		name: "fake",
		errs: map[string]error{"a": errors.New("boom"), "b": errors.New("boom")},
	}
	r, err := NewRouterFromCandidates([]Candidate{
		{Provider: "fake", Model: "a", Backend: backend},
		{Provider: "fake", Model: "b", Backend: backend},
	})
	require.NoError(t, err)

	_, err = r.Query(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExhausted))
}

func TestRouterNoCandidates(t *testing.T) {
	_, err := NewRouterFromCandidates(nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestRouterRespectsCancellation(t *testing.T) {
	backend := &fakeBackend{name: "fake", responses: map[string]string{"m1": "answer"}}
	r, err := NewRouterFromCandidates([]Candidate{{Provider: "fake", Model: "m1", Backend: backend}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Query(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, backend.calls)
}

func TestQueryStreamWrapsNonStreamingBackend(t *testing.T) {
	backend := &fakeBackend{name: "fake", responses: map[string]string{"m1": "streamed text"}}
	r, err := NewRouterFromCandidates([]Candidate{{Provider: "fake", Model: "m1", Backend: backend}})
	require.NoError(t, err)

	stream, err := r.QueryStream(context.Background(), "hi")
	require.NoError(t, err)
	text, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, "streamed text", text)
}

func TestErrorShaped(t *testing.T) {
	assert.True(t, errorShaped(`{"error": "rate limited"}`))
	assert.True(t, errorShaped("  {\"error\": {\"code\": 429}}  "))
	assert.False(t, errorShaped("The error was in your code."))
	assert.False(t, errorShaped(`{"result": "ok"}`))
	assert.False(t, errorShaped("not json at all"))
}
