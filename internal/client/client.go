// Package client routes completion requests across an ordered list of
// (provider, model) candidates. Individual backends adapt one provider's
// wire protocol; the Router tries candidates in order and falls through on
// failure, which is the only retry policy in the system.
package client

import (
	"context"
	"strings"
)

// Backend generates a completion from a single provider. Implementations
// are safe for concurrent use.
type Backend interface {
	// Name identifies the provider for logging and failure summaries.
	Name() string
	// Generate returns the full completion for prompt using model.
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Streamer is implemented by backends that can deliver a completion
// incrementally. Backends without it are adapted by the router: the full
// response is yielded as a single chunk.
type Streamer interface {
	GenerateStream(ctx context.Context, model, prompt string) (*Stream, error)
}

// Chunk is one unit of streamed output. Err is set on a terminal failure;
// Done marks the final chunk.
type Chunk struct {
	Text string
	Err  error
	Done bool
}

// Stream delivers a completion chunk by chunk. The channel is closed after
// the Done chunk.
type Stream struct {
	Chunks <-chan Chunk
}

// NewStream returns a stream and the send side of its channel. The producer
// must close the channel after sending a Done chunk.
func NewStream(buffer int) (*Stream, chan<- Chunk) {
	ch := make(chan Chunk, buffer)
	return &Stream{Chunks: ch}, ch
}

// Collect drains the stream and returns the concatenated text. The first
// chunk error aborts collection and is returned with whatever text was
// received before it.
func (s *Stream) Collect() (string, error) {
	var b strings.Builder
	for chunk := range s.Chunks {
		b.WriteString(chunk.Text)
		if chunk.Err != nil {
			return b.String(), chunk.Err
		}
	}
	return b.String(), nil
}

// singleChunkStream wraps an already-complete response in a Stream.
func singleChunkStream(text string) *Stream {
	ch := make(chan Chunk, 1)
	ch <- Chunk{Text: text, Done: true}
	close(ch)
	return &Stream{Chunks: ch}
}
