package ai

import (
	"context"

	"github.com/poiesic/revenant/core"
)

// Turn is one message of a chat transcript sent to a completion model.
type Turn struct {
	Role    core.Role
	Content string
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer generates chat completions from a transcript.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends the transcript to the model and returns the assistant's
	// reply. The temperature applies to this call only.
	Complete(ctx context.Context, turns []Turn, temperature float64) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Completer returns the chat completion service.
	Completer() Completer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
