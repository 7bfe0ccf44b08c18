// Package embedding provides text embedding via the OpenAI API, with an LRU
// cache and a deterministic offline implementation.
package embedding

import (
	"context"
	"errors"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ErrService wraps failures of the remote embedding API. Callers decide
// whether to retry; this package never does.
var ErrService = errors.New("embedding service error")
