// Package embedding implements the embedding provider contract (§4.3):
// turning chunk and query text into dense vectors, with an LRU cache in
// front of whichever backend computes them.
package embedding

import (
	"context"
	"math"
)

const (
	// DefaultBatchSize caps how many texts a single EmbedBatch call
	// processes before the caller should split further.
	DefaultBatchSize = 32
	// MaxBatchSize prevents unbounded memory growth from a single batch.
	MaxBatchSize = 256
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding width this provider produces.
	Dimensions() int
	// ModelName identifies the model or algorithm producing embeddings.
	ModelName() string
	// Available reports whether the provider is ready to serve requests.
	Available(ctx context.Context) bool
	// Close releases resources held by the provider.
	Close() error
}

// normalizeVector scales v to unit length, leaving a zero vector as-is.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(float64(val) / magnitude)
	}
	return out
}
