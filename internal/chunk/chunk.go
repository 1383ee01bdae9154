// Package chunk implements the Chunker (§4.3): splitting a Document's
// normalized content into Chunk segments small enough to embed and index
// individually, along heading, symbol, or paragraph boundaries depending
// on content type.
package chunk

import (
	"context"

	"github.com/doylet/docsearch/internal/core"
)

// Chunk size defaults, tuned for embedding-model context windows.
const (
	DefaultMaxChunkTokens = 512
	DefaultOverlapTokens  = 64
	MinChunkTokens        = 100
	tokensPerChar         = 4
)

// Options configures every Chunker implementation in this package.
type Options struct {
	MaxChunkTokens int
	OverlapTokens  int
}

// WithDefaults fills zero fields with the documented defaults.
func (o Options) WithDefaults() Options {
	if o.MaxChunkTokens == 0 {
		o.MaxChunkTokens = DefaultMaxChunkTokens
	}
	if o.OverlapTokens == 0 {
		o.OverlapTokens = DefaultOverlapTokens
	}
	return o
}

// Chunker splits a document's normalized content into ordered chunks.
type Chunker interface {
	Chunk(ctx context.Context, doc core.Document) ([]core.Chunk, error)
}

// estimateTokens approximates token count from character count; accurate
// enough for chunk-size budgeting without pulling in a tokenizer.
func estimateTokens(s string) int {
	n := len(s) / tokensPerChar
	if n == 0 && len(s) > 0 {
		n = 1
	}
	return n
}
