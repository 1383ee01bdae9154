// Package lexstore implements the Lexical Store Contract (§4.5): BM25-scored
// full-text search over chunk content, backed by Bleve.
package lexstore

import (
	"context"

	"github.com/doylet/docsearch/internal/core"
)

// Doc is a single chunk to index, keyed by ChunkId.
type Doc struct {
	ChunkID    core.ChunkId
	Content    string
	Collection *string
}

// Hit is one lexical-search result: the matched chunk, its raw BM25 score,
// and the query terms Bleve matched against it.
type Hit struct {
	ChunkID      core.ChunkId
	Score        float64
	MatchedTerms []string
}

// Filter narrows a lexical search to a subset of the corpus, mirroring
// vectorstore.Filter so the hybrid retrieval stage can apply the same
// request-level filters to both engines.
type Filter struct {
	Collection *string
	DocIDs     map[core.DocId]struct{}
}

// Store is the Lexical Store Contract. Search hits MUST be sorted by score
// non-increasing; ties are broken by ChunkId ascending by the caller (the
// backend need not do this itself since Bleve's score is a float and exact
// ties are rare, but callers MUST NOT rely on backend tie-break order).
type Store interface {
	// Index adds or replaces the given chunks.
	Index(ctx context.Context, docs []Doc) error
	// Search returns up to k chunks matching query, optionally restricted
	// by filter.
	Search(ctx context.Context, query string, k int, filter *Filter) ([]Hit, error)
	// Delete removes the given chunks. Deleting a chunk id that does not
	// exist is not an error.
	Delete(ctx context.Context, ids []core.ChunkId) error
	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)
	// Close releases any resources held by the store.
	Close() error
}

// Config holds lexical-store settings. Only StopWords is applied: the Bleve
// analyzer is registered once per process, so the stop words of the first
// store created are used by every later store. K1, B and MinTokenLength
// are not read by the Bleve store; Bleve's own scoring and the tokenizer's
// fixed two-character minimum apply.
type Config struct {
	K1             float64
	B              float64
	StopWords      []string
	MinTokenLength int
}

// DefaultConfig returns k1=1.2, b=0.75, DefaultStopWords and a minimum
// token length of 2; of these only the stop words take effect (see Config).
func DefaultConfig() Config {
	return Config{
		K1:             1.2,
		B:              0.75,
		StopWords:      DefaultStopWords,
		MinTokenLength: 2,
	}
}

// DefaultStopWords filters common prose and programming filler words that
// otherwise dominate document-frequency statistics without carrying
// retrieval signal.
var DefaultStopWords = []string{
	"the", "a", "an", "and", "or", "but", "is", "are", "was", "were",
	"var", "let", "const", "func", "function", "def", "class",
	"return", "if", "else", "for", "while",
	"data", "result", "value", "item", "key", "err", "ctx", "tmp",
}
