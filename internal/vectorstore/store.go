// Package vectorstore implements the Vector Store Contract (§4.4): insert,
// search, delete, and existence-check over dense vectors, with
// interchangeable Memory, Embedded (HNSW), and Remote (Qdrant) backends.
package vectorstore

import (
	"context"

	"github.com/doylet/docsearch/internal/core"
)

// VectorDoc is a single embedding to insert, keyed by ChunkId and carrying
// the subset of SearchResult fields needed to reconstruct a hit without a
// round trip to the lexical store or metadata layer.
type VectorDoc struct {
	ChunkID core.ChunkId
	Vector  []float32
	Payload Payload
}

// Payload is the subset of SearchResult fields a vector store backend may
// return directly from a hit, avoiding a second lookup on the hot path.
type Payload struct {
	DocID       core.DocId
	Title       string
	Content     string
	URI         string
	SectionPath []string
	Collection  *string
}

// Hit is one vector-search result: the matched chunk, its similarity score
// (already mapped into [0,1]) and its stored payload.
type Hit struct {
	ChunkID core.ChunkId
	Score   float64
	Payload Payload
}

// Filter narrows a vector search to a subset of the corpus. A nil filter
// (or a Filter with no fields set) matches everything.
type Filter struct {
	Collection *string
	DocIDs     map[core.DocId]struct{}
}

func (f *Filter) matches(docID core.DocId, collection *string) bool {
	if f == nil {
		return true
	}
	if f.Collection != nil {
		if collection == nil || *collection != *f.Collection {
			return false
		}
	}
	if len(f.DocIDs) > 0 {
		if _, ok := f.DocIDs[docID]; !ok {
			return false
		}
	}
	return true
}

// Store is the Vector Store Contract. Implementations MUST return Search
// hits sorted by similarity non-increasing, ties broken by ChunkId
// ascending, and MUST report dimension mismatches between query and store
// as a validation error (see docerr.Validation).
type Store interface {
	// Insert adds or replaces vectors for the given docs.
	Insert(ctx context.Context, docs []VectorDoc) error
	// Search returns the k nearest neighbors to query, optionally
	// restricted by filter.
	Search(ctx context.Context, query []float32, k int, filter *Filter) ([]Hit, error)
	// Delete removes the vectors for the given chunk ids. Deleting a
	// chunk id that does not exist is not an error.
	Delete(ctx context.Context, ids []core.ChunkId) error
	// Has reports whether id has a stored vector.
	Has(ctx context.Context, id core.ChunkId) (bool, error)
	// Get fetches the stored payload for id without a similarity search,
	// letting callers reconstruct a full SearchResult for a chunk that
	// matched only the lexical engine. ok is false if id is not present.
	Get(ctx context.Context, id core.ChunkId) (payload Payload, ok bool, err error)
	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)
	// Dimensions returns the fixed vector width this store was configured
	// for.
	Dimensions() int
	// Close releases any resources held by the store.
	Close() error
}

// Metric selects the distance function used to rank Search results.
type Metric int

const (
	MetricCosine Metric = iota
	MetricEuclidean
)

// Config configures a Store regardless of backend.
type Config struct {
	Dimensions int
	Metric     Metric
	// M and EfSearch tune the embedded HNSW graph; ignored by other
	// backends.
	M        int
	EfSearch int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig(dimensions int) Config {
	return Config{
		Dimensions: dimensions,
		Metric:     MetricCosine,
		M:          16,
		EfSearch:   20,
	}
}
