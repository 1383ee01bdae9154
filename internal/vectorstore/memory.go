package vectorstore

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/docerr"
)

// MemoryStore is the `vector_backend: Memory` backend: an exact linear
// scan with no persistence, useful for small collections and for tests
// that want real Search semantics without an HNSW graph.
type MemoryStore struct {
	mu     sync.RWMutex
	cfg    Config
	values map[core.ChunkId]entry
}

type entry struct {
	vector  []float32
	payload Payload
}

// NewMemoryStore creates an empty Memory backend for cfg.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{cfg: cfg, values: make(map[core.ChunkId]entry)}
}

func (s *MemoryStore) Insert(ctx context.Context, docs []VectorDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		if len(d.Vector) != s.cfg.Dimensions {
			return docerr.Validation("vector dimension mismatch").
				WithDetail(dimDetail(s.cfg.Dimensions, len(d.Vector)))
		}
		vec := append([]float32(nil), d.Vector...)
		s.values[d.ChunkID] = entry{vector: vec, payload: d.Payload}
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, query []float32, k int, filter *Filter) ([]Hit, error) {
	if len(query) != s.cfg.Dimensions {
		return nil, docerr.Validation("vector dimension mismatch").
			WithDetail(dimDetail(s.cfg.Dimensions, len(query)))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, 0, len(s.values))
	for id, e := range s.values {
		if !filter.matches(e.payload.DocID, e.payload.Collection) {
			continue
		}
		hits = append(hits, Hit{
			ChunkID: id,
			Score:   similarity(query, e.vector, s.cfg.Metric),
			Payload: e.payload,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID.Less(hits[j].ChunkID)
	})

	if k >= 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *MemoryStore) Delete(ctx context.Context, ids []core.ChunkId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.values, id)
	}
	return nil
}

func (s *MemoryStore) Has(ctx context.Context, id core.ChunkId) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[id]
	return ok, nil
}

func (s *MemoryStore) Get(ctx context.Context, id core.ChunkId) (Payload, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.values[id]
	return e.payload, ok, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values), nil
}

func (s *MemoryStore) Dimensions() int { return s.cfg.Dimensions }

func (s *MemoryStore) Close() error { return nil }

func similarity(a, b []float32, metric Metric) float64 {
	switch metric {
	case MetricEuclidean:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return 1.0 / (1.0 + math.Sqrt(sum))
	default: // MetricCosine
		var dot, na, nb float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
			na += float64(a[i]) * float64(a[i])
			nb += float64(b[i]) * float64(b[i])
		}
		if na == 0 || nb == 0 {
			return 0
		}
		cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
		return (cos + 1) / 2
	}
}

func dimDetail(expected, got int) string {
	return "expected " + strconv.Itoa(expected) + " dimensions, got " + strconv.Itoa(got)
}

var _ Store = (*MemoryStore)(nil)
