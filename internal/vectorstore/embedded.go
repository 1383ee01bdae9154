package vectorstore

import (
	"bufio"
	"context"
	"encoding/gob"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/docerr"
)

// EmbeddedStore is the `vector_backend: Embedded` backend: an in-process
// HNSW graph (github.com/coder/hnsw) with gob-encoded metadata persisted
// via atomic rename-based Save/Load.
//
// Deletion is lazy: a deleted chunk's mapping is dropped but its node
// stays in the graph. coder/hnsw has a known issue deleting the last
// remaining node from a graph, so removing nodes eagerly is avoided
// entirely; orphaned nodes are invisible to Search because they have no
// live ChunkId mapping.
type EmbeddedStore struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	cfg   Config

	idToKey map[core.ChunkId]uint64
	keyToID map[uint64]core.ChunkId
	payload map[core.ChunkId]Payload
	nextKey uint64

	closed bool
}

type embeddedMetadata struct {
	IDToKey map[core.ChunkId]uint64
	Payload map[core.ChunkId]Payload
	NextKey uint64
	Config  Config
}

// NewEmbeddedStore creates an HNSW-backed Store for cfg.
func NewEmbeddedStore(cfg Config) *EmbeddedStore {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	switch cfg.Metric {
	case MetricEuclidean:
		graph.Distance = hnsw.EuclideanDistance
	default:
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &EmbeddedStore{
		graph:   graph,
		cfg:     cfg,
		idToKey: make(map[core.ChunkId]uint64),
		keyToID: make(map[uint64]core.ChunkId),
		payload: make(map[core.ChunkId]Payload),
	}
}

func (s *EmbeddedStore) Insert(ctx context.Context, docs []VectorDoc) error {
	if len(docs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return docerr.Internal("vector store is closed")
	}

	for _, d := range docs {
		if len(d.Vector) != s.cfg.Dimensions {
			return docerr.Validation("vector dimension mismatch").
				WithDetail(dimDetail(s.cfg.Dimensions, len(d.Vector)))
		}
	}

	for _, d := range docs {
		if existingKey, exists := s.idToKey[d.ChunkID]; exists {
			// Lazy update: orphan the old mapping, the node stays in the graph.
			delete(s.keyToID, existingKey)
			delete(s.idToKey, d.ChunkID)
		}

		key := s.nextKey
		s.nextKey++

		vec := append([]float32(nil), d.Vector...)
		if s.cfg.Metric == MetricCosine {
			normalizeInPlace(vec)
		}

		s.graph.Add(hnsw.MakeNode(key, vec))
		s.idToKey[d.ChunkID] = key
		s.keyToID[key] = d.ChunkID
		s.payload[d.ChunkID] = d.Payload
	}
	return nil
}

func (s *EmbeddedStore) Search(ctx context.Context, query []float32, k int, filter *Filter) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, docerr.Internal("vector store is closed")
	}
	if len(query) != s.cfg.Dimensions {
		return nil, docerr.Validation("vector dimension mismatch").
			WithDetail(dimDetail(s.cfg.Dimensions, len(query)))
	}
	if s.graph.Len() == 0 {
		return []Hit{}, nil
	}

	q := append([]float32(nil), query...)
	if s.cfg.Metric == MetricCosine {
		normalizeInPlace(q)
	}

	// Over-fetch to compensate for filtered-out and orphaned nodes, then
	// trim to k after filtering.
	fetch := k
	if filter != nil {
		fetch = k * 4
		if fetch < k+16 {
			fetch = k + 16
		}
	}
	fetch += s.graph.Len() - len(s.idToKey)
	nodes := s.graph.Search(q, fetch)

	hits := make([]Hit, 0, len(nodes))
	for _, node := range nodes {
		id, ok := s.keyToID[node.Key]
		if !ok {
			continue // orphaned (lazily-deleted) node
		}
		p := s.payload[id]
		if !filter.matches(p.DocID, p.Collection) {
			continue
		}
		distance := s.graph.Distance(q, node.Value)
		hits = append(hits, Hit{
			ChunkID: id,
			Score:   distanceToScore(float64(distance), s.cfg.Metric),
			Payload: p,
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

func (s *EmbeddedStore) Delete(ctx context.Context, ids []core.ChunkId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return docerr.Internal("vector store is closed")
	}
	for _, id := range ids {
		if key, ok := s.idToKey[id]; ok {
			delete(s.keyToID, key)
			delete(s.idToKey, id)
			delete(s.payload, id)
		}
	}
	return nil
}

func (s *EmbeddedStore) Has(ctx context.Context, id core.ChunkId) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.idToKey[id]
	return ok, nil
}

func (s *EmbeddedStore) Get(ctx context.Context, id core.ChunkId) (Payload, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Payload{}, false, docerr.Internal("vector store is closed")
	}
	if _, ok := s.idToKey[id]; !ok {
		return Payload{}, false, nil
	}
	return s.payload[id], true, nil
}

func (s *EmbeddedStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idToKey), nil
}

func (s *EmbeddedStore) Dimensions() int { return s.cfg.Dimensions }

// Stats reports live vs orphaned (lazily-deleted) graph nodes, useful for
// deciding when a background compaction pass is worthwhile.
type Stats struct {
	ValidVectors int
	GraphNodes   int
	Orphans      int
}

func (s *EmbeddedStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	valid := len(s.idToKey)
	total := s.graph.Len()
	return Stats{ValidVectors: valid, GraphNodes: total, Orphans: total - valid}
}

// Save persists the graph and its ID mappings to path (graph) and
// path+".meta" (gob-encoded mappings), each written to a temp file and
// atomically renamed into place.
func (s *EmbeddedStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return docerr.Internal("vector store is closed")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return docerr.Wrap(docerr.CodeInternal, "create vector store directory", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return docerr.Wrap(docerr.CodeInternal, "create vector index file", err)
	}
	if err := s.graph.Export(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return docerr.Wrap(docerr.CodeInternal, "export vector graph", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return docerr.Wrap(docerr.CodeInternal, "close vector index file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return docerr.Wrap(docerr.CodeInternal, "rename vector index file", err)
	}

	return s.saveMetadata(path + ".meta")
}

func (s *EmbeddedStore) saveMetadata(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return docerr.Wrap(docerr.CodeInternal, "create vector metadata file", err)
	}

	meta := embeddedMetadata{IDToKey: s.idToKey, Payload: s.payload, NextKey: s.nextKey, Config: s.cfg}
	if err := gob.NewEncoder(f).Encode(meta); err != nil {
		f.Close()
		os.Remove(tmp)
		return docerr.Wrap(docerr.CodeInternal, "encode vector metadata", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return docerr.Wrap(docerr.CodeInternal, "close vector metadata file", err)
	}
	return os.Rename(tmp, path)
}

// Load restores a previously Save'd graph and its ID mappings.
func (s *EmbeddedStore) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return docerr.Internal("vector store is closed")
	}

	if err := s.loadMetadata(path + ".meta"); err != nil {
		return docerr.Wrap(docerr.CodeInternal, "load vector metadata", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return docerr.Wrap(docerr.CodeInternal, "open vector index file", err)
	}
	defer f.Close()

	if err := s.graph.Import(bufio.NewReader(f)); err != nil {
		return docerr.Wrap(docerr.CodeInternal, "import vector graph", err)
	}
	return nil
}

func (s *EmbeddedStore) loadMetadata(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Warn("close vector metadata file", slog.String("error", cerr.Error()))
		}
	}()

	var meta embeddedMetadata
	if err := gob.NewDecoder(f).Decode(&meta); err != nil {
		return err
	}

	s.idToKey = meta.IDToKey
	s.payload = meta.Payload
	s.nextKey = meta.NextKey
	s.cfg = meta.Config
	s.keyToID = make(map[uint64]core.ChunkId, len(s.idToKey))
	for id, key := range s.idToKey {
		s.keyToID[key] = id
	}
	return nil
}

func (s *EmbeddedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	return nil
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

// distanceToScore maps an HNSW distance into a [0,1] similarity score.
func distanceToScore(distance float64, metric Metric) float64 {
	switch metric {
	case MetricEuclidean:
		return 1.0 / (1.0 + distance)
	default: // MetricCosine: ranges 0 (identical) to 2 (opposite)
		return 1.0 - distance/2.0
	}
}

var _ Store = (*EmbeddedStore)(nil)
