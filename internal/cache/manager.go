package cache

import (
	"sync"
	"time"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/fusion"
)

// resultOverheadBytes approximates the fixed per-SearchResult cost (ids,
// score breakdown, signal bitset) not captured by the variable-length
// string fields.
const resultOverheadBytes = 256

// chunkScoreEntryBytes approximates one ChunkId->float64 map entry: the
// rendered id plus the float64 value.
const chunkScoreEntryBytes = 96

// fusedEntryBytes approximates one fusion.Fused entry.
const fusedEntryBytes = 128

// Config sizes all four cache layers plus the global sweep period.
type Config struct {
	Query           LayerConfig
	Embedding       LayerConfig
	BM25            LayerConfig
	Fusion          LayerConfig
	CleanupInterval time.Duration
}

// DefaultConfig returns conservative defaults for all four layers: 1000
// entries / 16MB / 5 minute TTL each, swept every minute.
func DefaultConfig() Config {
	layer := LayerConfig{MaxEntries: 1000, MaxSizeBytes: 16 << 20, TTL: 5 * time.Minute}
	return Config{
		Query:           layer,
		Embedding:       layer,
		BM25:            layer,
		Fusion:          layer,
		CleanupInterval: time.Minute,
	}
}

// Manager is the facade over the four independent cache layers described
// in §4.10: query results, embeddings, raw BM25 scores, and fused scores.
// Each layer is addressed independently; Manager's only added behavior is
// the shared periodic TTL sweep.
type Manager struct {
	Query     *Layer[string, []core.SearchResult]
	Embedding *Layer[string, []float32]
	BM25      *Layer[string, map[core.ChunkId]float64]
	Fusion    *Layer[string, []fusion.Fused]

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager builds a Manager and starts its background TTL sweep if
// cfg.CleanupInterval > 0.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		Query:     NewLayer[string, []core.SearchResult]("query", cfg.Query, sizeOfResults),
		Embedding: NewLayer[string, []float32]("embedding", cfg.Embedding, sizeOfEmbedding),
		BM25:      NewLayer[string, map[core.ChunkId]float64]("bm25", cfg.BM25, sizeOfBM25Scores),
		Fusion:    NewLayer[string, []fusion.Fused]("fusion", cfg.Fusion, sizeOfFused),
		stop:      make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go m.sweepLoop(cfg.CleanupInterval)
	}
	return m
}

func (m *Manager) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.SweepAll()
		case <-m.stop:
			return
		}
	}
}

// SweepAll runs a TTL pre-sweep across every layer, independent of the
// ticker; callers may invoke it directly (e.g. from tests or an admin
// endpoint) without waiting for the next tick.
func (m *Manager) SweepAll() {
	m.Query.Sweep()
	m.Embedding.Sweep()
	m.BM25.Sweep()
	m.Fusion.Sweep()
}

// Stats aggregates each layer's snapshot under its name.
func (m *Manager) Stats() map[string]LayerStats {
	return map[string]LayerStats{
		"query":     m.Query.Stats(),
		"embedding": m.Embedding.Stats(),
		"bm25":      m.BM25.Stats(),
		"fusion":    m.Fusion.Stats(),
	}
}

// Close stops the background sweep goroutine. Safe to call more than once.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func sizeOfResults(results []core.SearchResult) int64 {
	var total int64
	for _, r := range results {
		total += int64(len(r.Content)+len(r.Title)+len(r.URI)+resultOverheadBytes)
	}
	return total
}

func sizeOfEmbedding(v []float32) int64 {
	return int64(len(v) * 4)
}

func sizeOfBM25Scores(scores map[core.ChunkId]float64) int64 {
	return int64(len(scores)) * chunkScoreEntryBytes
}

func sizeOfFused(fused []fusion.Fused) int64 {
	return int64(len(fused)) * fusedEntryBytes
}
