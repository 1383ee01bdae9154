package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/fusion"
)

func TestManagerLayersAreIndependent(t *testing.T) {
	m := NewManager(Config{
		Query:     LayerConfig{MaxEntries: 10},
		Embedding: LayerConfig{MaxEntries: 10},
		BM25:      LayerConfig{MaxEntries: 10},
		Fusion:    LayerConfig{MaxEntries: 10},
	})
	t.Cleanup(m.Close)

	doc := core.NewDocId("docs", "guide.md", 1)
	chunkID := core.NewChunkId(doc, 0)

	m.Query.Set("q1", []core.SearchResult{{DocID: doc, ChunkID: chunkID, Title: "guide"}})
	m.Embedding.Set("e1", []float32{0.1, 0.2})
	m.BM25.Set("b1", map[core.ChunkId]float64{chunkID: 1.5})
	m.Fusion.Set("f1", []fusion.Fused{{ChunkID: chunkID}})

	_, ok := m.Query.Get("q1")
	assert.True(t, ok)
	_, ok = m.Embedding.Get("e1")
	assert.True(t, ok)
	_, ok = m.BM25.Get("b1")
	assert.True(t, ok)
	_, ok = m.Fusion.Get("f1")
	assert.True(t, ok)

	_, ok = m.Query.Get("unrelated-key")
	assert.False(t, ok)
}

func TestManagerStatsAggregatesAllLayers(t *testing.T) {
	m := NewManager(Config{
		Query:     LayerConfig{MaxEntries: 10},
		Embedding: LayerConfig{MaxEntries: 10},
		BM25:      LayerConfig{MaxEntries: 10},
		Fusion:    LayerConfig{MaxEntries: 10},
	})
	t.Cleanup(m.Close)

	m.Embedding.Set("e1", []float32{0.1})
	m.Embedding.Get("e1")
	m.Embedding.Get("missing")

	stats := m.Stats()
	require.Contains(t, stats, "embedding")
	assert.Equal(t, uint64(1), stats["embedding"].Hits)
	assert.Equal(t, uint64(1), stats["embedding"].Misses)
}

func TestManagerSweepAllRemovesExpiredEntriesAcrossLayers(t *testing.T) {
	ttl := LayerConfig{MaxEntries: 10, TTL: 10 * time.Millisecond}
	m := NewManager(Config{Query: ttl, Embedding: ttl, BM25: ttl, Fusion: ttl})
	t.Cleanup(m.Close)

	m.Embedding.Set("e1", []float32{0.1})
	m.BM25.Set("b1", map[core.ChunkId]float64{})

	time.Sleep(20 * time.Millisecond)
	m.SweepAll()

	assert.Equal(t, 0, m.Embedding.Stats().Entries)
	assert.Equal(t, 0, m.BM25.Stats().Entries)
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.Close()
	assert.NotPanics(t, m.Close)
}
