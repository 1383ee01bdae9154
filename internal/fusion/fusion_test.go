package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/lexstore"
	"github.com/doylet/docsearch/internal/vectorstore"
)

func chunk(t *testing.T, logicalID string, seq int) core.ChunkId {
	t.Helper()
	return core.NewChunkId(core.NewDocId("docs", logicalID, 1), seq)
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
}

func TestInvalidWeightsFailValidation(t *testing.T) {
	w := Weights{BM25: 0.5, Vector: 0.6}
	assert.Error(t, w.Validate())
}

func TestFuseMinMaxWeightsBothEngines(t *testing.T) {
	f := NewFuser(core.MinMax)
	a := chunk(t, "a", 0)
	b := chunk(t, "b", 0)

	bm25 := []lexstore.Hit{
		{ChunkID: a, Score: 10},
		{ChunkID: b, Score: 5},
	}
	vec := []vectorstore.Hit{
		{ChunkID: a, Score: 0.9},
		{ChunkID: b, Score: 0.1},
	}

	results := f.Fuse(bm25, vec, DefaultWeights())
	require.Len(t, results, 2)
	assert.Equal(t, a, results[0].ChunkID)
	assert.InDelta(t, 1.0, results[0].Breakdown.Fused, 1e-9)
	assert.InDelta(t, 0.0, results[1].Breakdown.Fused, 1e-9)
}

func TestFuseMissingEngineSubstitutesZero(t *testing.T) {
	f := NewFuser(core.MinMax)
	a := chunk(t, "a", 0)
	b := chunk(t, "b", 0)

	bm25 := []lexstore.Hit{{ChunkID: a, Score: 10}}
	vec := []vectorstore.Hit{{ChunkID: b, Score: 0.9}}

	results := f.Fuse(bm25, vec, DefaultWeights())
	require.Len(t, results, 2)

	byID := map[core.ChunkId]Fused{}
	for _, r := range results {
		byID[r.ChunkID] = r
	}

	aResult := byID[a]
	assert.True(t, aResult.FromSignals.Has(core.SignalBM25))
	assert.False(t, aResult.FromSignals.Has(core.SignalVector))
	assert.InDelta(t, DefaultWeights().BM25, aResult.Breakdown.Fused, 1e-9)

	bResult := byID[b]
	assert.True(t, bResult.FromSignals.Has(core.SignalVector))
	assert.False(t, bResult.FromSignals.Has(core.SignalBM25))
	assert.InDelta(t, DefaultWeights().Vector, bResult.Breakdown.Fused, 1e-9)
}

func TestFuseAllEqualScoresNormalizeToOne(t *testing.T) {
	f := NewFuser(core.MinMax)
	a := chunk(t, "a", 0)
	b := chunk(t, "b", 0)

	bm25 := []lexstore.Hit{
		{ChunkID: a, Score: 3},
		{ChunkID: b, Score: 3},
	}

	results := f.Fuse(bm25, nil, DefaultWeights())
	require.Len(t, results, 2)
	for _, r := range results {
		assert.InDelta(t, DefaultWeights().BM25, r.Breakdown.Fused, 1e-9)
	}
}

func TestFuseHybridSignalRecordedWhenBothEnginesPresent(t *testing.T) {
	f := NewFuser(core.MinMax)
	a := chunk(t, "a", 0)

	bm25 := []lexstore.Hit{{ChunkID: a, Score: 5}}
	vec := []vectorstore.Hit{{ChunkID: a, Score: 0.5}}

	results := f.Fuse(bm25, vec, DefaultWeights())
	require.Len(t, results, 1)
	assert.True(t, results[0].FromSignals.Has(core.SignalHybrid))
}

func TestFuseEmptyInputsReturnsEmptySlice(t *testing.T) {
	f := NewFuser(core.MinMax)
	results := f.Fuse(nil, nil, DefaultWeights())
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFuseTieBreaksByChunkIDAscending(t *testing.T) {
	f := NewFuser(core.MinMax)
	a := chunk(t, "a", 0)
	b := chunk(t, "b", 0)

	bm25 := []lexstore.Hit{
		{ChunkID: b, Score: 5},
		{ChunkID: a, Score: 5},
	}

	results := f.Fuse(bm25, nil, DefaultWeights())
	require.Len(t, results, 2)
	assert.Equal(t, a, results[0].ChunkID)
	assert.Equal(t, b, results[1].ChunkID)
}
