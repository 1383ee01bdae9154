package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/core"
)

func f64(v float64) *float64 { return &v }

func resultWithScores(t *testing.T, logicalID, title, content string, bm25Norm, vecNorm float64) core.SearchResult {
	t.Helper()
	doc := core.NewDocId("docs", logicalID, 1)
	return core.SearchResult{
		DocID:   doc,
		ChunkID: core.NewChunkId(doc, 0),
		Title:   title,
		Content: content,
		Scores: core.ScoreBreakdown{
			BM25Normalized:   f64(bm25Norm),
			VectorNormalized: f64(vecNorm),
		},
	}
}

func TestRankOrdersByWeightedFinalScore(t *testing.T) {
	stage := NewStage(DefaultConfig())
	results := []core.SearchResult{
		resultWithScores(t, "low", "low", "short", 0.1, 0.1),
		resultWithScores(t, "high", "high", "short", 0.9, 0.9),
	}

	ranked := stage.Rank(core.NewQuery("query"), results, nil)
	require.Len(t, ranked, 2)
	assert.Equal(t, "high", ranked[0].Title)
	assert.NotNil(t, ranked[0].RankingSignals)
}

func TestRankTitleMatchBoostsScore(t *testing.T) {
	stage := NewStage(DefaultConfig())
	results := []core.SearchResult{
		resultWithScores(t, "a", "unrelated heading", "body", 0.5, 0.5),
		resultWithScores(t, "b", "search engines guide", "body", 0.5, 0.5),
	}

	ranked := stage.Rank(core.NewQuery("search engines"), results, nil)
	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].Title)
}

func TestRankDropsResultsBelowFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Floor = 0.5
	stage := NewStage(cfg)

	results := []core.SearchResult{
		resultWithScores(t, "a", "a", "body", 0.05, 0.05),
	}

	ranked := stage.Rank(core.NewQuery("query"), results, nil)
	assert.Empty(t, ranked)
}

func TestRankNeverIntroducesNewResults(t *testing.T) {
	stage := NewStage(DefaultConfig())
	results := []core.SearchResult{
		resultWithScores(t, "a", "a", "body", 0.5, 0.5),
		resultWithScores(t, "b", "b", "body", 0.3, 0.3),
	}

	ranked := stage.Rank(core.NewQuery("query"), results, nil)
	assert.Len(t, ranked, len(results))
}

func TestRankLengthPenaltyReducesOverLongContent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LengthThreshold = 10
	stage := NewStage(cfg)

	short := resultWithScores(t, "short", "x", "tiny", 0.5, 0.5)
	long := resultWithScores(t, "long", "x", string(make([]byte, 1000)), 0.5, 0.5)

	ranked := stage.Rank(core.NewQuery("x"), []core.SearchResult{short, long}, nil)
	require.Len(t, ranked, 2)
	assert.Equal(t, "short", ranked[0].Title)
}

func TestFreshnessSignalDecaysWithAge(t *testing.T) {
	doc := core.NewDocId("docs", "aging", 1)
	cfg := DefaultConfig()
	cfg.FreshnessHalfLife = 24 * time.Hour
	stage := NewStage(cfg)

	fresh := freshnessSignal(doc, DocumentAge{doc: 0}, cfg.FreshnessHalfLife)
	aged := freshnessSignal(doc, DocumentAge{doc: 24 * time.Hour}, cfg.FreshnessHalfLife)
	assert.InDelta(t, 1.0, fresh, 1e-9)
	assert.InDelta(t, 0.5, aged, 1e-9)
	_ = stage
}
