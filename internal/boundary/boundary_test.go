package boundary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/analytics"
	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/embedding"
	"github.com/doylet/docsearch/internal/health"
	"github.com/doylet/docsearch/internal/indexing"
	"github.com/doylet/docsearch/internal/lexstore"
	"github.com/doylet/docsearch/internal/merge"
	"github.com/doylet/docsearch/internal/metadata"
	"github.com/doylet/docsearch/internal/pipeline"
	"github.com/doylet/docsearch/internal/queryenhance"
	"github.com/doylet/docsearch/internal/ranking"
	"github.com/doylet/docsearch/internal/retrieval"
	"github.com/doylet/docsearch/internal/vectorstore"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	vec := vectorstore.NewMemoryStore(vectorstore.DefaultConfig(16))
	lex, err := lexstore.New("", lexstore.DefaultConfig())
	require.NoError(t, err)
	emb := embedding.NewStaticEmbedder(16)
	md, err := metadata.Open("")
	require.NoError(t, err)
	t.Cleanup(func() {
		vec.Close()
		lex.Close()
		md.Close()
	})

	ix := indexing.New(vec, lex, emb, md, indexing.StandardStrategy)
	t.Cleanup(ix.Close)

	retrievalStage := retrieval.NewStage(vec, lex, emb)
	enhanceStage := queryenhance.NewStage(queryenhance.DefaultConfig())
	rankStage := ranking.NewStage(ranking.DefaultConfig())
	p := pipeline.NewBuilder().
		AddOptional(&pipeline.EnhancementStage{Enhancer: enhanceStage}).
		Add(&pipeline.RetrievalStage{Retriever: retrievalStage}).
		Add(&pipeline.MergeStage{Strategy: merge.MergeWithProvenance, MaxResults: 10}).
		Add(&pipeline.RankingStage{Ranker: rankStage}).
		Build()

	reg := health.NewRegistry()
	reg.Register("vector_store", health.VectorStoreCheck(vec))

	return New(p, ix, md, reg, reg, analytics.NewRecorder())
}

func TestServiceIndexDocumentThenSearchFindsIt(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	receipt, err := svc.IndexDocument(ctx, "docs", "guide.md", "guide.md",
		[]byte("search engines combine lexical and vector retrieval for documents"))
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.ChunksWritten)
	assert.False(t, receipt.Unchanged)

	resp, err := svc.Search(ctx, core.SearchRequest{Query: core.NewQuery("vector retrieval"), Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 1, resp.Metadata.Total)
}

func TestServiceIndexDocumentTwiceIsUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	content := []byte("repeated content for idempotency check")

	first, err := svc.IndexDocument(ctx, "docs", "a.md", "a.md", content)
	require.NoError(t, err)
	assert.False(t, first.Unchanged)

	second, err := svc.IndexDocument(ctx, "docs", "a.md", "a.md", content)
	require.NoError(t, err)
	assert.True(t, second.Unchanged)
}

func TestServiceDeleteDocumentRemovesIt(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.IndexDocument(ctx, "docs", "a.md", "a.md", []byte("some indexed content here"))
	require.NoError(t, err)

	result, err := svc.DeleteDocument(ctx, "docs", "a.md")
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, found, err := svc.GetDocument(ctx, "docs", "a.md")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestServiceListCollectionsReportsStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.IndexDocument(ctx, "docs", "a.md", "a.md", []byte("content about search engines and ranking"))
	require.NoError(t, err)

	infos, err := svc.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "docs", infos[0].Name)
	assert.Equal(t, "ready", infos[0].Status)
	assert.Positive(t, infos[0].VectorCount)
}

func TestServiceCollectionStatsReportsEfficiency(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.IndexDocument(ctx, "docs", "a.md", "a.md", []byte("content describing hybrid search ranking"))
	require.NoError(t, err)

	stats, err := svc.CollectionStats(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 1.0, stats.IndexEfficiency)
	assert.Equal(t, 16, stats.AvgVectorDim)
	require.NotNil(t, stats.LastIndexed)
}

func TestServiceCollectionStatsEmptyCollectionIsFullyEfficient(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	stats, err := svc.CollectionStats(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 1.0, stats.IndexEfficiency)
	assert.Equal(t, 0, stats.VectorCount)
}

func TestServiceHealthReportsRegisteredChecks(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	resp := svc.Health(ctx)
	assert.Equal(t, health.StatusHealthy, resp.Status)
	require.Len(t, resp.Checks, 1)
	assert.Equal(t, "vector_store", resp.Checks[0].Name)
}

func TestServiceSearchValidationErrorSkipsAnalytics(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Search(ctx, core.SearchRequest{Query: core.NewQuery(""), Limit: 10})
	require.Error(t, err)
	assert.Equal(t, int64(0), svc.Analytics.Snapshot().TotalQueries)
}
