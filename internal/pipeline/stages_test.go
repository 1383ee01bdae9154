package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/embedding"
	"github.com/doylet/docsearch/internal/lexstore"
	"github.com/doylet/docsearch/internal/merge"
	"github.com/doylet/docsearch/internal/queryenhance"
	"github.com/doylet/docsearch/internal/ranking"
	"github.com/doylet/docsearch/internal/retrieval"
	"github.com/doylet/docsearch/internal/vectorstore"
)

func newIntegrationPipeline(t *testing.T) *Pipeline {
	t.Helper()
	vec := vectorstore.NewMemoryStore(vectorstore.DefaultConfig(16))
	lex, err := lexstore.New("", lexstore.DefaultConfig())
	require.NoError(t, err)
	emb := embedding.NewStaticEmbedder(16)
	t.Cleanup(func() {
		vec.Close()
		lex.Close()
	})

	ctx := context.Background()
	doc := core.NewDocId("docs", "guide.md", 1)
	chunkID := core.NewChunkId(doc, 0)
	content := "search engines combine lexical and vector retrieval for documents"
	v, err := emb.Embed(ctx, content)
	require.NoError(t, err)
	require.NoError(t, vec.Insert(ctx, []vectorstore.VectorDoc{
		{ChunkID: chunkID, Vector: v, Payload: vectorstore.Payload{DocID: doc, Title: "search guide", Content: content}},
	}))
	require.NoError(t, lex.Index(ctx, []lexstore.Doc{{ChunkID: chunkID, Content: content}}))

	retrievalStage := retrieval.NewStage(vec, lex, emb)
	enhanceStage := queryenhance.NewStage(queryenhance.DefaultConfig())
	rankStage := ranking.NewStage(ranking.DefaultConfig())

	return NewBuilder().
		AddOptional(&EnhancementStage{Enhancer: enhanceStage}).
		Add(&RetrievalStage{Retriever: retrievalStage}).
		Add(&MergeStage{Strategy: merge.MergeWithProvenance, MaxResults: 10}).
		Add(&RankingStage{Ranker: rankStage}).
		Build()
}

func TestPipelineEndToEndFindsIndexedDocument(t *testing.T) {
	p := newIntegrationPipeline(t)
	sc, err := p.Execute(context.Background(), core.SearchRequest{
		Query: core.NewQuery("vector retrieval"),
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, sc.RawResults, 1)
	assert.Equal(t, "search guide", sc.RawResults[0].Title)
	assert.False(t, sc.Metadata.Degraded)
}

// failingLexStore wraps a real lexstore.Store but fails every Search call,
// so a pipeline run can exercise the one-engine-down degraded path.
type failingLexStore struct {
	lexstore.Store
}

func (failingLexStore) Search(ctx context.Context, query string, k int, filter *lexstore.Filter) ([]lexstore.Hit, error) {
	return nil, errors.New("lexical store unavailable")
}

func TestPipelineEndToEndMarksDegradedOnPartialEngineFailure(t *testing.T) {
	vec := vectorstore.NewMemoryStore(vectorstore.DefaultConfig(16))
	lex, err := lexstore.New("", lexstore.DefaultConfig())
	require.NoError(t, err)
	emb := embedding.NewStaticEmbedder(16)
	t.Cleanup(func() {
		vec.Close()
		lex.Close()
	})

	ctx := context.Background()
	doc := core.NewDocId("docs", "guide.md", 1)
	chunkID := core.NewChunkId(doc, 0)
	content := "search engines combine lexical and vector retrieval for documents"
	v, err := emb.Embed(ctx, content)
	require.NoError(t, err)
	require.NoError(t, vec.Insert(ctx, []vectorstore.VectorDoc{
		{ChunkID: chunkID, Vector: v, Payload: vectorstore.Payload{DocID: doc, Title: "search guide", Content: content}},
	}))
	require.NoError(t, lex.Index(ctx, []lexstore.Doc{{ChunkID: chunkID, Content: content}}))

	retrievalStage := retrieval.NewStage(vec, failingLexStore{Store: lex}, emb)
	rankStage := ranking.NewStage(ranking.DefaultConfig())

	p := NewBuilder().
		Add(&RetrievalStage{Retriever: retrievalStage}).
		Add(&MergeStage{Strategy: merge.MergeWithProvenance, MaxResults: 10}).
		Add(&RankingStage{Ranker: rankStage}).
		Build()

	sc, err := p.Execute(ctx, core.SearchRequest{
		Query: core.NewQuery("vector retrieval"),
		Limit: 10,
	})
	require.NoError(t, err)
	assert.True(t, sc.Metadata.Degraded)
}

func TestPipelineEndToEndTracksVariantContributions(t *testing.T) {
	p := newIntegrationPipeline(t)
	sc, err := p.Execute(context.Background(), core.SearchRequest{
		Query: core.NewQuery("search documents"),
		Limit: 10,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sc.MergeMetrics.VariantsProcessed, 1)
	assert.NotEmpty(t, sc.MergeMetrics.VariantContributions)
}
