package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/embedding"
	"github.com/doylet/docsearch/internal/lexstore"
	"github.com/doylet/docsearch/internal/vectorstore"
)

func newFixture(t *testing.T) *Stage {
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

	content := "search engines combine lexical and vector retrieval"
	v, err := emb.Embed(ctx, content)
	require.NoError(t, err)

	require.NoError(t, vec.Insert(ctx, []vectorstore.VectorDoc{
		{ChunkID: chunkID, Vector: v, Payload: vectorstore.Payload{DocID: doc, Title: "guide", Content: content}},
	}))
	require.NoError(t, lex.Index(ctx, []lexstore.Doc{{ChunkID: chunkID, Content: content}}))

	return NewStage(vec, lex, emb)
}

func TestRetrieveParallelFindsIndexedChunk(t *testing.T) {
	stage := newFixture(t)
	results, degraded, err := stage.Retrieve(context.Background(), core.NewQuery("vector retrieval"), 10, core.Filters{})
	require.NoError(t, err)
	assert.False(t, degraded)
	require.Len(t, results, 1)
	assert.Equal(t, "guide", results[0].Title)
	assert.True(t, results[0].FromSignals.Has(core.SignalHybrid))
}

func TestRetrieveSequentialSkipsBM25WhenVectorSatisfiesThreshold(t *testing.T) {
	stage := newFixture(t)
	stage.Mode = Sequential
	stage.Threshold = 1

	results, degraded, err := stage.Retrieve(context.Background(), core.NewQuery("vector retrieval"), 10, core.Filters{})
	require.NoError(t, err)
	assert.False(t, degraded)
	require.Len(t, results, 1)
	assert.False(t, results[0].FromSignals.Has(core.SignalBM25))
}

func TestRetrieveBM25ThenVectorFusesBoth(t *testing.T) {
	stage := newFixture(t)
	stage.Mode = BM25ThenVector
	stage.RerankCount = 5

	results, degraded, err := stage.Retrieve(context.Background(), core.NewQuery("lexical retrieval"), 10, core.Filters{})
	require.NoError(t, err)
	assert.False(t, degraded)
	require.Len(t, results, 1)
}

func TestRetrieveCollectionFilterExcludesOtherCollections(t *testing.T) {
	stage := newFixture(t)
	other := "other-collection"
	results, degraded, err := stage.Retrieve(context.Background(), core.NewQuery("vector retrieval"), 10, core.Filters{Collection: &other})
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Empty(t, results)
}

// failingLexStore wraps a real lexstore.Store but fails every Search call,
// simulating one engine of a hybrid pair going down while the other stays
// healthy.
type failingLexStore struct {
	lexstore.Store
}

func (failingLexStore) Search(ctx context.Context, query string, k int, filter *lexstore.Filter) ([]lexstore.Hit, error) {
	return nil, errors.New("lexical store unavailable")
}

func TestRetrieveParallelReportsDegradedOnPartialEngineFailure(t *testing.T) {
	stage := newFixture(t)
	stage.Lexical = failingLexStore{Store: stage.Lexical}

	results, degraded, err := stage.Retrieve(context.Background(), core.NewQuery("vector retrieval"), 10, core.Filters{})
	require.NoError(t, err)
	assert.True(t, degraded)
	require.Len(t, results, 1)
	assert.False(t, results[0].FromSignals.Has(core.SignalBM25))
}
