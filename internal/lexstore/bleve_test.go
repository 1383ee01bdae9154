package lexstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/core"
)

func chunkFor(t *testing.T, logicalID string, seq int) core.ChunkId {
	t.Helper()
	return core.NewChunkId(core.NewDocId("docs", logicalID, 1), seq)
}

func TestBleveStoreIndexAndSearch(t *testing.T) {
	ctx := context.Background()
	store, err := New("", DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Index(ctx, []Doc{
		{ChunkID: chunkFor(t, "a", 0), Content: "the hybrid search engine fuses BM25 and vector similarity"},
		{ChunkID: chunkFor(t, "b", 0), Content: "unrelated content about gardening"},
	}))

	hits, err := store.Search(ctx, "hybrid search", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, chunkFor(t, "a", 0), hits[0].ChunkID)
	assert.NotEmpty(t, hits[0].MatchedTerms)
}

func TestBleveStoreTokenizesIdentifiers(t *testing.T) {
	ctx := context.Background()
	store, err := New("", DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Index(ctx, []Doc{
		{ChunkID: chunkFor(t, "a", 0), Content: "func parseHTTPRequest(req *http.Request) error"},
	}))

	hits, err := store.Search(ctx, "parse request", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestBleveStoreCollectionFilter(t *testing.T) {
	ctx := context.Background()
	store, err := New("", DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	docsCollection := "docs"
	notesCollection := "notes"

	require.NoError(t, store.Index(ctx, []Doc{
		{ChunkID: chunkFor(t, "a", 0), Content: "search engine design", Collection: &docsCollection},
		{ChunkID: chunkFor(t, "b", 0), Content: "search engine design", Collection: &notesCollection},
	}))

	hits, err := store.Search(ctx, "search engine", 10, &Filter{Collection: &docsCollection})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "docs", hits[0].ChunkID.Doc.Collection)
}

func TestBleveStoreDeleteAndCount(t *testing.T) {
	ctx := context.Background()
	store, err := New("", DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	id := chunkFor(t, "a", 0)
	require.NoError(t, store.Index(ctx, []Doc{{ChunkID: id, Content: "hello world"}}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.Delete(ctx, []core.ChunkId{id}))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBleveStorePersistsToDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "bm25")

	store, err := New(path, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, store.Index(ctx, []Doc{{ChunkID: chunkFor(t, "a", 0), Content: "persisted chunk"}}))
	require.NoError(t, store.Close())

	reopened, err := New(path, DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBleveStoreEmptyQueryReturnsNoHits(t *testing.T) {
	ctx := context.Background()
	store, err := New("", DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hits, err := store.Search(ctx, "   ", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
