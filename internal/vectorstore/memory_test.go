package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/core"
)

func testDoc(t *testing.T, logicalID string, seq int, vec []float32) VectorDoc {
	t.Helper()
	doc := core.NewDocId("docs", logicalID, 1)
	return VectorDoc{
		ChunkID: core.NewChunkId(doc, seq),
		Vector:  vec,
		Payload: Payload{DocID: doc, Title: logicalID},
	}
}

func TestMemoryStoreSearchOrdersByScoreThenChunkID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultConfig(3))

	a := testDoc(t, "a", 0, []float32{1, 0, 0})
	b := testDoc(t, "b", 0, []float32{1, 0, 0}) // identical vector, tie on score
	c := testDoc(t, "c", 0, []float32{0, 1, 0}) // orthogonal, lower score

	require.NoError(t, store.Insert(ctx, []VectorDoc{c, b, a}))

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.True(t, hits[0].ChunkID.Less(hits[1].ChunkID) || hits[0].ChunkID == hits[1].ChunkID)
	assert.Equal(t, a.ChunkID, hits[0].ChunkID)
	assert.Equal(t, b.ChunkID, hits[1].ChunkID)
	assert.Equal(t, c.ChunkID, hits[2].ChunkID)
	assert.Greater(t, hits[0].Score, hits[2].Score)
}

func TestMemoryStoreSearchRespectsCollectionFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultConfig(2))

	docsCollection := "docs"
	notesCollection := "notes"

	d1 := core.NewDocId(docsCollection, "one", 1)
	d2 := core.NewDocId(notesCollection, "two", 1)

	require.NoError(t, store.Insert(ctx, []VectorDoc{
		{ChunkID: core.NewChunkId(d1, 0), Vector: []float32{1, 0}, Payload: Payload{DocID: d1, Collection: &docsCollection}},
		{ChunkID: core.NewChunkId(d2, 0), Vector: []float32{1, 0}, Payload: Payload{DocID: d2, Collection: &notesCollection}},
	}))

	hits, err := store.Search(ctx, []float32{1, 0}, 10, &Filter{Collection: &docsCollection})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, d1, hits[0].Payload.DocID)
}

func TestMemoryStoreDimensionMismatchIsValidationError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultConfig(3))

	err := store.Insert(ctx, []VectorDoc{testDoc(t, "a", 0, []float32{1, 0})})
	require.Error(t, err)

	_, err = store.Search(ctx, []float32{1, 0}, 5, nil)
	require.Error(t, err)
}

func TestMemoryStoreDeleteAndHasAndCount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultConfig(2))

	d := testDoc(t, "a", 0, []float32{1, 1})
	require.NoError(t, store.Insert(ctx, []VectorDoc{d}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	has, err := store.Has(ctx, d.ChunkID)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, store.Delete(ctx, []core.ChunkId{d.ChunkID}))

	has, err = store.Has(ctx, d.ChunkID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestFilterMatchesNilIsPermissive(t *testing.T) {
	var f *Filter
	assert.True(t, f.matches(core.NewDocId("docs", "a", 1), nil))
}
