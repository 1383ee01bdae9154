package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	rec := Record{Collection: "docs", LogicalID: "guide.md", Revision: 1, ContentHash: "abc123", ChunkIDs: []string{"c1", "c2"}}
	require.NoError(t, s.Put(ctx, rec))

	got, ok, err := s.Get(ctx, "docs", "guide.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(1), got.Revision)
	assert.Equal(t, "abc123", got.ContentHash)
	assert.ElementsMatch(t, []string{"c1", "c2"}, got.ChunkIDs)
}

func TestStoreGetMissingReturnsFalse(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(context.Background(), "docs", "missing.md")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorePutReplacesPriorChunkList(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, Record{Collection: "docs", LogicalID: "a", Revision: 1, ContentHash: "h1", ChunkIDs: []string{"c1"}}))
	require.NoError(t, s.Put(ctx, Record{Collection: "docs", LogicalID: "a", Revision: 2, ContentHash: "h2", ChunkIDs: []string{"c2", "c3"}}))

	got, ok, err := s.Get(ctx, "docs", "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(2), got.Revision)
	assert.ElementsMatch(t, []string{"c2", "c3"}, got.ChunkIDs)
}

func TestStoreDeleteRemovesRecord(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, Record{Collection: "docs", LogicalID: "a", Revision: 1, ContentHash: "h1"}))
	require.NoError(t, s.Delete(ctx, "docs", "a"))

	_, ok, err := s.Get(ctx, "docs", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreListCollectionsReturnsDistinctSortedNames(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, Record{Collection: "zeta", LogicalID: "a", Revision: 1, ContentHash: "h1"}))
	require.NoError(t, s.Put(ctx, Record{Collection: "alpha", LogicalID: "b", Revision: 1, ContentHash: "h2"}))
	require.NoError(t, s.Put(ctx, Record{Collection: "alpha", LogicalID: "c", Revision: 1, ContentHash: "h3"}))

	collections, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, collections)
}

func TestStoreCollectionStatsCountsDocumentsAndChunks(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, Record{Collection: "docs", LogicalID: "a", Revision: 1, ContentHash: "h1", ChunkIDs: []string{"c1", "c2"}}))
	require.NoError(t, s.Put(ctx, Record{Collection: "docs", LogicalID: "b", Revision: 1, ContentHash: "h2", ChunkIDs: []string{"c3"}}))

	stats, err := s.CollectionStats(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DocumentCount)
	assert.Equal(t, 3, stats.ChunkCount)
	require.NotNil(t, stats.LastIndexed)
}

func TestStoreChunkIDsForCollectionReturnsAllChunks(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, Record{Collection: "docs", LogicalID: "a", Revision: 1, ContentHash: "h1", ChunkIDs: []string{"c1", "c2"}}))
	require.NoError(t, s.Put(ctx, Record{Collection: "docs", LogicalID: "b", Revision: 1, ContentHash: "h2", ChunkIDs: []string{"c3"}}))
	require.NoError(t, s.Put(ctx, Record{Collection: "other", LogicalID: "z", Revision: 1, ContentHash: "h3", ChunkIDs: []string{"c4"}}))

	ids, err := s.ChunkIDsForCollection(ctx, "docs")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2", "c3"}, ids)
}

func TestStoreCollectionStatsEmptyCollection(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	stats, err := s.CollectionStats(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentCount)
	assert.Equal(t, 0, stats.ChunkCount)
	assert.Nil(t, stats.LastIndexed)
}
