package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/core"
)

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	doc := core.NewDocId("docs", "guide", 3)
	chunk := core.NewChunkId(doc, 2)
	collection := "docs"

	payload := Payload{
		DocID:       doc,
		Title:       "Guide",
		Content:     "hello world",
		URI:         "docs://guide",
		SectionPath: []string{"Intro", "Setup"},
		Collection:  &collection,
	}

	encoded, err := encodePayload(chunk, payload)
	require.NoError(t, err)

	decodedChunk, decodedPayload, err := decodePayload(encoded)
	require.NoError(t, err)

	assert.Equal(t, chunk, decodedChunk)
	assert.Equal(t, payload.DocID, decodedPayload.DocID)
	assert.Equal(t, payload.Title, decodedPayload.Title)
	assert.Equal(t, payload.SectionPath, decodedPayload.SectionPath)
	assert.Equal(t, *payload.Collection, *decodedPayload.Collection)
}

func TestChunkPointIDIsDeterministic(t *testing.T) {
	doc := core.NewDocId("docs", "guide", 1)
	chunk := core.NewChunkId(doc, 0)

	first := chunkPointID(chunk)
	second := chunkPointID(chunk)
	assert.Equal(t, first.GetUuid(), second.GetUuid())
}

func TestToQdrantFilterNilWhenEmpty(t *testing.T) {
	assert.Nil(t, toQdrantFilter(nil))
	assert.Nil(t, toQdrantFilter(&Filter{}))
}

func TestToQdrantFilterBuildsMustConditions(t *testing.T) {
	collection := "docs"
	doc := core.NewDocId("docs", "guide", 1)

	f := &Filter{Collection: &collection, DocIDs: map[core.DocId]struct{}{doc: {}}}
	filter := toQdrantFilter(f)
	require.NotNil(t, filter)
	assert.Len(t, filter.Must, 2)
}
