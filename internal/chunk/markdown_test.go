package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/core"
)

func mdDoc(content string) core.Document {
	return core.Document{
		ID:      core.NewDocId("docs", "guide.md", 1),
		Title:   "guide",
		Content: content,
	}
}

func TestMarkdownChunkerSplitsOnHeaders(t *testing.T) {
	content := "# Title\n\nintro text\n\n## Section A\n\nbody a\n\n## Section B\n\nbody b\n"
	c := NewMarkdownChunker(Options{})

	chunks, err := c.Chunk(context.Background(), mdDoc(content))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, []string{"Title"}, chunks[0].SectionPath)
	assert.Equal(t, []string{"Title", "Section A"}, chunks[1].SectionPath)
	assert.Equal(t, []string{"Title", "Section B"}, chunks[2].SectionPath)
	assert.Contains(t, chunks[1].Content, "body a")
}

func TestMarkdownChunkerExtractsFrontmatter(t *testing.T) {
	content := "---\ntitle: Guide\ntags: [a, b]\n---\n\n# Title\n\nbody\n"
	c := NewMarkdownChunker(Options{})

	chunks, err := c.Chunk(context.Background(), mdDoc(content))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, core.ChunkKindFrontmatter, chunks[0].ChunkKind)
	assert.Contains(t, chunks[0].Content, "title: Guide")
}

func TestMarkdownChunkerHandlesNoHeaders(t *testing.T) {
	content := "just a plain paragraph.\n\nand another one.\n"
	c := NewMarkdownChunker(Options{})

	chunks, err := c.Chunk(context.Background(), mdDoc(content))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Nil(t, chunks[0].SectionPath)
}

func TestMarkdownChunkerSplitsOversizedSectionPreservingCodeBlocks(t *testing.T) {
	var body strings.Builder
	body.WriteString("# Big\n\n")
	for i := 0; i < 40; i++ {
		body.WriteString("This is a reasonably long paragraph meant to pad out the section content considerably so that it exceeds the configured token budget for a single chunk.\n\n")
	}
	body.WriteString("```go\nfunc example() {\n\n\tdoSomething()\n}\n```\n\n")

	c := NewMarkdownChunker(Options{MaxChunkTokens: 50})
	chunks, err := c.Chunk(context.Background(), mdDoc(body.String()))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	var sawCodeFence bool
	for _, ch := range chunks {
		if strings.Contains(ch.Content, "```go") {
			sawCodeFence = true
			assert.Contains(t, ch.Content, "}\n```")
		}
	}
	assert.True(t, sawCodeFence, "fenced code block should survive intact in some chunk")
}

func TestMarkdownChunkerEmptyDocumentReturnsNoChunks(t *testing.T) {
	c := NewMarkdownChunker(Options{})
	chunks, err := c.Chunk(context.Background(), mdDoc("   \n  "))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestMarkdownChunkerAssignsSequentialChunkIDs(t *testing.T) {
	content := "# A\n\nfirst\n\n## B\n\nsecond\n"
	c := NewMarkdownChunker(Options{})
	doc := mdDoc(content)

	chunks, err := c.Chunk(context.Background(), doc)
	require.NoError(t, err)
	for i, ch := range chunks {
		assert.Equal(t, core.NewChunkId(doc.ID, i), ch.ID)
		assert.Equal(t, doc.ID, ch.Parent)
	}
}
