package chunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/core"
)

func codeDoc(language, content string) core.Document {
	return core.Document{
		ID:      core.NewDocId("code", "main."+extFor(language), 1),
		Content: content,
		Metadata: core.DocumentMetadata{
			ContentType: core.ContentCode,
			Custom:      map[string]string{"language": language},
		},
	}
}

func extFor(language string) string {
	switch language {
	case "go":
		return "go"
	case "python":
		return "py"
	default:
		return "txt"
	}
}

func TestCodeChunkerSplitsGoFunctionsIntoChunks(t *testing.T) {
	src := "package example\n\nimport \"fmt\"\n\nfunc Hello() {\n\tfmt.Println(\"hi\")\n}\n\nfunc Bye() {\n\tfmt.Println(\"bye\")\n}\n"
	c := NewCodeChunker(Options{})
	defer c.Close()

	chunks, err := c.Chunk(context.Background(), codeDoc("go", src))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, []string{"Hello"}, chunks[0].SectionPath)
	assert.Contains(t, chunks[0].Content, "package example")
	assert.Contains(t, chunks[0].Content, "func Hello")
	assert.Equal(t, core.ChunkKindCode, chunks[0].ChunkKind)
}

func TestCodeChunkerFallsBackForUnsupportedLanguage(t *testing.T) {
	src := "some content\nline two\nline three\n"
	c := NewCodeChunker(Options{})
	defer c.Close()

	chunks, err := c.Chunk(context.Background(), codeDoc("ruby", src))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].StartLine)
}

func TestCodeChunkerPythonFunctions(t *testing.T) {
	src := "def greet(name):\n    return f\"hi {name}\"\n\n\ndef farewell(name):\n    return f\"bye {name}\"\n"
	c := NewCodeChunker(Options{})
	defer c.Close()

	chunks, err := c.Chunk(context.Background(), codeDoc("python", src))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"greet"}, chunks[0].SectionPath)
	assert.Equal(t, []string{"farewell"}, chunks[1].SectionPath)
}

func TestCodeChunkerEmptyContentReturnsNoChunks(t *testing.T) {
	c := NewCodeChunker(Options{})
	defer c.Close()

	chunks, err := c.Chunk(context.Background(), codeDoc("go", ""))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
