package chunk

import (
	"context"
	"strings"

	"github.com/doylet/docsearch/internal/core"
)

// PlainTextChunker splits unstructured text into overlapping, roughly
// equal-size windows on paragraph boundaries where possible. Used for
// content types with no structural boundaries to key on (plain text,
// unrecognized formats).
type PlainTextChunker struct {
	opts Options
}

// NewPlainTextChunker creates a chunker with opts, filling zero fields
// with the package defaults.
func NewPlainTextChunker(opts Options) *PlainTextChunker {
	return &PlainTextChunker{opts: opts.WithDefaults()}
}

func (c *PlainTextChunker) Chunk(ctx context.Context, doc core.Document) ([]core.Chunk, error) {
	content := doc.Content
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	paragraphs := splitParagraphsWithLines(content)
	if len(paragraphs) == 0 {
		return nil, nil
	}

	var chunks []core.Chunk
	var current strings.Builder
	currentStartLine := paragraphs[0].startLine
	currentEndLine := currentStartLine
	seq := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, core.Chunk{
			ID:        core.NewChunkId(doc.ID, seq),
			Parent:    doc.ID,
			Content:   strings.TrimRight(current.String(), "\n"),
			StartLine: currentStartLine,
			EndLine:   currentEndLine,
			ChunkKind: core.ChunkKindProse,
		})
		seq++
		current.Reset()
	}

	for i, p := range paragraphs {
		currentTokens := estimateTokens(current.String())
		if current.Len() > 0 && currentTokens+estimateTokens(p.text) > c.opts.MaxChunkTokens {
			flush()
			currentStartLine = p.startLine
			// Repeat the previous paragraph at the start of the next window
			// when it fits within the overlap budget.
			if prev := paragraphs[i-1]; estimateTokens(prev.text) <= c.opts.OverlapTokens {
				current.WriteString(prev.text)
				current.WriteString("\n\n")
				currentStartLine = prev.startLine
			}
		}
		current.WriteString(p.text)
		current.WriteString("\n\n")
		currentEndLine = p.endLine
	}
	flush()
	return chunks, nil
}

type plainParagraph struct {
	text               string
	startLine, endLine int
}

func splitParagraphsWithLines(content string) []plainParagraph {
	lines := strings.Split(content, "\n")

	var paragraphs []plainParagraph
	var builder strings.Builder
	start := -1

	flush := func(end int) {
		if start == -1 {
			return
		}
		text := strings.TrimSpace(builder.String())
		if text != "" {
			paragraphs = append(paragraphs, plainParagraph{text: text, startLine: start, endLine: end})
		}
		builder.Reset()
		start = -1
	}

	for i, line := range lines {
		lineNum := i + 1
		if strings.TrimSpace(line) == "" {
			flush(lineNum - 1)
			continue
		}
		if start == -1 {
			start = lineNum
		}
		builder.WriteString(line)
		builder.WriteString("\n")
	}
	flush(len(lines))
	return paragraphs
}

var _ Chunker = (*PlainTextChunker)(nil)
