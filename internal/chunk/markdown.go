package chunk

import (
	"context"
	"regexp"
	"strings"

	"github.com/doylet/docsearch/internal/core"
)

var (
	headerPattern       = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	frontmatterPattern  = regexp.MustCompile(`(?s)^---\n(.+?)\n---\n*`)
	codeBlockPattern    = regexp.MustCompile("(?s)```[^`]*```")
	tablePattern        = regexp.MustCompile(`(?m)^\|.+\|$(\n^\|[-:|]+\|$)?(\n^\|.+\|$)*`)
)

// MarkdownChunker splits Markdown (and MDX) documents along heading
// boundaries, falling back to paragraph splitting for sections too large
// to fit in one chunk, and for documents with no headings at all.
type MarkdownChunker struct {
	opts Options
}

// NewMarkdownChunker creates a chunker with opts, filling zero fields with
// the package defaults.
func NewMarkdownChunker(opts Options) *MarkdownChunker {
	return &MarkdownChunker{opts: opts.WithDefaults()}
}

func (c *MarkdownChunker) Chunk(ctx context.Context, doc core.Document) ([]core.Chunk, error) {
	content := doc.Content
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	var chunks []core.Chunk
	seq := 0
	remaining := content

	if fm := frontmatterPattern.FindString(remaining); fm != "" {
		chunks = append(chunks, c.frontmatterChunk(doc, fm, seq))
		seq++
		remaining = remaining[len(fm):]
	}

	sections := parseSections(remaining)
	if len(sections) == 0 {
		return append(chunks, c.chunkByParagraphs(doc, remaining, nil, seq)...), nil
	}

	baseLineOffset := 1
	if len(chunks) > 0 {
		baseLineOffset = strings.Count(content[:len(content)-len(remaining)], "\n") + 1
	}

	for _, sec := range sections {
		secChunks := c.sectionChunks(doc, sec, baseLineOffset, seq)
		chunks = append(chunks, secChunks...)
		seq += len(secChunks)
	}
	return chunks, nil
}

type mdSection struct {
	headerLevel int
	headerTitle string
	headerPath  []string
	content     string
	startLine   int
}

func parseSections(content string) []mdSection {
	lines := strings.Split(content, "\n")
	var sections []mdSection
	headerStack := make([]string, 6)

	var current *mdSection
	var builder strings.Builder

	flush := func() {
		if current != nil {
			current.content = builder.String()
			sections = append(sections, *current)
			builder.Reset()
		}
	}

	for lineNum, line := range lines {
		if match := headerPattern.FindStringSubmatch(line); match != nil {
			flush()

			level := len(match[1])
			title := strings.TrimSpace(match[2])
			headerStack[level-1] = title
			for i := level; i < 6; i++ {
				headerStack[i] = ""
			}

			var path []string
			for i := 0; i < level; i++ {
				if headerStack[i] != "" {
					path = append(path, headerStack[i])
				}
			}

			current = &mdSection{headerLevel: level, headerTitle: title, headerPath: path, startLine: lineNum}
			builder.WriteString(line)
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(line)
		builder.WriteString("\n")
	}
	flush()
	return sections
}

func (c *MarkdownChunker) frontmatterChunk(doc core.Document, content string, seq int) core.Chunk {
	lineCount := strings.Count(content, "\n")
	if lineCount == 0 {
		lineCount = 1
	}
	return core.Chunk{
		ID:        core.NewChunkId(doc.ID, seq),
		Parent:    doc.ID,
		Content:   content,
		StartLine: 1,
		EndLine:   lineCount,
		ChunkKind: core.ChunkKindFrontmatter,
	}
}

func (c *MarkdownChunker) sectionChunks(doc core.Document, sec mdSection, baseLineOffset, seqStart int) []core.Chunk {
	content := strings.TrimRight(sec.content, "\n")
	trimmed := strings.TrimSpace(content)
	if lines := strings.Split(trimmed, "\n"); len(lines) <= 1 && headerPattern.MatchString(trimmed) {
		return nil
	}

	if estimateTokens(content) <= c.opts.MaxChunkTokens {
		startLine := baseLineOffset + sec.startLine
		endLine := startLine + strings.Count(content, "\n")
		return []core.Chunk{{
			ID:          core.NewChunkId(doc.ID, seqStart),
			Parent:      doc.ID,
			Content:     content,
			SectionPath: sec.headerPath,
			StartLine:   startLine,
			EndLine:     endLine,
			ChunkKind:   sectionKind(content),
		}}
	}

	return c.splitLargeSection(doc, sec, content, baseLineOffset+sec.startLine, seqStart)
}

func sectionKind(content string) core.ChunkKind {
	if tablePattern.MatchString(content) && !codeBlockPattern.MatchString(content) {
		return core.ChunkKindTable
	}
	return core.ChunkKindProse
}

func (c *MarkdownChunker) splitLargeSection(doc core.Document, sec mdSection, content string, startLine, seqStart int) []core.Chunk {
	paragraphs := splitByParagraphsPreservingCodeBlocks(content)

	var chunks []core.Chunk
	var current strings.Builder
	currentStartLine := startLine
	lineCount := 0
	seq := seqStart

	flush := func() {
		if current.Len() == 0 {
			return
		}
		text := strings.TrimRight(current.String(), "\n ")
		chunks = append(chunks, core.Chunk{
			ID:          core.NewChunkId(doc.ID, seq),
			Parent:      doc.ID,
			Content:     text,
			SectionPath: sec.headerPath,
			StartLine:   currentStartLine,
			EndLine:     currentStartLine + lineCount,
			ChunkKind:   sectionKind(text),
		})
		seq++
		current.Reset()
		lineCount = 0
	}

	for i, para := range paragraphs {
		paraLines := strings.Count(para, "\n") + 1
		paraTokens := estimateTokens(para)
		currentTokens := estimateTokens(current.String())

		if current.Len() > 0 && currentTokens+paraTokens > c.opts.MaxChunkTokens {
			currentStartLine = startLine + lineCount
			flush()
			if i > 0 && len(sec.headerPath) > 0 {
				current.WriteString("<!-- Section: ")
				current.WriteString(strings.Join(sec.headerPath, " > "))
				current.WriteString(" -->\n\n")
			}
		}
		current.WriteString(para)
		current.WriteString("\n\n")
		lineCount += paraLines + 1
	}
	flush()
	return chunks
}

func (c *MarkdownChunker) chunkByParagraphs(doc core.Document, content string, headerPath []string, seqStart int) []core.Chunk {
	paragraphs := strings.Split(content, "\n\n")

	var chunks []core.Chunk
	var current strings.Builder
	currentStartLine := 1
	lineCount := 0
	seq := seqStart

	flush := func() {
		if current.Len() == 0 {
			return
		}
		text := current.String()
		chunks = append(chunks, core.Chunk{
			ID:          core.NewChunkId(doc.ID, seq),
			Parent:      doc.ID,
			Content:     text,
			SectionPath: headerPath,
			StartLine:   currentStartLine,
			EndLine:     currentStartLine + lineCount,
			ChunkKind:   sectionKind(text),
		})
		seq++
		current.Reset()
		lineCount = 0
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		paraLines := strings.Count(para, "\n") + 1
		paraTokens := estimateTokens(para)
		currentTokens := estimateTokens(current.String())

		if current.Len() > 0 && currentTokens+paraTokens > c.opts.MaxChunkTokens {
			flush()
			currentStartLine += lineCount
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		lineCount += paraLines + 1
	}
	flush()
	return chunks
}

// splitByParagraphsPreservingCodeBlocks splits on blank lines but re-merges
// paragraphs that were only split because a fenced code block happened to
// contain a blank line.
func splitByParagraphsPreservingCodeBlocks(content string) []string {
	var paragraphs []string
	for _, part := range strings.Split(content, "\n\n") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	var result []string
	var inCodeBlock bool
	var builder strings.Builder

	for _, para := range paragraphs {
		if inCodeBlock {
			builder.WriteString("\n\n")
			builder.WriteString(para)
			if strings.Contains(para, "```") {
				result = append(result, builder.String())
				builder.Reset()
				inCodeBlock = false
			}
			continue
		}

		if openCount := strings.Count(para, "```"); openCount > 0 && openCount%2 == 1 {
			inCodeBlock = true
			builder.WriteString(para)
			continue
		}
		result = append(result, para)
	}
	if inCodeBlock {
		result = append(result, builder.String())
	}
	return result
}

var _ Chunker = (*MarkdownChunker)(nil)
