package chunk

import (
	"context"
	"strings"

	"github.com/doylet/docsearch/internal/core"
)

// CodeChunker splits source files along symbol boundaries (functions,
// methods, types, classes) using tree-sitter, falling back to fixed-size
// line windows for unsupported languages or parse failures.
type CodeChunker struct {
	parser   *treeSitterParser
	registry *languageRegistry
	opts     Options
}

// NewCodeChunker creates a chunker with opts, filling zero fields with the
// package defaults.
func NewCodeChunker(opts Options) *CodeChunker {
	return &CodeChunker{
		parser:   newTreeSitterParser(),
		registry: defaultLanguageRegistry,
		opts:     opts.WithDefaults(),
	}
}

// Close releases the underlying tree-sitter parser.
func (c *CodeChunker) Close() {
	c.parser.close()
}

func (c *CodeChunker) Chunk(ctx context.Context, doc core.Document) ([]core.Chunk, error) {
	language := doc.Metadata.Custom["language"]
	source := []byte(doc.Content)
	if len(source) == 0 {
		return nil, nil
	}

	if _, supported := c.registry.byName(language); !supported {
		return c.chunkByLines(doc, source), nil
	}

	tree, err := c.parser.parse(ctx, source, language)
	if err != nil {
		return c.chunkByLines(doc, source), nil
	}

	fileContext := extractFileContext(tree, language)
	symbols := findSymbolNodes(tree, c.registry, language)
	if len(symbols) == 0 {
		return nil, nil
	}

	var chunks []core.Chunk
	seq := 0
	for _, sym := range symbols {
		symChunks := c.chunksFromSymbol(doc, tree, sym, fileContext, seq)
		chunks = append(chunks, symChunks...)
		seq += len(symChunks)
	}
	return chunks, nil
}

type symbolMatch struct {
	node *astNode
	kind symbolKind
	name string
}

func findSymbolNodes(tree *astTree, registry *languageRegistry, language string) []symbolMatch {
	cfg, ok := registry.byName(language)
	if !ok {
		return nil
	}

	kindByType := make(map[string]symbolKind)
	for _, t := range cfg.functionTypes {
		kindByType[t] = symbolFunction
	}
	for _, t := range cfg.methodTypes {
		kindByType[t] = symbolMethod
	}
	for _, t := range cfg.classTypes {
		kindByType[t] = symbolClass
	}
	for _, t := range cfg.interfaceTypes {
		kindByType[t] = symbolInterface
	}
	for _, t := range cfg.typeDefTypes {
		kindByType[t] = symbolType
	}
	for _, t := range cfg.constantTypes {
		kindByType[t] = symbolConstant
	}
	for _, t := range cfg.variableTypes {
		kindByType[t] = symbolVariable
	}

	var matches []symbolMatch
	tree.Root.walk(func(n *astNode) bool {
		kind, isSymbol := kindByType[n.Type]
		if !isSymbol {
			return true
		}
		name := extractName(n, tree.Source, cfg)
		if name == "" {
			return true
		}
		matches = append(matches, symbolMatch{node: n, kind: kind, name: name})
		return true
	})
	return matches
}

func (c *CodeChunker) chunksFromSymbol(doc core.Document, tree *astTree, sym symbolMatch, fileContext string, seqStart int) []core.Chunk {
	content := combineContextAndContent(fileContext, sym.node.content(tree.Source))
	startLine := int(sym.node.StartPoint.Row) + 1
	endLine := int(sym.node.EndPoint.Row) + 1

	if estimateTokens(content) <= c.opts.MaxChunkTokens {
		return []core.Chunk{{
			ID:          core.NewChunkId(doc.ID, seqStart),
			Parent:      doc.ID,
			Content:     content,
			SectionPath: []string{sym.name},
			StartLine:   startLine,
			EndLine:     endLine,
			ChunkKind:   core.ChunkKindCode,
		}}
	}

	return c.splitByLines(doc, sym.node.content(tree.Source), sym.name, startLine, seqStart)
}

func (c *CodeChunker) splitByLines(doc core.Document, content, symbolName string, startLine, seqStart int) []core.Chunk {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		return nil
	}

	linesPerChunk := (c.opts.MaxChunkTokens * tokensPerChar) / 80
	if linesPerChunk < 20 {
		linesPerChunk = 20
	}
	overlapLines := (c.opts.OverlapTokens * tokensPerChar) / 80
	if overlapLines < 2 {
		overlapLines = 2
	}

	var chunks []core.Chunk
	seq := seqStart
	for i := 0; i < len(lines); {
		end := i + linesPerChunk
		if end > len(lines) {
			end = len(lines)
		}

		chunks = append(chunks, core.Chunk{
			ID:          core.NewChunkId(doc.ID, seq),
			Parent:      doc.ID,
			Content:     strings.Join(lines[i:end], "\n"),
			SectionPath: []string{symbolName},
			StartLine:   startLine + i,
			EndLine:     startLine + end - 1,
			ChunkKind:   core.ChunkKindCode,
		})
		seq++

		next := end - overlapLines
		if next <= i || end >= len(lines) {
			break
		}
		i = next
	}
	return chunks
}

// chunkByLines is the fallback for unsupported languages or parse
// failures: fixed-size line windows with overlap, no symbol awareness.
func (c *CodeChunker) chunkByLines(doc core.Document, source []byte) []core.Chunk {
	content := string(source)
	if strings.TrimSpace(content) == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	linesPerChunk := 128
	overlapLines := 16

	var chunks []core.Chunk
	seq := 0
	for i := 0; i < len(lines); {
		end := i + linesPerChunk
		if end > len(lines) {
			end = len(lines)
		}

		chunks = append(chunks, core.Chunk{
			ID:        core.NewChunkId(doc.ID, seq),
			Parent:    doc.ID,
			Content:   strings.Join(lines[i:end], "\n"),
			StartLine: i + 1,
			EndLine:   end,
			ChunkKind: core.ChunkKindCode,
		})
		seq++

		next := end - overlapLines
		if next <= i || end >= len(lines) {
			break
		}
		i = next
	}
	return chunks
}

func extractFileContext(tree *astTree, language string) string {
	var parts []string
	switch language {
	case "go":
		for _, n := range tree.Root.Children {
			if n.Type == "package_clause" {
				parts = append(parts, n.content(tree.Source))
			}
		}
		for _, n := range tree.Root.Children {
			if n.Type == "import_declaration" {
				parts = append(parts, n.content(tree.Source))
			}
		}
	case "typescript", "tsx", "javascript", "jsx":
		for _, n := range tree.Root.Children {
			if n.Type == "import_statement" {
				parts = append(parts, n.content(tree.Source))
			}
		}
	case "python":
		for _, n := range tree.Root.Children {
			if n.Type == "import_statement" || n.Type == "import_from_statement" {
				parts = append(parts, n.content(tree.Source))
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

func combineContextAndContent(context, content string) string {
	if context == "" {
		return content
	}
	return context + "\n\n" + content
}

var _ Chunker = (*CodeChunker)(nil)
