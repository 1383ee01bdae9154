package core

import "time"

// ContentType classifies the normalized form a Document's content takes
// before chunking. Detected from extension first, then content sniffing.
type ContentType int

const (
	ContentUnknown ContentType = iota
	ContentMarkdown
	ContentHTML
	ContentCode
	ContentStructured // JSON/YAML/TOML and similar key-value formats
	ContentPlainText
)

// String implements fmt.Stringer.
func (c ContentType) String() string {
	switch c {
	case ContentMarkdown:
		return "markdown"
	case ContentHTML:
		return "html"
	case ContentCode:
		return "code"
	case ContentStructured:
		return "structured"
	case ContentPlainText:
		return "plaintext"
	default:
		return "unknown"
	}
}

// DocumentMetadata carries the detected content type plus free-form
// key/value pairs recorded alongside a Document.
type DocumentMetadata struct {
	ContentType ContentType
	Custom      map[string]string
}

// Document is the index-side representation of a source file before
// chunking: its identity, raw content, and provenance.
type Document struct {
	ID           DocId
	Title        string
	Content      string
	Path         string
	Size         int64
	LastModified time.Time
	Metadata     DocumentMetadata
}

// ChunkKind distinguishes the structural role a Chunk played in its source
// document, used by the content-aware atomic-block preservation in the
// chunker and by ranking's length-penalty heuristics.
type ChunkKind int

const (
	ChunkKindProse ChunkKind = iota
	ChunkKindCode
	ChunkKindTable
	ChunkKindFrontmatter
)

// Chunk is an ordered, retrievable segment of a Document.
type Chunk struct {
	ID          ChunkId
	Parent      DocId
	Content     string
	SectionPath []string
	StartLine   int
	EndLine     int
	ChunkKind   ChunkKind
}
