// Package core defines the value types shared across the retrieval pipeline:
// document and chunk identifiers, scores, search requests/results, and the
// per-query workspace threaded between pipeline stages.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// DocId identifies a logical document at a specific revision. Equality
// includes the revision: indexing a changed document yields a new DocId
// rather than mutating the old one in place.
type DocId struct {
	Collection string
	LogicalID  string
	Revision   uint32
}

// NewDocId builds a DocId from its three components.
func NewDocId(collection, logicalID string, revision uint32) DocId {
	return DocId{Collection: collection, LogicalID: logicalID, Revision: revision}
}

// String renders an ordered, reversible key: collection, logical id and
// revision joined by a separator that cannot appear in any component
// (components are percent-escaped so the separator byte never occurs
// inside a field, only between them).
func (d DocId) String() string {
	return fmt.Sprintf("%s\x1f%s\x1f%010d", escapeUnitSeparator(d.Collection), escapeUnitSeparator(d.LogicalID), d.Revision)
}

// ParseDocId reverses DocId.String.
func ParseDocId(s string) (DocId, error) {
	parts := strings.Split(s, "\x1f")
	if len(parts) != 3 {
		return DocId{}, fmt.Errorf("core: malformed DocId %q", s)
	}
	rev, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return DocId{}, fmt.Errorf("core: malformed DocId revision %q: %w", s, err)
	}
	return DocId{
		Collection: unescapeUnitSeparator(parts[0]),
		LogicalID:  unescapeUnitSeparator(parts[1]),
		Revision:   uint32(rev),
	}, nil
}

// Less defines the DocId tie-break ordering used whenever two results
// compare equal on score: string comparison of the rendered key.
func (d DocId) Less(other DocId) bool {
	return d.String() < other.String()
}

// escapeUnitSeparator percent-escapes '%' and the 0x1F separator byte so
// that after escaping, the only \x1f bytes left in the rendered string are
// the real field separators — strings.Split on \x1f is then exact, unlike
// a doubled-separator scheme, which a plain split can't tell apart from a
// true separator.
func escapeUnitSeparator(s string) string {
	if !strings.ContainsAny(s, "%\x1f") {
		return s
	}
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\x1f", "%1f")
	return s
}

func unescapeUnitSeparator(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	s = strings.ReplaceAll(s, "%1f", "\x1f")
	s = strings.ReplaceAll(s, "%25", "%")
	return s
}

// ChunkId identifies a retrievable segment within a document: the parent
// DocId plus a zero-based sequence number.
type ChunkId struct {
	Doc DocId
	Seq int
}

// NewChunkId builds a ChunkId for the given parent document and sequence.
func NewChunkId(doc DocId, seq int) ChunkId {
	return ChunkId{Doc: doc, Seq: seq}
}

// String renders a stable textual identifier, parent DocId then sequence.
func (c ChunkId) String() string {
	return fmt.Sprintf("%s\x1f%06d", c.Doc.String(), c.Seq)
}

// Less is the ChunkId tie-break ordering (lexicographic on the rendered
// string, which sorts by DocId first since the sequence is fixed-width).
func (c ChunkId) Less(other ChunkId) bool {
	return c.String() < other.String()
}

// ParseChunkId reverses ChunkId.String.
func ParseChunkId(s string) (ChunkId, error) {
	parts := strings.Split(s, "\x1f")
	if len(parts) != 4 {
		return ChunkId{}, fmt.Errorf("core: malformed ChunkId %q", s)
	}
	rev, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return ChunkId{}, fmt.Errorf("core: malformed ChunkId revision %q: %w", s, err)
	}
	seq, err := strconv.Atoi(parts[3])
	if err != nil {
		return ChunkId{}, fmt.Errorf("core: malformed ChunkId sequence %q: %w", s, err)
	}
	return ChunkId{
		Doc: DocId{
			Collection: unescapeUnitSeparator(parts[0]),
			LogicalID:  unescapeUnitSeparator(parts[1]),
			Revision:   uint32(rev),
		},
		Seq: seq,
	}, nil
}
