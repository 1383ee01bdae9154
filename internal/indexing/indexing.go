// Package indexing implements the Indexing Strategy (§4.3): detect,
// normalize, chunk, embed and write a document atomically across the
// lexical and vector stores, with content-hash idempotency and rollback
// on partial failure.
package indexing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/doylet/docsearch/internal/chunk"
	"github.com/doylet/docsearch/internal/content"
	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/embedding"
	"github.com/doylet/docsearch/internal/lexstore"
	"github.com/doylet/docsearch/internal/metadata"
	"github.com/doylet/docsearch/internal/vectorstore"
)

// Strategy selects the indexing variant: coarser/cheaper for bulk imports,
// finer/richer for precision-sensitive collections.
type Strategy int

const (
	// StandardStrategy uses the configured default chunk size and full
	// normalization. The default for most collections.
	StandardStrategy Strategy = iota
	// FastStrategy doubles the chunk size and halves the overlap, trading
	// recall for throughput. Normalization is the same as for the other
	// strategies; no normalization pass is skipped.
	FastStrategy
	// PrecisionStrategy narrows chunks for tighter semantic locality.
	PrecisionStrategy
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case FastStrategy:
		return "fast"
	case PrecisionStrategy:
		return "precision"
	default:
		return "standard"
	}
}

func (s Strategy) chunkOptions() chunk.Options {
	switch s {
	case FastStrategy:
		return chunk.Options{MaxChunkTokens: chunk.DefaultMaxChunkTokens * 2, OverlapTokens: chunk.DefaultOverlapTokens / 2}
	case PrecisionStrategy:
		return chunk.Options{MaxChunkTokens: chunk.DefaultMaxChunkTokens / 2, OverlapTokens: chunk.DefaultOverlapTokens}
	default:
		return chunk.Options{}
	}
}

// Indexer wires the content processor, chunkers, embedder and the two
// backing stores into the atomic per-document indexing sequence.
type Indexer struct {
	Vector   vectorstore.Store
	Lexical  lexstore.Store
	Embedder embedding.Embedder
	Metadata *metadata.Store
	Strategy Strategy

	markdown  *chunk.MarkdownChunker
	code      *chunk.CodeChunker
	plaintext *chunk.PlainTextChunker
}

// New constructs an Indexer. Callers own the lifetime of the stores,
// embedder and metadata handle passed in; Close only releases resources
// the Indexer itself allocated (the chunkers' tree-sitter parser).
func New(vector vectorstore.Store, lexical lexstore.Store, embedder embedding.Embedder, md *metadata.Store, strategy Strategy) *Indexer {
	opts := strategy.chunkOptions()
	return &Indexer{
		Vector:    vector,
		Lexical:   lexical,
		Embedder:  embedder,
		Metadata:  md,
		Strategy:  strategy,
		markdown:  chunk.NewMarkdownChunker(opts),
		code:      chunk.NewCodeChunker(opts),
		plaintext: chunk.NewPlainTextChunker(opts),
	}
}

// Close releases the tree-sitter parser backing the code chunker.
func (ix *Indexer) Close() {
	ix.code.Close()
}

// Result reports what IndexDocument actually did, for callers that surface
// indexing progress.
type Result struct {
	Skipped    bool
	Unchanged  bool
	ChunkCount int
}

// IndexDocument runs the full atomic indexing sequence for raw file
// content read from path within collection. Re-indexing the same
// (collection, logicalID, content) pair is a verified no-op.
func (ix *Indexer) IndexDocument(ctx context.Context, collection, logicalID, path string, raw []byte) (Result, error) {
	contentType := content.DetectContentType(path, raw)
	if contentType == core.ContentUnknown {
		return Result{Skipped: true}, nil
	}

	normalized := content.Normalize(raw)
	hash := contentHash(normalized)

	existing, found, err := ix.Metadata.Get(ctx, collection, logicalID)
	if err != nil {
		return Result{}, fmt.Errorf("indexing: check existing: %w", err)
	}

	revision := uint32(1)
	if found {
		if existing.ContentHash == hash {
			if ix.verifyPresent(ctx, existing.ChunkIDs) {
				return Result{Unchanged: true, ChunkCount: len(existing.ChunkIDs)}, nil
			}
		}
		revision = existing.Revision + 1
	}

	docID := core.NewDocId(collection, logicalID, revision)
	doc := core.Document{
		ID:      docID,
		Title:   logicalID,
		Content: normalized,
		Path:    path,
		Size:    int64(len(raw)),
		Metadata: core.DocumentMetadata{
			ContentType: contentType,
		},
	}
	if lang, ok := content.DetectLanguage(path); ok {
		doc.Metadata.Custom = map[string]string{"language": lang}
	}

	chunks, err := ix.chunkerFor(contentType).Chunk(ctx, doc)
	if err != nil {
		return Result{}, fmt.Errorf("indexing: chunk: %w", err)
	}
	if len(chunks) == 0 {
		return Result{Skipped: true}, nil
	}

	if err := ix.writeAtomic(ctx, collection, chunks); err != nil {
		return Result{}, err
	}

	if found {
		if err := ix.deleteChunks(ctx, existing.ChunkIDs); err != nil {
			slog.Warn("indexing: failed to remove superseded chunks", "collection", collection, "logical_id", logicalID, "error", err)
		}
	}

	chunkIDs := make([]string, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = c.ID.String()
	}
	if err := ix.Metadata.Put(ctx, metadata.Record{
		Collection: collection, LogicalID: logicalID, Revision: revision, ContentHash: hash, ChunkIDs: chunkIDs,
	}); err != nil {
		return Result{}, fmt.Errorf("indexing: save metadata: %w", err)
	}

	return Result{ChunkCount: len(chunks)}, nil
}

// writeAtomic writes chunks to the vector store and then to the lexical
// store, deleting the just-written vectors if the lexical write fails, per
// the §4.3 atomicity invariant. A failed vector insert returns before the
// lexical store is touched.
func (ix *Indexer) writeAtomic(ctx context.Context, collection string, chunks []core.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := ix.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("indexing: embed: %w", err)
	}

	col := collection
	vecDocs := make([]vectorstore.VectorDoc, len(chunks))
	lexDocs := make([]lexstore.Doc, len(chunks))
	for i, c := range chunks {
		vecDocs[i] = vectorstore.VectorDoc{
			ChunkID: c.ID,
			Vector:  vectors[i],
			Payload: vectorstore.Payload{
				DocID:       c.Parent,
				Title:       c.Parent.LogicalID,
				Content:     c.Content,
				SectionPath: c.SectionPath,
				Collection:  &col,
			},
		}
		lexDocs[i] = lexstore.Doc{ChunkID: c.ID, Content: c.Content, Collection: &col}
	}

	if err := ix.Vector.Insert(ctx, vecDocs); err != nil {
		return fmt.Errorf("indexing: vector insert: %w", err)
	}

	if err := ix.Lexical.Index(ctx, lexDocs); err != nil {
		ids := make([]core.ChunkId, len(chunks))
		for i, c := range chunks {
			ids[i] = c.ID
		}
		if rollbackErr := ix.Vector.Delete(ctx, ids); rollbackErr != nil {
			slog.Error("indexing: vector rollback failed after lexical write error", "error", rollbackErr, "cause", err)
		}
		return fmt.Errorf("indexing: lexical index: %w", err)
	}

	return nil
}

func (ix *Indexer) chunkerFor(ct core.ContentType) chunk.Chunker {
	switch ct {
	case core.ContentMarkdown:
		return ix.markdown
	case core.ContentCode:
		return ix.code
	default:
		return ix.plaintext
	}
}

func (ix *Indexer) verifyPresent(ctx context.Context, chunkIDs []string) bool {
	if len(chunkIDs) == 0 {
		return false
	}
	for _, idStr := range chunkIDs {
		id, err := core.ParseChunkId(idStr)
		if err != nil {
			return false
		}
		has, err := ix.Vector.Has(ctx, id)
		if err != nil || !has {
			return false
		}
	}
	return true
}

func (ix *Indexer) deleteChunks(ctx context.Context, chunkIDs []string) error {
	ids := make([]core.ChunkId, 0, len(chunkIDs))
	for _, idStr := range chunkIDs {
		id, err := core.ParseChunkId(idStr)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := ix.Vector.Delete(ctx, ids); err != nil {
		return err
	}
	return ix.Lexical.Delete(ctx, ids)
}

// DeleteDocument removes a document's current revision from both stores
// and clears its tracked metadata.
func (ix *Indexer) DeleteDocument(ctx context.Context, collection, logicalID string) error {
	existing, found, err := ix.Metadata.Get(ctx, collection, logicalID)
	if err != nil {
		return fmt.Errorf("indexing: lookup for delete: %w", err)
	}
	if !found {
		return nil
	}
	if err := ix.deleteChunks(ctx, existing.ChunkIDs); err != nil {
		return fmt.Errorf("indexing: delete chunks: %w", err)
	}
	return ix.Metadata.Delete(ctx, collection, logicalID)
}

func contentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
