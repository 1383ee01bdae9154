// Package metadata persists the bookkeeping the Indexing Strategy needs to
// make re-indexing a no-op: per (collection, logical document) content
// hash and current revision, plus the chunk IDs written for that revision
// so a rollback knows exactly what to undo.
package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver, no CGO
)

// Record is the tracked state for one logical document.
type Record struct {
	Collection  string
	LogicalID   string
	Revision    uint32
	ContentHash string
	ChunkIDs    []string
}

// Store tracks document revisions and the chunk IDs written for them.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the metadata database at path. An
// empty path opens an in-memory database, used for tests.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("metadata: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("metadata: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

	CREATE TABLE IF NOT EXISTS documents (
		collection   TEXT NOT NULL,
		logical_id   TEXT NOT NULL,
		revision     INTEGER NOT NULL,
		content_hash TEXT NOT NULL,
		indexed_at   TEXT NOT NULL DEFAULT (datetime('now')),
		PRIMARY KEY (collection, logical_id)
	);

	CREATE TABLE IF NOT EXISTS document_chunks (
		collection TEXT NOT NULL,
		logical_id TEXT NOT NULL,
		chunk_id   TEXT NOT NULL,
		FOREIGN KEY (collection, logical_id) REFERENCES documents(collection, logical_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_document_chunks_doc ON document_chunks(collection, logical_id);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("metadata: init schema: %w", err)
	}
	return nil
}

// Get returns the tracked record for (collection, logicalID), and false if
// the document has never been indexed.
func (s *Store) Get(ctx context.Context, collection, logicalID string) (Record, bool, error) {
	var rec Record
	rec.Collection, rec.LogicalID = collection, logicalID

	row := s.db.QueryRowContext(ctx,
		`SELECT revision, content_hash FROM documents WHERE collection = ? AND logical_id = ?`,
		collection, logicalID)
	if err := row.Scan(&rec.Revision, &rec.ContentHash); err != nil {
		if err == sql.ErrNoRows {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("metadata: get: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_id FROM document_chunks WHERE collection = ? AND logical_id = ?`,
		collection, logicalID)
	if err != nil {
		return Record{}, false, fmt.Errorf("metadata: get chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunkID string
		if err := rows.Scan(&chunkID); err != nil {
			return Record{}, false, fmt.Errorf("metadata: scan chunk: %w", err)
		}
		rec.ChunkIDs = append(rec.ChunkIDs, chunkID)
	}
	return rec, true, rows.Err()
}

// Put replaces the tracked record for a document, atomically swapping out
// its prior chunk-ID list.
func (s *Store) Put(ctx context.Context, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("metadata: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (collection, logical_id, revision, content_hash, indexed_at)
		 VALUES (?, ?, ?, ?, datetime('now'))
		 ON CONFLICT (collection, logical_id) DO UPDATE SET
			revision = excluded.revision, content_hash = excluded.content_hash, indexed_at = excluded.indexed_at`,
		rec.Collection, rec.LogicalID, rec.Revision, rec.ContentHash); err != nil {
		return fmt.Errorf("metadata: upsert document: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM document_chunks WHERE collection = ? AND logical_id = ?`,
		rec.Collection, rec.LogicalID); err != nil {
		return fmt.Errorf("metadata: clear chunks: %w", err)
	}

	for _, chunkID := range rec.ChunkIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_chunks (collection, logical_id, chunk_id) VALUES (?, ?, ?)`,
			rec.Collection, rec.LogicalID, chunkID); err != nil {
			return fmt.Errorf("metadata: insert chunk: %w", err)
		}
	}

	return tx.Commit()
}

// Delete removes all tracked state for a document.
func (s *Store) Delete(ctx context.Context, collection, logicalID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND logical_id = ?`, collection, logicalID)
	if err != nil {
		return fmt.Errorf("metadata: delete: %w", err)
	}
	return nil
}

// CollectionStats summarizes one collection's document and chunk
// footprint, backing the `collection_stats` boundary operation.
type CollectionStats struct {
	DocumentCount int
	ChunkCount    int
	LastIndexed   *time.Time
}

// ListCollections returns the distinct collection names that have at
// least one indexed document, sorted for deterministic output.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("metadata: list collections: %w", err)
	}
	defer rows.Close()

	var collections []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("metadata: scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// CollectionStats reports the document count, total chunk count, and most
// recent indexing timestamp for collection.
func (s *Store) CollectionStats(ctx context.Context, collection string) (CollectionStats, error) {
	var stats CollectionStats
	var lastIndexed sql.NullString

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(indexed_at) FROM documents WHERE collection = ?`, collection)
	if err := row.Scan(&stats.DocumentCount, &lastIndexed); err != nil {
		return CollectionStats{}, fmt.Errorf("metadata: collection stats: %w", err)
	}
	if lastIndexed.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05", lastIndexed.String); err == nil {
			stats.LastIndexed = &t
		}
	}

	row2 := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE collection = ?`, collection)
	if err := row2.Scan(&stats.ChunkCount); err != nil {
		return CollectionStats{}, fmt.Errorf("metadata: collection chunk count: %w", err)
	}

	return stats, nil
}

// ChunkIDsForCollection returns every chunk id tracked for collection,
// across all its documents. Used by collection_stats to spot-check how
// many tracked chunks still have a live vector (§6 index_efficiency).
func (s *Store) ChunkIDsForCollection(ctx context.Context, collection string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_id FROM document_chunks WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("metadata: chunk ids for collection: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("metadata: scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
