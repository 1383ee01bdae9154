package lexstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
	bsearch "github.com/blevesearch/bleve/v2/search"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/docerr"
)

const (
	analyzerName    = "docsearch_analyzer"
	tokenizerName   = "docsearch_tokenizer"
	stopFilterName  = "docsearch_stop"
	contentField    = "content"
	collectionField = "collection"
)

var registerOnce sync.Once

func registerAnalysis(stopWords map[string]struct{}) {
	registerOnce.Do(func() {
		_ = registry.RegisterTokenizer(tokenizerName, func(map[string]interface{}, *registry.Cache) (analysis.Tokenizer, error) {
			return &identifierTokenizer{}, nil
		})
		_ = registry.RegisterTokenFilter(stopFilterName, func(map[string]interface{}, *registry.Cache) (analysis.TokenFilter, error) {
			return &stopWordFilter{stopWords: stopWords}, nil
		})
	})
}

// BleveStore is the default Lexical Store Contract backend: an on-disk (or
// in-memory, when path is empty) Bleve index using an identifier-aware
// tokenizer so camelCase/snake_case source symbols are searchable by their
// component words.
type BleveStore struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	cfg    Config
	closed bool
}

// New opens (or creates) a Bleve index at path. An empty path creates a
// purely in-memory index, useful for tests.
func New(path string, cfg Config) (*BleveStore, error) {
	registerAnalysis(buildStopWordSet(cfg.StopWords))

	indexMapping, err := buildMapping()
	if err != nil {
		return nil, docerr.Internal("build lexical index mapping").WithDetail(err.Error())
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, docerr.Wrap(docerr.CodeInternal, "create lexical index directory", mkErr)
			}
		}
		if recoverErr := recoverIfCorrupt(path); recoverErr != nil {
			return nil, recoverErr
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, docerr.Wrap(docerr.CodeIndexCorrupt, "open lexical index", err)
	}

	return &BleveStore{index: idx, path: path, cfg: cfg}, nil
}

// recoverIfCorrupt detects a partially-written index (e.g. from a killed
// process mid-write) and clears it so New can rebuild from scratch, rather
// than failing every subsequent startup.
func recoverIfCorrupt(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return clearCorruptIndex(path, "index_meta.json missing")
	}
	if err != nil || info.Size() == 0 {
		return clearCorruptIndex(path, "index_meta.json unreadable or empty")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return clearCorruptIndex(path, "cannot read index_meta.json")
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return clearCorruptIndex(path, "index_meta.json is not valid JSON")
	}
	return nil
}

func clearCorruptIndex(path, reason string) error {
	slog.Warn("lexical index corrupted, clearing for rebuild",
		slog.String("path", path), slog.String("reason", reason))
	if err := os.RemoveAll(path); err != nil {
		return docerr.Wrap(docerr.CodeIndexCorrupt, fmt.Sprintf("lexical index corrupted (%s) and could not be removed", reason), err)
	}
	return nil
}

func buildMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	if err := indexMapping.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": tokenizerName,
		"token_filters": []string{
			lowercase.Name,
			stopFilterName,
		},
	}); err != nil {
		return nil, fmt.Errorf("add custom analyzer: %w", err)
	}
	indexMapping.DefaultAnalyzer = analyzerName

	docMapping := bleve.NewDocumentMapping()

	contentMapping := bleve.NewTextFieldMapping()
	contentMapping.Analyzer = analyzerName
	docMapping.AddFieldMappingsAt(contentField, contentMapping)

	collectionMapping := bleve.NewTextFieldMapping()
	collectionMapping.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt(collectionField, collectionMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping, nil
}

type bleveDocument struct {
	Content    string `json:"content"`
	Collection string `json:"collection"`
}

func (s *BleveStore) Index(ctx context.Context, docs []Doc) error {
	if len(docs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return docerr.Internal("lexical store is closed")
	}

	batch := s.index.NewBatch()
	for _, d := range docs {
		collection := ""
		if d.Collection != nil {
			collection = *d.Collection
		}
		if err := batch.Index(d.ChunkID.String(), bleveDocument{Content: d.Content, Collection: collection}); err != nil {
			return docerr.Wrap(docerr.CodeLexicalStoreFailure, "index chunk", err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return docerr.Wrap(docerr.CodeLexicalStoreFailure, "commit lexical batch", err)
	}
	return nil
}

func (s *BleveStore) Search(ctx context.Context, queryStr string, k int, filter *Filter) ([]Hit, error) {
	if strings.TrimSpace(queryStr) == "" {
		return []Hit{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, docerr.Internal("lexical store is closed")
	}

	matchQuery := bleve.NewMatchQuery(queryStr)
	matchQuery.SetField(contentField)

	var q bsearch.Query = matchQuery
	if filter != nil && filter.Collection != nil {
		collectionQuery := bleve.NewMatchQuery(*filter.Collection)
		collectionQuery.SetField(collectionField)
		conjunct := bleve.NewConjunctionQuery(matchQuery, collectionQuery)
		q = conjunct
	}

	// Over-fetch when a DocID filter must be applied client-side since
	// Bleve has no efficient "IN" query over our opaque chunk ids.
	fetch := k
	if filter != nil && len(filter.DocIDs) > 0 {
		fetch = k * 4
		if fetch < k+32 {
			fetch = k + 32
		}
	}

	req := bleve.NewSearchRequestOptions(q, fetch, 0, false)
	req.IncludeLocations = true

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, docerr.Wrap(docerr.CodeLexicalStoreFailure, "lexical search", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		chunkID, err := core.ParseChunkId(hit.ID)
		if err != nil {
			continue
		}
		if filter != nil && len(filter.DocIDs) > 0 {
			if _, ok := filter.DocIDs[chunkID.Doc]; !ok {
				continue
			}
		}
		hits = append(hits, Hit{
			ChunkID:      chunkID,
			Score:        hit.Score,
			MatchedTerms: matchedTerms(hit),
		})
		if len(hits) >= k {
			break
		}
	}
	return hits, nil
}

func matchedTerms(hit *bsearch.DocumentMatch) []string {
	seen := make(map[string]struct{})
	for field, locations := range hit.Locations {
		if field != contentField {
			continue
		}
		for term := range locations {
			seen[term] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	return terms
}

func (s *BleveStore) Delete(ctx context.Context, ids []core.ChunkId) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return docerr.Internal("lexical store is closed")
	}

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id.String())
	}
	if err := s.index.Batch(batch); err != nil {
		return docerr.Wrap(docerr.CodeLexicalStoreFailure, "delete chunks", err)
	}
	return nil
}

func (s *BleveStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, docerr.Internal("lexical store is closed")
	}
	count, err := s.index.DocCount()
	if err != nil {
		return 0, docerr.Wrap(docerr.CodeLexicalStoreFailure, "count lexical documents", err)
	}
	return int(count), nil
}

func (s *BleveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.index.Close()
}

// identifierTokenizer adapts Tokenize to Bleve's analysis.Tokenizer.
type identifierTokenizer struct{}

func (t *identifierTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := Tokenize(text)

	result := make(analysis.TokenStream, 0, len(tokens))
	pos := 1
	offset := 0
	for _, token := range tokens {
		start := strings.Index(strings.ToLower(text[offset:]), strings.ToLower(token))
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(token)

		result = append(result, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if end <= len(text) {
			offset = end
		}
	}
	return result
}

// stopWordFilter adapts buildStopWordSet to Bleve's analysis.TokenFilter.
type stopWordFilter struct {
	stopWords map[string]struct{}
}

func (f *stopWordFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		if _, isStop := f.stopWords[strings.ToLower(string(token.Term))]; !isStop {
			result = append(result, token)
		}
	}
	return result
}

var _ Store = (*BleveStore)(nil)
