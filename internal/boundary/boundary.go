// Package boundary implements the Boundary Dispatch (§4.11): the single
// transport-agnostic operation surface — search, indexing, collection
// introspection, and health — that any out-of-scope transport (HTTP,
// JSON-RPC, CLI) maps onto. It holds no retrieval logic of its own; every
// operation is a thin façade over internal/pipeline, internal/indexing,
// internal/metadata and internal/health.
package boundary

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/doylet/docsearch/internal/analytics"
	"github.com/doylet/docsearch/internal/cache"
	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/docerr"
	"github.com/doylet/docsearch/internal/health"
	"github.com/doylet/docsearch/internal/indexing"
	"github.com/doylet/docsearch/internal/metadata"
	"github.com/doylet/docsearch/internal/pipeline"
	"github.com/doylet/docsearch/internal/vectorstore"
)

// Service wires the pipeline, indexer, metadata store and health registry
// behind the external operation surface.
type Service struct {
	Pipeline  *pipeline.Pipeline
	Indexer   *indexing.Indexer
	Metadata  *metadata.Store
	Health    *health.Registry
	Readiness *health.Registry
	Analytics *analytics.Recorder
	Cache     *cache.Manager
}

// New constructs a Service. readiness may be the same Registry as live if
// the caller does not distinguish liveness from readiness checks.
func New(p *pipeline.Pipeline, ix *indexing.Indexer, md *metadata.Store, live, readiness *health.Registry, rec *analytics.Recorder) *Service {
	return &Service{Pipeline: p, Indexer: ix, Metadata: md, Health: live, Readiness: readiness, Analytics: rec}
}

// SetCache attaches the cache layer (§4.10) to the service. Search consults
// and populates its Query layer; IndexDocument and DeleteDocument purge it,
// since a write can change what a cached query should return. A Service
// with no cache attached runs every search against the pipeline directly.
func (s *Service) SetCache(m *cache.Manager) {
	s.Cache = m
}

// searchCacheKey renders req into a stable string key: normalized query
// text, limit/offset, and the filters' sorted tuples, so two requests that
// differ only in map iteration order still collide.
func searchCacheKey(req core.SearchRequest) string {
	var b strings.Builder
	b.WriteString(req.Query.Normalized)
	b.WriteByte('\x00')
	b.WriteString(strconv.Itoa(req.Limit))
	b.WriteByte('\x00')
	b.WriteString(strconv.Itoa(req.Offset))
	for _, t := range req.Filters.SortedTuples() {
		b.WriteByte('\x00')
		b.WriteString(t)
	}
	return b.String()
}

// SearchResponse is the `search()` operation's result (§6).
type SearchResponse struct {
	Results  []core.SearchResult
	Metadata SearchResponseMetadata
}

// SearchResponseMetadata reports how the response was produced.
type SearchResponseMetadata struct {
	Total              int
	QueryTimeMS        int64
	Sources            []string
	RankingMethod      string
	EnhancementApplied bool
	Degraded           bool
}

// Search runs req through the pipeline and shapes its SearchContext into
// the external response contract. If a cache layer is attached and holds a
// live entry for req's key, the pipeline is skipped entirely.
func (s *Service) Search(ctx context.Context, req core.SearchRequest) (SearchResponse, error) {
	start := time.Now()

	var cacheKey string
	if s.Cache != nil {
		cacheKey = searchCacheKey(req)
		if cached, ok := s.Cache.Query.Get(cacheKey); ok {
			elapsed := time.Since(start)
			if s.Analytics != nil {
				event := analytics.QueryEvent{Query: req.Query.Raw, Latency: elapsed, Timestamp: start}
				if len(cached) > 0 {
					event.Type = analytics.ClassifyQuery(cached[0].FromSignals)
					event.ResultCount = len(cached)
				}
				s.Analytics.Record(event)
			}
			return SearchResponse{
				Results: cached,
				Metadata: SearchResponseMetadata{
					Total:         len(cached),
					QueryTimeMS:   elapsed.Milliseconds(),
					RankingMethod: "cached",
				},
			}, nil
		}
	}

	sc, err := s.Pipeline.Execute(ctx, req)
	elapsed := time.Since(start)

	if s.Analytics != nil && docerr.KindOf(err) != docerr.KindValidation {
		event := analytics.QueryEvent{
			Query:     req.Query.Raw,
			Latency:   elapsed,
			Timestamp: start,
		}
		if err == nil && len(sc.RawResults) > 0 {
			event.Type = analytics.ClassifyQuery(sc.RawResults[0].FromSignals)
			event.ResultCount = len(sc.RawResults)
			event.Degraded = sc.Metadata.Degraded
		}
		s.Analytics.Record(event)
	}

	if err != nil {
		return SearchResponse{}, err
	}

	if s.Cache != nil {
		s.Cache.Query.Set(cacheKey, sc.RawResults)
	}

	sources := make([]string, 0, len(sc.Metadata.ResultSources))
	for src := range sc.Metadata.ResultSources {
		sources = append(sources, src)
	}

	return SearchResponse{
		Results: sc.RawResults,
		Metadata: SearchResponseMetadata{
			Total:              len(sc.RawResults),
			QueryTimeMS:        elapsed.Milliseconds(),
			Sources:            sources,
			RankingMethod:      sc.Metadata.RankingMethod,
			EnhancementApplied: len(sc.EnhancedQuery) > 1,
			Degraded:           sc.Metadata.Degraded,
		},
	}, nil
}

// IndexReceipt is the `index_document()` operation's result (§6).
type IndexReceipt struct {
	DocID         core.DocId
	ChunksWritten int
	Unchanged     bool
}

// IndexDocument indexes raw file content under (collection, logicalID).
func (s *Service) IndexDocument(ctx context.Context, collection, logicalID, path string, raw []byte) (IndexReceipt, error) {
	result, err := s.Indexer.IndexDocument(ctx, collection, logicalID, path, raw)
	if err != nil {
		return IndexReceipt{}, err
	}
	if result.Skipped {
		return IndexReceipt{}, docerr.Validation(fmt.Sprintf("document %s/%s has no recognized content", collection, logicalID))
	}

	rec, found, err := s.Metadata.Get(ctx, collection, logicalID)
	if err != nil {
		return IndexReceipt{}, err
	}
	if !found {
		return IndexReceipt{}, docerr.Internal("indexed document has no tracked metadata")
	}

	if s.Cache != nil {
		s.Cache.Query.Purge()
	}

	return IndexReceipt{
		DocID:         core.NewDocId(collection, logicalID, rec.Revision),
		ChunksWritten: result.ChunkCount,
		Unchanged:     result.Unchanged,
	}, nil
}

// IndexDirectory walks and indexes every file under root into collection.
func (s *Service) IndexDirectory(ctx context.Context, collection, dataDir, root string, concurrency int) (indexing.DirectoryResult, error) {
	return s.Indexer.IndexDirectory(ctx, collection, dataDir, root, concurrency)
}

// GetDocument returns the tracked metadata record for a logical document.
func (s *Service) GetDocument(ctx context.Context, collection, logicalID string) (metadata.Record, bool, error) {
	return s.Metadata.Get(ctx, collection, logicalID)
}

// DeleteResult is the `delete_document()` operation's result (§6).
type DeleteResult struct {
	Success bool
	Message string
}

// DeleteDocument removes a document's chunks from both stores and clears
// its tracked metadata.
func (s *Service) DeleteDocument(ctx context.Context, collection, logicalID string) (DeleteResult, error) {
	if err := s.Indexer.DeleteDocument(ctx, collection, logicalID); err != nil {
		return DeleteResult{}, err
	}
	if s.Cache != nil {
		s.Cache.Query.Purge()
	}
	return DeleteResult{Success: true, Message: fmt.Sprintf("deleted %s/%s", collection, logicalID)}, nil
}

// CollectionInfo is one entry of the `list_collections()` response (§6).
type CollectionInfo struct {
	Name        string
	VectorCount int
	SizeBytes   int64
	Status      string
}

// ListCollections enumerates every collection with tracked documents.
//
// VectorCount and SizeBytes are approximations: the vector store has no
// per-collection count of its own (§4.4's Count is store-wide), so
// VectorCount assumes one vector per tracked chunk and SizeBytes
// multiplies that by the store's configured dimension width at 4 bytes
// per float32 component. Status is "ready" unless the collection has zero
// tracked chunks, in which case it is "empty".
func (s *Service) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	names, err := s.Metadata.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	dims := s.Indexer.Vector.Dimensions()
	infos := make([]CollectionInfo, 0, len(names))
	for _, name := range names {
		stats, err := s.Metadata.CollectionStats(ctx, name)
		if err != nil {
			return nil, err
		}
		status := "ready"
		if stats.ChunkCount == 0 {
			status = "empty"
		}
		infos = append(infos, CollectionInfo{
			Name:        name,
			VectorCount: stats.ChunkCount,
			SizeBytes:   int64(stats.ChunkCount) * int64(dims) * 4,
			Status:      status,
		})
	}
	return infos, nil
}

// maxEfficiencySample bounds how many chunk ids collection_stats probes
// against the vector store, so a huge collection's stats call stays
// bounded instead of issuing one Has() per chunk.
const maxEfficiencySample = 500

// CollectionStatsResponse is the `collection_stats()` operation's result (§6).
type CollectionStatsResponse struct {
	VectorCount     int
	SizeBytes       int64
	AvgVectorDim    int
	IndexEfficiency float64
	LastIndexed     *time.Time
}

// CollectionStats reports usage stats for one collection, including a
// spot-checked index_efficiency: the fraction of a (bounded) sample of
// tracked chunk ids that still have a live vector in the store, detecting
// drift between metadata and the vector backend.
func (s *Service) CollectionStats(ctx context.Context, name string) (CollectionStatsResponse, error) {
	stats, err := s.Metadata.CollectionStats(ctx, name)
	if err != nil {
		return CollectionStatsResponse{}, err
	}

	ids, err := s.Metadata.ChunkIDsForCollection(ctx, name)
	if err != nil {
		return CollectionStatsResponse{}, err
	}

	dims := s.Indexer.Vector.Dimensions()
	efficiency := s.sampleIndexEfficiency(ctx, s.Indexer.Vector, ids)

	return CollectionStatsResponse{
		VectorCount:     stats.ChunkCount,
		SizeBytes:       int64(stats.ChunkCount) * int64(dims) * 4,
		AvgVectorDim:    dims,
		IndexEfficiency: efficiency,
		LastIndexed:     stats.LastIndexed,
	}, nil
}

// sampleIndexEfficiency checks a bounded sample of chunkIDs against store
// and returns the live fraction; 1.0 for an empty collection.
func (s *Service) sampleIndexEfficiency(ctx context.Context, store vectorstore.Store, chunkIDs []string) float64 {
	if len(chunkIDs) == 0 {
		return 1.0
	}
	sample := chunkIDs
	if len(sample) > maxEfficiencySample {
		sample = sample[:maxEfficiencySample]
	}
	live := 0
	for _, raw := range sample {
		id, err := core.ParseChunkId(raw)
		if err != nil {
			continue
		}
		if ok, err := store.Has(ctx, id); err == nil && ok {
			live++
		}
	}
	return float64(live) / float64(len(sample))
}

// HealthResponse is the `health()`/`readiness()` operation's result (§6).
type HealthResponse struct {
	Status health.Status
	Checks []health.CheckResult
}

// Health runs the liveness check registry.
func (s *Service) Health(ctx context.Context) HealthResponse {
	report := s.Health.Run(ctx)
	return HealthResponse{Status: report.Status, Checks: report.Checks}
}

// ReadinessStatus runs the readiness check registry (store/backend
// reachability), distinct from the liveness checks Health reports.
func (s *Service) ReadinessStatus(ctx context.Context) HealthResponse {
	report := s.Readiness.Run(ctx)
	return HealthResponse{Status: report.Status, Checks: report.Checks}
}
