// Package retrieval implements the Hybrid Retrieval Stage (§4.6): it runs
// BM25 and vector search, in one of three execution modes, and fuses their
// hits (§4.7) into a single SearchResult per unique ChunkId.
package retrieval

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/docerr"
	"github.com/doylet/docsearch/internal/embedding"
	"github.com/doylet/docsearch/internal/fusion"
	"github.com/doylet/docsearch/internal/lexstore"
	"github.com/doylet/docsearch/internal/vectorstore"
)

// Mode selects how BM25 and vector search are scheduled relative to each
// other.
type Mode int

const (
	// Parallel launches both engines concurrently and fuses once both
	// return. The default mode.
	Parallel Mode = iota
	// Sequential runs vector first; BM25 only runs (and is fused in) if
	// vector returned fewer than Threshold hits.
	Sequential
	// BM25ThenVector runs BM25 first, takes its top RerankCount hits as
	// candidates, then runs vector search and fuses both.
	BM25ThenVector
)

// Stage is the Hybrid Retrieval Stage over a given vector/lexical backend
// pair.
type Stage struct {
	Vector   vectorstore.Store
	Lexical  lexstore.Store
	Embedder embedding.Embedder
	Fuser    *fusion.Fuser
	Weights  fusion.Weights

	Mode        Mode
	Threshold   int // used by Sequential
	RerankCount int // used by BM25ThenVector
}

// NewStage returns a Parallel-mode stage using MinMax normalization and
// the default 0.4/0.6 fusion weights.
func NewStage(vector vectorstore.Store, lexical lexstore.Store, embedder embedding.Embedder) *Stage {
	return &Stage{
		Vector:   vector,
		Lexical:  lexical,
		Embedder: embedder,
		Fuser:    fusion.NewFuser(core.MinMax),
		Weights:  fusion.DefaultWeights(),
		Mode:     Parallel,
	}
}

// Retrieve executes query against both engines per the configured Mode,
// fuses their hits, and returns one SearchResult per unique ChunkId,
// enriched with its payload. Results are returned in fused-score order.
// degraded reports whether exactly one of the two engines failed and the
// other engine's hits were used alone; callers surface this in the
// response's degraded status rather than silently dropping the failure.
func (s *Stage) Retrieve(ctx context.Context, query core.Query, limit int, filters core.Filters) (results []core.SearchResult, degraded bool, err error) {
	vecFilter := toVectorFilter(filters)
	lexFilter := toLexicalFilter(filters)

	var bm25Hits []lexstore.Hit
	var vecHits []vectorstore.Hit

	switch s.Mode {
	case Sequential:
		bm25Hits, vecHits, degraded, err = s.sequential(ctx, query, limit, vecFilter, lexFilter)
	case BM25ThenVector:
		bm25Hits, vecHits, degraded, err = s.bm25ThenVector(ctx, query, limit, vecFilter, lexFilter)
	default:
		bm25Hits, vecHits, degraded, err = s.parallel(ctx, query, limit, vecFilter, lexFilter)
	}
	if err != nil {
		return nil, false, err
	}

	fused := s.Fuser.Fuse(bm25Hits, vecHits, s.Weights)

	vecPayloads := make(map[core.ChunkId]vectorstore.Payload, len(vecHits))
	for _, h := range vecHits {
		vecPayloads[h.ChunkID] = h.Payload
	}

	out := make([]core.SearchResult, 0, len(fused))
	for _, f := range fused {
		payload, ok := vecPayloads[f.ChunkID]
		if !ok {
			payload, ok, err = s.Vector.Get(ctx, f.ChunkID)
			if err != nil {
				return nil, false, docerr.Wrap(docerr.CodeVectorStoreFailure, "fetch payload for lexical-only hit", err)
			}
			if !ok {
				// The chunk was deleted between search and enrichment;
				// skip rather than surface a partial result.
				continue
			}
		}
		out = append(out, core.SearchResult{
			DocID:       payload.DocID,
			ChunkID:     f.ChunkID,
			Title:       payload.Title,
			Content:     payload.Content,
			URI:         payload.URI,
			SectionPath: payload.SectionPath,
			Scores:      f.Breakdown,
			FinalScore:  core.Score(f.Breakdown.Fused),
			FromSignals: f.FromSignals,
			Collection:  payload.Collection,
		})
	}

	return out, degraded, nil
}

func (s *Stage) parallel(ctx context.Context, query core.Query, limit int, vecFilter *vectorstore.Filter, lexFilter *lexstore.Filter) ([]lexstore.Hit, []vectorstore.Hit, bool, error) {
	g, gctx := errgroup.WithContext(ctx)

	var bm25Hits []lexstore.Hit
	var vecHits []vectorstore.Hit
	var bm25Err, vecErr error

	g.Go(func() error {
		bm25Hits, bm25Err = s.Lexical.Search(gctx, query.Normalized, limit, lexFilter)
		return nil
	})
	g.Go(func() error {
		vec, embedErr := s.Embedder.Embed(gctx, query.Raw)
		if embedErr != nil {
			vecErr = embedErr
			return nil
		}
		vecHits, vecErr = s.Vector.Search(gctx, vec, limit, vecFilter)
		return nil
	})

	if waitErr := g.Wait(); waitErr != nil {
		return nil, nil, false, waitErr
	}
	if bm25Err != nil && vecErr != nil {
		return nil, nil, false, docerr.Wrap(docerr.CodeVectorStoreFailure, "both retrieval engines failed",
			fmt.Errorf("bm25: %w; vector: %w", bm25Err, vecErr))
	}
	// Partial failure degrades gracefully: the surviving engine's hits
	// still get fused, just without the failed engine's contribution.
	degraded := bm25Err != nil || vecErr != nil
	return bm25Hits, vecHits, degraded, nil
}

func (s *Stage) sequential(ctx context.Context, query core.Query, limit int, vecFilter *vectorstore.Filter, lexFilter *lexstore.Filter) ([]lexstore.Hit, []vectorstore.Hit, bool, error) {
	vec, err := s.Embedder.Embed(ctx, query.Raw)
	if err != nil {
		return nil, nil, false, docerr.Embedding("embed query", err)
	}
	vecHits, err := s.Vector.Search(ctx, vec, limit, vecFilter)
	if err != nil {
		return nil, nil, false, err
	}

	threshold := s.Threshold
	if threshold <= 0 {
		threshold = limit
	}
	if len(vecHits) >= threshold {
		return nil, vecHits, false, nil
	}

	bm25Hits, err := s.Lexical.Search(ctx, query.Normalized, limit, lexFilter)
	if err != nil {
		// Vector already succeeded; degrade rather than fail the request.
		return nil, vecHits, true, nil
	}
	return bm25Hits, vecHits, false, nil
}

func (s *Stage) bm25ThenVector(ctx context.Context, query core.Query, limit int, vecFilter *vectorstore.Filter, lexFilter *lexstore.Filter) ([]lexstore.Hit, []vectorstore.Hit, bool, error) {
	rerankCount := s.RerankCount
	if rerankCount <= 0 {
		rerankCount = limit
	}

	bm25Hits, err := s.Lexical.Search(ctx, query.Normalized, rerankCount, lexFilter)
	if err != nil {
		return nil, nil, false, docerr.Wrap(docerr.CodeLexicalStoreFailure, "bm25-then-vector: bm25 phase", err)
	}

	vec, err := s.Embedder.Embed(ctx, query.Raw)
	if err != nil {
		// BM25 already succeeded; degrade rather than fail the request.
		return bm25Hits, nil, true, nil
	}
	vecHits, err := s.Vector.Search(ctx, vec, limit, vecFilter)
	if err != nil {
		return bm25Hits, nil, true, nil
	}
	return bm25Hits, vecHits, false, nil
}

func toVectorFilter(f core.Filters) *vectorstore.Filter {
	if f.Collection == nil {
		return nil
	}
	return &vectorstore.Filter{Collection: f.Collection}
}

func toLexicalFilter(f core.Filters) *lexstore.Filter {
	if f.Collection == nil {
		return nil
	}
	return &lexstore.Filter{Collection: f.Collection}
}
