// Package merge implements the Result Merger & Deduplication stage (§4.8):
// combining the per-ExpandedQuery-variant result lists produced by the
// retrieval stage into one deduplicated list, with metrics recorded on the
// context.
package merge

import (
	"sort"

	"github.com/doylet/docsearch/internal/core"
)

// Strategy selects how a ChunkId appearing in more than one variant's
// result list is resolved.
type Strategy int

const (
	// MergeWithProvenance combines scores (max fused), unions the
	// contributing signals and adds the query_expansion signal. Which
	// variants hit a chunk is not recorded on the result; only the
	// per-variant counts in MergeMetrics.VariantContributions are kept.
	// The default for query-expansion driven multi-variant search.
	MergeWithProvenance Strategy = iota
	// RemoveKeepBest keeps only the highest-fused-score occurrence.
	RemoveKeepBest
	// RemoveKeepFirst keeps only the first occurrence in iteration order.
	RemoveKeepFirst
)

// VariantResults is one ExpandedQuery variant's retrieval output.
type VariantResults struct {
	VariantText string
	Results     []core.SearchResult
}

// Merge combines variants into one deduplicated, score-sorted list,
// truncated to maxResults, and returns the per-request MergeMetrics
// alongside it.
func Merge(variants []VariantResults, strategy Strategy, maxResults int) ([]core.SearchResult, core.MergeMetrics) {
	metrics := core.MergeMetrics{
		VariantsProcessed:    len(variants),
		VariantContributions: make(map[string]int),
	}

	byChunk := make(map[core.ChunkId]*core.SearchResult)
	order := make([]core.ChunkId, 0)

	for _, v := range variants {
		metrics.TotalResultsBeforeMerge += len(v.Results)
		for _, r := range v.Results {
			metrics.VariantContributions[v.VariantText]++

			existing, ok := byChunk[r.ChunkID]
			if !ok {
				cp := r.Clone()
				byChunk[r.ChunkID] = &cp
				order = append(order, r.ChunkID)
				continue
			}

			metrics.DuplicatesFound++
			if merged := resolveDuplicate(*existing, r, strategy); merged != nil {
				byChunk[r.ChunkID] = merged
				metrics.DuplicatesMerged++
			}
		}
	}

	results := make([]core.SearchResult, 0, len(order))
	for _, id := range order {
		results = append(results, *byChunk[id])
	}

	sort.Slice(results, func(i, j int) bool {
		return core.CompareScored(results[i].FinalScore, results[i].DocID, results[j].FinalScore, results[j].DocID) < 0
	})

	metrics.TotalResultsAfterMerge = len(results)

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}

	return results, metrics
}

// resolveDuplicate returns the value existing should be replaced with when
// incoming shares its ChunkId, or nil if existing should be kept as-is
// (RemoveKeepFirst).
func resolveDuplicate(existing, incoming core.SearchResult, strategy Strategy) *core.SearchResult {
	switch strategy {
	case RemoveKeepFirst:
		return nil

	case RemoveKeepBest:
		if incoming.FinalScore > existing.FinalScore {
			cp := incoming.Clone()
			return &cp
		}
		return nil

	default: // MergeWithProvenance
		cp := existing.Clone()
		if incoming.FinalScore > existing.FinalScore {
			cp.FinalScore = incoming.FinalScore
			cp.Scores = incoming.Scores
		}
		cp.FromSignals = existing.FromSignals.Union(incoming.FromSignals).Add(core.SignalQueryExpansion)
		return &cp
	}
}
