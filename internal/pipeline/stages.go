package pipeline

import (
	"context"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/merge"
	"github.com/doylet/docsearch/internal/queryenhance"
	"github.com/doylet/docsearch/internal/ranking"
	"github.com/doylet/docsearch/internal/retrieval"
)

// EnhancementStage wraps the Query Enhancement Stage (§4.2). It is
// typically registered as optional: a failing or absent enhancer still
// leaves the Original variant usable by later stages.
type EnhancementStage struct {
	Enhancer *queryenhance.Stage
}

func (s *EnhancementStage) Name() string { return "query_enhancement" }

func (s *EnhancementStage) Execute(ctx context.Context, sc *core.SearchContext) error {
	sc.EnhancedQuery = s.Enhancer.Expand(sc.Request.Query)
	sc.Metadata.RecordSource(s.Name())
	return nil
}

// RetrievalStage wraps the Hybrid Retrieval Stage (§4.6), running one
// retrieval per ExpandedQuery variant produced so far (or just the
// Original query if enhancement did not run or was skipped).
type RetrievalStage struct {
	Retriever *retrieval.Stage
}

func (s *RetrievalStage) Name() string { return "retrieval" }

func (s *RetrievalStage) Execute(ctx context.Context, sc *core.SearchContext) error {
	variants := sc.EnhancedQuery
	if len(variants) == 0 {
		variants = []core.ExpandedQuery{{Text: sc.Request.Query.Normalized, Kind: core.ExpansionOriginal, Weight: 1.0}}
	}

	limit := sc.Request.Limit + sc.Request.Offset
	if limit <= 0 {
		limit = sc.Request.Limit
	}

	byVariant := make(map[string][]core.SearchResult, len(variants))
	order := make([]string, 0, len(variants))
	var all []core.SearchResult
	for _, v := range variants {
		results, degraded, err := s.Retriever.Retrieve(ctx, core.NewQuery(v.Text), limit, sc.Request.Filters)
		if err != nil {
			return err
		}
		if degraded {
			sc.Metadata.MarkDegraded(s.Name() + ": one retrieval engine failed for variant " + v.Text)
		}
		if v.Kind != core.ExpansionOriginal {
			for i := range results {
				results[i].FromSignals = results[i].FromSignals.Add(core.SignalQueryExpansion)
			}
		}
		if _, seen := byVariant[v.Text]; !seen {
			order = append(order, v.Text)
		}
		byVariant[v.Text] = append(byVariant[v.Text], results...)
		all = append(all, results...)
	}

	sc.RawResultsByVariant = byVariant
	sc.VariantOrder = order
	sc.RawResults = all
	if len(all) > 0 {
		sc.Metadata.RecordSource(s.Name())
	}
	return nil
}

// MergeStage wraps the Result Merger & Deduplication stage (§4.8),
// merging RetrievalStage's per-variant result sets so VariantContributions
// reflects the actual query variants searched.
type MergeStage struct {
	Strategy   merge.Strategy
	MaxResults int
}

func (s *MergeStage) Name() string { return "merge" }

func (s *MergeStage) Execute(ctx context.Context, sc *core.SearchContext) error {
	variants := make([]merge.VariantResults, 0, len(sc.VariantOrder))
	for _, text := range sc.VariantOrder {
		variants = append(variants, merge.VariantResults{VariantText: text, Results: sc.RawResultsByVariant[text]})
	}
	if len(variants) == 0 {
		variants = append(variants, merge.VariantResults{VariantText: "combined", Results: sc.RawResults})
	}

	merged, metrics := merge.Merge(variants, s.Strategy, s.MaxResults)
	sc.RawResults = merged
	sc.MergeMetrics = metrics
	if len(merged) > 0 {
		sc.Metadata.RecordSource(s.Name())
	}
	return nil
}

// RankingStage wraps the Result Ranking Stage (§4.9).
type RankingStage struct {
	Ranker *ranking.Stage
	Ages   ranking.DocumentAge
}

func (s *RankingStage) Name() string { return "ranking" }

func (s *RankingStage) Execute(ctx context.Context, sc *core.SearchContext) error {
	sc.RawResults = s.Ranker.Rank(sc.Request.Query, sc.RawResults, s.Ages)
	sc.Metadata.RankingMethod = "weighted_multi_signal"
	if len(sc.RawResults) > 0 {
		sc.Metadata.RecordSource(s.Name())
	}
	return nil
}
