package core

import "time"

// ContextMetadata is the bookkeeping a pipeline run accumulates as it
// passes through stages: which stages contributed results, the ranking
// method used, per-stage timings, and whether any optional stage failed
// and was swallowed (degrading the response rather than failing it).
type ContextMetadata struct {
	ResultSources map[string]struct{}
	RankingMethod string
	StageTimings  map[string]time.Duration
	Degraded      bool
	DegradedNotes []string
}

// NewContextMetadata returns zero-valued, ready-to-use metadata.
func NewContextMetadata() ContextMetadata {
	return ContextMetadata{
		ResultSources: make(map[string]struct{}),
		StageTimings:  make(map[string]time.Duration),
	}
}

// RecordSource marks stage as having contributed results to the response.
func (m *ContextMetadata) RecordSource(stage string) {
	m.ResultSources[stage] = struct{}{}
}

// RecordTiming records how long a stage took.
func (m *ContextMetadata) RecordTiming(stage string, d time.Duration) {
	m.StageTimings[stage] = d
}

// MarkDegraded flips the degraded flag and appends an explanatory note.
func (m *ContextMetadata) MarkDegraded(note string) {
	m.Degraded = true
	if note != "" {
		m.DegradedNotes = append(m.DegradedNotes, note)
	}
}

// SearchContext is the per-request mutable workspace threaded through
// pipeline stages. It is created by the pipeline entry point and consumed
// at the exit; it is never shared across requests.
type SearchContext struct {
	Request       SearchRequest
	EnhancedQuery []ExpandedQuery
	// RawResultsByVariant holds retrieval output keyed by the ExpandedQuery
	// text that produced it, preserved separately so the merge stage can
	// track per-variant provenance instead of a single flattened list.
	// VariantOrder records the deterministic order variants were retrieved
	// in, since map iteration order is not stable.
	RawResultsByVariant map[string][]SearchResult
	VariantOrder        []string
	RawResults          []SearchResult
	Metadata            ContextMetadata
	MergeMetrics        MergeMetrics
}

// NewSearchContext creates a fresh workspace for req.
func NewSearchContext(req SearchRequest) *SearchContext {
	return &SearchContext{
		Request:  req,
		Metadata: NewContextMetadata(),
	}
}

// MergeMetrics records the result-merger/dedup statistics for the request,
// per SPEC_FULL §12 (variant contributions, not just an aggregate count).
type MergeMetrics struct {
	VariantsProcessed      int
	TotalResultsBeforeMerge int
	TotalResultsAfterMerge int
	DuplicatesFound        int
	DuplicatesMerged       int
	VariantContributions   map[string]int
}
