// Package queryenhance implements the Query Enhancement Stage (§4.2):
// producing a deterministic, ordered set of ExpandedQuery variants from
// pluggable strategies (synonym, morphological, contextual), always
// including the Original variant.
package queryenhance

import (
	"strings"

	"github.com/doylet/docsearch/internal/core"
)

// Strategy produces zero or more ExpandedQuery variants derived from the
// normalized query text. Strategies MUST be deterministic: the same
// (text, config) input always yields the same ordered output.
type Strategy interface {
	Name() string
	Expand(normalizedQuery string) []core.ExpandedQuery
}

// Config tunes the enhancement stage.
type Config struct {
	MaxExpansions        int // truncation limit, excluding Original
	MaxTermsPerExpansion int // used by the morphological strategy
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{MaxExpansions: 4, MaxTermsPerExpansion: 2}
}

// Stage runs its configured strategies in order, concatenates their
// output after the Original variant, deduplicates by exact text match
// (first occurrence wins, preserving Original's position), and truncates
// to MaxExpansions+1.
type Stage struct {
	Config     Config
	Strategies []Strategy
}

// NewStage returns a Stage with the Synonym and Morphological strategies,
// using cfg.
func NewStage(cfg Config) *Stage {
	return &Stage{
		Config: cfg,
		Strategies: []Strategy{
			NewSynonymStrategy(cfg.MaxExpansions),
			NewMorphologicalStrategy(cfg.MaxTermsPerExpansion),
		},
	}
}

// Expand produces the ordered, deduplicated, truncated variant list for
// query. The Original variant is always first, with weight 1.0.
func (s *Stage) Expand(query core.Query) []core.ExpandedQuery {
	variants := []core.ExpandedQuery{
		{Text: query.Normalized, Kind: core.ExpansionOriginal, Weight: 1.0, SourceTerms: strings.Fields(query.Normalized)},
	}

	for _, strat := range s.Strategies {
		variants = append(variants, strat.Expand(query.Normalized)...)
	}

	variants = dedup(variants)

	limit := s.Config.MaxExpansions + 1
	if limit > 0 && len(variants) > limit {
		variants = variants[:limit]
	}
	return variants
}

// dedup removes later variants whose Text exactly matches an earlier one,
// preserving the first occurrence's position (including Original's).
func dedup(variants []core.ExpandedQuery) []core.ExpandedQuery {
	seen := make(map[string]struct{}, len(variants))
	out := make([]core.ExpandedQuery, 0, len(variants))
	for _, v := range variants {
		if _, ok := seen[v.Text]; ok {
			continue
		}
		seen[v.Text] = struct{}{}
		out = append(out, v)
	}
	return out
}
