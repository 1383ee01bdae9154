// Package ranking implements the Result Ranking Stage (§4.9): a weighted
// combination of vector similarity, a document-frequency-adjusted lexical
// signal, a title-match boost, freshness, and a length penalty, producing
// the final result ordering. The stage never introduces new results; it
// may drop results whose final score falls below a configured floor.
package ranking

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/doylet/docsearch/internal/core"
)

// Weights controls each signal's contribution to the final ranking score.
type Weights struct {
	VectorSimilarity float64
	LexicalSignal    float64
	TitleBoost       float64
	Freshness        float64
	LengthPenalty    float64
}

// DefaultWeights favors vector similarity over the lexical signal (0.5 to
// 0.3), as the default fusion split does, though not in the same 0.6/0.4
// ratio; title/freshness/length add small adjustments.
func DefaultWeights() Weights {
	return Weights{
		VectorSimilarity: 0.5,
		LexicalSignal:    0.3,
		TitleBoost:       0.1,
		Freshness:        0.05,
		LengthPenalty:    0.05,
	}
}

// Config tunes the ranking stage.
type Config struct {
	Weights Weights
	// Floor drops any result whose final score falls below it. A zero
	// Floor drops nothing.
	Floor float64
	// LengthThreshold is the content length (bytes) above which the
	// length penalty starts reducing a result's score.
	LengthThreshold int
	// FreshnessHalfLife controls how quickly the freshness signal decays
	// with document age; zero disables freshness entirely (all results
	// score 1.0 on that signal).
	FreshnessHalfLife time.Duration
}

// DefaultConfig returns the documented ranking defaults.
func DefaultConfig() Config {
	return Config{
		Weights:         DefaultWeights(),
		Floor:           0,
		LengthThreshold: 2000,
	}
}

// Stage ranks merged results into their final order.
type Stage struct {
	Config Config
}

// NewStage returns a ranking Stage using cfg.
func NewStage(cfg Config) *Stage {
	return &Stage{Config: cfg}
}

// DocumentAge optionally supplies a result's age for the freshness signal,
// keyed by DocId. Results absent from the map score 1.0 on freshness
// (neither rewarded nor penalized for unknown age).
type DocumentAge map[core.DocId]time.Duration

// Rank scores and reorders results, annotating each with its
// RankingSignals breakdown, and drops any result below Config.Floor. It
// never adds a result that was not already present in results.
func (s *Stage) Rank(query core.Query, results []core.SearchResult, ages DocumentAge) []core.SearchResult {
	out := make([]core.SearchResult, 0, len(results))

	for _, r := range results {
		signals := s.score(query, r, ages)
		r = r.Clone()
		r.RankingSignals = &signals
		r.FinalScore = core.Score(signals.Final)
		if signals.Final < s.Config.Floor {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		return core.CompareScored(out[i].FinalScore, out[i].DocID, out[j].FinalScore, out[j].DocID) < 0
	})

	return out
}

func (s *Stage) score(query core.Query, r core.SearchResult, ages DocumentAge) core.RankingSignals {
	w := s.Config.Weights

	vectorSim := 0.0
	if r.Scores.VectorNormalized != nil {
		vectorSim = *r.Scores.VectorNormalized
	}

	lexical := 0.0
	if r.Scores.BM25Normalized != nil {
		lexical = *r.Scores.BM25Normalized
	}

	titleBoost := titleMatchBoost(query.Normalized, r.Title)
	freshness := freshnessSignal(r.DocID, ages, s.Config.FreshnessHalfLife)
	lengthPenalty := lengthPenaltySignal(len(r.Content), s.Config.LengthThreshold)

	final := w.VectorSimilarity*vectorSim +
		w.LexicalSignal*lexical +
		w.TitleBoost*titleBoost +
		w.Freshness*freshness -
		w.LengthPenalty*lengthPenalty

	if final < 0 {
		final = 0
	}

	return core.RankingSignals{
		VectorSimilarity: vectorSim,
		LexicalSignal:    lexical,
		TitleBoost:       titleBoost,
		Freshness:        freshness,
		LengthPenalty:    lengthPenalty,
		Final:            final,
	}
}

// titleMatchBoost returns 1.0 when every normalized query term appears in
// the title, a partial fraction when some do, and 0 when none do.
func titleMatchBoost(normalizedQuery, title string) float64 {
	terms := strings.Fields(normalizedQuery)
	if len(terms) == 0 {
		return 0
	}
	lowerTitle := strings.ToLower(title)

	matched := 0
	for _, t := range terms {
		if strings.Contains(lowerTitle, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// freshnessSignal decays from 1.0 as age approaches halfLife, reaching 0.5
// at exactly one half-life. A zero halfLife or missing age yields 1.0,
// keeping freshness a no-op until the caller supplies real document ages.
func freshnessSignal(docID core.DocId, ages DocumentAge, halfLife time.Duration) float64 {
	if halfLife <= 0 || ages == nil {
		return 1.0
	}
	age, ok := ages[docID]
	if !ok {
		return 1.0
	}
	if age <= 0 {
		return 1.0
	}
	halves := float64(age) / float64(halfLife)
	return math.Pow(0.5, halves)
}

// lengthPenaltySignal returns 0 for content at or under threshold, rising
// toward 1 as content grows past it.
func lengthPenaltySignal(contentLen, threshold int) float64 {
	if threshold <= 0 || contentLen <= threshold {
		return 0
	}
	excess := float64(contentLen-threshold) / float64(threshold)
	if excess > 1 {
		excess = 1
	}
	return excess
}
