package core

import "math"

// Score is a relevance value: finite, non-NaN, in [0, ∞) before
// normalization and in [0, 1] after. Ordering is total: by value, with
// DocId as the documented tie-break (see CompareScored).
type Score float64

// Valid reports whether s is a finite, non-negative score.
func (s Score) Valid() bool {
	return !math.IsNaN(float64(s)) && !math.IsInf(float64(s), 0) && s >= 0
}

// NormalizationMethod selects how raw per-engine scores are rescaled into
// [0, 1] before fusion.
type NormalizationMethod int

const (
	// MinMax rescales via (x-min)/(max-min); all-equal inputs become 1.0.
	MinMax NormalizationMethod = iota
	// ZScore rescales via standard-score then squashes into [0,1].
	ZScore
)

// String implements fmt.Stringer.
func (m NormalizationMethod) String() string {
	switch m {
	case MinMax:
		return "minmax"
	case ZScore:
		return "zscore"
	default:
		return "unknown"
	}
}

// ParseNormalizationMethod parses the config-facing spelling.
func ParseNormalizationMethod(s string) (NormalizationMethod, bool) {
	switch s {
	case "minmax", "MinMax", "":
		return MinMax, true
	case "zscore", "ZScore":
		return ZScore, true
	default:
		return 0, false
	}
}

// ScoreBreakdown records every signal that contributed to a result's final
// fused score. The raw/normalized fields are retained purely for
// explainability; Fused is the only field ranking relies on.
type ScoreBreakdown struct {
	BM25Raw            *float64
	VectorRaw          *float64
	BM25Normalized     *float64
	VectorNormalized   *float64
	Fused              float64
	NormalizationMethod NormalizationMethod
}

// Signal is a single contributing engine or stage, recorded in FromSignals.
type Signal int

const (
	SignalBM25 Signal = 1 << iota
	SignalVector
	SignalHybrid
	SignalQueryExpansion
	SignalReranked
)

// FromSignals is the set of engines/stages that contributed to a result.
type FromSignals Signal

// Has reports whether sig is present in the set.
func (f FromSignals) Has(sig Signal) bool {
	return Signal(f)&sig != 0
}

// Add returns a new set with sig included.
func (f FromSignals) Add(sig Signal) FromSignals {
	return FromSignals(Signal(f) | sig)
}

// Union returns a new set containing every signal present in either set.
func (f FromSignals) Union(other FromSignals) FromSignals {
	return FromSignals(Signal(f) | Signal(other))
}

// Strings renders the set as a stable, sorted list of names.
func (f FromSignals) Strings() []string {
	var out []string
	for _, pair := range []struct {
		bit  Signal
		name string
	}{
		{SignalBM25, "bm25"},
		{SignalVector, "vector"},
		{SignalHybrid, "hybrid"},
		{SignalQueryExpansion, "query_expansion"},
		{SignalReranked, "reranked"},
	} {
		if f.Has(pair.bit) {
			out = append(out, pair.name)
		}
	}
	return out
}

// CompareScored orders two results by descending final score, breaking
// ties by ascending DocId, matching the invariant in §3 of the spec.
func CompareScored(aScore Score, aDoc DocId, bScore Score, bDoc DocId) int {
	if aScore != bScore {
		if aScore > bScore {
			return -1
		}
		return 1
	}
	if aDoc.Less(bDoc) {
		return -1
	}
	if bDoc.Less(aDoc) {
		return 1
	}
	return 0
}
