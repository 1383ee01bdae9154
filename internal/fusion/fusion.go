// Package fusion implements Score Fusion (§4.7): per-engine normalization
// of raw BM25 and vector scores, then a weighted sum into a single fused
// score per ChunkId.
package fusion

import (
	"math"
	"sort"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/docerr"
	"github.com/doylet/docsearch/internal/lexstore"
	"github.com/doylet/docsearch/internal/vectorstore"
)

// Weights controls how much each engine's normalized score contributes to
// the fused score. They MUST sum to 1.0.
type Weights struct {
	BM25   float64
	Vector float64
}

// DefaultWeights returns the documented default: 0.4 BM25, 0.6 vector.
func DefaultWeights() Weights {
	return Weights{BM25: 0.4, Vector: 0.6}
}

// Validate reports whether the weights sum to 1.0 within floating-point
// tolerance.
func (w Weights) Validate() error {
	if math.Abs(w.BM25+w.Vector-1.0) > 1e-9 {
		return docerr.Configuration("fusion weights must sum to 1.0")
	}
	return nil
}

// Fused is one ChunkId's fusion outcome: the combined score breakdown and
// which engines contributed to it.
type Fused struct {
	ChunkID      core.ChunkId
	Breakdown    core.ScoreBreakdown
	FromSignals  core.FromSignals
	MatchedTerms []string
}

// Fuser combines BM25 and vector hit lists using the configured
// normalization method and weights.
type Fuser struct {
	Method core.NormalizationMethod
}

// NewFuser returns a Fuser using method for per-engine normalization.
func NewFuser(method core.NormalizationMethod) *Fuser {
	return &Fuser{Method: method}
}

// Fuse combines bm25 and vector results. Results are sorted by fused score
// descending, ties broken by DocId ascending (core.CompareScored); equally
// scored chunks of the same document have no defined order.
func (f *Fuser) Fuse(bm25 []lexstore.Hit, vector []vectorstore.Hit, weights Weights) []Fused {
	if len(bm25) == 0 && len(vector) == 0 {
		return []Fused{}
	}

	bm25Norm := f.normalizeBM25(bm25)
	vecNorm := f.normalizeVector(vector)

	results := make(map[core.ChunkId]*Fused, len(bm25)+len(vector))

	for i, h := range bm25 {
		r := getOrCreate(results, h.ChunkID)
		raw := h.Score
		norm := bm25Norm[i]
		r.Breakdown.BM25Raw = &raw
		r.Breakdown.BM25Normalized = &norm
		r.FromSignals = r.FromSignals.Add(core.SignalBM25)
		r.MatchedTerms = h.MatchedTerms
	}

	for i, h := range vector {
		r := getOrCreate(results, h.ChunkID)
		raw := h.Score
		norm := vecNorm[i]
		r.Breakdown.VectorRaw = &raw
		r.Breakdown.VectorNormalized = &norm
		r.FromSignals = r.FromSignals.Add(core.SignalVector)
	}

	if len(bm25) > 0 && len(vector) > 0 {
		for _, r := range results {
			if r.FromSignals.Has(core.SignalBM25) && r.FromSignals.Has(core.SignalVector) {
				r.FromSignals = r.FromSignals.Add(core.SignalHybrid)
			}
		}
	}

	out := make([]Fused, 0, len(results))
	for _, r := range results {
		bm25Score := 0.0
		if r.Breakdown.BM25Normalized != nil {
			bm25Score = *r.Breakdown.BM25Normalized
		}
		vecScore := 0.0
		if r.Breakdown.VectorNormalized != nil {
			vecScore = *r.Breakdown.VectorNormalized
		}
		r.Breakdown.Fused = weights.BM25*bm25Score + weights.Vector*vecScore
		r.Breakdown.NormalizationMethod = f.Method
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		return core.CompareScored(core.Score(out[i].Breakdown.Fused), out[i].ChunkID.Doc,
			core.Score(out[j].Breakdown.Fused), out[j].ChunkID.Doc) < 0
	})

	return out
}

func getOrCreate(m map[core.ChunkId]*Fused, id core.ChunkId) *Fused {
	if r, ok := m[id]; ok {
		return r
	}
	r := &Fused{ChunkID: id}
	m[id] = r
	return r
}

// normalizeBM25 rescales raw BM25 scores into [0,1] per the configured
// method, preserving input order.
func (f *Fuser) normalizeBM25(hits []lexstore.Hit) []float64 {
	raw := make([]float64, len(hits))
	for i, h := range hits {
		raw[i] = h.Score
	}
	return normalize(raw, f.Method)
}

func (f *Fuser) normalizeVector(hits []vectorstore.Hit) []float64 {
	raw := make([]float64, len(hits))
	for i, h := range hits {
		raw[i] = h.Score
	}
	return normalize(raw, f.Method)
}

// normalize rescales raw into [0,1]. If every value is equal, every
// normalized value is 1.0 (§4.7: an all-equal engine is not penalized).
func normalize(raw []float64, method core.NormalizationMethod) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}

	switch method {
	case core.ZScore:
		mean := 0.0
		for _, v := range raw {
			mean += v
		}
		mean /= float64(len(raw))

		variance := 0.0
		for _, v := range raw {
			d := v - mean
			variance += d * d
		}
		variance /= float64(len(raw))
		stddev := math.Sqrt(variance)

		if stddev == 0 {
			for i := range out {
				out[i] = 1.0
			}
			return out
		}
		for i, v := range raw {
			z := (v - mean) / stddev
			// squash into [0,1] via a logistic function centered at 0.
			out[i] = 1.0 / (1.0 + math.Exp(-z))
		}
		return out

	default: // MinMax
		min, max := raw[0], raw[0]
		for _, v := range raw {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		if max == min {
			for i := range out {
				out[i] = 1.0
			}
			return out
		}
		for i, v := range raw {
			out[i] = (v - min) / (max - min)
		}
		return out
	}
}
