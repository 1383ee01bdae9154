package queryenhance

import (
	"strings"

	"github.com/doylet/docsearch/internal/core"
)

// MorphologicalStrategy applies rule-based suffix transforms (plural,
// tense, common derivational suffixes) to each query token, per §4.2.
// Tokens shorter than 3 characters are skipped.
type MorphologicalStrategy struct {
	maxPerTerm int
}

// NewMorphologicalStrategy returns a MorphologicalStrategy emitting at
// most maxPerTerm variants per token (0 = unbounded).
func NewMorphologicalStrategy(maxPerTerm int) *MorphologicalStrategy {
	return &MorphologicalStrategy{maxPerTerm: maxPerTerm}
}

func (s *MorphologicalStrategy) Name() string { return "morphological" }

func (s *MorphologicalStrategy) Expand(normalizedQuery string) []core.ExpandedQuery {
	terms := strings.Fields(normalizedQuery)
	var out []core.ExpandedQuery

	for i, term := range terms {
		if len(term) < 3 {
			continue
		}
		variants := morphologicalVariants(term)
		count := 0
		for _, v := range variants {
			if v == term {
				continue
			}
			if s.maxPerTerm > 0 && count >= s.maxPerTerm {
				break
			}
			substituted := append([]string(nil), terms...)
			substituted[i] = v
			out = append(out, core.ExpandedQuery{
				Text:        strings.Join(substituted, " "),
				Kind:        core.ExpansionMorphological,
				Weight:      0.6,
				SourceTerms: []string{term},
				AddedTerms:  []string{v},
			})
			count++
		}
	}
	return out
}

// morphologicalVariants generates plural/singular and common verb-suffix
// transforms for term, in a fixed, deterministic order.
func morphologicalVariants(term string) []string {
	var variants []string

	switch {
	case strings.HasSuffix(term, "ies") && len(term) > 4:
		variants = append(variants, term[:len(term)-3]+"y")
	case strings.HasSuffix(term, "es") && len(term) > 3:
		variants = append(variants, term[:len(term)-2])
	case strings.HasSuffix(term, "s") && !strings.HasSuffix(term, "ss") && len(term) > 3:
		variants = append(variants, term[:len(term)-1])
	default:
		variants = append(variants, term+"s")
	}

	switch {
	case strings.HasSuffix(term, "ing") && len(term) > 5:
		stem := term[:len(term)-3]
		variants = append(variants, stem, stem+"e")
	case strings.HasSuffix(term, "ed") && len(term) > 4:
		variants = append(variants, term[:len(term)-2], term[:len(term)-1])
	default:
		variants = append(variants, term+"ing", term+"ed")
	}

	return variants
}

var _ Strategy = (*MorphologicalStrategy)(nil)
