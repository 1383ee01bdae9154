package queryenhance

import (
	"strings"

	"github.com/doylet/docsearch/internal/core"
)

// documentSynonyms maps common query vocabulary to near-synonyms likely to
// appear in indexed prose. Unlike a code search engine's identifier
// dictionary, these favor natural-language substitutions over casing or
// keyword variants.
var documentSynonyms = map[string][]string{
	"start":        {"begin", "launch", "initiate"},
	"stop":         {"end", "halt", "terminate"},
	"create":       {"add", "make", "new"},
	"delete":       {"remove", "drop"},
	"update":       {"modify", "change", "edit"},
	"error":        {"failure", "issue", "problem"},
	"guide":        {"tutorial", "walkthrough", "manual"},
	"config":       {"configuration", "settings"},
	"install":      {"setup", "deploy"},
	"fix":          {"resolve", "repair"},
	"search":       {"find", "lookup", "query"},
	"document":     {"doc", "file", "page"},
	"index":        {"catalog", "registry"},
	"fast":         {"quick", "rapid"},
	"slow":         {"delayed", "sluggish"},
	"requirement":  {"prerequisite", "dependency"},
	"overview":     {"summary", "introduction"},
	"reference":    {"specification", "spec"},
	"example":      {"sample", "demo"},
	"troubleshoot": {"debug", "diagnose"},
}

// SynonymStrategy substitutes dictionary synonyms for non-stopword query
// tokens, one substituted term per variant.
type SynonymStrategy struct {
	synonyms map[string][]string
	limit    int
}

// NewSynonymStrategy returns a SynonymStrategy that stops producing
// variants once limit have been emitted (0 = unbounded).
func NewSynonymStrategy(limit int) *SynonymStrategy {
	return &SynonymStrategy{synonyms: documentSynonyms, limit: limit}
}

func (s *SynonymStrategy) Name() string { return "synonym" }

// Expand substitutes, one token at a time, each token shorter than 2
// characters is skipped, per §4.2.
func (s *SynonymStrategy) Expand(normalizedQuery string) []core.ExpandedQuery {
	terms := strings.Fields(normalizedQuery)
	var out []core.ExpandedQuery

	for i, term := range terms {
		if len(term) < 2 {
			continue
		}
		syns, ok := s.synonyms[term]
		if !ok {
			continue
		}
		for _, syn := range syns {
			if s.limit > 0 && len(out) >= s.limit {
				return out
			}
			substituted := append([]string(nil), terms...)
			substituted[i] = syn
			out = append(out, core.ExpandedQuery{
				Text:        strings.Join(substituted, " "),
				Kind:        core.ExpansionSynonym,
				Weight:      0.7,
				SourceTerms: []string{term},
				AddedTerms:  []string{syn},
			})
		}
	}
	return out
}

var _ Strategy = (*SynonymStrategy)(nil)
