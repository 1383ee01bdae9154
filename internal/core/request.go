package core

import (
	"sort"
	"strings"

	"github.com/doylet/docsearch/internal/docerr"
)

// Query holds both the caller-supplied text and its normalized form.
// Cache keys and internal matching always use Normalized.
type Query struct {
	Raw        string
	Normalized string
}

// NewQuery normalizes raw and returns both forms.
func NewQuery(raw string) Query {
	return Query{Raw: raw, Normalized: Normalize(raw)}
}

// Normalize lower-cases the input and collapses surrounding and internal
// whitespace runs to single spaces. Normalize is idempotent:
// Normalize(Normalize(q)) == Normalize(q) for all q.
func Normalize(q string) string {
	fields := strings.Fields(strings.ToLower(q))
	return strings.Join(fields, " ")
}

// Filters narrows a search to a subset of the corpus.
type Filters struct {
	Collection     *string
	DocumentTypes  map[string]struct{}
	Tags           map[string]struct{}
	Custom         map[string]string
}

// SortedTuples renders the filters as a sorted, order-independent sequence
// of "key=value" tuples, used to build a stable QueryCacheKey.
func (f Filters) SortedTuples() []string {
	var tuples []string
	if f.Collection != nil {
		tuples = append(tuples, "collection="+*f.Collection)
	}
	for t := range f.DocumentTypes {
		tuples = append(tuples, "doctype="+t)
	}
	for t := range f.Tags {
		tuples = append(tuples, "tag="+t)
	}
	for k, v := range f.Custom {
		tuples = append(tuples, "custom."+k+"="+v)
	}
	sort.Strings(tuples)
	return tuples
}

// RequestOptions toggles optional response enrichment.
type RequestOptions struct {
	IncludeSnippets bool
	Highlight       bool
}

// SearchRequest is the caller-facing search input.
type SearchRequest struct {
	Query   Query
	Limit   int
	Offset  int
	Filters Filters
	Options RequestOptions
}

// Validate enforces the structural constraints §3 documents: limit >= 1,
// offset >= 0, and a non-empty normalized query.
func (r SearchRequest) Validate() error {
	if r.Query.Normalized == "" {
		return docerr.Validation("search query must not be empty")
	}
	if r.Limit < 1 {
		return docerr.Validation("limit must be >= 1")
	}
	if r.Offset < 0 {
		return docerr.Validation("offset must be >= 0")
	}
	return nil
}
