package core

import (
	"strconv"
	"strings"
)

// QueryCacheKey is the canonical key two equivalent SearchRequests must
// render byte-identically to, regardless of filter insertion order.
type QueryCacheKey struct {
	NormalizedQuery   string
	Limit             int
	Offset            int
	SortedFilterTuples []string
}

// NewQueryCacheKey builds a QueryCacheKey from a request.
func NewQueryCacheKey(req SearchRequest) QueryCacheKey {
	return QueryCacheKey{
		NormalizedQuery:    req.Query.Normalized,
		Limit:              req.Limit,
		Offset:             req.Offset,
		SortedFilterTuples: req.Filters.SortedTuples(),
	}
}

// String renders a stable serialization suitable for use as a map/cache
// key. Changing this format is a breaking cache-invalidation event (§6).
func (k QueryCacheKey) String() string {
	var b strings.Builder
	b.WriteString(k.NormalizedQuery)
	b.WriteByte('\x1f')
	b.WriteString(strconv.Itoa(k.Limit))
	b.WriteByte('\x1f')
	b.WriteString(strconv.Itoa(k.Offset))
	for _, t := range k.SortedFilterTuples {
		b.WriteByte('\x1f')
		b.WriteString(t)
	}
	return b.String()
}
