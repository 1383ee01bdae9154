package daemon

import (
	"fmt"

	"github.com/doylet/docsearch/internal/analytics"
	"github.com/doylet/docsearch/internal/core"
)

// JSON-RPC 2.0 method names.
const (
	MethodSearch = "search"
	MethodStatus = "status"
	MethodStats  = "stats"
	MethodPing   = "ping"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Custom error codes for daemon-specific errors.
const (
	ErrCodeCollectionNotFound = -32001
	ErrCodeSearchFailed       = -32002
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      string `json:"id"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result any) Response {
	return Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
		},
		ID: id,
	}
}

// SearchParams are the parameters for the search method, the wire
// projection of core.SearchRequest (§6 search()).
type SearchParams struct {
	// Query is the search query (required).
	Query string `json:"query"`

	// Limit is the maximum number of results (default: 10).
	Limit int `json:"limit,omitempty"`

	// Offset skips the first N results, for pagination.
	Offset int `json:"offset,omitempty"`

	// Collection narrows the search to one collection (optional).
	Collection string `json:"collection,omitempty"`

	// DocumentTypes filters by document type tags (optional).
	DocumentTypes []string `json:"document_types,omitempty"`

	// Tags filters by arbitrary tags (optional).
	Tags []string `json:"tags,omitempty"`

	// IncludeSnippets requests a highlighted excerpt per result.
	IncludeSnippets bool `json:"include_snippets,omitempty"`

	// Highlight requests in-content match highlighting.
	Highlight bool `json:"highlight,omitempty"`
}

// Validate checks that required fields are present and fills in defaults,
// matching core.SearchRequest.Validate's constraints.
func (p *SearchParams) Validate() error {
	if p.Query == "" {
		return fmt.Errorf("query is required")
	}
	if p.Limit == 0 {
		p.Limit = 10
	}
	if p.Limit < 0 {
		return fmt.Errorf("limit must be >= 1")
	}
	if p.Offset < 0 {
		return fmt.Errorf("offset must be >= 0")
	}
	return nil
}

// ToSearchRequest builds the core.SearchRequest this wire value describes.
func (p SearchParams) ToSearchRequest() core.SearchRequest {
	req := core.SearchRequest{
		Query:  core.NewQuery(p.Query),
		Limit:  p.Limit,
		Offset: p.Offset,
		Options: core.RequestOptions{
			IncludeSnippets: p.IncludeSnippets,
			Highlight:       p.Highlight,
		},
	}
	if p.Collection != "" {
		req.Filters.Collection = &p.Collection
	}
	if len(p.DocumentTypes) > 0 {
		req.Filters.DocumentTypes = make(map[string]struct{}, len(p.DocumentTypes))
		for _, t := range p.DocumentTypes {
			req.Filters.DocumentTypes[t] = struct{}{}
		}
	}
	if len(p.Tags) > 0 {
		req.Filters.Tags = make(map[string]struct{}, len(p.Tags))
		for _, t := range p.Tags {
			req.Filters.Tags[t] = struct{}{}
		}
	}
	return req
}

// ScoreBreakdown is the wire projection of core.ScoreBreakdown.
type ScoreBreakdown struct {
	BM25Raw          *float64 `json:"bm25_raw,omitempty"`
	VectorRaw        *float64 `json:"vector_raw,omitempty"`
	BM25Normalized   *float64 `json:"bm25_normalized,omitempty"`
	VectorNormalized *float64 `json:"vector_normalized,omitempty"`
	Fused            float64  `json:"fused"`
	Normalization    string   `json:"normalization"`
}

// SearchResult represents a single search result, the wire projection of
// core.SearchResult.
type SearchResult struct {
	DocID       string            `json:"doc_id"`
	ChunkID     string            `json:"chunk_id"`
	Title       string            `json:"title,omitempty"`
	Content     string            `json:"content"`
	Snippet     *string           `json:"snippet,omitempty"`
	URI         string            `json:"uri,omitempty"`
	SectionPath []string          `json:"section_path,omitempty"`
	Score       float64           `json:"score"`
	Scores      ScoreBreakdown    `json:"scores"`
	FromSignals []string          `json:"from_signals,omitempty"`
	Collection  *string           `json:"collection,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewSearchResult projects a core.SearchResult onto its wire shape.
func NewSearchResult(r core.SearchResult) SearchResult {
	return SearchResult{
		DocID:       r.DocID.String(),
		ChunkID:     r.ChunkID.String(),
		Title:       r.Title,
		Content:     r.Content,
		Snippet:     r.Snippet,
		URI:         r.URI,
		SectionPath: r.SectionPath,
		Score:       float64(r.FinalScore),
		Scores: ScoreBreakdown{
			BM25Raw:          r.Scores.BM25Raw,
			VectorRaw:        r.Scores.VectorRaw,
			BM25Normalized:   r.Scores.BM25Normalized,
			VectorNormalized: r.Scores.VectorNormalized,
			Fused:            r.Scores.Fused,
			Normalization:    r.Scores.NormalizationMethod.String(),
		},
		FromSignals: r.FromSignals.Strings(),
		Collection:  r.Collection,
		Metadata:    r.CustomMetadata,
	}
}

// StatusResult contains daemon status information.
type StatusResult struct {
	Running           bool   `json:"running"`
	PID               int    `json:"pid"`
	Uptime            string `json:"uptime"`
	Status            string `json:"status"`             // liveness: healthy/degraded/unhealthy
	ReadinessStatus   string `json:"readiness_status"`    // readiness: healthy/degraded/unhealthy
	CollectionsLoaded int    `json:"collections_loaded"`
}

// PingResult is the response to a ping request.
type PingResult struct {
	Pong bool `json:"pong"`
}

// StatsResult is the wire projection of an analytics.Snapshot, reporting
// query-type counts, latency distribution and zero-result queries observed
// by the running daemon since it started.
type StatsResult struct {
	TotalQueries        int64            `json:"total_queries"`
	ZeroResultCount     int64            `json:"zero_result_count"`
	ZeroResultRate      float64          `json:"zero_result_rate"`
	ExactRepeatCount    int64            `json:"exact_repeat_count"`
	QueryTypeCounts     map[string]int64 `json:"query_type_counts"`
	LatencyDistribution map[string]int64 `json:"latency_distribution"`
	TopQueries          []TermCount      `json:"top_queries,omitempty"`
	ZeroResultQueries   []string         `json:"zero_result_queries,omitempty"`
	SinceUnix           int64            `json:"since_unix"`
}

// TermCount is the wire projection of analytics.TermCount.
type TermCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// NewStatsResult projects an analytics.Snapshot onto its wire shape.
func NewStatsResult(s analytics.Snapshot) StatsResult {
	queryTypes := make(map[string]int64, len(s.QueryTypeCounts))
	for k, v := range s.QueryTypeCounts {
		queryTypes[string(k)] = v
	}

	latencies := make(map[string]int64, len(s.LatencyDistribution))
	for k, v := range s.LatencyDistribution {
		latencies[string(k)] = v
	}

	top := make([]TermCount, 0, len(s.TopQueries))
	for _, t := range s.TopQueries {
		top = append(top, TermCount{Query: t.Query, Count: t.Count})
	}

	return StatsResult{
		TotalQueries:        s.TotalQueries,
		ZeroResultCount:     s.ZeroResultCount,
		ZeroResultRate:      s.ZeroResultRate(),
		ExactRepeatCount:    s.ExactRepeatCount,
		QueryTypeCounts:     queryTypes,
		LatencyDistribution: latencies,
		TopQueries:          top,
		ZeroResultQueries:   s.ZeroResultQueries,
		SinceUnix:           s.Since.Unix(),
	}
}
