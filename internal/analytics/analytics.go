// Package analytics records in-process query telemetry: query-type
// counts, a latency histogram, zero-result queries, and query popularity,
// over a fixed-capacity window of recent activity. It never leaves the
// process — there is no external reporting transport.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/doylet/docsearch/internal/core"
)

// QueryType classifies which engines actually contributed to a query's
// results, derived from the FromSignals recorded on its top result.
type QueryType string

const (
	QueryTypeLexical QueryType = "lexical"
	QueryTypeVector  QueryType = "vector"
	QueryTypeHybrid  QueryType = "hybrid"
	QueryTypeNone    QueryType = "none"
)

// ClassifyQuery derives a QueryType from the signals a search's results
// were drawn from.
func ClassifyQuery(signals core.FromSignals) QueryType {
	switch {
	case signals == 0:
		return QueryTypeNone
	case signals.Has(core.SignalHybrid):
		return QueryTypeHybrid
	case signals.Has(core.SignalBM25) && signals.Has(core.SignalVector):
		return QueryTypeHybrid
	case signals.Has(core.SignalBM25):
		return QueryTypeLexical
	case signals.Has(core.SignalVector):
		return QueryTypeVector
	default:
		return QueryTypeNone
	}
}

// LatencyBucket is one bucket of the query-latency histogram.
type LatencyBucket string

const (
	BucketUnder10ms  LatencyBucket = "p10"
	BucketUnder50ms  LatencyBucket = "p50"
	BucketUnder100ms LatencyBucket = "p100"
	BucketUnder500ms LatencyBucket = "p500"
	BucketOver500ms  LatencyBucket = "p1000"
)

// LatencyToBucket places d into its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketUnder10ms
	case ms < 50:
		return BucketUnder50ms
	case ms < 100:
		return BucketUnder100ms
	case ms < 500:
		return BucketUnder500ms
	default:
		return BucketOver500ms
	}
}

// QueryEvent is one completed search, as reported to Recorder.Record.
type QueryEvent struct {
	Query       string
	Type        QueryType
	ResultCount int
	Latency     time.Duration
	Degraded    bool
	Timestamp   time.Time
}

// IsZeroResult reports whether the query returned nothing.
func (e QueryEvent) IsZeroResult() bool { return e.ResultCount == 0 }

// CircularBuffer is a fixed-capacity FIFO window over the most recent T
// values, overwriting the oldest entry once full.
type CircularBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	head     int
	size     int
	capacity int
}

// NewCircularBuffer creates a buffer holding at most capacity items
// (falls back to 100 if capacity <= 0).
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{items: make([]T, capacity), capacity: capacity}
}

// Add appends item, evicting the oldest entry if the buffer is full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns a copy of the buffer's contents, oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.size == 0 {
		return []T{}
	}
	out := make([]T, b.size)
	if b.size < b.capacity {
		copy(out, b.items[:b.size])
		return out
	}
	copy(out, b.items[b.head:])
	copy(out[b.capacity-b.head:], b.items[:b.head])
	return out
}

// Size returns the current item count.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// TermCount pairs a normalized query with how often it has been seen.
type TermCount struct {
	Query string
	Count int64
}

// Snapshot is an immutable point-in-time view of everything Recorder has
// observed since it was created.
type Snapshot struct {
	QueryTypeCounts     map[QueryType]int64
	TopQueries          []TermCount
	ZeroResultQueries   []string
	LatencyDistribution map[LatencyBucket]int64
	TotalQueries        int64
	ZeroResultCount     int64
	ExactRepeatCount    int64
	Since               time.Time
}

// ZeroResultRate returns the fraction (0..1) of queries that returned
// nothing, or 0 if no queries have been recorded.
func (s Snapshot) ZeroResultRate() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries)
}

// defaultPopularityCapacity bounds how many distinct normalized queries
// Recorder tracks for popularity ranking.
const defaultPopularityCapacity = 500

// defaultZeroResultCapacity bounds the zero-result circular buffer.
const defaultZeroResultCapacity = 100

// defaultRecentEventsCapacity bounds the recent-events circular buffer
// used for ad hoc inspection (e.g. a future "tail" CLI command).
const defaultRecentEventsCapacity = 200

// Recorder accumulates query telemetry in memory. Safe for concurrent use.
type Recorder struct {
	mu sync.RWMutex

	queryTypes      map[QueryType]int64
	popularity      *lru.Cache[string, int64]
	seenHashes      *lru.Cache[string, struct{}]
	zeroResults     *CircularBuffer[string]
	recentEvents    *CircularBuffer[QueryEvent]
	latencies       map[LatencyBucket]int64
	totalQueries    int64
	zeroResultCount int64
	exactRepeats    int64
	startTime       time.Time
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	popularity, _ := lru.New[string, int64](defaultPopularityCapacity)
	seenHashes, _ := lru.New[string, struct{}](defaultPopularityCapacity)
	return &Recorder{
		queryTypes:   make(map[QueryType]int64),
		popularity:   popularity,
		seenHashes:   seenHashes,
		zeroResults:  NewCircularBuffer[string](defaultZeroResultCapacity),
		recentEvents: NewCircularBuffer[QueryEvent](defaultRecentEventsCapacity),
		latencies:    make(map[LatencyBucket]int64),
		startTime:    time.Now(),
	}
}

// Record captures one completed query's telemetry.
func (r *Recorder) Record(event QueryEvent) {
	normalized := strings.ToLower(strings.TrimSpace(event.Query))
	hash := hashQuery(normalized)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.queryTypes[event.Type]++
	r.totalQueries++
	r.latencies[LatencyToBucket(event.Latency)]++
	r.recentEvents.Add(event)

	if normalized != "" {
		count, _ := r.popularity.Get(normalized)
		r.popularity.Add(normalized, count+1)
	}

	if event.IsZeroResult() {
		r.zeroResults.Add(event.Query)
		r.zeroResultCount++
	}

	if _, seen := r.seenHashes.Get(hash); seen {
		r.exactRepeats++
	}
	r.seenHashes.Add(hash, struct{}{})
}

func hashQuery(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}

// Snapshot returns the current state of every counter. TopQueries is
// sorted by count descending.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	queryTypes := make(map[QueryType]int64, len(r.queryTypes))
	for k, v := range r.queryTypes {
		queryTypes[k] = v
	}

	latencies := make(map[LatencyBucket]int64, len(r.latencies))
	for k, v := range r.latencies {
		latencies[k] = v
	}

	var top []TermCount
	for _, key := range r.popularity.Keys() {
		if count, ok := r.popularity.Peek(key); ok {
			top = append(top, TermCount{Query: key, Count: count})
		}
	}
	for i := 0; i < len(top); i++ {
		for j := i + 1; j < len(top); j++ {
			if top[j].Count > top[i].Count {
				top[i], top[j] = top[j], top[i]
			}
		}
	}

	return Snapshot{
		QueryTypeCounts:     queryTypes,
		TopQueries:          top,
		ZeroResultQueries:   r.zeroResults.Items(),
		LatencyDistribution: latencies,
		TotalQueries:        r.totalQueries,
		ZeroResultCount:     r.zeroResultCount,
		ExactRepeatCount:    r.exactRepeats,
		Since:               r.startTime,
	}
}

// RecentEvents returns the most recent queries recorded, oldest first.
func (r *Recorder) RecentEvents() []QueryEvent {
	return r.recentEvents.Items()
}
