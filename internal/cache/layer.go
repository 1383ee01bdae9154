// Package cache implements the Cache Layer (§4.10): four independent
// TTL+LRU caches (query, embedding, bm25, fusion), each bounded by both
// entry count and byte size, with a periodic TTL sweep and live
// hit/miss/eviction statistics.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LayerConfig sizes and bounds one cache layer.
type LayerConfig struct {
	MaxEntries   int
	MaxSizeBytes int64
	TTL          time.Duration
}

// LayerStats is a point-in-time snapshot of a layer's counters.
type LayerStats struct {
	Hits            uint64
	Misses          uint64
	Evictions       uint64
	ExpiredRemovals uint64
	Bytes           int64
	Entries         int
}

type entry[V any] struct {
	value     V
	size      int64
	expiresAt time.Time
}

// Layer is one named TTL+LRU cache. It is safe for concurrent use: the
// underlying LRU store has its own internal locking, and byte-size
// bookkeeping uses a dedicated counter lock that is never held across a
// call into the store (the store's eviction callback re-enters Layer
// methods on the same goroutine, so nesting the counter lock around store
// calls would deadlock).
type Layer[K comparable, V any] struct {
	name   string
	cfg    LayerConfig
	sizeOf func(V) int64
	store  *lru.Cache[K, entry[V]]

	bytesMu sync.Mutex
	bytes   int64

	hits            atomic.Uint64
	misses          atomic.Uint64
	evictions       atomic.Uint64
	expiredRemovals atomic.Uint64
}

// NewLayer builds a Layer named name with the given bounds. sizeOf
// estimates the in-memory byte size of a stored value for the byte
// budget; it does not need to be exact.
func NewLayer[K comparable, V any](name string, cfg LayerConfig, sizeOf func(V) int64) *Layer[K, V] {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	l := &Layer[K, V]{name: name, cfg: cfg, sizeOf: sizeOf}
	store, _ := lru.NewWithEvict[K, entry[V]](cfg.MaxEntries, l.onEvict)
	l.store = store
	return l
}

func (l *Layer[K, V]) onEvict(_ K, e entry[V]) {
	l.adjustBytes(-e.size)
	l.evictions.Add(1)
}

func (l *Layer[K, V]) adjustBytes(delta int64) {
	l.bytesMu.Lock()
	l.bytes += delta
	l.bytesMu.Unlock()
}

func (l *Layer[K, V]) currentBytes() int64 {
	l.bytesMu.Lock()
	defer l.bytesMu.Unlock()
	return l.bytes
}

// Get reports the cached value for key. A TTL-expired entry is removed
// and counted as a miss rather than served (§4.10 correctness rule: the
// TTL check MUST precede serve).
func (l *Layer[K, V]) Get(key K) (V, bool) {
	e, ok := l.store.Get(key)
	if ok && l.cfg.TTL > 0 && time.Now().After(e.expiresAt) {
		l.store.Remove(key)
		l.expiredRemovals.Add(1)
		ok = false
	}
	if !ok {
		l.misses.Add(1)
		var zero V
		return zero, false
	}
	l.hits.Add(1)
	return e.value, true
}

// Set inserts or replaces the value for key, then evicts the least
// recently used entries (if any) until the byte budget is respected.
func (l *Layer[K, V]) Set(key K, value V) {
	size := l.sizeOf(value)
	var expiresAt time.Time
	if l.cfg.TTL > 0 {
		expiresAt = time.Now().Add(l.cfg.TTL)
	}

	if old, ok := l.store.Peek(key); ok {
		l.adjustBytes(-old.size)
	}
	l.adjustBytes(size)
	l.store.Add(key, entry[V]{value: value, size: size, expiresAt: expiresAt})

	l.enforceByteBudget()
}

func (l *Layer[K, V]) enforceByteBudget() {
	if l.cfg.MaxSizeBytes <= 0 {
		return
	}
	for l.currentBytes() > l.cfg.MaxSizeBytes && l.store.Len() > 0 {
		l.store.RemoveOldest()
	}
}

// Sweep removes every entry whose TTL has elapsed, independent of access,
// and returns how many were removed. Intended to be called on a
// cleanup_interval ticker.
func (l *Layer[K, V]) Sweep() int {
	if l.cfg.TTL <= 0 {
		return 0
	}
	now := time.Now()
	removed := 0
	for _, key := range l.store.Keys() {
		e, ok := l.store.Peek(key)
		if ok && now.After(e.expiresAt) {
			l.store.Remove(key)
			removed++
			l.expiredRemovals.Add(1)
		}
	}
	return removed
}

// Purge drops every entry and resets byte accounting.
func (l *Layer[K, V]) Purge() {
	l.store.Purge()
	l.bytesMu.Lock()
	l.bytes = 0
	l.bytesMu.Unlock()
}

// Stats snapshots the layer's counters.
func (l *Layer[K, V]) Stats() LayerStats {
	return LayerStats{
		Hits:            l.hits.Load(),
		Misses:          l.misses.Load(),
		Evictions:       l.evictions.Load(),
		ExpiredRemovals: l.expiredRemovals.Load(),
		Bytes:           l.currentBytes(),
		Entries:         l.store.Len(),
	}
}
