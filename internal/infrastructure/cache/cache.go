package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Mishael-2584/odel-portal/domain"
)

// entry holds one cached payload with its creation time and per-entry TTL.
type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// MemoryCache implements domain.Cache with an in-process map. Each server
// instance holds an independent population; cross-instance incoherence is an
// accepted constraint of this backend (use the Redis backend if coherence is
// required).
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache with the given default TTL.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return NewMemoryCacheWithClock(defaultTTL, time.Now)
}

// NewMemoryCacheWithClock injects the clock, used by tests to control entry
// staleness deterministically.
func NewMemoryCacheWithClock(defaultTTL time.Duration, now func() time.Time) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		ttl:     defaultTTL,
		now:     now,
	}
}

// Get returns the cached payload for key. A stale entry is evicted and
// reported as a miss; a caller that wants fresh data must re-fetch.
func (c *MemoryCache) Get(_ context.Context, key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > e.ttl {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry since the read.
		if cur, still := c.entries[key]; still && cur.storedAt.Equal(e.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, overwriting any prior entry. An optional TTL
// overrides the cache default for this entry only.
func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl ...time.Duration) {
	d := c.ttl
	if len(ttl) > 0 {
		d = ttl[0]
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, storedAt: c.now(), ttl: d}
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *MemoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the current entry count, stale entries included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ domain.Cache = (*MemoryCache)(nil)

// Key builds a deterministic cache key from an operation name and its
// parameters. Parameter keys are sorted so two structurally identical
// parameter sets produce identical keys regardless of insertion order. Key
// uniqueness across operations relies on each operation name being unique.
func Key(op string, params map[string]any) string {
	if len(params) == 0 {
		return op
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(op)
	for _, k := range keys {
		b.WriteByte(':')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(canonical(params[k]))
	}
	return b.String()
}

func canonical(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
