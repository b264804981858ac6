package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"urlshort/internal/domain"
)

// ttlEntry wraps a cache entry with the wall-clock time it stops being
// valid, since hashicorp/golang-lru is capacity-bounded but not
// TTL-aware.
type ttlEntry struct {
	entry     *domain.CacheEntry
	expiresAt time.Time
}

// LRU is the bounded, TTL-aware, thread-safe in-process L1 cache, built
// on github.com/hashicorp/golang-lru/v2's generic Cache and wrapped with
// hit/miss counters and per-entry expiry.
type LRU struct {
	inner *lru.Cache[string, ttlEntry]
	mu    sync.Mutex
	hits  int64
	misses int64
}

// NewLRU builds an LRU capped at size entries (the service default ~10000).
func NewLRU(size int) (*LRU, error) {
	inner, err := lru.New[string, ttlEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRU{inner: inner}, nil
}

// Get returns the cached entry if present and not expired.
func (c *LRU) Get(key string) (*domain.CacheEntry, bool) {
	v, ok := c.inner.Get(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok || time.Now().After(v.expiresAt) {
		if ok {
			c.inner.Remove(key)
		}
		c.misses++
		return nil, false
	}
	c.hits++
	return v.entry, true
}

// Put stores entry with the given TTL, capped at 5 minutes.
func (c *LRU) Put(key string, entry *domain.CacheEntry, ttl time.Duration) {
	const maxTTL = 5 * time.Minute
	if ttl > maxTTL || ttl <= 0 {
		ttl = maxTTL
	}
	c.inner.Add(key, ttlEntry{entry: entry, expiresAt: time.Now().Add(ttl)})
}

// Evict removes key from the LRU unconditionally.
func (c *LRU) Evict(key string) {
	c.inner.Remove(key)
}

// Stats reports cumulative hit/miss counters.
type Stats struct {
	Hits   int64
	Misses int64
	Len    int
}

func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Len: c.inner.Len()}
}
