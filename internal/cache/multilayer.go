package cache

import (
	"context"
	"log"
	"time"

	"urlshort/internal/domain"
	"urlshort/internal/metrics"
)

// Store is the slice of the primary store the multi-layer cache's L3
// tier needs.
type Store interface {
	FindByShortCode(ctx context.Context, shortCode string) (*domain.URLMapping, error)
}

const (
	l1TTL            = 5 * time.Minute
	l2MappingTTL     = time.Hour
	l2TombstoneTTL   = 7 * 24 * time.Hour
	keyPrefixMapping = "url:"
)

// MultiLayerCache composes the in-process LRU, the distributed cache,
// and the primary store with read-through, write-through, and
// negative caching via tombstones.
type MultiLayerCache struct {
	l1    *LRU
	l2    DistributedCache
	store Store
}

func NewMultiLayerCache(l1 *LRU, l2 DistributedCache, store Store) *MultiLayerCache {
	return &MultiLayerCache{l1: l1, l2: l2, store: store}
}

func mappingKey(shortCode string) string { return keyPrefixMapping + shortCode }

// Lookup implements the three-tier read-through chain.
func (c *MultiLayerCache) Lookup(ctx context.Context, shortCode string) domain.LookupResult {
	key := mappingKey(shortCode)

	if c.l1 != nil {
		if entry, ok := c.l1.Get(key); ok {
			metrics.CacheHitsTotal.WithLabelValues("memory").Inc()
			return domain.LookupResult{Entry: entry, Source: domain.SourceMemory}
		}
	}

	if c.l2 != nil {
		if entry, ok := c.l2Get(ctx, key); ok {
			if c.l1 != nil {
				c.l1.Put(key, entry, l1TTL)
			}
			metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
			return domain.LookupResult{Entry: entry, Source: domain.SourceRedis}
		}
	}

	if c.store == nil {
		metrics.CacheHitsTotal.WithLabelValues("notfound").Inc()
		return domain.LookupResult{Entry: nil, Source: domain.SourceNotFound}
	}
	mapping, err := c.store.FindByShortCode(ctx, shortCode)
	if err != nil {
		log.Printf("cache: store lookup for %q failed: %v", shortCode, err)
		metrics.CacheHitsTotal.WithLabelValues("notfound").Inc()
		return domain.LookupResult{Entry: nil, Source: domain.SourceNotFound}
	}
	if mapping == nil {
		c.writeTombstoneL2(ctx, key, domain.TombstoneMissing, l2TombstoneTTL)
		metrics.CacheHitsTotal.WithLabelValues("notfound").Inc()
		return domain.LookupResult{Entry: nil, Source: domain.SourceNotFound}
	}

	entry := &domain.CacheEntry{Mapping: mapping}
	c.writeL2(ctx, key, entry, l2MappingTTL)
	metrics.CacheHitsTotal.WithLabelValues("database").Inc()
	return domain.LookupResult{Entry: entry, Source: domain.SourceDatabase}
}

func (c *MultiLayerCache) l2Get(ctx context.Context, key string) (*domain.CacheEntry, bool) {
	var entry domain.CacheEntry
	if err := c.l2.GetJSON(ctx, key, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

// WriteThrough stores a newly created mapping in L2 (best-effort) and L1.
// It does not write L3; the caller persists the row before calling it.
func (c *MultiLayerCache) WriteThrough(ctx context.Context, mapping *domain.URLMapping) {
	key := mappingKey(mapping.ShortCode)
	entry := &domain.CacheEntry{Mapping: mapping}
	c.writeL2(ctx, key, entry, l2MappingTTL)
	if c.l1 != nil {
		c.l1.Put(key, entry, l1TTL)
	}
}

func (c *MultiLayerCache) writeL2(ctx context.Context, key string, entry *domain.CacheEntry, ttl time.Duration) {
	if c.l2 == nil {
		return
	}
	if err := c.l2.SetJSON(ctx, key, entry, ttl); err != nil {
		log.Printf("cache: best-effort L2 write for %q failed: %v", key, err)
	}
}

func (c *MultiLayerCache) writeTombstoneL2(ctx context.Context, key string, kind domain.TombstoneKind, ttl time.Duration) {
	if c.l2 == nil {
		return
	}
	entry := &domain.CacheEntry{Tombstone: kind, ExpiresAt: time.Now().Add(ttl)}
	if err := c.l2.SetJSON(ctx, key, entry, ttl); err != nil {
		log.Printf("cache: best-effort tombstone write for %q failed: %v", key, err)
	}
}

// Invalidate evicts a short code from L1 and L2 synchronously.
func (c *MultiLayerCache) Invalidate(ctx context.Context, shortCode string) {
	key := mappingKey(shortCode)
	if c.l1 != nil {
		c.l1.Evict(key)
	}
	if c.l2 != nil {
		if err := c.l2.Delete(ctx, key); err != nil {
			log.Printf("cache: invalidate L2 for %q failed: %v", key, err)
		}
	}
}

// MarkExpired writes an expired tombstone to L2 with the given TTL and
// evicts any stale L1 entry.
func (c *MultiLayerCache) MarkExpired(ctx context.Context, shortCode string, ttl time.Duration) {
	key := mappingKey(shortCode)
	if c.l1 != nil {
		c.l1.Evict(key)
	}
	c.writeTombstoneL2(ctx, key, domain.TombstoneExpired, ttl)
}

// MarkDeleted writes a deleted tombstone to L2 and evicts L1.
func (c *MultiLayerCache) MarkDeleted(ctx context.Context, shortCode string, ttl time.Duration) {
	key := mappingKey(shortCode)
	if c.l1 != nil {
		c.l1.Evict(key)
	}
	c.writeTombstoneL2(ctx, key, domain.TombstoneDeleted, ttl)
}

// WarmUp batch-populates L1 and L2 with a set of popular mappings.
func (c *MultiLayerCache) WarmUp(ctx context.Context, mappings []*domain.URLMapping) {
	for _, m := range mappings {
		c.WriteThrough(ctx, m)
	}
}
