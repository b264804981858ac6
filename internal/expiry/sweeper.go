// Package expiry implements the background sweeper that reclaims
// expired short URLs on a fixed interval.
package expiry

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"urlshort/internal/cache"
	"urlshort/internal/store"
)

// Sweeper periodically marks overdue mappings deleted and evicts them
// from the cache.
type Sweeper struct {
	store    *store.URLStore
	cache    *cache.MultiLayerCache
	interval time.Duration
	batch    int
	ttl      time.Duration

	running int32 // guards against overlapping ticks
}

func NewSweeper(s *store.URLStore, c *cache.MultiLayerCache, interval time.Duration, batch int, tombstoneTTL time.Duration) *Sweeper {
	return &Sweeper{store: s, cache: c, interval: interval, batch: batch, ttl: tombstoneTTL}
}

// Run ticks every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick is idempotent under overlapping ticks: a slow sweep is skipped
// rather than run concurrently with itself.
func (s *Sweeper) tick(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&s.running, 0)

	codes, err := s.store.SweepExpired(ctx, s.batch)
	if err != nil {
		log.Printf("expiry: sweep failed: %v", err)
		return
	}
	for _, code := range codes {
		s.cache.Invalidate(ctx, code)
		s.cache.MarkExpired(ctx, code, s.ttl)
	}
	if len(codes) > 0 {
		log.Printf("expiry: swept %d expired mappings", len(codes))
	}
}
