// Package service holds the redirect and shortener business logic,
// built on the domain model and cache/store abstractions.
package service

import (
	"context"
	"log"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"urlshort/internal/analytics"
	"urlshort/internal/apperr"
	"urlshort/internal/cache"
	"urlshort/internal/domain"
	"urlshort/internal/metrics"
	"urlshort/internal/store"
)

var shortCodeShape = regexp.MustCompile(`^[A-Za-z0-9_-]{3,30}$`)

// RedirectStats are the lock-free outcome counters for redirect handling.
type RedirectStats struct {
	total       int64
	success     int64
	notFound    int64
	expired     int64
	serverError int64

	mu           sync.Mutex
	latencySumNs int64
	latencyCount int64
}

type RedirectStatsSnapshot struct {
	Total        int64
	Success      int64
	NotFound     int64
	Expired      int64
	ServerError  int64
	AvgLatencyMs float64
	CacheHitRate float64
}

func (s *RedirectStats) record(outcome string, d time.Duration) {
	atomic.AddInt64(&s.total, 1)
	switch outcome {
	case "success":
		atomic.AddInt64(&s.success, 1)
	case "notFound":
		atomic.AddInt64(&s.notFound, 1)
	case "expired":
		atomic.AddInt64(&s.expired, 1)
	case "serverError":
		atomic.AddInt64(&s.serverError, 1)
	}
	s.mu.Lock()
	s.latencySumNs += d.Nanoseconds()
	s.latencyCount++
	s.mu.Unlock()
}

func (s *RedirectStats) Snapshot(cacheHits, cacheTotal int64) RedirectStatsSnapshot {
	s.mu.Lock()
	sum, count := s.latencySumNs, s.latencyCount
	s.mu.Unlock()
	var avgMs float64
	if count > 0 {
		avgMs = float64(sum) / float64(count) / 1e6
	}
	var hitRate float64
	if cacheTotal > 0 {
		hitRate = float64(cacheHits) / float64(cacheTotal)
	}
	return RedirectStatsSnapshot{
		Total:        atomic.LoadInt64(&s.total),
		Success:      atomic.LoadInt64(&s.success),
		NotFound:     atomic.LoadInt64(&s.notFound),
		Expired:      atomic.LoadInt64(&s.expired),
		ServerError:  atomic.LoadInt64(&s.serverError),
		AvgLatencyMs: avgMs,
		CacheHitRate: hitRate,
	}
}

// redirectLatencyWarnThreshold is the target p99 redirect latency;
// lookups slower than this are logged.
const redirectLatencyWarnThreshold = 50 * time.Millisecond

// RedirectOutcome is the resolved result handed to the HTTP layer.
type RedirectOutcome struct {
	LongURL string
	Status  RedirectStatus
	Mapping *domain.URLMapping
}

type RedirectStatus int

const (
	StatusRedirect RedirectStatus = iota
	StatusNotFound
	StatusExpired
)

// RedirectService implements handleRedirect.
type RedirectService struct {
	cache     *cache.MultiLayerCache
	store     *store.URLStore
	publisher analytics.Publisher
	stats     RedirectStats
}

func NewRedirectService(c *cache.MultiLayerCache, s *store.URLStore, pub analytics.Publisher) *RedirectService {
	return &RedirectService{cache: c, store: s, publisher: pub}
}

// HandleRedirect validates the code shape, resolves it through the
// cache chain, and records outcome stats. The caller is responsible for
// writing the HTTP response, then invoking AfterResponse for the
// fire-and-forget follow-up tasks.
func (s *RedirectService) HandleRedirect(ctx context.Context, shortCode string, reqMeta ClickMetadata) (RedirectOutcome, error) {
	start := time.Now()
	outcome, err := s.resolve(ctx, shortCode)
	elapsed := time.Since(start)
	if elapsed > redirectLatencyWarnThreshold {
		log.Printf("redirect: slow lookup for %q took %s", shortCode, elapsed)
	}

	outcomeLabel := "success"
	switch {
	case err != nil:
		s.stats.record("serverError", elapsed)
		outcomeLabel = "serverError"
	case outcome.Status == StatusNotFound:
		s.stats.record("notFound", elapsed)
		outcomeLabel = "notFound"
	case outcome.Status == StatusExpired:
		s.stats.record("expired", elapsed)
		outcomeLabel = "expired"
	default:
		s.stats.record("success", elapsed)
	}
	metrics.RedirectOutcomesTotal.WithLabelValues(outcomeLabel).Inc()
	return outcome, err
}

func (s *RedirectService) resolve(ctx context.Context, shortCode string) (RedirectOutcome, error) {
	if !shortCodeShape.MatchString(shortCode) {
		return RedirectOutcome{}, apperr.InvalidShortCode("short code does not match the required shape")
	}

	result := s.cache.Lookup(ctx, shortCode)
	now := time.Now().UTC()

	if result.Entry == nil || result.Entry.IsTombstone() {
		if result.Entry != nil && result.Entry.Tombstone == domain.TombstoneExpired {
			return RedirectOutcome{Status: StatusExpired}, nil
		}
		return RedirectOutcome{Status: StatusNotFound}, nil
	}

	mapping := result.Entry.Mapping
	if mapping == nil {
		return RedirectOutcome{Status: StatusNotFound}, nil
	}

	if mapping.Expired(now) {
		s.cache.MarkExpired(ctx, shortCode, 7*24*time.Hour)
		return RedirectOutcome{Status: StatusExpired}, nil
	}

	return RedirectOutcome{LongURL: mapping.LongURL, Status: StatusRedirect, Mapping: mapping}, nil
}

// ClickMetadata is the request context fed into the analytics event.
type ClickMetadata struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// AfterResponse runs the fire-and-forget access-count update and
// analytics publish, invoked only after the HTTP response has been
// written.
func (s *RedirectService) AfterResponse(shortCode string, meta ClickMetadata) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.store.TouchAccess(ctx, shortCode); err != nil {
			log.Printf("redirect: touch access failed for %q: %v", shortCode, err)
		}
	}()

	if s.publisher == nil {
		return
	}
	event := &domain.AnalyticsEvent{
		ShortCode: shortCode,
		ClickedAt: time.Now().UTC(),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}
	s.publisher.PublishClickEvent(event)
}

// Stats returns a point-in-time snapshot of the redirect counters.
func (s *RedirectService) Stats(cacheHits, cacheTotal int64) RedirectStatsSnapshot {
	return s.stats.Snapshot(cacheHits, cacheTotal)
}
