package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"urlshort/internal/domain"
)

type fakeL2 struct {
	data map[string]string
	ttl  map[string]time.Duration
	hset map[string]map[string]interface{}
}

func newFakeL2() *fakeL2 {
	return &fakeL2{data: map[string]string{}, ttl: map[string]time.Duration{}, hset: map[string]map[string]interface{}{}}
}

func (f *fakeL2) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}
func (f *fakeL2) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	f.data[key] = value
	f.ttl[key] = expiration
	return nil
}
func (f *fakeL2) Delete(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}
func (f *fakeL2) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.data[key]
	return ok, nil
}
func (f *fakeL2) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return f.Set(ctx, key, string(b), expiration)
}
func (f *fakeL2) GetJSON(ctx context.Context, key string, dest interface{}) error {
	v, err := f.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(v), dest)
}
func (f *fakeL2) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return nil, nil
}
func (f *fakeL2) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.hset[key] = values
	return nil
}
func (f *fakeL2) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

type fakeStore struct {
	mappings map[string]*domain.URLMapping
	reads    int
}

func (s *fakeStore) FindByShortCode(ctx context.Context, shortCode string) (*domain.URLMapping, error) {
	s.reads++
	return s.mappings[shortCode], nil
}

func TestMultiLayerCacheWriteThroughThenMemoryHit(t *testing.T) {
	l1, _ := NewLRU(100)
	l2 := newFakeL2()
	store := &fakeStore{mappings: map[string]*domain.URLMapping{}}
	c := NewMultiLayerCache(l1, l2, store)

	mapping := &domain.URLMapping{ShortCode: "abc1234", LongURL: "https://example.com"}
	c.WriteThrough(context.Background(), mapping)

	result := c.Lookup(context.Background(), "abc1234")
	if result.Source != domain.SourceMemory {
		t.Fatalf("expected memory hit after write-through, got %s", result.Source)
	}
	if result.Entry.Mapping.LongURL != mapping.LongURL {
		t.Fatalf("unexpected mapping returned")
	}
}

func TestMultiLayerCacheNegativeCaching(t *testing.T) {
	l1, _ := NewLRU(100)
	l2 := newFakeL2()
	store := &fakeStore{mappings: map[string]*domain.URLMapping{}}
	c := NewMultiLayerCache(l1, l2, store)

	first := c.Lookup(context.Background(), "missing")
	if first.Source != domain.SourceNotFound {
		t.Fatalf("expected not_found on first lookup, got %s", first.Source)
	}
	if store.reads != 1 {
		t.Fatalf("expected exactly one store read, got %d", store.reads)
	}

	second := c.Lookup(context.Background(), "missing")
	if second.Source != domain.SourceRedis {
		t.Fatalf("expected tombstone hit from redis tier on second lookup, got %s", second.Source)
	}
	if store.reads != 1 {
		t.Fatalf("expected no additional store reads, got %d", store.reads)
	}
	if !second.Entry.IsTombstone() {
		t.Fatal("expected tombstone entry")
	}
}

func TestMultiLayerCacheInvalidate(t *testing.T) {
	l1, _ := NewLRU(100)
	l2 := newFakeL2()
	store := &fakeStore{mappings: map[string]*domain.URLMapping{}}
	c := NewMultiLayerCache(l1, l2, store)

	mapping := &domain.URLMapping{ShortCode: "xyz9999"}
	c.WriteThrough(context.Background(), mapping)
	c.Invalidate(context.Background(), "xyz9999")

	result := c.Lookup(context.Background(), "xyz9999")
	if result.Source == domain.SourceMemory || result.Source == domain.SourceRedis {
		t.Fatalf("expected invalidated entry to miss cache tiers, got %s", result.Source)
	}
}
