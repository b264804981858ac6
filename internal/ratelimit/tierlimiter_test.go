package ratelimit

import (
	"context"
	"testing"
	"time"
)

type fakeHashCache struct {
	hashes map[string]map[string]string
	ttl    map[string]time.Duration
}

func newFakeHashCache() *fakeHashCache {
	return &fakeHashCache{hashes: map[string]map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeHashCache) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (f *fakeHashCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return nil
}
func (f *fakeHashCache) Delete(ctx context.Context, key string) error         { return nil }
func (f *fakeHashCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }
func (f *fakeHashCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (f *fakeHashCache) GetJSON(ctx context.Context, key string, dest interface{}) error { return nil }

func (f *fakeHashCache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, ok := f.hashes[key]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out, nil
}

func (f *fakeHashCache) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	fields, ok := f.hashes[key]
	if !ok {
		fields = map[string]string{}
		f.hashes[key] = fields
	}
	for k, v := range values {
		fields[k] = v.(string)
	}
	return nil
}

func (f *fakeHashCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	f.ttl[key] = ttl
	return nil
}

func TestLimiterConsumeWithinBudget(t *testing.T) {
	c := newFakeHashCache()
	limits := map[Tier]TierLimits{TierAnonymous: {Window: time.Minute, Max: 2}}
	l := NewLimiter(c, limits)

	first := l.Consume(context.Background(), "caller-1", TierAnonymous)
	if !first.Allowed || first.Remaining != 1 {
		t.Fatalf("expected first request allowed with 1 remaining, got %+v", first)
	}

	second := l.Consume(context.Background(), "caller-1", TierAnonymous)
	if !second.Allowed || second.Remaining != 0 {
		t.Fatalf("expected second request allowed with 0 remaining, got %+v", second)
	}
}

func TestLimiterConsumeExhausted(t *testing.T) {
	c := newFakeHashCache()
	limits := map[Tier]TierLimits{TierStrict: {Window: time.Minute, Max: 1}}
	l := NewLimiter(c, limits)

	if d := l.Consume(context.Background(), "caller-2", TierStrict); !d.Allowed {
		t.Fatalf("expected first request allowed, got %+v", d)
	}
	third := l.Consume(context.Background(), "caller-2", TierStrict)
	if third.Allowed {
		t.Fatalf("expected request denied once budget exhausted, got %+v", third)
	}
	if third.RetryAfter <= 0 {
		t.Fatalf("expected positive retry-after on denial, got %v", third.RetryAfter)
	}
}

func TestLimiterKeysAreIsolated(t *testing.T) {
	c := newFakeHashCache()
	limits := map[Tier]TierLimits{TierStandard: {Window: time.Minute, Max: 1}}
	l := NewLimiter(c, limits)

	l.Consume(context.Background(), "caller-a", TierStandard)
	d := l.Consume(context.Background(), "caller-b", TierStandard)
	if !d.Allowed {
		t.Fatalf("expected a distinct caller key to have its own budget, got %+v", d)
	}
}

func TestLimiterUnknownTierFallsBackToAnonymous(t *testing.T) {
	c := newFakeHashCache()
	l := NewLimiter(c, DefaultTiers())

	d := l.Consume(context.Background(), "caller-c", Tier("bogus"))
	if d.Limit != DefaultTiers()[TierAnonymous].Max {
		t.Fatalf("expected unknown tier to fall back to anonymous limit, got %+v", d)
	}
}

func TestLimiterFailsOpenWithoutCache(t *testing.T) {
	l := NewLimiter(nil, DefaultTiers())
	d := l.Consume(context.Background(), "caller-d", TierAnonymous)
	if !d.Allowed {
		t.Fatal("expected limiter with no cache backing to fail open")
	}
}
