package idgen

import (
	"context"
	"sync"
	"testing"

	"urlshort/internal/base62"
)

type fakeCounterStore struct {
	mu   sync.Mutex
	next int64
	fail bool
}

func (s *fakeCounterStore) ReserveRange(ctx context.Context, name string, batch int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errDown
	}
	start := s.next
	s.next += batch
	return start, nil
}

var errDown = &storeDownErr{}

type storeDownErr struct{}

func (e *storeDownErr) Error() string { return "store down" }

type fakeChecker struct {
	taken map[string]bool
}

func (c *fakeChecker) Exists(ctx context.Context, code string) (bool, error) {
	return c.taken[code], nil
}

func TestFacadeCounterMonotonic(t *testing.T) {
	store := &fakeCounterStore{next: 1}
	alloc := NewCounterAllocator(store, AllocatorConfig{CounterName: "c", BatchSize: 10, MaxRetries: 3, BaseDelay: 0, MaxDelay: 0})
	f := NewFacade(alloc, nil, &fakeChecker{taken: map[string]bool{}})

	var last int64 = -1
	for i := 0; i < 25; i++ {
		code, method, _, err := f.Generate(context.Background(), GenerateOptions{MinLength: 7})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if method != MethodCounter {
			t.Fatalf("expected counter method, got %s", method)
		}
		n, err := base62.Decode(code)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if n <= last {
			t.Fatalf("expected monotonically increasing ids, got %d after %d", n, last)
		}
		last = n
	}
}

func TestFacadeFallsBackToHash(t *testing.T) {
	store := &fakeCounterStore{fail: true}
	alloc := NewCounterAllocator(store, AllocatorConfig{CounterName: "c", BatchSize: 10, MaxRetries: 1, BaseDelay: 0, MaxDelay: 0})
	hash := NewHashGenerator(&fakeChecker{taken: map[string]bool{}}, DefaultHashGeneratorConfig())
	f := NewFacade(alloc, hash, &fakeChecker{taken: map[string]bool{}})

	code, method, _, err := f.Generate(context.Background(), GenerateOptions{MinLength: 7})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if method != MethodHash {
		t.Fatalf("expected hash fallback, got %s", method)
	}
	if len(code) != 7 {
		t.Fatalf("expected length 7 code, got %q", code)
	}
}

func TestHashGeneratorRetriesOnCollision(t *testing.T) {
	checker := &fakeChecker{taken: map[string]bool{}}
	gen := NewHashGenerator(checker, HashGeneratorConfig{MaxRetries: 5})

	code1, _, err := gen.GenerateDeterministic(context.Background(), "https://example.com/a", 8)
	if err != nil {
		t.Fatalf("GenerateDeterministic failed: %v", err)
	}
	checker.taken[code1] = true

	code2, attempts, err := gen.GenerateDeterministic(context.Background(), "https://example.com/a", 8)
	if err != nil {
		t.Fatalf("GenerateDeterministic retry failed: %v", err)
	}
	if code2 == code1 {
		t.Fatal("expected retry to produce a different code on collision")
	}
	if attempts < 2 {
		t.Fatalf("expected at least 2 attempts, got %d", attempts)
	}
}
