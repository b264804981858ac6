package idgen

import (
	"context"
	"errors"

	"urlshort/internal/apperr"
	"urlshort/internal/base62"
)

// Method identifies which strategy produced a short code.
type Method string

const (
	MethodCounter Method = "counter"
	MethodHash    Method = "hash"
)

// Capability reports what the façade can currently offer, an
// observability hook
type Capability string

const (
	CapCounterOnly   Capability = "counter"
	CapHashFallback  Capability = "hash-fallback"
	CapBothAvailable Capability = "both-available"
	CapUnavailable   Capability = "unavailable"
)

// GenerateOptions configures a single Generate call.
type GenerateOptions struct {
	MinLength  int
	MaxRetries int
}

func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{MinLength: 7, MaxRetries: 5}
}

// Facade chooses between the counter allocator and the hash generator,
// falling back to hashing when the counter store is unavailable.
type Facade struct {
	counter *CounterAllocator
	hash    *HashGenerator
	checker ExistenceChecker
}

func NewFacade(counter *CounterAllocator, hash *HashGenerator, checker ExistenceChecker) *Facade {
	return &Facade{counter: counter, hash: hash, checker: checker}
}

// Generate tries the counter allocator first; on AllocatorUnavailable it
// falls back to the hash generator.
func (f *Facade) Generate(ctx context.Context, opts GenerateOptions) (string, Method, int, error) {
	if opts.MinLength <= 0 {
		opts.MinLength = 7
	}

	if f.counter != nil {
		counterID, err := f.counter.Next(ctx)
		if err == nil {
			code := base62.EncodeMinLen(counterID, opts.MinLength)
			// Defensive existence probe: counters are monotone and should
			// never collide, but historical divergence between the
			// counter and the store is checked for anyway.
			if f.checker != nil {
				exists, cerr := f.checker.Exists(ctx, code)
				if cerr == nil && exists {
					return f.hashFallback(ctx, opts, errors.New("counter-derived code already exists"))
				}
			}
			return code, MethodCounter, 1, nil
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Code == apperr.CodeAllocatorDown {
			return f.hashFallback(ctx, opts, err)
		}
		return "", "", 0, err
	}
	return f.hashFallback(ctx, opts, nil)
}

func (f *Facade) hashFallback(ctx context.Context, opts GenerateOptions, _ error) (string, Method, int, error) {
	if f.hash == nil {
		return "", "", 0, apperr.GenerationFailed(errors.New("no id generation strategy available"))
	}
	code, attempts, err := f.hash.GenerateRandom(ctx, opts.MinLength)
	if err != nil {
		return "", "", attempts, err
	}
	return code, MethodHash, attempts, nil
}

// Status reports the façade's current capability and remaining
// allocator headroom.
type Status struct {
	Capability         Capability
	AllocatorRemaining int64
}

func (f *Facade) GetStatus() Status {
	switch {
	case f.counter != nil && f.hash != nil:
		return Status{Capability: CapBothAvailable, AllocatorRemaining: f.counter.Remaining()}
	case f.counter != nil:
		return Status{Capability: CapCounterOnly, AllocatorRemaining: f.counter.Remaining()}
	case f.hash != nil:
		return Status{Capability: CapHashFallback}
	default:
		return Status{Capability: CapUnavailable}
	}
}
