// Package ratelimit implements per-key tiered token-bucket admission
// control, with bucket state persisted as hash fields in the
// distributed cache so limits are shared across process instances.
package ratelimit

import (
	"context"
	"log"
	"math"
	"strconv"
	"time"

	"urlshort/internal/cache"
)

// Tier is a rate-limit class.
type Tier string

const (
	TierAnonymous  Tier = "anonymous"
	TierStandard   Tier = "standard"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
	TierStrict     Tier = "strict"
)

// TierLimits is the {window, max} pair for a tier.
type TierLimits struct {
	Window time.Duration
	Max    int64
}

// DefaultTiers are the standard tier definitions.
func DefaultTiers() map[Tier]TierLimits {
	const window = 60 * time.Second
	return map[Tier]TierLimits{
		TierAnonymous:  {Window: window, Max: 100},
		TierStandard:   {Window: window, Max: 1000},
		TierPremium:    {Window: window, Max: 5000},
		TierEnterprise: {Window: window, Max: 20000},
		TierStrict:     {Window: window, Max: 10},
	}
}

// Decision is the outcome of a Consume call.
type Decision struct {
	Allowed    bool
	Remaining  int64
	Limit      int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter implements the Redis-hash-backed token bucket.
type Limiter struct {
	cache cache.DistributedCache
	tiers map[Tier]TierLimits
}

func NewLimiter(c cache.DistributedCache, tiers map[Tier]TierLimits) *Limiter {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	return &Limiter{cache: c, tiers: tiers}
}

func bucketKey(key string) string { return "ratelimit:" + key }

// Consume attempts to take one token from key's bucket at tier. On
// distributed-cache error it fails open (allows the request) and logs.
func (l *Limiter) Consume(ctx context.Context, key string, tier Tier) Decision {
	limits, ok := l.tiers[tier]
	if !ok {
		limits = l.tiers[TierAnonymous]
	}
	if l.cache == nil {
		return Decision{Allowed: true, Remaining: limits.Max, Limit: limits.Max, ResetAt: time.Now().Add(limits.Window)}
	}

	now := time.Now()
	hkey := bucketKey(key)

	fields, err := l.cache.HGetAll(ctx, hkey)
	if err != nil {
		log.Printf("ratelimit: cache read failed for %q, failing open: %v", key, err)
		return Decision{Allowed: true, Remaining: limits.Max, Limit: limits.Max, ResetAt: now.Add(limits.Window)}
	}

	var tokens float64
	var lastRefill time.Time
	var resetTime time.Time

	if len(fields) == 0 {
		tokens = float64(limits.Max)
		lastRefill = now
		resetTime = now.Add(limits.Window)
	} else {
		tokens = parseFloat(fields["tokens"], float64(limits.Max))
		lastRefill = parseUnix(fields["lastRefill"], now)
		resetTime = parseUnix(fields["resetTime"], now.Add(limits.Window))

		if !now.Before(resetTime) {
			tokens = float64(limits.Max)
			lastRefill = now
			resetTime = now.Add(limits.Window)
		} else {
			elapsed := now.Sub(lastRefill)
			refill := elapsed.Seconds() / limits.Window.Seconds() * float64(limits.Max)
			tokens = math.Min(float64(limits.Max), tokens+refill)
			lastRefill = now
		}
	}

	allowed := tokens >= 1
	var retryAfter time.Duration
	if allowed {
		tokens--
	} else {
		retryAfter = time.Duration(math.Ceil(resetTime.Sub(now).Seconds())) * time.Second
	}

	persisted := map[string]interface{}{
		"tokens":     strconv.FormatFloat(tokens, 'f', -1, 64),
		"lastRefill": strconv.FormatInt(lastRefill.Unix(), 10),
		"resetTime":  strconv.FormatInt(resetTime.Unix(), 10),
	}
	if err := l.cache.HSet(ctx, hkey, persisted); err != nil {
		log.Printf("ratelimit: cache write failed for %q: %v", key, err)
	} else if err := l.cache.Expire(ctx, hkey, limits.Window); err != nil {
		log.Printf("ratelimit: cache expire failed for %q: %v", key, err)
	}

	return Decision{
		Allowed:    allowed,
		Remaining:  int64(tokens),
		Limit:      limits.Max,
		ResetAt:    resetTime,
		RetryAfter: retryAfter,
	}
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func parseUnix(s string, def time.Time) time.Time {
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return time.Unix(v, 0)
}
