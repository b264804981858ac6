package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"urlshort/internal/apperr"
	"urlshort/internal/ratelimit"
)

// localGuard is a cheap in-process first-line admission check: one
// rate.Limiter per key, with the same rate and burst for every tier, so a
// burst from a single key is rejected before the Redis round-trip. It can
// reject a request that the Redis-backed ratelimit.Limiter would have
// allowed when a key's tier permits more than the guard's burst.
type localGuard struct {
	mu       sync.Mutex
	visitors map[string]*localVisitor
	rps      rate.Limit
	burst    int
}

type localVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalGuard(rps rate.Limit, burst int) *localGuard {
	g := &localGuard{visitors: make(map[string]*localVisitor), rps: rps, burst: burst}
	go g.cleanupVisitors()
	return g
}

func (g *localGuard) allow(key string) bool {
	g.mu.Lock()
	v, exists := g.visitors[key]
	if !exists {
		v = &localVisitor{limiter: rate.NewLimiter(g.rps, g.burst)}
		g.visitors[key] = v
	}
	v.lastSeen = time.Now()
	limiter := v.limiter
	g.mu.Unlock()
	return limiter.Allow()
}

func (g *localGuard) cleanupVisitors() {
	for {
		time.Sleep(5 * time.Minute)
		g.mu.Lock()
		for key, v := range g.visitors {
			if time.Since(v.lastSeen) > 10*time.Minute {
				delete(g.visitors, key)
			}
		}
		g.mu.Unlock()
	}
}

// RateLimitMiddleware enforces the distributed token-bucket limiter and
// attaches the X-RateLimit-* headers to every response that reaches the
// distributed limiter. A request rejected by the local guard gets only
// Retry-After, without the X-RateLimit-* headers.
type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	guard   *localGuard
	tierOf  func(c *gin.Context) ratelimit.Tier
}

// NewRateLimitMiddleware wires a distributed limiter with a local guard
// that allows 500 requests per second with a burst of 1000 per key.
func NewRateLimitMiddleware(limiter *ratelimit.Limiter, tierOf func(c *gin.Context) ratelimit.Tier) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		guard:   newLocalGuard(rate.Limit(500), 1000),
		tierOf:  tierOf,
	}
}

func (m *RateLimitMiddleware) key(c *gin.Context) string {
	if uid, ok := c.Get(ContextKeyUserID); ok {
		if s, ok := uid.(string); ok && s != "" {
			return "user:" + s
		}
	}
	return "ip:" + GetIP(c)
}

func (m *RateLimitMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := m.key(c)
		if !m.guard.allow(key) {
			respondRateLimited(c, ratelimit.Decision{RetryAfter: time.Second})
			return
		}

		tier := ratelimit.TierAnonymous
		if m.tierOf != nil {
			tier = m.tierOf(c)
		}
		decision := m.limiter.Consume(c.Request.Context(), key, tier)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", decision.ResetAt.Unix()))

		if !decision.Allowed {
			respondRateLimited(c, decision)
			return
		}
		c.Next()
	}
}

func respondRateLimited(c *gin.Context, decision ratelimit.Decision) {
	retryAfter := decision.RetryAfter
	if retryAfter <= 0 {
		retryAfter = time.Second
	}
	c.Header("Retry-After", fmt.Sprintf("%d", int64(retryAfter.Seconds())))
	appErr := apperr.RateLimitExceeded(int64(retryAfter.Seconds()))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":   appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	})
	c.Abort()
}

// GetIP extracts the client IP from the request, preferring
// X-Forwarded-For, then X-Real-IP, then the socket's remote address.
func GetIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}
