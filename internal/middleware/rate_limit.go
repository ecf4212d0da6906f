package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
)

// RateLimiter is a token-bucket limiter keyed by client, used to slow down
// credential guessing on the login route.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   float64
	window  time.Duration
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter allows limit requests per window for each key, refilled
// continuously. Idle buckets are dropped in the background.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   float64(limit),
		window:  window,
	}
	go rl.cleanupLoop()
	return rl
}

// Allow consumes a token for key, reporting whether the request may
// proceed and how many tokens remain.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.limit, lastRefill: now}
		rl.buckets[key] = b
	}

	refillRate := rl.limit / rl.window.Seconds()
	b.tokens += now.Sub(b.lastRefill).Seconds() * refillRate
	if b.tokens > rl.limit {
		b.tokens = rl.limit
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false, 0
	}
	b.tokens--
	return true, int(b.tokens)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-2 * rl.window)
		rl.mu.Lock()
		for key, b := range rl.buckets {
			if b.lastRefill.Before(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Limit applies the limiter per client IP.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining := rl.Allow(c.ClientIP())
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			apierrors.Send(c, apierrors.CodeRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
