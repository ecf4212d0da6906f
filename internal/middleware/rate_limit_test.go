package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("10.0.0.1")
		assert.True(t, ok, "request %d should pass", i+1)
	}

	ok, remaining := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)

	// Another client has its own bucket.
	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok)
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(2, 100*time.Millisecond)

	rl.Allow("k")
	rl.Allow("k")
	ok, _ := rl.Allow("k")
	assert.False(t, ok)

	time.Sleep(120 * time.Millisecond)
	ok, _ = rl.Allow("k")
	assert.True(t, ok)
}
