package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := &RateLimiter{requests: map[string][]time.Time{}, limit: 2, window: time.Minute, now: func() time.Time { return now }}

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u2"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("u1"))
}

func TestRateLimiterEvict(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := &RateLimiter{requests: map[string][]time.Time{}, limit: 5, window: time.Minute, now: func() time.Time { return now }}
	rl.Allow("old")
	now = now.Add(30 * time.Second)
	rl.Allow("new")
	now = now.Add(45 * time.Second)

	rl.evict()
	assert.NotContains(t, rl.requests, "old")
	assert.Contains(t, rl.requests, "new")
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	rl.Stop()
	rl.Stop()
}
