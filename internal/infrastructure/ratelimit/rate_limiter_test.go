package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketExhaustsAndRefills(t *testing.T) {
	bucket := NewTokenBucket(2, 1, 40*time.Millisecond)

	allowed, _ := bucket.Allow()
	assert.True(t, allowed)
	allowed, _ = bucket.Allow()
	assert.True(t, allowed)

	allowed, wait := bucket.Allow()
	assert.False(t, allowed)
	assert.Greater(t, wait, time.Duration(0))

	time.Sleep(50 * time.Millisecond)
	allowed, _ = bucket.Allow()
	assert.True(t, allowed, "bucket must refill after the interval")
}

func TestTokenBucketCapsAtMax(t *testing.T) {
	bucket := NewTokenBucket(2, 1, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	// Long idle period must not accumulate beyond max.
	for i := 0; i < 2; i++ {
		allowed, _ := bucket.Allow()
		require.True(t, allowed)
	}
	allowed, _ := bucket.Allow()
	assert.False(t, allowed)
}

func TestRateLimiterIsolatesUsersAndActions(t *testing.T) {
	rl := NewRateLimiter()

	// Exhaust one user's send_message budget.
	for i := 0; i < 10; i++ {
		allowed, _ := rl.Allow("user-a", "send_message")
		require.True(t, allowed)
	}
	allowed, _ := rl.Allow("user-a", "send_message")
	assert.False(t, allowed)

	// Another user and another action are unaffected.
	allowed, _ = rl.Allow("user-b", "send_message")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("user-a", "typing")
	assert.True(t, allowed)
}

func TestCleanupDropsStaleBuckets(t *testing.T) {
	rl := NewRateLimiter()
	rl.Allow("user-a", "send_message")

	rl.mutex.Lock()
	for _, bucket := range rl.buckets {
		bucket.lastRefill = time.Now().Add(-2 * time.Hour)
	}
	rl.mutex.Unlock()

	rl.Cleanup()

	rl.mutex.RLock()
	defer rl.mutex.RUnlock()
	assert.Empty(t, rl.buckets)
}
