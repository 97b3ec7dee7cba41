package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestLimiter(t *testing.T, limits map[Class]Limits) *FixedWindowLimiter {
	t.Helper()

	limiter := NewFixedWindowLimiter(limits, time.Hour)
	t.Cleanup(limiter.Stop)
	return limiter
}

func TestAllow(t *testing.T) {
	t.Run("CeilingBoundary", func(t *testing.T) {
		limiter := newTestLimiter(t, map[Class]Limits{
			ClassWebhook: {Window: time.Minute, Ceiling: 3},
		})

		for i := 0; i < 3; i++ {
			decision := limiter.Allow(ClassWebhook, "example.myshopify.com")
			assert.True(t, decision.Allowed, "request %d should be allowed", i+1)
			assert.Equal(t, 3, decision.Limit)
			assert.Equal(t, 3-i-1, decision.Remaining)
		}

		// The (N+1)-th call within the window is denied.
		decision := limiter.Allow(ClassWebhook, "example.myshopify.com")
		assert.False(t, decision.Allowed)
		assert.Equal(t, 0, decision.Remaining)
		assert.Greater(t, decision.RetryAfter, time.Duration(0))
		assert.LessOrEqual(t, decision.RetryAfter, time.Minute)
	})

	t.Run("WindowExpiryResetsCount", func(t *testing.T) {
		limiter := newTestLimiter(t, map[Class]Limits{
			ClassAuth: {Window: time.Minute, Ceiling: 1},
		})

		now := time.Now()
		limiter.now = func() time.Time { return now }

		assert.True(t, limiter.Allow(ClassAuth, "10.0.0.1").Allowed)
		assert.False(t, limiter.Allow(ClassAuth, "10.0.0.1").Allowed)

		// First call after the window elapses is allowed and resets to 1.
		now = now.Add(time.Minute + time.Second)
		decision := limiter.Allow(ClassAuth, "10.0.0.1")
		assert.True(t, decision.Allowed)
		assert.Equal(t, 0, decision.Remaining)
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		limiter := newTestLimiter(t, map[Class]Limits{
			ClassWebhook: {Window: time.Minute, Ceiling: 1},
		})

		assert.True(t, limiter.Allow(ClassWebhook, "shop-a.myshopify.com").Allowed)
		assert.False(t, limiter.Allow(ClassWebhook, "shop-a.myshopify.com").Allowed)
		assert.True(t, limiter.Allow(ClassWebhook, "shop-b.myshopify.com").Allowed)
	})

	t.Run("ClassesAreIndependent", func(t *testing.T) {
		limiter := newTestLimiter(t, map[Class]Limits{
			ClassAPI:  {Window: time.Minute, Ceiling: 10},
			ClassAuth: {Window: time.Minute, Ceiling: 1},
		})

		assert.True(t, limiter.Allow(ClassAuth, "10.0.0.1").Allowed)
		assert.False(t, limiter.Allow(ClassAuth, "10.0.0.1").Allowed)
		assert.True(t, limiter.Allow(ClassAPI, "10.0.0.1").Allowed)
	})

	t.Run("UnconfiguredClassFailsOpen", func(t *testing.T) {
		limiter := newTestLimiter(t, map[Class]Limits{})

		decision := limiter.Allow(ClassAPI, "10.0.0.1")
		assert.True(t, decision.Allowed)
	})

	t.Run("DenialDoesNotExtendWindow", func(t *testing.T) {
		limiter := newTestLimiter(t, map[Class]Limits{
			ClassWebhook: {Window: time.Minute, Ceiling: 1},
		})

		now := time.Now()
		limiter.now = func() time.Time { return now }

		first := limiter.Allow(ClassWebhook, "example.myshopify.com")
		require.True(t, first.Allowed)

		// A burst of denied requests must not move the reset time.
		for i := 0; i < 50; i++ {
			denied := limiter.Allow(ClassWebhook, "example.myshopify.com")
			assert.False(t, denied.Allowed)
			assert.Equal(t, first.ResetAt, denied.ResetAt)
		}
	})
}

func TestSweepBoundsMemory(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewFixedWindowLimiter(map[Class]Limits{
		ClassAPI: {Window: time.Minute, Ceiling: 100},
	}, time.Hour)
	defer limiter.Stop()

	now := time.Now()
	limiter.now = func() time.Time { return now }

	// k distinct keys each make one request.
	const k = 500
	for i := 0; i < k; i++ {
		limiter.Allow(ClassAPI, fmt.Sprintf("shop-%d.myshopify.com", i))
	}
	assert.Equal(t, k, limiter.Size())

	// After the windows expire and a sweep runs, the map returns to zero.
	now = now.Add(2 * time.Minute)
	limiter.evictExpired()
	assert.Equal(t, 0, limiter.Size())
}

func TestAllowRecountsAfterSweeperEviction(t *testing.T) {
	limiter := newTestLimiter(t, map[Class]Limits{
		ClassAPI: {Window: time.Minute, Ceiling: 5},
	})

	now := time.Now()
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.Allow(ClassAPI, "10.0.0.1").Allowed)

	val, ok := limiter.entries.Load("api|10.0.0.1")
	require.True(t, ok)
	orphan := val.(*entry)

	// A sweep can run between an Allow's map lookup and its lock
	// acquisition; the evicted mark keeps that Allow from counting against
	// the removed entry.
	now = now.Add(2 * time.Minute)
	limiter.evictExpired()

	orphan.mu.Lock()
	assert.True(t, orphan.evicted)
	orphan.mu.Unlock()

	decision := limiter.Allow(ClassAPI, "10.0.0.1")
	assert.True(t, decision.Allowed)
	assert.Equal(t, 4, decision.Remaining, "request must land on a fresh entry with count 1")

	val, ok = limiter.entries.Load("api|10.0.0.1")
	require.True(t, ok)
	assert.NotSame(t, orphan, val.(*entry))
}

func TestStopIsIdempotent(t *testing.T) {
	limiter := NewFixedWindowLimiter(map[Class]Limits{}, time.Minute)

	assert.NotPanics(t, func() {
		limiter.Stop()
		limiter.Stop()
	})
}
