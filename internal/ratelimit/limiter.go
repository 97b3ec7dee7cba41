// Package ratelimit implements fixed-window request counting keyed by client
// identity (shop domain or IP), with independent window/ceiling pairs per
// endpoint class.
//
// The limiter is an explicitly constructed service passed to middleware, not a
// module-level singleton, so tests can build isolated instances and a future
// multi-instance deployment can substitute a shared-store implementation
// behind the same Allow contract. Rate limits are enforced per process
// instance; this is a documented scalability limit, not a bug.
package ratelimit

import (
	"sync"
	"time"
)

// Class identifies an endpoint class with its own window/ceiling pair.
type Class string

// Endpoint classes with independently configured limits.
const (
	ClassAPI     Class = "api"
	ClassAuth    Class = "auth"
	ClassWebhook Class = "webhook"
)

// Limits holds the fixed-window parameters for one class.
type Limits struct {
	// Window is the duration of one counting window.
	Window time.Duration
	// Ceiling is the maximum number of requests per key per window.
	Ceiling int
}

// Decision is the outcome of one Allow call, carrying everything the HTTP
// layer needs for X-RateLimit-* and Retry-After headers.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Limit is the ceiling for the key's class.
	Limit int
	// Remaining is how many requests are left in the current window.
	Remaining int
	// ResetAt is when the current window expires.
	ResetAt time.Time
	// RetryAfter is how long a denied caller should wait (ResetAt - now).
	RetryAfter time.Duration
}

// Limiter is the rate limiting contract. A shared-store implementation (e.g.
// a remote cache with atomic increment-and-expire) can replace the in-memory
// one without changing call sites.
type Limiter interface {
	// Allow counts one request from key within its class window.
	Allow(class Class, key string) Decision
	// Size reports the number of live entries (for tests and metrics).
	Size() int
	// Stop terminates the background sweeper.
	Stop()
}

// entry tracks one key's count within the current window. evicted is set
// under mu by the sweeper just before the entry leaves the map; an entry with
// evicted set never re-enters the map.
type entry struct {
	mu            sync.Mutex
	count         int
	windowResetAt time.Time
	evicted       bool
}

// FixedWindowLimiter implements Limiter with per-key fixed windows held in a
// sync.Map. Expired entries are reset lazily on access and evicted by a
// periodic sweep so memory stays bounded by the number of currently active
// keys, not all keys ever seen.
type FixedWindowLimiter struct {
	limits   map[Class]Limits
	entries  sync.Map // map[string]*entry, keyed "<class>|<key>"
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewFixedWindowLimiter creates a limiter with the given per-class limits and
// starts the eviction sweeper. Call Stop during shutdown.
func NewFixedWindowLimiter(limits map[Class]Limits, sweepInterval time.Duration) *FixedWindowLimiter {
	l := &FixedWindowLimiter{
		limits: limits,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	go l.sweep(sweepInterval)

	return l
}

// Allow counts one request from key within its class window.
//
// If no entry exists or the window has expired, the entry is reset with
// count=1 and allowed. Otherwise the count is incremented; once it would
// exceed the ceiling the request is denied without incrementing further, so
// a flood does not extend its own penalty.
func (l *FixedWindowLimiter) Allow(class Class, key string) Decision {
	limits, ok := l.limits[class]
	if !ok || limits.Ceiling <= 0 {
		// Unconfigured class: fail open. Verification still guards webhooks.
		return Decision{Allowed: true, Limit: 0, Remaining: 0}
	}

	now := l.now()
	mapKey := string(class) + "|" + key

	for {
		val, _ := l.entries.LoadOrStore(mapKey, &entry{})

		if decision, ok := l.tally(val.(*entry), limits, now); ok {
			return decision
		}
		// The sweeper evicted the entry between the map lookup and the lock;
		// counting against the orphan would lose this request.
	}
}

// tally counts one request against e under its lock. Reports false when e was
// evicted from the map, in which case the caller retries on a live entry.
func (l *FixedWindowLimiter) tally(e *entry, limits Limits, now time.Time) (Decision, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.evicted {
		return Decision{}, false
	}

	if e.count == 0 || now.After(e.windowResetAt) {
		// New window: reset in place (lazy eviction of the stale count).
		e.count = 1
		e.windowResetAt = now.Add(limits.Window)
		return Decision{
			Allowed:   true,
			Limit:     limits.Ceiling,
			Remaining: limits.Ceiling - 1,
			ResetAt:   e.windowResetAt,
		}, true
	}

	if e.count >= limits.Ceiling {
		return Decision{
			Allowed:    false,
			Limit:      limits.Ceiling,
			Remaining:  0,
			ResetAt:    e.windowResetAt,
			RetryAfter: e.windowResetAt.Sub(now),
		}, true
	}

	e.count++
	return Decision{
		Allowed:   true,
		Limit:     limits.Ceiling,
		Remaining: limits.Ceiling - e.count,
		ResetAt:   e.windowResetAt,
	}, true
}

// Size reports the number of live entries.
func (l *FixedWindowLimiter) Size() int {
	size := 0
	l.entries.Range(func(_, _ any) bool {
		size++
		return true
	})
	return size
}

// Stop terminates the background sweeper. Safe to call more than once.
func (l *FixedWindowLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
}

// sweep periodically deletes entries whose window has passed.
func (l *FixedWindowLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.evictExpired()
		}
	}
}

// evictExpired removes every entry whose window reset time has passed. The
// evicted mark and the map delete happen under the entry lock, so an Allow
// that already loaded the entry observes the mark and retries instead of
// incrementing an orphan.
func (l *FixedWindowLimiter) evictExpired() {
	now := l.now()
	l.entries.Range(func(key, value any) bool {
		e := value.(*entry)
		e.mu.Lock()
		if now.After(e.windowResetAt) {
			e.evicted = true
			l.entries.Delete(key)
		}
		e.mu.Unlock()
		return true
	})
}
