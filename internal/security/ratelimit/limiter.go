// Package ratelimit is an in-process sliding-window limiter keyed by caller.
package ratelimit

import (
	"sync"
	"time"
)

// minIdle is the shortest time a bucket survives without traffic
const minIdle = 15 * time.Minute

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the oldest counted request leaves the window.
	// Zero when Allowed.
	RetryAfter time.Duration
}

// Limiter counts requests per key over a sliding window. Idle buckets are
// dropped by Sweep, which the cleanup worker calls.
type Limiter struct {
	maxReqs int
	window  time.Duration
	now     func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	hits     []time.Time
	window   time.Duration
	lastSeen time.Time
}

func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		maxReqs: maxRequests,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow records a request for key against the default limit. An empty key
// is never limited.
func (l *Limiter) Allow(key string) Decision {
	if key == "" {
		return Decision{Allowed: true, Remaining: l.maxReqs}
	}
	return l.take(key, l.maxReqs, l.window)
}

// AllowStrict applies a tighter limit in a separate bucket, used for the
// credential endpoints
func (l *Limiter) AllowStrict(identifier string, maxReqs int, window time.Duration) Decision {
	return l.take("strict:"+identifier, maxReqs, window)
}

func (l *Limiter) take(key string, maxReqs int, window time.Duration) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.buckets[key]
	if b == nil {
		b = &bucket{window: window}
		l.buckets[key] = b
	}
	b.lastSeen = now
	b.evict(now)

	if len(b.hits) >= maxReqs {
		return Decision{RetryAfter: b.hits[0].Add(window).Sub(now)}
	}
	b.hits = append(b.hits, now)
	return Decision{Allowed: true, Remaining: maxReqs - len(b.hits)}
}

// evict drops hits that have left the window; hits are in time order
func (b *bucket) evict(now time.Time) {
	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.hits) && !b.hits[i].After(cutoff) {
		i++
	}
	b.hits = append(b.hits[:0], b.hits[i:]...)
}

// Sweep removes buckets idle for longer than their window or minIdle,
// whichever is larger, and returns how many it removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > max(b.window, minIdle) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
