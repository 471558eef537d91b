package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Local limiter defaults.
const (
	// DefaultClientTTL is how long an idle key keeps its bucket.
	DefaultClientTTL = 10 * time.Minute

	// cleanupInterval bounds how often idle buckets are swept.
	cleanupInterval = time.Minute
)

// clientEntry holds a rate limiter and its last access time for TTL-based cleanup.
type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LocalLimiter keeps one token bucket per key in process memory.
type LocalLimiter struct {
	rps   int
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu          sync.Mutex
	clients     map[string]*clientEntry
	lastCleanup time.Time
}

// LocalOption configures a LocalLimiter.
type LocalOption func(*LocalLimiter)

// WithClientTTL sets how long idle keys are retained.
func WithClientTTL(ttl time.Duration) LocalOption {
	return func(l *LocalLimiter) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// withClock overrides the time source.
func withClock(now func() time.Time) LocalOption {
	return func(l *LocalLimiter) {
		l.now = now
	}
}

// NewLocalLimiter creates a limiter allowing rps requests per second with
// the given burst for every key.
func NewLocalLimiter(rps, burst int, opts ...LocalOption) *LocalLimiter {
	if burst <= 0 {
		burst = 1
	}
	l := &LocalLimiter{
		rps:     rps,
		burst:   burst,
		ttl:     DefaultClientTTL,
		now:     time.Now,
		clients: make(map[string]*clientEntry),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastCleanup = l.now()
	return l
}

// Allow implements Limiter.
func (l *LocalLimiter) Allow(_ context.Context, key string) (*Result, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastCleanup) >= cleanupInterval {
		l.cleanupLocked(now)
	}
	entry, exists := l.clients[key]
	if !exists {
		entry = &clientEntry{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.clients[key] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	l.mu.Unlock()

	res := &Result{Limit: l.burst}

	reservation := limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return res, nil
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		res.RetryAfter = delay
		return res, nil
	}

	res.Allowed = true
	res.Remaining = int(math.Max(0, math.Floor(limiter.TokensAt(now))))
	return res, nil
}

// Len returns the number of tracked keys.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// cleanupLocked drops idle keys. Must be called with mu held.
func (l *LocalLimiter) cleanupLocked(now time.Time) {
	for key, entry := range l.clients {
		if now.Sub(entry.lastAccess) > l.ttl {
			delete(l.clients, key)
		}
	}
	l.lastCleanup = now
}
