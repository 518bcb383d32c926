// Package ratelimit holds token buckets keyed by an arbitrary identity such
// as a normalized email address.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepEvery = time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// KeyedLimiter allows `burst` events per key and refills them evenly over
// `window`. Idle keys are dropped after ttl.
type KeyedLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// New returns nil when burst is not positive; a nil limiter allows
// everything.
func New(burst int, window time.Duration) *KeyedLimiter {
	if burst <= 0 || window <= 0 {
		return nil
	}
	return &KeyedLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(window / time.Duration(burst)),
		burst:   burst,
		ttl:     2 * window,
		now:     time.Now,
	}
}

func (l *KeyedLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= sweepEvery {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Len reports how many keys are currently tracked.
func (l *KeyedLimiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *KeyedLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.ttl {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}
