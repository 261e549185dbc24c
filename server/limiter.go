package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Limiter is a best-effort per-session request guardrail: a fixed window of
// allowed requests per key, with idle buckets expiring out of a ristretto
// TTL cache. Best-effort is the point: ristretto admits and evicts
// asymptotically, so a bucket can occasionally be dropped and a burst
// slip through. That is acceptable for a guardrail; the session store,
// not the limiter, owns correctness.
type Limiter struct {
	cache  *ristretto.Cache
	limit  int
	window time.Duration
}

type bucket struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
}

// NewLimiter allows perMinute requests per key per minute. perMinute <= 0
// disables limiting.
func NewLimiter(perMinute int) (*Limiter, error) {
	if perMinute <= 0 {
		return &Limiter{limit: 0}, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("limiter cache: %w", err)
	}
	return &Limiter{cache: cache, limit: perMinute, window: time.Minute}, nil
}

// Allow reports whether a request for the key fits in the current window.
func (l *Limiter) Allow(key string) bool {
	if l.limit <= 0 {
		return true
	}

	b := l.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.Sub(b.windowStart) >= l.window {
		b.windowStart = now
		b.count = 0
	}
	b.count++
	return b.count <= l.limit
}

func (l *Limiter) bucketFor(key string) *bucket {
	if v, ok := l.cache.Get(key); ok {
		if b, ok := v.(*bucket); ok {
			return b
		}
	}
	b := &bucket{windowStart: time.Now()}
	l.cache.SetWithTTL(key, b, 1, 2*l.window)
	// Sets are buffered; wait and re-read so concurrent misses converge on
	// one bucket instead of each counting against a private one.
	l.cache.Wait()
	if v, ok := l.cache.Get(key); ok {
		if existing, ok := v.(*bucket); ok {
			return existing
		}
	}
	return b
}
