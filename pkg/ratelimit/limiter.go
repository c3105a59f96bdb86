// Package ratelimit holds the per-actor token buckets used by the HTTP layer.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Policy defines a bucket: RPM is the refill rate in requests per minute and
// Burst the bucket capacity.
type Policy struct {
	RPM   int
	Burst int
}

// PolicyFromRPS converts a per-second rate into a Policy.
func PolicyFromRPS(rps float64, burst int) Policy {
	rpm := int(rps * 60)
	if rpm < 1 {
		rpm = 1
	}
	if burst < 1 {
		burst = 1
	}
	return Policy{RPM: rpm, Burst: burst}
}

// RetryAfter is the number of seconds a denied client should wait.
func (p Policy) RetryAfter() int {
	if p.RPM <= 0 {
		return 60
	}
	secs := 60 / p.RPM
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (p Policy) ratePerSecond() float64 {
	rate := float64(p.RPM) / 60.0
	if rate <= 0 {
		rate = 1
	}
	return rate
}

// Store abstracts where buckets live.
type Store interface {
	// Allow consumes cost tokens from the actor's bucket and reports whether
	// the request may proceed.
	Allow(ctx context.Context, actorID string, policy Policy, cost int) (bool, error)
}

// TokenBucket is a thread-safe token bucket.
type TokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
}

func NewTokenBucket(ratePerSec float64, capacity int) *TokenBucket {
	return newTokenBucket(ratePerSec, capacity, time.Now)
}

func newTokenBucket(ratePerSec float64, capacity int, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     float64(capacity),
		capacity:   float64(capacity),
		refillRate: ratePerSec,
		lastRefill: now(),
		now:        now,
	}
}

func (tb *TokenBucket) Allow(cost int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	if tb.tokens >= float64(cost) {
		tb.tokens -= float64(cost)
		return true
	}
	return false
}

// MemoryStore keeps buckets in process. Suitable for single-instance and
// lite deployments.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*TokenBucket
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*TokenBucket),
		now:     time.Now,
	}
}

func (s *MemoryStore) Allow(_ context.Context, actorID string, policy Policy, cost int) (bool, error) {
	s.mu.Lock()
	tb, exists := s.buckets[actorID]
	if !exists {
		tb = newTokenBucket(policy.ratePerSecond(), policy.Burst, s.now)
		s.buckets[actorID] = tb
	}
	s.mu.Unlock()

	return tb.Allow(cost), nil
}
