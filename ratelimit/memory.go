package ratelimit

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	count   int64
	resetAt time.Time
}

// MemoryLimiter keeps its windows in process memory. Counters are not shared
// between instances of the service.
type MemoryLimiter struct {
	mu        sync.Mutex
	counters  map[string]*counter // map[clientKey]window
	limit     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*counter),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow counts a request for key, opening a new window when the previous one
// has expired.
func (ml *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	ml.sweep(now)

	c, exists := ml.counters[key]
	if !exists || !now.Before(c.resetAt) {
		c = &counter{resetAt: now.Add(ml.window)}
		ml.counters[key] = c
	}
	c.count++

	return newResult(c.count, ml.limit, c.resetAt.Sub(now)), nil
}

// sweep drops expired windows at most once per window length.
func (ml *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(ml.lastSweep) < ml.window {
		return
	}
	for key, c := range ml.counters {
		if !now.Before(c.resetAt) {
			delete(ml.counters, key)
		}
	}
	ml.lastSweep = now
}

// Size returns the number of tracked keys.
func (ml *MemoryLimiter) Size() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return len(ml.counters)
}
