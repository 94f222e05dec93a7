// Package ratelimit counts requests per client key in fixed windows.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the state of a key's window after counting one request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetIn is the time left until the current window closes.
	ResetIn time.Duration
}

// Limiter counts one request for key. An error means the store could not be
// consulted; the returned Result is then an allowing one so callers can fail
// open.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func newResult(count int64, limit int, resetIn time.Duration) Result {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	if resetIn < 0 {
		resetIn = 0
	}
	return Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetIn:   resetIn,
	}
}
