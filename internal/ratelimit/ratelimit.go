// Package ratelimit caps how often a user can hit the chat endpoint using a
// sliding window of request timestamps.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultLimit  = 10
	DefaultWindow = 60 * time.Second
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter records a request for key and reports whether it fits the window.
// Rejected requests are not recorded.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
