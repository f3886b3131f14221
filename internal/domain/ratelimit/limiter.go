// Package ratelimit — Task 3.2: per-user fixed-window call quota.
// Window boundaries are evaluated on the monotonic clock (time.Time values
// from time.Now carry a monotonic reading and Sub uses it), so wall-clock
// adjustments can never shrink or stretch a window.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration // how long until the window resets, zero when allowed
}

type windowState struct {
	start time.Time
	count int
}

// Limiter tracks one fixed window per user.
type Limiter struct {
	window   time.Duration
	maxCalls int

	mu     sync.Mutex
	byUser map[string]*windowState

	now func() time.Time // injectable clock for tests
}

// NewLimiter creates a Limiter allowing maxCalls per window per user.
func NewLimiter(window time.Duration, maxCalls int) *Limiter {
	return &Limiter{
		window:   window,
		maxCalls: maxCalls,
		byUser:   make(map[string]*windowState),
		now:      time.Now,
	}
}

// CheckAndConsume consumes one call from the user's quota if available.
// A rejected call consumes nothing and mutates nothing beyond the check
// itself; the decision carries the remaining window duration so the caller
// can tell the user when to retry.
func (l *Limiter) CheckAndConsume(userID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	st, ok := l.byUser[userID]
	if !ok || now.Sub(st.start) >= l.window {
		// new window
		l.byUser[userID] = &windowState{start: now, count: 1}
		return Decision{Allowed: true}
	}

	if st.count >= l.maxCalls {
		return Decision{Allowed: false, RetryAfter: l.window - now.Sub(st.start)}
	}
	st.count++
	return Decision{Allowed: true}
}
