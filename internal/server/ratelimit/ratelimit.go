// Package ratelimit implements sliding-window request throttling keyed by an
// arbitrary identifier, typically "action_clientIP". State lives in process
// memory; there is no background sweep, stale entries are pruned lazily on
// each check.
package ratelimit

import (
	"sync"
	"time"
)

// Defaults match the login/register throttle: 5 attempts per 60 seconds.
const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 60 * time.Second
)

// Limiter is a sliding-window counter. Safe for concurrent use: a single
// mutex guards the attempt map so parallel requests neither lose attempts
// nor race past the threshold.
type Limiter struct {
	maxAttempts int
	window      time.Duration

	mu       sync.Mutex
	attempts map[string][]time.Time

	now func() time.Time
}

// New constructs a Limiter. Non-positive arguments fall back to the defaults.
func New(maxAttempts int, window time.Duration) *Limiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		maxAttempts: maxAttempts,
		window:      window,
		attempts:    make(map[string][]time.Time),
		now:         time.Now,
	}
}

// IsAllowed checks whether another attempt is permitted for key. When the
// pruned in-window count has reached the limit it returns false and the
// number of seconds until the oldest attempt falls out of the window, never
// less than 1. Otherwise the attempt is recorded and allowed.
func (l *Limiter) IsAllowed(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.attempts[key][:0]
	for _, ts := range l.attempts[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.maxAttempts {
		l.attempts[key] = kept
		wait := int(kept[0].Add(l.window).Sub(now).Seconds())
		if wait < 1 {
			wait = 1
		}
		return false, wait
	}

	l.attempts[key] = append(kept, now)
	return true, 0
}

// Reset clears all recorded attempts for key. The engine does not call this
// after successful logins; callers that want success-resets must do so
// explicitly.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}
