package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fixedClock lets tests move time forward deterministically.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(maxAttempts int, window time.Duration) (*Limiter, *fixedClock) {
	clock := &fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := New(maxAttempts, window)
	l.now = clock.Now
	return l, clock
}

func TestIsAllowed_RejectsSixthAttempt(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		ok, _ := l.IsAllowed("login_1.2.3.4")
		if !ok {
			t.Fatalf("attempt %d unexpectedly rejected", i+1)
		}
	}

	ok, wait := l.IsAllowed("login_1.2.3.4")
	if ok {
		t.Fatalf("sixth attempt unexpectedly allowed")
	}
	if wait < 1 {
		t.Fatalf("retry-after must be >= 1, got %d", wait)
	}
}

func TestIsAllowed_WindowElapses(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		l.IsAllowed("k")
	}
	if ok, _ := l.IsAllowed("k"); ok {
		t.Fatalf("expected rejection at the limit")
	}

	clock.Advance(61 * time.Second)

	if ok, _ := l.IsAllowed("k"); !ok {
		t.Fatalf("expected attempt to be allowed after the window elapsed")
	}
}

func TestIsAllowed_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(2, time.Minute)

	l.IsAllowed("a")
	l.IsAllowed("a")
	if ok, _ := l.IsAllowed("a"); ok {
		t.Fatalf("key a should be throttled")
	}
	if ok, _ := l.IsAllowed("b"); !ok {
		t.Fatalf("key b should be unaffected")
	}
}

func TestReset_ClearsKey(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(1, time.Minute)

	l.IsAllowed("k")
	if ok, _ := l.IsAllowed("k"); ok {
		t.Fatalf("expected rejection before reset")
	}

	l.Reset("k")

	if ok, _ := l.IsAllowed("k"); !ok {
		t.Fatalf("expected attempt to be allowed after reset")
	}
}

func TestIsAllowed_ConcurrentCallersDoNotRacePastThreshold(t *testing.T) {
	t.Parallel()

	const limit = 50
	l := New(limit, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.IsAllowed("shared"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Fatalf("allowed %d attempts, want exactly %d", allowed, limit)
	}
}

func TestNew_FallsBackToDefaults(t *testing.T) {
	t.Parallel()

	l := New(0, 0)
	if l.maxAttempts != DefaultMaxAttempts || l.window != DefaultWindow {
		t.Fatalf("unexpected defaults: %d %v", l.maxAttempts, l.window)
	}
}
