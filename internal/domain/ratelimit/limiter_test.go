// Tests for the per-user fixed-window limiter.
// White-box (package ratelimit) so tests can inject the clock — windows must
// be deterministic, never dependent on test runtime.
package ratelimit

import (
	"testing"
	"time"
)

// fakeClock is an injectable clock advanced manually by the tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(window time.Duration, max int) (*Limiter, *fakeClock) {
	l := NewLimiter(window, max)
	c := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l.now = c.now
	return l, c
}

// ===== TESTS: WINDOW QUOTA =====

// TestLimiter_NthAllowedNPlusFirstRejected: with max N, the N-th call in a
// window is allowed and the (N+1)-th is rejected.
func TestLimiter_NthAllowedNPlusFirstRejected(t *testing.T) {
	t.Parallel()

	const maxCalls = 5
	l, _ := newTestLimiter(time.Minute, maxCalls)

	for i := 0; i < maxCalls; i++ {
		if d := l.CheckAndConsume("u1"); !d.Allowed {
			t.Fatalf("call %d rejected; want allowed", i+1)
		}
	}

	d := l.CheckAndConsume("u1")
	if d.Allowed {
		t.Fatal("call over quota allowed; want rejected")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v; want within (0, window]", d.RetryAfter)
	}
}

func TestLimiter_WindowResetRestoresQuota(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(time.Minute, 2)

	l.CheckAndConsume("u1")
	l.CheckAndConsume("u1")
	if d := l.CheckAndConsume("u1"); d.Allowed {
		t.Fatal("third call in window allowed; want rejected")
	}

	clock.advance(time.Minute)
	if d := l.CheckAndConsume("u1"); !d.Allowed {
		t.Fatal("call after window elapsed rejected; want allowed")
	}
}

// TestLimiter_RejectionConsumesNothing: a rejected call must not push the
// window forward or eat quota — after the window elapses the full quota is
// available regardless of how many rejections happened meanwhile.
func TestLimiter_RejectionConsumesNothing(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(time.Minute, 1)

	l.CheckAndConsume("u1")
	for i := 0; i < 10; i++ {
		clock.advance(time.Second)
		if d := l.CheckAndConsume("u1"); d.Allowed {
			t.Fatalf("rejection %d allowed; want rejected", i)
		}
	}

	clock.advance(time.Minute)
	if d := l.CheckAndConsume("u1"); !d.Allowed {
		t.Fatal("fresh window rejected; rejections must not extend the window")
	}
}

func TestLimiter_RetryAfterShrinksAsWindowAges(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(time.Minute, 1)

	l.CheckAndConsume("u1")
	first := l.CheckAndConsume("u1")
	clock.advance(20 * time.Second)
	second := l.CheckAndConsume("u1")

	if second.RetryAfter >= first.RetryAfter {
		t.Errorf("RetryAfter did not shrink: %v then %v", first.RetryAfter, second.RetryAfter)
	}
	if want := 40 * time.Second; second.RetryAfter != want {
		t.Errorf("RetryAfter = %v; want %v", second.RetryAfter, want)
	}
}

// ===== TESTS: PER-USER ISOLATION =====

func TestLimiter_UsersHaveIndependentWindows(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(time.Minute, 1)

	if d := l.CheckAndConsume("u1"); !d.Allowed {
		t.Fatal("u1 first call rejected")
	}
	if d := l.CheckAndConsume("u1"); d.Allowed {
		t.Fatal("u1 second call allowed; want rejected")
	}
	if d := l.CheckAndConsume("u2"); !d.Allowed {
		t.Fatal("u2 first call rejected; quotas must be per-user")
	}
}
