package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

// fakeClock lets tests drive the limiter's view of time.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := New(cfg)
	l.now = clock.now
	return l, clock
}

func TestAllowUnderLimit(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxRequests: 3, Window: time.Minute})
	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Fatal("4th request inside window should be denied")
	}
}

func TestWindowSlides(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxRequests: 2, Window: time.Minute})
	l.Allow("k")
	clock.advance(30 * time.Second)
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("limit reached, should deny")
	}
	// first timestamp leaves the window
	clock.advance(31 * time.Second)
	if !l.Allow("k") {
		t.Fatal("oldest entry expired, should allow again")
	}
}

func TestDenialDoesNotConsume(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxRequests: 1, Window: time.Minute})
	l.Allow("k")
	// hammer while limited; denials must not extend the window
	for i := 0; i < 10; i++ {
		clock.advance(time.Second)
		l.Allow("k")
	}
	clock.advance(51 * time.Second) // 61s after the only admitted request
	if !l.Allow("k") {
		t.Fatal("window should have expired despite denied attempts")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxRequests: 1, Window: time.Minute})
	if !l.Allow("a") || !l.Allow("b") {
		t.Fatal("distinct keys must not share a window")
	}
	if l.Allow("a") {
		t.Fatal("key a is at its limit")
	}
}

func TestRetryAfter(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxRequests: 1, Window: 5 * time.Minute})
	if got := l.RetryAfter("k"); got != 0 {
		t.Fatalf("no records yet, want 0, got %d", got)
	}
	l.Allow("k")
	clock.advance(2 * time.Minute)
	if got := l.RetryAfter("k"); got != 180 {
		t.Fatalf("want 180s, got %d", got)
	}
	clock.advance(4 * time.Minute)
	if got := l.RetryAfter("k"); got != 0 {
		t.Fatalf("window expired, want 0, got %d", got)
	}
}

func TestRetryAfterRoundsUp(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxRequests: 1, Window: time.Minute})
	l.Allow("k")
	clock.advance(59*time.Second + 500*time.Millisecond)
	if got := l.RetryAfter("k"); got != 1 {
		t.Fatalf("fractional second should round up to 1, got %d", got)
	}
}

func TestBoundedSweepDropsExpiredKeys(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxRequests: 5, Window: time.Minute})
	l.maxKeys = 10
	l.sweepEvery = 1000 // force the overflow path, not the cadence path
	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("old-%d", i))
	}
	clock.advance(2 * time.Minute)
	// the 11th key pushes tracked count past maxKeys and triggers a sweep
	l.Allow("fresh")
	if got := l.TrackedKeys(); got != 1 {
		t.Fatalf("sweep should leave only live keys, got %d", got)
	}
}

func TestSweepCadence(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxRequests: 100, Window: time.Minute})
	l.maxKeys = 1000
	l.sweepEvery = 50
	for i := 0; i < 49; i++ {
		l.Allow(fmt.Sprintf("k-%d", i))
	}
	clock.advance(2 * time.Minute)
	if got := l.TrackedKeys(); got != 49 {
		t.Fatalf("no sweep yet, got %d", got)
	}
	l.Allow("trigger") // 50th admitted request
	if got := l.TrackedKeys(); got != 1 {
		t.Fatalf("cadence sweep should drop expired keys, got %d", got)
	}
}
