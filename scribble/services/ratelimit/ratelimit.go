// Package ratelimit implements a sliding-window request counter. The same
// limiter backs the terminal client (one logical key) and the server
// middleware (keyed by client IP), so instances are constructed and injected
// rather than living as package state.
package ratelimit

import (
	"sync"
	"time"
)

type Config struct {
	MaxRequests int
	Window      time.Duration
}

const (
	// DefaultMaxTrackedKeys bounds the per-IP map on the server. Overflow
	// triggers a sweep; a falsely evicted key only gains one free request.
	DefaultMaxTrackedKeys = 500

	// DefaultSweepEvery is the number of admitted requests between sweeps.
	DefaultSweepEvery = 50
)

// Limiter counts request timestamps per key inside a trailing window.
// Out-of-window entries are pruned lazily on check, never on a timer.
type Limiter struct {
	mu         sync.Mutex
	cfg        Config
	records    map[string][]time.Time
	maxKeys    int // 0 = unbounded
	sweepEvery int
	admitted   int
	now        func() time.Time
}

func New(cfg Config) *Limiter {
	return &Limiter{
		cfg:     cfg,
		records: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// NewBounded returns a limiter that also bounds the number of tracked keys,
// for server-side per-IP use where the key space is unbounded.
func NewBounded(cfg Config, maxKeys, sweepEvery int) *Limiter {
	l := New(cfg)
	l.maxKeys = maxKeys
	l.sweepEvery = sweepEvery
	return l
}

// Allow reports whether a request under key is admitted now. Admission
// appends the current timestamp; refusal leaves state untouched.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(key, now)
	if len(recent) >= l.cfg.MaxRequests {
		return false
	}
	l.records[key] = append(recent, now)
	l.admitted++

	if l.maxKeys > 0 && (l.admitted%l.sweepEvery == 0 || len(l.records) > l.maxKeys) {
		l.sweep(now)
	}
	return true
}

// RetryAfter returns whole seconds until the oldest in-window request for
// key expires, or 0 when no request is tracked.
func (l *Limiter) RetryAfter(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(key, now)
	if len(recent) == 0 {
		return 0
	}
	remaining := recent[0].Add(l.cfg.Window).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}

// prune drops out-of-window timestamps for key and returns what is left.
// Timestamps are appended in order, so the slice stays sorted.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	recs := l.records[key]
	cutoff := now.Add(-l.cfg.Window)
	i := 0
	for i < len(recs) && !recs[i].After(cutoff) {
		i++
	}
	recs = recs[i:]
	if len(recs) == 0 {
		delete(l.records, key)
	} else {
		l.records[key] = recs
	}
	return recs
}

// sweep drops every key whose timestamps have all expired.
func (l *Limiter) sweep(now time.Time) {
	cutoff := now.Add(-l.cfg.Window)
	for key, recs := range l.records {
		live := false
		for _, ts := range recs {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.records, key)
		}
	}
}

// TrackedKeys reports how many keys currently hold records.
func (l *Limiter) TrackedKeys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
