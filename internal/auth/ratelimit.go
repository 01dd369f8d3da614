// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package auth

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// Rate limiting defaults.
const (
	// DefaultMaxAttempts is the number of failures that triggers a lockout.
	DefaultMaxAttempts = 5

	// DefaultLockoutWindow is the time a client is locked out after too
	// many failures. A failure older than the window no longer counts.
	DefaultLockoutWindow = 15 * time.Minute

	// DefaultSweepInterval is how often stale entries are evicted.
	DefaultSweepInterval = 5 * time.Minute
)

// AttemptStore tracks login failures per client key. Implementations
// must make Fail atomic per key: a concurrent burst of failures may not
// observe-then-write and lose counts. The default is the in-memory
// MemoryAttemptStore; multi-instance deployments swap in a shared store.
type AttemptStore interface {
	// Fail records a failure for key at time now and returns the updated
	// count. If the previous failure is older than window, the count
	// restarts at 1.
	Fail(key string, now time.Time, window time.Duration) int

	// Get returns the current failure count and the last failure time.
	// ok is false when the key has no entry.
	Get(key string) (count int, last time.Time, ok bool)

	// Clear removes the entry for key.
	Clear(key string)

	// Sweep evicts entries whose last failure predates cutoff and
	// returns the number of evicted entries.
	Sweep(cutoff time.Time) int
}

// Decision is the result of a rate-limit check.
type Decision struct {
	// Allowed is false while the client is inside a lockout window.
	Allowed bool

	// RetryAfter is the remaining lockout time when Allowed is false.
	RetryAfter time.Duration
}

// Limiter enforces the login lockout policy on top of an AttemptStore.
type Limiter struct {
	store  AttemptStore
	max    int
	window time.Duration
	now    func() time.Time
}

// NewLimiter creates a Limiter. A nil store gets a MemoryAttemptStore;
// non-positive max or window fall back to the defaults.
func NewLimiter(store AttemptStore, max int, window time.Duration) *Limiter {
	if store == nil {
		store = NewMemoryAttemptStore()
	}
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultLockoutWindow
	}
	return &Limiter{store: store, max: max, window: window, now: time.Now}
}

// Allow reports whether a login attempt for key may proceed. It is a
// pure read; failures are recorded separately so that a denied check
// does not extend the lockout.
func (l *Limiter) Allow(key string) Decision {
	count, last, ok := l.store.Get(key)
	if !ok || count < l.max {
		return Decision{Allowed: true}
	}

	elapsed := l.now().Sub(last)
	if elapsed >= l.window {
		// Window elapsed; the stale entry is cleared lazily by the
		// next success or sweep.
		return Decision{Allowed: true}
	}

	return Decision{Allowed: false, RetryAfter: l.window - elapsed}
}

// RecordFailure counts a failed attempt for key and returns the updated
// count. The caller can compare against Max to detect the transition
// into lockout.
func (l *Limiter) RecordFailure(key string) int {
	return l.store.Fail(key, l.now(), l.window)
}

// RecordSuccess clears the failure history for key.
func (l *Limiter) RecordSuccess(key string) {
	l.store.Clear(key)
}

// Max returns the configured failure threshold.
func (l *Limiter) Max() int {
	return l.max
}

// Sweep evicts entries older than the lockout window.
func (l *Limiter) Sweep() int {
	return l.store.Sweep(l.now().Add(-l.window))
}

// SweepLoop runs Sweep on the given interval until ctx is cancelled.
// Intended to run on its own goroutine.
func (l *Limiter) SweepLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// attemptStoreShards bounds lock contention; keys are spread across
// shards by FNV-1a hash.
const attemptStoreShards = 64

type attemptEntry struct {
	count int
	last  time.Time
}

type attemptShard struct {
	mu      sync.Mutex
	entries map[string]attemptEntry
}

// MemoryAttemptStore is the default in-memory AttemptStore. State is
// process-local and lost on restart.
type MemoryAttemptStore struct {
	shards [attemptStoreShards]*attemptShard
}

// NewMemoryAttemptStore creates an empty MemoryAttemptStore.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	s := &MemoryAttemptStore{}
	for i := range s.shards {
		s.shards[i] = &attemptShard{entries: make(map[string]attemptEntry)}
	}
	return s
}

func (s *MemoryAttemptStore) shard(key string) *attemptShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key)) //nolint:errcheck // fnv.Write never fails
	return s.shards[h.Sum32()%attemptStoreShards]
}

// Fail records a failure for key under the shard lock, so concurrent
// failures for one key serialize into exact counts.
func (s *MemoryAttemptStore) Fail(key string, now time.Time, window time.Duration) int {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := sh.entries[key]
	if e.count > 0 && now.Sub(e.last) >= window {
		e.count = 0
	}
	e.count++
	e.last = now
	sh.entries[key] = e
	return e.count
}

// Get returns the entry for key.
func (s *MemoryAttemptStore) Get(key string) (int, time.Time, bool) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok {
		return 0, time.Time{}, false
	}
	return e.count, e.last, true
}

// Clear removes the entry for key.
func (s *MemoryAttemptStore) Clear(key string) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.entries, key)
}

// Sweep evicts entries older than cutoff.
func (s *MemoryAttemptStore) Sweep(cutoff time.Time) int {
	evicted := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, e := range sh.entries {
			if e.last.Before(cutoff) {
				delete(sh.entries, key)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	return evicted
}
