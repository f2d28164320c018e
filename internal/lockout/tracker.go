// Package lockout tracks failed authentication attempts per client key and
// enforces temporary lockouts. All state is in-memory; restarting the process
// clears every lockout.
package lockout

import (
	"sync"
	"time"
)

// Config tunes the tracker.
type Config struct {
	// MaxFailedAttempts is the failure count at which a key locks.
	MaxFailedAttempts int
	// LockoutDuration is how long a locked key stays locked, measured from
	// the last failure.
	LockoutDuration time.Duration
	// ResetWindow restarts the failure count when the gap since the previous
	// failure exceeds it.
	ResetWindow time.Duration
}

type record struct {
	failedCount   int
	lastFailureAt time.Time
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	cfg     Config
	records map[string]record
	now     func() time.Time
}

// New builds a Tracker. now may be nil, in which case time.Now is used.
func New(cfg Config, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		cfg:     cfg,
		records: make(map[string]record),
		now:     now,
	}
}

// Locked reports whether key is inside a lockout window and, if so, the
// remaining lockout duration. Expired state is cleared lazily on this check.
func (t *Tracker) Locked(key string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[key]
	if !ok {
		return false, 0
	}

	now := t.now()
	if rec.failedCount >= t.cfg.MaxFailedAttempts {
		until := rec.lastFailureAt.Add(t.cfg.LockoutDuration)
		if now.Before(until) {
			return true, until.Sub(now)
		}
		// Lockout served; start fresh.
		delete(t.records, key)
		return false, 0
	}

	if now.Sub(rec.lastFailureAt) > t.cfg.ResetWindow {
		delete(t.records, key)
	}
	return false, 0
}

// RecordFailure registers one failed attempt for key. A failure arriving
// later than ResetWindow after the previous one restarts the count at 1.
func (t *Tracker) RecordFailure(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec, ok := t.records[key]
	if !ok || now.Sub(rec.lastFailureAt) > t.cfg.ResetWindow {
		t.records[key] = record{failedCount: 1, lastFailureAt: now}
		return
	}

	rec.failedCount++
	rec.lastFailureAt = now
	t.records[key] = rec
}

// Reset clears all failure state for key.
func (t *Tracker) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, key)
}

// FailureCount returns the current consecutive-failure count for key.
func (t *Tracker) FailureCount(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records[key].failedCount
}
