package voicegate

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeClock is an adjustable time source shared by engine and test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testConfig returns a base config pointed at a per-test temp directory.
func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.Storage.ProfilePath = filepath.Join(dir, "users.json")
	cfg.Storage.SessionPath = filepath.Join(dir, "sessions.json")
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	engine, err := New().
		WithConfig(cfg).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clock
}

// axisVec returns a unit vector along one axis, so distinct axes score
// cosine 0 against each other and identical axes score 1.
func axisVec(dim, axis int) Embedding {
	v := make(Embedding, dim)
	v[axis] = 1
	return v
}

// enrollUser registers username with two identical samples along axis.
func enrollUser(t *testing.T, e *Engine, username string, dim, axis int) Embedding {
	t.Helper()
	sample := axisVec(dim, axis)
	if err := e.Enroll(context.Background(), username, []Embedding{sample, sample.Clone()}); err != nil {
		t.Fatalf("enroll %s: %v", username, err)
	}
	return sample
}
