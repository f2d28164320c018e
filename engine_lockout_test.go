package voicegate

import (
	"context"
	"errors"
	"testing"
	"time"
)

// failAuth runs one authentication guaranteed to miss (orthogonal vector).
func failAuth(t *testing.T, e *Engine, clientKey string) error {
	t.Helper()
	_, err := e.Authenticate(context.Background(), axisVec(4, 3), clientKey)
	return err
}

func TestLockout_ThresholdTriggersLock(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig(t))
	ctx := context.Background()

	enrollUser(t, engine, "alice", 4, 0)

	// First two failures report NoMatch.
	for i := 0; i < 2; i++ {
		if err := failAuth(t, engine, "kiosk"); !errors.Is(err, ErrNoMatch) {
			t.Fatalf("attempt %d: expected ErrNoMatch, got %v", i+1, err)
		}
	}

	// The third failure reaches the threshold; it itself reports NoMatch
	// but every attempt after it is refused outright.
	if err := failAuth(t, engine, "kiosk"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("third attempt: expected ErrNoMatch, got %v", err)
	}

	if locked, remaining := engine.LockoutStatus("kiosk"); !locked || remaining <= 0 {
		t.Fatalf("expected active lockout, got locked=%v remaining=%v", locked, remaining)
	}

	// Even a perfect match is refused while locked.
	if _, err := engine.Authenticate(ctx, axisVec(4, 0), "kiosk"); !errors.Is(err, ErrLockedOut) {
		t.Fatalf("expected ErrLockedOut, got %v", err)
	}
}

func TestLockout_ExpiresAfterDuration(t *testing.T) {
	engine, clock := newTestEngine(t, testConfig(t))
	ctx := context.Background()

	enrollUser(t, engine, "alice", 4, 0)

	for i := 0; i < 3; i++ {
		failAuth(t, engine, "kiosk")
	}
	if locked, _ := engine.LockoutStatus("kiosk"); !locked {
		t.Fatal("expected lockout after three failures")
	}

	// Just before the lockout duration elapses: still locked.
	clock.Advance(engine.config.Lockout.Duration - time.Second)
	if locked, _ := engine.LockoutStatus("kiosk"); !locked {
		t.Fatal("lockout released early")
	}

	// At the boundary the lockout is served and state clears.
	clock.Advance(time.Second)
	if locked, _ := engine.LockoutStatus("kiosk"); locked {
		t.Fatal("lockout should have expired")
	}
	if _, err := engine.Authenticate(ctx, axisVec(4, 0), "kiosk"); err != nil {
		t.Fatalf("expected success after lockout expiry, got %v", err)
	}
}

func TestLockout_ResetWindowRestartsCount(t *testing.T) {
	engine, clock := newTestEngine(t, testConfig(t))

	enrollUser(t, engine, "alice", 4, 0)

	failAuth(t, engine, "kiosk")
	failAuth(t, engine, "kiosk")

	// A quiet gap longer than the reset window restarts the count, so two
	// more failures only bring it back to 2, not 4.
	clock.Advance(engine.config.Lockout.ResetWindow + time.Second)
	failAuth(t, engine, "kiosk")
	failAuth(t, engine, "kiosk")

	if locked, _ := engine.LockoutStatus("kiosk"); locked {
		t.Fatal("count should have reset across the quiet gap")
	}

	// One more inside the window reaches three.
	failAuth(t, engine, "kiosk")
	if locked, _ := engine.LockoutStatus("kiosk"); !locked {
		t.Fatal("expected lockout after three failures inside the window")
	}
}

func TestLockout_SuccessResetsFailureCount(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig(t))
	ctx := context.Background()

	enrollUser(t, engine, "alice", 4, 0)

	failAuth(t, engine, "kiosk")
	failAuth(t, engine, "kiosk")

	if _, err := engine.Authenticate(ctx, axisVec(4, 0), "kiosk"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	// The slate is clean: two more failures must not lock.
	failAuth(t, engine, "kiosk")
	failAuth(t, engine, "kiosk")
	if locked, _ := engine.LockoutStatus("kiosk"); locked {
		t.Fatal("success should have reset the failure count")
	}
}

func TestLockout_KeysAreIndependent(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig(t))
	ctx := context.Background()

	enrollUser(t, engine, "alice", 4, 0)

	for i := 0; i < 3; i++ {
		failAuth(t, engine, "kiosk-a")
	}

	if locked, _ := engine.LockoutStatus("kiosk-a"); !locked {
		t.Fatal("kiosk-a should be locked")
	}
	if locked, _ := engine.LockoutStatus("kiosk-b"); locked {
		t.Fatal("kiosk-b must be unaffected")
	}
	if _, err := engine.Authenticate(ctx, axisVec(4, 0), "kiosk-b"); err != nil {
		t.Fatalf("kiosk-b should authenticate, got %v", err)
	}
}

func TestLockout_ClientKeyFromContext(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig(t))

	enrollUser(t, engine, "alice", 4, 0)

	ctx := WithClientKey(context.Background(), "ctx-station")
	for i := 0; i < 3; i++ {
		engine.Authenticate(ctx, axisVec(4, 3), "")
	}

	if locked, _ := engine.LockoutStatus("ctx-station"); !locked {
		t.Fatal("context-carried client key should be locked")
	}
	if locked, _ := engine.LockoutStatus(""); locked {
		t.Fatal("default key must be unaffected")
	}
}

func TestLockout_InMemoryOnly(t *testing.T) {
	cfg := testConfig(t)
	engine, _ := newTestEngine(t, cfg)

	enrollUser(t, engine, "alice", 4, 0)
	for i := 0; i < 3; i++ {
		failAuth(t, engine, "kiosk")
	}
	if locked, _ := engine.LockoutStatus("kiosk"); !locked {
		t.Fatal("expected lockout")
	}
	engine.Close()

	// A rebuilt engine over the same files starts with a clean tracker.
	rebuilt, _ := newTestEngine(t, cfg)
	if locked, _ := rebuilt.LockoutStatus("kiosk"); locked {
		t.Fatal("lockout state must not survive a restart")
	}
}
