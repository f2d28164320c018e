package voicegate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/voicegate/voicegate/internal"
)

/*
====================================
SESSION VALIDITY
====================================
*/

// IsSessionValid reports whether sessionID names a live session. A session
// is live strictly before its expiry instant; validating it refreshes its
// last-activity timestamp but never extends the expiry (no sliding windows).
// An expired session found here is purged immediately.
func (e *Engine) IsSessionValid(ctx context.Context, sessionID string) bool {
	if !e.ready() {
		return false
	}

	// Fast path: unknown ids need no write lock.
	e.mu.RLock()
	_, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.sessions[sessionID]
	if !ok {
		return false
	}

	now := e.now()
	if sessionExpired(sess, now) {
		delete(e.sessions, sessionID)
		e.metrics.Inc(MetricSessionExpired)
		e.emitAudit(ctx, auditEventSessionExpired, false, sess.Username, sessionID, nil, nil)
		if err := e.persistSessionsLocked(ctx); err != nil {
			log.Printf("voicegate: expired session purge not persisted: %v", err)
		}
		return false
	}

	// Activity is bookkeeping only; the next mutation flushes it.
	sess.LastActivityAt = now
	return true
}

// HasValidSession reports whether username has at least one live session.
// Expired sessions encountered during the scan are purged.
func (e *Engine) HasValidSession(ctx context.Context, username string) bool {
	if !e.ready() {
		return false
	}
	username = internal.NormalizeUsername(username)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	purged := 0
	alive := false
	for id, sess := range e.sessions {
		if sess.Username != username {
			continue
		}
		if sessionExpired(sess, now) {
			delete(e.sessions, id)
			e.metrics.Inc(MetricSessionExpired)
			purged++
			continue
		}
		sess.LastActivityAt = now
		alive = true
	}

	if purged > 0 {
		if err := e.persistSessionsLocked(ctx); err != nil {
			log.Printf("voicegate: expired session purge not persisted: %v", err)
		}
	}
	return alive
}

// VerifyIdentityToken parses a signed identity token and confirms its
// session is still live, returning the session snapshot. Fails with a
// wrapped ErrTokenInvalid for any parse or signature problem, and with
// ErrSessionNotFound when the token is genuine but its session is gone or
// no longer belongs to the token's user.
func (e *Engine) VerifyIdentityToken(ctx context.Context, raw string) (*SessionInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.tokens == nil {
		return nil, fmt.Errorf("%w: identity tokens not enabled", ErrTokenInvalid)
	}

	claims, err := e.tokens.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	sess, ok := e.sessions[claims.SessionID]
	if !ok || sess.Username != claims.Username || sessionExpired(sess, e.now()) {
		return nil, ErrSessionNotFound
	}

	return &SessionInfo{
		SessionID:      claims.SessionID,
		Username:       sess.Username,
		CreatedAt:      sess.CreatedAt,
		LastActivityAt: sess.LastActivityAt,
		ExpiresAt:      sess.ExpiresAt,
	}, nil
}

/*
====================================
LOGOUT / REMOVAL
====================================
*/

// Logout removes every session belonging to username. An enrolled user with
// zero live sessions logs out cleanly (idempotent); a username with no
// profile at all fails with [ErrUserNotFound].
func (e *Engine) Logout(ctx context.Context, username string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	username = internal.NormalizeUsername(username)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, enrolled := e.profiles[username]; !enrolled {
		e.emitAudit(ctx, auditEventLogout, false, username, "", ErrUserNotFound, nil)
		return ErrUserNotFound
	}

	removed := e.removeUserSessionsLocked(username)
	if removed == 0 {
		return nil
	}

	perr := e.persistSessionsLocked(ctx)

	e.metrics.Inc(MetricLogout)
	e.say(ctx, "Goodbye, %s.", username)
	e.emitAudit(ctx, auditEventLogout, true, username, "", perr, func() map[string]string {
		return map[string]string{"sessions_removed": strconv.Itoa(removed)}
	})

	return perr
}

// RemoveUser deletes username's profile and all of its sessions. The bool
// reports whether a profile existed; removing an unknown user is (false,
// nil), not an error. Both stores are flushed; their failures are joined
// and wrap [ErrPersistence].
func (e *Engine) RemoveUser(ctx context.Context, username string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	username = internal.NormalizeUsername(username)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.profiles[username]; !exists {
		return false, nil
	}

	delete(e.profiles, username)
	removed := e.removeUserSessionsLocked(username)

	perr := errors.Join(
		e.persistProfilesLocked(ctx),
		e.persistSessionsLocked(ctx),
	)

	e.metrics.Inc(MetricUserRemoved)
	e.say(ctx, "User %s has been removed.", username)
	e.emitAudit(ctx, auditEventUserRemoved, true, username, "", perr, func() map[string]string {
		return map[string]string{"sessions_removed": strconv.Itoa(removed)}
	})

	return true, perr
}

// removeUserSessionsLocked deletes all of username's sessions and returns
// how many were removed. Callers hold e.mu.
func (e *Engine) removeUserSessionsLocked(username string) int {
	removed := 0
	for id, sess := range e.sessions {
		if sess.Username == username {
			delete(e.sessions, id)
			e.metrics.Inc(MetricSessionInvalidated)
			removed++
		}
	}
	return removed
}

/*
====================================
CLEANUP
====================================
*/

// CleanupExpiredSessions purges every expired session in one pass and
// returns how many were removed. Intended for a periodic maintenance task;
// validity checks also purge lazily, so running it is an optimization, not
// a correctness requirement.
func (e *Engine) CleanupExpiredSessions(ctx context.Context) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	removed := 0
	for id, sess := range e.sessions {
		if sessionExpired(sess, now) {
			delete(e.sessions, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	perr := e.persistSessionsLocked(ctx)

	e.metrics.Add(MetricSessionExpired, uint64(removed))
	e.metrics.Add(MetricCleanupRemoved, uint64(removed))
	e.emitAudit(ctx, auditEventSessionCleanup, true, "", "", perr, func() map[string]string {
		return map[string]string{"removed": strconv.Itoa(removed)}
	})

	return removed, perr
}

/*
====================================
INTROSPECTION
====================================
*/

// ListUsers returns all enrolled usernames in sorted order.
func (e *Engine) ListUsers() []string {
	if !e.ready() {
		return nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	usernames := make([]string, 0, len(e.profiles))
	for username := range e.profiles {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames
}

// UserInfo returns enrollment metadata for username. The bool reports
// whether the user exists.
func (e *Engine) UserInfo(username string) (ProfileInfo, bool) {
	if !e.ready() {
		return ProfileInfo{}, false
	}
	username = internal.NormalizeUsername(username)

	e.mu.RLock()
	defer e.mu.RUnlock()

	profile, ok := e.profiles[username]
	if !ok {
		return ProfileInfo{}, false
	}
	return ProfileInfo{
		Username:    username,
		SampleCount: len(profile.Embeddings),
		CreatedAt:   profile.CreatedAt,
		LastUsedAt:  profile.LastUsedAt,
	}, true
}

// ActiveSessions returns username's live sessions, oldest first.
func (e *Engine) ActiveSessions(username string) []SessionInfo {
	if !e.ready() {
		return nil
	}
	username = internal.NormalizeUsername(username)

	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.now()
	out := make([]SessionInfo, 0, 4)
	for id, sess := range e.sessions {
		if sess.Username != username || sessionExpired(sess, now) {
			continue
		}
		out = append(out, SessionInfo{
			SessionID:      id,
			Username:       sess.Username,
			CreatedAt:      sess.CreatedAt,
			LastActivityAt: sess.LastActivityAt,
			ExpiresAt:      sess.ExpiresAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// LockoutStatus reports whether clientKey is currently locked out and, if
// so, for how much longer. An empty key resolves to the shared default.
func (e *Engine) LockoutStatus(clientKey string) (bool, time.Duration) {
	if !e.ready() {
		return false, 0
	}
	if clientKey == "" {
		clientKey = defaultClientKey
	}
	return e.tracker.Locked(clientKey)
}
