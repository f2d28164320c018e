package voicegate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/voicegate/voicegate/internal"
	"github.com/voicegate/voicegate/internal/lockout"
	"github.com/voicegate/voicegate/internal/similarity"
	"github.com/voicegate/voicegate/internal/store"
	"github.com/voicegate/voicegate/token"
)

// Engine is the voice authentication core. Construct it through [Builder];
// the zero value is not usable. All exported methods are safe for concurrent
// use.
type Engine struct {
	config Config

	// mu guards profiles and sessions together so that a scan never sees a
	// profile without its sessions or vice versa.
	mu       sync.RWMutex
	profiles map[string]*store.Profile
	sessions map[string]*store.Session

	profileStore *store.ProfileStore
	sessionStore *store.SessionStore
	tracker      *lockout.Tracker
	tokens       *token.Manager

	provider EmbeddingProvider
	notifier Notifier

	audit   *auditDispatcher
	metrics *Metrics

	now func() time.Time
}

// Close flushes and stops the audit dispatcher. The engine itself holds no
// other background resources.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Metrics returns the engine's metrics instance (possibly disabled, never
// nil after Build).
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// AuditDropped reports how many audit events were discarded due to a full
// dispatcher buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) ready() bool {
	return e != nil && e.profiles != nil && e.sessions != nil
}

// sessionExpired applies the validity rule: a session is live strictly
// before its expiry instant.
func sessionExpired(sess *store.Session, now time.Time) bool {
	return !now.Before(sess.ExpiresAt)
}

/*
====================================
AUTHENTICATE
====================================
*/

// Authenticate scores candidate against every stored sample of every
// enrolled profile and, on a match above the configured threshold, creates a
// session and returns its descriptor. clientKey scopes lockout tracking; an
// empty key falls back to [WithClientKey] context data, then to a shared
// default.
//
// Failure taxonomy, checked in order: ErrDimensionMismatch for an empty or
// incomparable candidate (never counted as a lockout failure), ErrNoProfiles
// when nobody is enrolled, ErrLockedOut while the key is locked, ErrNoMatch
// when no sample scores above the threshold (counted as a lockout failure).
//
// A non-nil result may be returned together with an error wrapping
// [ErrPersistence]: the session exists in memory but the flush failed; the
// next successful mutation re-flushes full state.
func (e *Engine) Authenticate(ctx context.Context, candidate Embedding, clientKey string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}()

	key := resolveClientKey(ctx, clientKey)

	if len(candidate) == 0 || (e.config.Similarity.Dimension > 0 && len(candidate) != e.config.Similarity.Dimension) {
		e.metrics.Inc(MetricAuthRejectedInput)
		e.emitAudit(ctx, auditEventAuthRejectedInput, false, "", "", ErrDimensionMismatch, nil)
		return nil, ErrDimensionMismatch
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.profiles) == 0 {
		e.say(ctx, "No registered users found. Please register first.")
		e.emitAudit(ctx, auditEventAuthNoMatch, false, "", "", ErrNoProfiles, nil)
		return nil, ErrNoProfiles
	}

	if locked, remaining := e.tracker.Locked(key); locked {
		e.metrics.Inc(MetricAuthLockedOut)
		e.say(ctx, "Account temporarily locked due to multiple failed attempts.")
		e.emitAudit(ctx, auditEventAuthLockedOut, false, "", "", ErrLockedOut, func() map[string]string {
			return map[string]string{
				"client_key":        key,
				"remaining_lockout": remaining.String(),
			}
		})
		return nil, ErrLockedOut
	}

	bestUser, bestScore, compared := e.scanLocked(candidate)

	if !compared {
		// Nothing was comparable: bad input, not a failed attempt.
		e.metrics.Inc(MetricAuthRejectedInput)
		e.emitAudit(ctx, auditEventAuthRejectedInput, false, "", "", ErrDimensionMismatch, nil)
		return nil, ErrDimensionMismatch
	}

	if bestScore <= e.config.Similarity.Threshold {
		e.tracker.RecordFailure(key)
		e.metrics.Inc(MetricAuthNoMatch)
		if locked, _ := e.tracker.Locked(key); locked {
			e.say(ctx, "Account temporarily locked due to multiple failed attempts.")
		} else {
			e.sayDenial(ctx)
		}
		e.emitAudit(ctx, auditEventAuthNoMatch, false, "", "", ErrNoMatch, func() map[string]string {
			return map[string]string{
				"client_key": key,
				"best_score": fmt.Sprintf("%.4f", bestScore),
			}
		})
		return nil, ErrNoMatch
	}

	now := e.now()
	sessionID := internal.NewSessionID(bestUser, now)
	expiresAt := now.Add(e.config.Session.Timeout)

	var signed string
	if e.tokens != nil {
		var err error
		signed, err = e.tokens.Issue(bestUser, sessionID, now, expiresAt)
		if err != nil {
			e.emitAudit(ctx, auditEventAuthNoMatch, false, bestUser, "", err, nil)
			return nil, fmt.Errorf("issue identity token: %w", err)
		}
	}

	e.sessions[sessionID] = &store.Session{
		Username:       bestUser,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	}
	e.profiles[bestUser].LastUsedAt = now
	e.tracker.Reset(key)

	perr := errors.Join(
		e.persistProfilesLocked(ctx),
		e.persistSessionsLocked(ctx),
	)

	e.metrics.Inc(MetricAuthSuccess)
	e.metrics.Inc(MetricSessionCreated)
	e.say(ctx, "Access granted. Welcome back, %s.", bestUser)
	e.emitAudit(ctx, auditEventAuthSuccess, true, bestUser, sessionID, perr, func() map[string]string {
		return map[string]string{
			"client_key": key,
			"score":      fmt.Sprintf("%.4f", bestScore),
		}
	})

	result := &AuthResult{
		Username:  bestUser,
		SessionID: sessionID,
		Token:     signed,
		ExpiresAt: expiresAt,
	}
	if e.config.Result.IncludeScore {
		result.Score = bestScore
	}
	return result, perr
}

// scanLocked compares candidate against every sample of every profile, in
// sorted username order so ties resolve deterministically to the first
// username. Incomparable samples are skipped; compared reports whether at
// least one comparison happened.
func (e *Engine) scanLocked(candidate Embedding) (bestUser string, bestScore float64, compared bool) {
	usernames := make([]string, 0, len(e.profiles))
	for username := range e.profiles {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	bestScore = -2 // below any cosine value
	for _, username := range usernames {
		for _, sample := range e.profiles[username].Embeddings {
			score, err := similarity.Cosine(candidate, sample)
			if err != nil {
				continue
			}
			compared = true
			if score > bestScore {
				bestScore = score
				bestUser = username
			}
		}
	}
	return bestUser, bestScore, compared
}

// AuthenticateAudio extracts an embedding from rawAudio through the
// configured [EmbeddingProvider] and delegates to [Engine.Authenticate].
// Provider failure surfaces as a wrapped [ErrExtractionFailed] and records
// no lockout failure.
func (e *Engine) AuthenticateAudio(ctx context.Context, rawAudio []byte, clientKey string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.provider == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", ErrExtractionFailed)
	}

	candidate, err := e.provider.ExtractEmbedding(ctx, rawAudio)
	if err != nil {
		e.metrics.Inc(MetricAuthRejectedInput)
		e.emitAudit(ctx, auditEventAuthRejectedInput, false, "", "", ErrExtractionFailed, nil)
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return e.Authenticate(ctx, candidate, clientKey)
}

/*
====================================
PERSISTENCE
====================================
*/

// persistProfilesLocked flushes the whole profile table. Callers hold e.mu.
// The in-memory state is authoritative either way; a failed flush is
// reported, counted, and retried implicitly by the next mutation.
func (e *Engine) persistProfilesLocked(ctx context.Context) error {
	if err := e.profileStore.Save(e.profiles); err != nil {
		log.Printf("voicegate: profile flush failed: %v", err)
		e.metrics.Inc(MetricPersistenceFailure)
		e.emitAudit(ctx, auditEventPersistenceFailure, false, "", "", ErrPersistence, func() map[string]string {
			return map[string]string{"store": "profiles"}
		})
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// persistSessionsLocked flushes the whole session table. Callers hold e.mu.
func (e *Engine) persistSessionsLocked(ctx context.Context) error {
	if err := e.sessionStore.Save(e.sessions); err != nil {
		log.Printf("voicegate: session flush failed: %v", err)
		e.metrics.Inc(MetricPersistenceFailure)
		e.emitAudit(ctx, auditEventPersistenceFailure, false, "", "", ErrPersistence, func() map[string]string {
			return map[string]string{"store": "sessions"}
		})
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}
