package voicegate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/voicegate/voicegate/internal"
	"github.com/voicegate/voicegate/internal/store"
)

// minValidSamples is the enrollment floor: a profile needs at least this
// many usable voice samples before matching against it is meaningful.
const minValidSamples = 2

// Enroll registers username with the supplied voice samples. Samples that
// are empty or whose length disagrees with the profile's dimension are
// skipped; all remaining valid samples are stored. The dimension is pinned
// by [SimilarityConfig.Dimension] when set, otherwise inferred from the
// first non-empty sample.
//
// Fails with ErrInvalidUsername, ErrProfileExists (existing profiles are
// never overwritten), or ErrInsufficientSamples when fewer than two samples
// survive filtering. On success the profile is live immediately; a failed
// flush additionally returns an error wrapping [ErrPersistence].
func (e *Engine) Enroll(ctx context.Context, username string, samples []Embedding) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	username = internal.NormalizeUsername(username)
	if username == "" {
		e.metrics.Inc(MetricEnrollFailure)
		e.emitAudit(ctx, auditEventEnrollFailure, false, "", "", ErrInvalidUsername, nil)
		return ErrInvalidUsername
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.profiles[username]; exists {
		e.metrics.Inc(MetricEnrollFailure)
		e.say(ctx, "User %s already exists.", username)
		e.emitAudit(ctx, auditEventEnrollFailure, false, username, "", ErrProfileExists, nil)
		return ErrProfileExists
	}

	valid := filterSamples(samples, e.config.Similarity.Dimension)
	if len(valid) < minValidSamples {
		e.metrics.Inc(MetricEnrollFailure)
		e.emitAudit(ctx, auditEventEnrollFailure, false, username, "", ErrInsufficientSamples, func() map[string]string {
			return map[string]string{
				"supplied": strconv.Itoa(len(samples)),
				"valid":    strconv.Itoa(len(valid)),
			}
		})
		return ErrInsufficientSamples
	}

	now := e.now()
	e.profiles[username] = &store.Profile{
		Embeddings: valid,
		CreatedAt:  now,
		LastUsedAt: now,
	}

	perr := e.persistProfilesLocked(ctx)

	e.metrics.Inc(MetricEnrollSuccess)
	e.say(ctx, "Registration complete. Welcome, %s.", username)
	e.emitAudit(ctx, auditEventEnrollSuccess, true, username, "", perr, func() map[string]string {
		return map[string]string{
			"samples": strconv.Itoa(len(valid)),
		}
	})

	return perr
}

// filterSamples drops unusable samples and deep-copies the rest. pinned > 0
// forces that dimension; otherwise the first non-empty sample sets it.
func filterSamples(samples []Embedding, pinned int) [][]float32 {
	dimension := pinned
	valid := make([][]float32, 0, len(samples))
	for _, sample := range samples {
		if len(sample) == 0 {
			continue
		}
		if dimension == 0 {
			dimension = len(sample)
		}
		if len(sample) != dimension {
			continue
		}
		cp := make([]float32, len(sample))
		copy(cp, sample)
		valid = append(valid, cp)
	}
	return valid
}

// EnrollAudio extracts an embedding from each raw audio buffer through the
// configured [EmbeddingProvider] and delegates to [Engine.Enroll]. Buffers
// the provider rejects are skipped like any other invalid sample; if every
// buffer fails extraction the error wraps [ErrExtractionFailed].
func (e *Engine) EnrollAudio(ctx context.Context, username string, rawSamples [][]byte) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if e.provider == nil {
		return fmt.Errorf("%w: no embedding provider configured", ErrExtractionFailed)
	}

	samples := make([]Embedding, 0, len(rawSamples))
	var lastErr error
	for _, raw := range rawSamples {
		emb, err := e.provider.ExtractEmbedding(ctx, raw)
		if err != nil {
			lastErr = err
			continue
		}
		samples = append(samples, emb)
	}

	if len(samples) == 0 && lastErr != nil {
		e.metrics.Inc(MetricEnrollFailure)
		e.emitAudit(ctx, auditEventEnrollFailure, false, username, "", ErrExtractionFailed, nil)
		return fmt.Errorf("%w: %w", ErrExtractionFailed, lastErr)
	}
	return e.Enroll(ctx, username, samples)
}
