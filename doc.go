// Package voicegate provides a voice-biometric credential and session-lifecycle
// engine: it enrolls users from voice embeddings, authenticates a live embedding
// against enrolled profiles, and manages session validity with lockout
// protection against repeated failures.
//
// The package is designed for concurrent callers (UI thread, background loader,
// periodic cleanup task): Engine methods are safe to call from multiple
// goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// voicegate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (AuthResult, ProfileInfo, SessionInfo, etc.). Profile and
// session durability, the lockout state machine, and similarity scoring live
// under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Perform audio I/O, feature extraction, or UI rendering. Raw audio enters
//     only through the external [EmbeddingProvider]; status text leaves only
//     through the external [Notifier].
//   - Expose store codecs, file layouts, or lockout bookkeeping in its public
//     API.
//   - Train or tune the embedding model; the encoder is a fixed external
//     function.
//
// # Persistence contract
//
// Profiles and sessions are loaded at startup and flushed wholesale after
// every mutation. A failed flush is surfaced as an error wrapping
// [ErrPersistence] but the in-memory mutation is not rolled back; the next
// mutation re-flushes full current state (at-least-once durability).
package voicegate
