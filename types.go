package voicegate

import (
	"context"
	"time"
)

// Embedding is a fixed-length numeric vector representing a voice sample's
// distinguishing features, produced by an external encoder. All embeddings
// compared by the engine must share one length.
type Embedding []float32

// Clone returns a deep copy of the embedding.
func (e Embedding) Clone() Embedding {
	if len(e) == 0 {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// EmbeddingProvider is the external encoder boundary: it turns a raw audio
// buffer into an [Embedding]. The engine treats it as an opaque function and
// never retries it; failures surface wrapped in [ErrExtractionFailed].
type EmbeddingProvider interface {
	ExtractEmbedding(ctx context.Context, rawAudio []byte) (Embedding, error)
}

// Notifier receives human-readable status strings (e.g. for a TTS sink) as an
// observable side effect of success and failure paths. Engine correctness
// never depends on the sink; implementations must not block for long.
type Notifier interface {
	Say(ctx context.Context, text string)
}

// NoOpNotifier discards all status strings.
type NoOpNotifier struct{}

// Say implements [Notifier].
func (NoOpNotifier) Say(context.Context, string) {}

// AuthResult is returned by [Engine.Authenticate]. SessionID identifies the
// newly created session; Token is a signed identity token when token issuing
// is enabled, empty otherwise. Score carries the winning similarity when
// [ResultConfig.IncludeScore] is set.
type AuthResult struct {
	Username  string
	SessionID string
	Token     string
	ExpiresAt time.Time
	Score     float64
}

// ProfileInfo is the read-only enrollment metadata returned by
// [Engine.UserInfo].
type ProfileInfo struct {
	Username    string
	SampleCount int
	CreatedAt   time.Time
	LastUsedAt  time.Time
}

// SessionInfo is a read-only session snapshot returned by
// [Engine.ActiveSessions].
type SessionInfo struct {
	SessionID      string
	Username       string
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
}
