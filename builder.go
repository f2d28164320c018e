package voicegate

import (
	"errors"
	"fmt"
	"time"

	"github.com/voicegate/voicegate/internal/lockout"
	"github.com/voicegate/voicegate/internal/store"
	"github.com/voicegate/voicegate/token"
)

// Builder assembles an [Engine]. A Builder is single-use: Build succeeds at
// most once.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	provider  EmbeddingProvider
	notifier  Notifier
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder loaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithEmbeddingProvider wires the external audio-to-embedding encoder. Only
// needed for the *Audio convenience methods; callers that extract embeddings
// themselves can skip it.
func (b *Builder) WithEmbeddingProvider(p EmbeddingProvider) *Builder {
	b.provider = p
	return b
}

// WithNotifier wires the spoken-status sink. Defaults to [NoOpNotifier].
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink wires the audit event sink used when audit is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the engine's time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles metric collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Authenticate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, loads persisted profile and session
// state, and returns a ready Engine. A store file that exists but cannot be
// decoded fails Build with an error wrapping [ErrPersistence]; a missing
// file simply yields an empty table.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := store.CodecFor(cfg.Storage.Encoding)
	if err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	// -------- STORES --------
	profileStore := store.NewProfileStore(cfg.Storage.ProfilePath, codec)
	sessionStore := store.NewSessionStore(cfg.Storage.SessionPath, codec)

	profiles, err := profileStore.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	sessions, err := sessionStore.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	engine := &Engine{
		config:       cfg,
		profiles:     profiles,
		sessions:     sessions,
		profileStore: profileStore,
		sessionStore: sessionStore,
		provider:     b.provider,
		notifier:     b.notifier,
		now:          clock,
	}

	if engine.notifier == nil {
		engine.notifier = NoOpNotifier{}
	}

	// -------- LOCKOUT --------
	engine.tracker = lockout.New(lockout.Config{
		MaxFailedAttempts: cfg.Lockout.MaxFailedAttempts,
		LockoutDuration:   cfg.Lockout.Duration,
		ResetWindow:       cfg.Lockout.ResetWindow,
	}, clock)

	// -------- IDENTITY TOKENS --------
	if cfg.Token.Enabled {
		tm, err := token.NewManager(token.Config{
			SigningKey: cfg.Token.SigningKey,
			Issuer:     cfg.Token.Issuer,
			Now:        clock,
		})
		if err != nil {
			return nil, err
		}
		engine.tokens = tm
	}

	// -------- OBSERVABILITY --------
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
