package voicegate

import (
	"errors"
	"time"
)

// Config carries every tunable of the engine. Configure it during
// initialization and treat it as immutable afterwards; [Builder.Build] clones
// it before use.
type Config struct {
	Session    SessionConfig
	Lockout    LockoutConfig
	Similarity SimilarityConfig
	Storage    StorageConfig
	Token      TokenConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
	Result     ResultConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig bounds the lifetime of authenticated sessions.
type SessionConfig struct {
	// Timeout is the fixed session lifetime: expiresAt = createdAt + Timeout.
	Timeout time.Duration
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig tunes the per-client-key failed-attempt tracker.
type LockoutConfig struct {
	// MaxFailedAttempts is the failure count at which a client key locks.
	MaxFailedAttempts int
	// Duration is how long a locked key stays locked, measured from the
	// last failure.
	Duration time.Duration
	// ResetWindow is the rolling window: a failure arriving later than this
	// after the previous one restarts the count at 1.
	ResetWindow time.Duration
}

/*
====================================
SIMILARITY CONFIG
====================================
*/

// SimilarityConfig controls the match decision. The threshold depends on
// which external embedding method is in use (around 0.70 for neural speaker
// encoders, 0.80 for MFCC-style features) and is therefore configuration,
// not a constant.
type SimilarityConfig struct {
	// Threshold is the strict lower bound for acceptance: a candidate
	// matches only when bestScore > Threshold.
	Threshold float64
	// Dimension, when > 0, pins the required embedding length. Zero means
	// the length is inferred from the first valid enrollment sample.
	Dimension int
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig locates and encodes the persisted profile and session files.
// Each file is a whole mapping, loaded at startup and overwritten wholesale
// on every mutation.
type StorageConfig struct {
	ProfilePath string
	SessionPath string
	// Encoding selects the store codec: "json" (default) or "cbor".
	Encoding string
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig enables signed identity tokens on successful authentication,
// so callers thread an explicit token through later calls instead of relying
// on process-wide current-user state.
type TokenConfig struct {
	Enabled    bool
	SigningKey []byte // HMAC-SHA256 key, at least 32 bytes
	Issuer     string
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// ResultConfig shapes the [AuthResult] payload.
type ResultConfig struct {
	// IncludeScore copies the winning similarity score into the result.
	IncludeScore bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Timeout: 30 * time.Minute,
		},
		Lockout: LockoutConfig{
			MaxFailedAttempts: 3,
			Duration:          5 * time.Minute,
			ResetWindow:       10 * time.Minute,
		},
		Similarity: SimilarityConfig{
			Threshold: 0.75,
			Dimension: 0,
		},
		Storage: StorageConfig{
			ProfilePath: "config/users.json",
			SessionPath: "config/sessions.json",
			Encoding:    "json",
		},
		Token: TokenConfig{
			Enabled: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Result: ResultConfig{
			IncludeScore: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.SigningKey = cloneBytes(cfg.Token.SigningKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks internal consistency of the configuration and returns a
// descriptive error for the first violation found.
func (c *Config) Validate() error {
	if c.Session.Timeout <= 0 {
		return errors.New("Session Timeout must be > 0")
	}

	if c.Lockout.MaxFailedAttempts <= 0 {
		return errors.New("Lockout MaxFailedAttempts must be > 0")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout Duration must be > 0")
	}
	if c.Lockout.ResetWindow <= 0 {
		return errors.New("Lockout ResetWindow must be > 0")
	}

	if c.Similarity.Threshold <= -1 || c.Similarity.Threshold >= 1 {
		return errors.New("Similarity Threshold must be inside (-1, 1)")
	}
	if c.Similarity.Dimension < 0 {
		return errors.New("Similarity Dimension must be >= 0")
	}

	if c.Storage.ProfilePath == "" {
		return errors.New("Storage ProfilePath is required")
	}
	if c.Storage.SessionPath == "" {
		return errors.New("Storage SessionPath is required")
	}
	if c.Storage.ProfilePath == c.Storage.SessionPath {
		return errors.New("Storage ProfilePath and SessionPath must differ")
	}
	if c.Storage.Encoding != "json" && c.Storage.Encoding != "cbor" {
		return errors.New("Storage Encoding must be 'json' or 'cbor'")
	}

	if c.Token.Enabled && len(c.Token.SigningKey) < 32 {
		return errors.New("Token SigningKey must be >= 32 bytes when tokens are enabled")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
