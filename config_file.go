package voicegate

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// fileOptions is the flat external configuration surface. Durations are
// expressed in whole seconds so config files stay toolable.
type fileOptions struct {
	SessionTimeoutSeconds     int     `mapstructure:"sessionTimeoutSeconds"`
	MaxFailedAttempts         int     `mapstructure:"maxFailedAttempts"`
	LockoutDurationSeconds    int     `mapstructure:"lockoutDurationSeconds"`
	FailureResetWindowSeconds int     `mapstructure:"failureResetWindowSeconds"`
	SimilarityThreshold       float64 `mapstructure:"similarityThreshold"`
	EmbeddingDimension        int     `mapstructure:"embeddingDimension"`
	ProfilePath               string  `mapstructure:"profilePath"`
	SessionPath               string  `mapstructure:"sessionPath"`
	StoreEncoding             string  `mapstructure:"storeEncoding"`
	TokenEnabled              bool    `mapstructure:"tokenEnabled"`
	TokenSigningKey           string  `mapstructure:"tokenSigningKey"`
	TokenIssuer               string  `mapstructure:"tokenIssuer"`
	AuditEnabled              bool    `mapstructure:"auditEnabled"`
	AuditBufferSize           int     `mapstructure:"auditBufferSize"`
	MetricsEnabled            bool    `mapstructure:"metricsEnabled"`
	LatencyHistograms         bool    `mapstructure:"latencyHistograms"`
	IncludeScore              bool    `mapstructure:"includeScore"`
}

// LoadConfigFile reads engine configuration from the file at path (any
// format viper recognizes: JSON, YAML, TOML). A missing file is not an
// error; defaults apply. Every option can also be overridden through the
// environment with the VOICEGATE_ prefix, e.g. VOICEGATE_MAXFAILEDATTEMPTS.
// The resulting Config is validated before being returned.
func LoadConfigFile(path string) (Config, error) {
	def := defaultConfig()

	v := viper.New()
	v.SetDefault("sessionTimeoutSeconds", int(def.Session.Timeout/time.Second))
	v.SetDefault("maxFailedAttempts", def.Lockout.MaxFailedAttempts)
	v.SetDefault("lockoutDurationSeconds", int(def.Lockout.Duration/time.Second))
	v.SetDefault("failureResetWindowSeconds", int(def.Lockout.ResetWindow/time.Second))
	v.SetDefault("similarityThreshold", def.Similarity.Threshold)
	v.SetDefault("embeddingDimension", def.Similarity.Dimension)
	v.SetDefault("profilePath", def.Storage.ProfilePath)
	v.SetDefault("sessionPath", def.Storage.SessionPath)
	v.SetDefault("storeEncoding", def.Storage.Encoding)
	v.SetDefault("tokenEnabled", def.Token.Enabled)
	v.SetDefault("tokenSigningKey", "")
	v.SetDefault("tokenIssuer", "voicegate")
	v.SetDefault("auditEnabled", def.Audit.Enabled)
	v.SetDefault("auditBufferSize", def.Audit.BufferSize)
	v.SetDefault("metricsEnabled", def.Metrics.Enabled)
	v.SetDefault("latencyHistograms", def.Metrics.EnableLatencyHistograms)
	v.SetDefault("includeScore", def.Result.IncludeScore)

	v.SetEnvPrefix("voicegate")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var opts fileOptions
	if err := v.Unmarshal(&opts); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := def
	cfg.Session.Timeout = time.Duration(opts.SessionTimeoutSeconds) * time.Second
	cfg.Lockout.MaxFailedAttempts = opts.MaxFailedAttempts
	cfg.Lockout.Duration = time.Duration(opts.LockoutDurationSeconds) * time.Second
	cfg.Lockout.ResetWindow = time.Duration(opts.FailureResetWindowSeconds) * time.Second
	cfg.Similarity.Threshold = opts.SimilarityThreshold
	cfg.Similarity.Dimension = opts.EmbeddingDimension
	cfg.Storage.ProfilePath = opts.ProfilePath
	cfg.Storage.SessionPath = opts.SessionPath
	cfg.Storage.Encoding = opts.StoreEncoding
	cfg.Token.Enabled = opts.TokenEnabled
	if opts.TokenSigningKey != "" {
		cfg.Token.SigningKey = []byte(opts.TokenSigningKey)
	}
	cfg.Token.Issuer = opts.TokenIssuer
	cfg.Audit.Enabled = opts.AuditEnabled
	cfg.Audit.BufferSize = opts.AuditBufferSize
	cfg.Metrics.Enabled = opts.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = opts.LatencyHistograms
	cfg.Result.IncludeScore = opts.IncludeScore

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
