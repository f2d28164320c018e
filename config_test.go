package voicegate

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	if cfg.Session.Timeout != 30*time.Minute {
		t.Fatalf("session timeout = %v", cfg.Session.Timeout)
	}
	if cfg.Lockout.MaxFailedAttempts != 3 {
		t.Fatalf("max failed attempts = %d", cfg.Lockout.MaxFailedAttempts)
	}
	if cfg.Lockout.Duration != 5*time.Minute {
		t.Fatalf("lockout duration = %v", cfg.Lockout.Duration)
	}
	if cfg.Lockout.ResetWindow != 10*time.Minute {
		t.Fatalf("reset window = %v", cfg.Lockout.ResetWindow)
	}
	if cfg.Similarity.Threshold != 0.75 {
		t.Fatalf("threshold = %v", cfg.Similarity.Threshold)
	}
	if cfg.Storage.Encoding != "json" {
		t.Fatalf("encoding = %q", cfg.Storage.Encoding)
	}
}

func TestConfigValidate_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		keyword string
	}{
		{"zero-timeout", func(c *Config) { c.Session.Timeout = 0 }, "Timeout"},
		{"zero-attempts", func(c *Config) { c.Lockout.MaxFailedAttempts = 0 }, "MaxFailedAttempts"},
		{"zero-lockout", func(c *Config) { c.Lockout.Duration = 0 }, "Duration"},
		{"zero-window", func(c *Config) { c.Lockout.ResetWindow = 0 }, "ResetWindow"},
		{"threshold-high", func(c *Config) { c.Similarity.Threshold = 1 }, "Threshold"},
		{"threshold-low", func(c *Config) { c.Similarity.Threshold = -1 }, "Threshold"},
		{"negative-dimension", func(c *Config) { c.Similarity.Dimension = -1 }, "Dimension"},
		{"no-profile-path", func(c *Config) { c.Storage.ProfilePath = "" }, "ProfilePath"},
		{"no-session-path", func(c *Config) { c.Storage.SessionPath = "" }, "SessionPath"},
		{"same-paths", func(c *Config) { c.Storage.SessionPath = c.Storage.ProfilePath }, "differ"},
		{"bad-encoding", func(c *Config) { c.Storage.Encoding = "yaml" }, "Encoding"},
		{"short-token-key", func(c *Config) { c.Token.Enabled = true; c.Token.SigningKey = []byte("x") }, "SigningKey"},
		{"zero-audit-buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }, "BufferSize"},
	}

	for _, tc := range cases {
		cfg := defaultConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.keyword) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.keyword)
		}
	}
}

func TestCloneConfig_DecouplesSigningKey(t *testing.T) {
	cfg := defaultConfig()
	cfg.Token.SigningKey = []byte("0123456789abcdef0123456789abcdef")

	cp := cloneConfig(cfg)
	cp.Token.SigningKey[0] = 'X'

	if cfg.Token.SigningKey[0] != '0' {
		t.Fatal("clone must not share the signing key backing array")
	}
}
