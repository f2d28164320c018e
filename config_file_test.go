package voicegate

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile_Defaults(t *testing.T) {
	cfg, err := LoadConfigFile("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.Timeout != 30*time.Minute {
		t.Fatalf("timeout = %v", cfg.Session.Timeout)
	}
	if cfg.Similarity.Threshold != 0.75 {
		t.Fatalf("threshold = %v", cfg.Similarity.Threshold)
	}
}

func TestLoadConfigFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Lockout.MaxFailedAttempts != 3 {
		t.Fatalf("max failed attempts = %d", cfg.Lockout.MaxFailedAttempts)
	}
}

func TestLoadConfigFile_OverridesApplied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voicegate.json")
	body := `{
	  "sessionTimeoutSeconds": 900,
	  "maxFailedAttempts": 5,
	  "lockoutDurationSeconds": 120,
	  "failureResetWindowSeconds": 300,
	  "similarityThreshold": 0.8,
	  "embeddingDimension": 192,
	  "profilePath": "` + filepath.ToSlash(filepath.Join(dir, "p.json")) + `",
	  "sessionPath": "` + filepath.ToSlash(filepath.Join(dir, "s.json")) + `",
	  "storeEncoding": "cbor",
	  "metricsEnabled": true
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Session.Timeout != 15*time.Minute {
		t.Fatalf("timeout = %v", cfg.Session.Timeout)
	}
	if cfg.Lockout.MaxFailedAttempts != 5 {
		t.Fatalf("attempts = %d", cfg.Lockout.MaxFailedAttempts)
	}
	if cfg.Lockout.Duration != 2*time.Minute {
		t.Fatalf("lockout = %v", cfg.Lockout.Duration)
	}
	if cfg.Lockout.ResetWindow != 5*time.Minute {
		t.Fatalf("window = %v", cfg.Lockout.ResetWindow)
	}
	if cfg.Similarity.Threshold != 0.8 {
		t.Fatalf("threshold = %v", cfg.Similarity.Threshold)
	}
	if cfg.Similarity.Dimension != 192 {
		t.Fatalf("dimension = %d", cfg.Similarity.Dimension)
	}
	if cfg.Storage.Encoding != "cbor" {
		t.Fatalf("encoding = %q", cfg.Storage.Encoding)
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("metrics should be enabled")
	}
}

func TestLoadConfigFile_InvalidValuesRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicegate.json")
	if err := os.WriteFile(path, []byte(`{"similarityThreshold": 2.0}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("out-of-range threshold must fail validation")
	}
}

func TestLoadConfigFile_EnvironmentOverride(t *testing.T) {
	t.Setenv("VOICEGATE_MAXFAILEDATTEMPTS", "7")

	cfg, err := LoadConfigFile("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Lockout.MaxFailedAttempts != 7 {
		t.Fatalf("env override ignored: attempts = %d", cfg.Lockout.MaxFailedAttempts)
	}
}

func TestLoadConfigFile_BuildableResult(t *testing.T) {
	cfg, err := LoadConfigFile("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	dir := t.TempDir()
	cfg.Storage.ProfilePath = filepath.Join(dir, "users.json")
	cfg.Storage.SessionPath = filepath.Join(dir, "sessions.json")

	engine, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build from loaded config: %v", err)
	}
	engine.Close()
}
