package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadFrom(t *testing.T) {
	path := writeConfigFile(t, `
app:
  port: 8080
  gin_mode: release
moodle:
  base_url: https://elearning.ueab.ac.ke/webservice/rest/server.php
  token: abc123
  timeout: 45s
cache:
  backend: memory
  ttl: 3m
  tree_ttl: 15m
jwt:
  secret: real-secret
  issuer: ueab-odel
  session_ttl: 12h
magic_code:
  length: 8
  ttl: 5m
  max_attempts: 3
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.MoodleTimeout != 45*time.Second {
		t.Errorf("MoodleTimeout = %v, want 45s", cfg.MoodleTimeout)
	}
	if cfg.CacheTTL != 3*time.Minute || cfg.TreeTTL != 15*time.Minute {
		t.Errorf("cache TTLs = %v / %v", cfg.CacheTTL, cfg.TreeTTL)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL = %v, want 12h", cfg.SessionTTL)
	}
	if cfg.CodeLength != 8 || cfg.CodeMaxAttempts != 3 || cfg.CodeTTL != 5*time.Minute {
		t.Errorf("magic code config = %d/%d/%v", cfg.CodeLength, cfg.CodeMaxAttempts, cfg.CodeTTL)
	}
	if cfg.UsingPlaceholderSecret() {
		t.Error("a configured secret must not read as the placeholder")
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
app:
  port: 8080
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.MoodleTimeout != 30*time.Second {
		t.Errorf("MoodleTimeout = %v, want default 30s", cfg.MoodleTimeout)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want default 5m", cfg.CacheTTL)
	}
	if cfg.TreeTTL != 10*time.Minute {
		t.Errorf("TreeTTL = %v, want default 10m", cfg.TreeTTL)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want default 24h", cfg.SessionTTL)
	}
	if cfg.CodeLength != 6 || cfg.CodeMaxAttempts != 5 || cfg.CodeTTL != 10*time.Minute {
		t.Errorf("magic code defaults = %d/%d/%v", cfg.CodeLength, cfg.CodeMaxAttempts, cfg.CodeTTL)
	}
	if cfg.JWTIssuer != "odel-portal" {
		t.Errorf("JWTIssuer = %q, want default", cfg.JWTIssuer)
	}
	if !cfg.UsingPlaceholderSecret() {
		t.Error("missing secret must fall back to the placeholder")
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
moodle:
  token: file-token
jwt:
  secret: file-secret
`)

	t.Setenv("MOODLE_TOKEN", "env-token")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.MoodleToken != "env-token" {
		t.Errorf("MoodleToken = %q, want env override", cfg.MoodleToken)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret = %q, want env override", cfg.JWTSecret)
	}
}

func TestLoadFrom_Errors(t *testing.T) {
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeConfigFile(t, `
cache:
  ttl: not-a-duration
`)
	if _, err := LoadFrom(bad); err == nil {
		t.Error("expected error for malformed duration")
	}
}
