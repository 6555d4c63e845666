package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "env.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

const minimalConfig = `
db:
  url: postgres://localhost:5432/pulsemon
auth:
  secret: test-secret
  admin_password_hash: test-hash
`

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %q", cfg.Env)
	}
	if cfg.Worker == nil || cfg.Worker.IntervalSec != 60 {
		t.Errorf("expected default worker interval 60, got %+v", cfg.Worker)
	}
	if cfg.Notifier == nil || cfg.Notifier.TimeoutSec != 10 {
		t.Errorf("expected default notifier timeout 10, got %+v", cfg.Notifier)
	}
	if cfg.Notifier.WorkerCount != 4 || cfg.Notifier.ChannelSize != 256 {
		t.Errorf("unexpected notifier pool defaults: %+v", cfg.Notifier)
	}
	if cfg.Auth.ExpiryMin != 30 {
		t.Errorf("expected default token expiry 30, got %d", cfg.Auth.ExpiryMin)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, minimalConfig+`
port: 9090
worker:
  interval_sec: 15
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.Worker.IntervalSec != 15 {
		t.Errorf("expected worker interval 15, got %d", cfg.Worker.IntervalSec)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("WORKER_INTERVAL_SEC", "5")

	cfg, err := LoadConfig(writeConfigFile(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Worker.IntervalSec != 5 {
		t.Errorf("WORKER_INTERVAL_SEC must override the worker interval, got %d", cfg.Worker.IntervalSec)
	}
}

func TestLoadConfig_MissingAuthSecret(t *testing.T) {
	_, err := LoadConfig(writeConfigFile(t, `
db:
  url: postgres://localhost:5432/pulsemon
auth:
  admin_password_hash: test-hash
`))
	if err == nil {
		t.Fatal("config without auth.secret must fail validation")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing config file must be an error")
	}
}
