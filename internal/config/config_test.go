package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr, got %s", cfg.Server.Addr)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("expected memory backend, got %s", cfg.Store.Backend)
	}
	if cfg.Game.IdleRoomTTLSeconds != 600 {
		t.Errorf("expected 600s idle ttl, got %d", cfg.Game.IdleRoomTTLSeconds)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chiprail.hcl")
	content := `
server {
  addr = ":9000"
}

store {
  backend = "sqlite"
  path    = "/tmp/rooms.db"
}

game {
  auto_fold_disconnected = true
}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected :9000, got %s", cfg.Server.Addr)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("expected default log level, got %s", cfg.Server.LogLevel)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "/tmp/rooms.db" {
		t.Errorf("store settings not honored: %+v", cfg.Store)
	}
	if !cfg.Game.AutoFoldDisconnected {
		t.Error("auto_fold_disconnected not honored")
	}
	if cfg.Game.LivenessTimeoutSeconds != 15 {
		t.Errorf("expected default liveness timeout, got %d", cfg.Game.LivenessTimeoutSeconds)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "trace" }, true},
		{"bad backend", func(c *Config) { c.Store.Backend = "etcd" }, true},
		{"sqlite without path", func(c *Config) {
			c.Store.Backend = "sqlite"
			c.Store.Path = ""
		}, true},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = "postgres" }, true},
		{"zero liveness", func(c *Config) { c.Game.LivenessTimeoutSeconds = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hcl")
	if err := os.WriteFile(path, []byte(`server { addr = `), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
