// Package config loads the service configuration from an HCL file.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete service configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Store  StoreSettings  `hcl:"store,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains the HTTP listener configuration.
type ServerSettings struct {
	Addr     string `hcl:"addr,optional"`
	LogLevel string `hcl:"log_level,optional"`
	Metrics  bool   `hcl:"metrics,optional"`
}

// StoreSettings selects the snapshot store backend.
type StoreSettings struct {
	Backend string `hcl:"backend,optional"`
	Path    string `hcl:"path,optional"`
	DSN     string `hcl:"dsn,optional"`
}

// GameSettings tunes room lifecycle policy.
type GameSettings struct {
	// Seconds a session may go silent before the player shows disconnected.
	LivenessTimeoutSeconds int `hcl:"liveness_timeout_seconds,optional"`
	// Fold a disconnected player when their turn times out. Default off:
	// a disconnected player's turn stays blocking.
	AutoFoldDisconnected bool `hcl:"auto_fold_disconnected,optional"`
	// Seconds between registry cleanup sweeps.
	CleanupIntervalSeconds int `hcl:"cleanup_interval_seconds,optional"`
	// Seconds a fully disconnected room survives before deletion.
	IdleRoomTTLSeconds int `hcl:"idle_room_ttl_seconds,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Addr:     ":8080",
			LogLevel: "info",
			Metrics:  true,
		},
		Store: StoreSettings{
			Backend: "memory",
			Path:    "chiprail.db",
		},
		Game: GameSettings{
			LivenessTimeoutSeconds: 15,
			CleanupIntervalSeconds: 10,
			IdleRoomTTLSeconds:     600,
		},
	}
}

// Load reads the HCL file at filename, falling back to defaults when it
// does not exist.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	def := Default()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = def.Server.LogLevel
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = def.Store.Backend
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = def.Store.Path
	}
	if cfg.Game.LivenessTimeoutSeconds == 0 {
		cfg.Game.LivenessTimeoutSeconds = def.Game.LivenessTimeoutSeconds
	}
	if cfg.Game.CleanupIntervalSeconds == 0 {
		cfg.Game.CleanupIntervalSeconds = def.Game.CleanupIntervalSeconds
	}
	if cfg.Game.IdleRoomTTLSeconds == 0 {
		cfg.Game.IdleRoomTTLSeconds = def.Game.IdleRoomTTLSeconds
	}

	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}
	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("sqlite store requires a path")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("postgres store requires a dsn")
		}
	default:
		return fmt.Errorf("invalid store backend: %s", c.Store.Backend)
	}
	if c.Game.LivenessTimeoutSeconds <= 0 {
		return fmt.Errorf("liveness timeout must be positive")
	}
	if c.Game.CleanupIntervalSeconds <= 0 {
		return fmt.Errorf("cleanup interval must be positive")
	}
	if c.Game.IdleRoomTTLSeconds <= 0 {
		return fmt.Errorf("idle room ttl must be positive")
	}
	return nil
}
