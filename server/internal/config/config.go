package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultA                 = 1.0
	DefaultB                 = 2.0
	DefaultHTTPPort          = 8080
	DefaultBroadcastInterval = 5 * time.Second
	DefaultHistoryTTL        = 10 * time.Minute
	DefaultHistoryMaxEntries = 1000
	DefaultLogLevel          = "info"
)

// Config is the top-level configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Server  ServerConfig  `yaml:"server"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

// ModelConfig holds the parameters the model is constructed with. On hot
// reload the same fields are applied to the running model in one batch.
type ModelConfig struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, WebSocket hub and /metrics listen on.
	HTTPPort int `yaml:"http_port"`

	// BroadcastInterval is how often the hub pushes a heartbeat snapshot to
	// connected clients, in addition to the per-update pushes.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// HistoryConfig controls retention of the in-memory update log.
type HistoryConfig struct {
	// TTL is how long an update record is kept before eviction.
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries caps the log length; the oldest record is dropped first.
	MaxEntries int `yaml:"max_entries"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel returns the slog level named by Level.
// An unrecognised name falls back to info; validate rejects those on Load.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Model: ModelConfig{
			A: DefaultA,
			B: DefaultB,
		},
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcastInterval,
		},
		History: HistoryConfig{
			TTL:        DefaultHistoryTTL,
			MaxEntries: DefaultHistoryMaxEntries,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if !finite(cfg.Model.A) {
		return fmt.Errorf("model.a must be a finite number")
	}
	if !finite(cfg.Model.B) {
		return fmt.Errorf("model.b must be a finite number")
	}
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d out of range", cfg.Server.HTTPPort)
	}
	if cfg.Server.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}
	if cfg.History.TTL <= 0 {
		return fmt.Errorf("history.ttl must be positive")
	}
	if cfg.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be positive")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
