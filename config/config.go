package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/risk"
)

// Config is the complete journal configuration.
type Config struct {
	Backend  BackendConfig  `json:"backend" yaml:"backend"`
	Sync     SyncConfig     `json:"sync" yaml:"sync"`
	Prefs    PrefsConfig    `json:"prefs" yaml:"prefs"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Risk     risk.Policy    `json:"risk" yaml:"risk"`
	Currency string         `json:"currency" yaml:"currency"`
	Goals    []journal.Goal `json:"goals,omitempty" yaml:"goals,omitempty"`
}

// BackendConfig selects where trades and accounts live.
type BackendConfig struct {
	Type        string `json:"type" yaml:"type"` // "sqlite" or "postgres"
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	UserID      string `json:"user_id" yaml:"user_id"`
}

// SyncConfig selects the transport used to keep several processes in step.
type SyncConfig struct {
	Transport    string `json:"transport" yaml:"transport"` // "none", "key" or "ws"
	KeyPath      string `json:"key_path,omitempty" yaml:"key_path,omitempty"`
	PollInterval string `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"` // e.g. "250ms"
	WSURL        string `json:"ws_url,omitempty" yaml:"ws_url,omitempty"`
	WSListen     string `json:"ws_listen,omitempty" yaml:"ws_listen,omitempty"`
}

// Interval parses PollInterval; empty means zero.
func (s SyncConfig) Interval() (time.Duration, error) {
	if s.PollInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(s.PollInterval)
}

type PrefsConfig struct {
	Path string `json:"path" yaml:"path"`
}

// LogConfig mirrors the logger options.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // console or json
}

// LoadFromFile loads configuration from a file, YAML or JSON, and
// validates it. DATABASE_URL in the environment overrides
// backend.database_url.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ReadFile parses a configuration file as written, without environment
// overrides or validation.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnv folds environment overrides into c.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.Backend.DatabaseURL = v
	}
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths and JSON
// otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Backend.Type {
	case "sqlite":
		if c.Backend.DBPath == "" {
			return fmt.Errorf("backend.db_path is required for sqlite")
		}
	case "postgres":
		if c.Backend.DatabaseURL == "" {
			return fmt.Errorf("backend.database_url is required for postgres")
		}
	default:
		return fmt.Errorf("backend.type must be 'sqlite' or 'postgres'")
	}
	if c.Backend.UserID == "" {
		return fmt.Errorf("backend.user_id is required")
	}

	switch c.Sync.Transport {
	case "", "none":
	case "key":
		if c.Sync.KeyPath == "" {
			return fmt.Errorf("sync.key_path is required for key transport")
		}
	case "ws":
		if c.Sync.WSURL == "" {
			return fmt.Errorf("sync.ws_url is required for ws transport")
		}
	default:
		return fmt.Errorf("sync.transport must be one of none, key, ws")
	}
	if d, err := c.Sync.Interval(); err != nil || d < 0 {
		return fmt.Errorf("sync.poll_interval must be a positive duration")
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}

	r := c.Risk
	if r.MaxRiskPct < 0 || r.MaxDailyLossPct < 0 || r.MaxWeeklyLossPct < 0 || r.MaxOpenTrades < 0 {
		return fmt.Errorf("risk limits must not be negative")
	}

	if len(c.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code")
	}
	for i, g := range c.Goals {
		if strings.TrimSpace(g.Title) == "" {
			return fmt.Errorf("goals[%d].title is required", i)
		}
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Type:   "sqlite",
			DBPath: "./journal.db",
			UserID: "local",
		},
		Sync: SyncConfig{
			Transport:    "none",
			PollInterval: "250ms",
			WSListen:     ":8765",
		},
		Prefs: PrefsConfig{
			Path: "./prefs.yaml",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Risk:     risk.DefaultPolicy(),
		Currency: "USD",
	}
}
