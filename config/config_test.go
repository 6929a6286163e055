package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradejournal/journal"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "sqlite", cfg.Backend.Type)
	assert.Equal(t, "none", cfg.Sync.Transport)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func(mod func(c *Config)) *Config {
		c := Default()
		mod(c)
		return c
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			config: Default(),
		},
		{
			name:    "unknown backend",
			config:  valid(func(c *Config) { c.Backend.Type = "mysql" }),
			wantErr: true,
			errMsg:  "backend.type must be 'sqlite' or 'postgres'",
		},
		{
			name:    "sqlite without path",
			config:  valid(func(c *Config) { c.Backend.DBPath = "" }),
			wantErr: true,
			errMsg:  "backend.db_path is required",
		},
		{
			name:    "postgres without url",
			config:  valid(func(c *Config) { c.Backend.Type = "postgres" }),
			wantErr: true,
			errMsg:  "backend.database_url is required",
		},
		{
			name: "postgres with url",
			config: valid(func(c *Config) {
				c.Backend = BackendConfig{Type: "postgres", DatabaseURL: "postgres://localhost/tj", UserID: "u1"}
			}),
		},
		{
			name:    "missing user",
			config:  valid(func(c *Config) { c.Backend.UserID = "" }),
			wantErr: true,
			errMsg:  "backend.user_id is required",
		},
		{
			name:    "key transport without path",
			config:  valid(func(c *Config) { c.Sync.Transport = "key" }),
			wantErr: true,
			errMsg:  "sync.key_path is required",
		},
		{
			name:    "ws transport without url",
			config:  valid(func(c *Config) { c.Sync.Transport = "ws" }),
			wantErr: true,
			errMsg:  "sync.ws_url is required",
		},
		{
			name:    "in-process hub is not a cli transport",
			config:  valid(func(c *Config) { c.Sync.Transport = "hub" }),
			wantErr: true,
			errMsg:  "sync.transport must be one of none, key, ws",
		},
		{
			name:    "unknown transport",
			config:  valid(func(c *Config) { c.Sync.Transport = "carrier-pigeon" }),
			wantErr: true,
			errMsg:  "sync.transport must be one of",
		},
		{
			name:    "bad poll interval",
			config:  valid(func(c *Config) { c.Sync.PollInterval = "soon" }),
			wantErr: true,
			errMsg:  "sync.poll_interval must be a positive duration",
		},
		{
			name:    "bad log level",
			config:  valid(func(c *Config) { c.Log.Level = "trace" }),
			wantErr: true,
			errMsg:  "log.level must be one of",
		},
		{
			name:    "bad log format",
			config:  valid(func(c *Config) { c.Log.Format = "xml" }),
			wantErr: true,
			errMsg:  "log.format must be 'console' or 'json'",
		},
		{
			name:    "negative risk limit",
			config:  valid(func(c *Config) { c.Risk.MaxDailyLossPct = -1 }),
			wantErr: true,
			errMsg:  "risk limits must not be negative",
		},
		{
			name:    "bad currency",
			config:  valid(func(c *Config) { c.Currency = "DOLLARS" }),
			wantErr: true,
			errMsg:  "currency must be a 3-letter code",
		},
		{
			name:    "untitled goal",
			config:  valid(func(c *Config) { c.Goals = []journal.Goal{{Title: "ok"}, {Title: " "}} }),
			wantErr: true,
			errMsg:  "goals[1].title is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Sync = SyncConfig{Transport: "key", KeyPath: "./sync.json", PollInterval: "1s"}
			cfg.Goals = []journal.Goal{{
				ID: "g1", Title: "Win rate", Target: 60, Unit: journal.UnitPercent,
				Due: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			}}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			err := cfg.SaveToFile(path)
			require.NoError(t, err)

			_, err = os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg.Backend, loaded.Backend)
			assert.Equal(t, cfg.Sync, loaded.Sync)
			assert.Equal(t, cfg.Risk, loaded.Risk)
			assert.Equal(t, cfg.Currency, loaded.Currency)
			require.Len(t, loaded.Goals, 1)
			assert.Equal(t, "Win rate", loaded.Goals[0].Title)
			assert.Equal(t, journal.UnitPercent, loaded.Goals[0].Unit)
			assert.True(t, cfg.Goals[0].Due.Equal(loaded.Goals[0].Due))
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadFromFile_DatabaseURLFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/tj")

	path := filepath.Join(t.TempDir(), "tj.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  type: postgres
  user_id: u1
currency: EUR
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/tj", cfg.Backend.DatabaseURL)
	assert.Equal(t, "EUR", cfg.Currency)

	raw, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, raw.Backend.DatabaseURL, "ReadFile leaves the environment out")
}

func TestSyncInterval(t *testing.T) {
	tests := []struct {
		in       string
		expected time.Duration
		wantErr  bool
	}{
		{"250ms", 250 * time.Millisecond, false},
		{"1s", time.Second, false},
		{"", 0, false},
		{"invalid", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := SyncConfig{PollInterval: tt.in}.Interval()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, d)
			}
		})
	}
}
