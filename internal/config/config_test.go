package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportStdio, cfg.Transport)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
transport: HTTP
listen: 0.0.0.0:9000
default_timezone: Europe/Paris
cache:
  ttl: 2m
notes:
  driver: sqlite
  dsn: /tmp/notes.db
maintenance_cron: ""
basic_auth:
  username: admin
  password: secret
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "Europe/Paris", cfg.DefaultTimezone)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1024, cfg.Cache.Size)
	assert.Equal(t, DriverSQLite, cfg.Notes.Driver)
	assert.Equal(t, 1000, cfg.Notes.MaxNotes)
	assert.Empty(t, cfg.MaintenanceCron)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "admin", cfg.BasicAuth.Username)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transport: [oops"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Transport = TransportHTTP
	cfg.HTTP.RateLimitRPS = 2.5

	require.NoError(t, cfg.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TRANSPORT_MODE":            "HTTP",
		"HTTP_HOST":                 "0.0.0.0",
		"HTTP_PORT":                 "9090",
		"LOG_LEVEL":                 "debug",
		"DATECALC_DEFAULT_TIMEZONE": "Asia/Tokyo",
		"DATECALC_NOTES_DRIVER":     "SQLite",
		"DATECALC_NOTES_DSN":        ":memory:",
	}
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, "0.0.0.0:9090", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "Asia/Tokyo", cfg.DefaultTimezone)
	assert.Equal(t, DriverSQLite, cfg.Notes.Driver)
	assert.Equal(t, ":memory:", cfg.Notes.DSN)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvIgnoresBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string {
		if k == "HTTP_PORT" {
			return "eighty"
		}
		return ""
	})
	assert.Equal(t, defaultListen, cfg.Listen)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"transport", func(c *Config) { c.Transport = "sse" }},
		{"driver", func(c *Config) { c.Notes.Driver = "redis" }},
		{"listen", func(c *Config) { c.Listen = "localhost" }},
		{"timezone", func(c *Config) { c.DefaultTimezone = "Mars/Olympus" }},
		{"host local timezone", func(c *Config) { c.DefaultTimezone = "Local" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
