package config

import (
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appLog "datecalc/internal/log"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Environment overrides are applied by ApplyEnv after Load.

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	DriverMemory = "memory"
	DriverSQLite = "sqlite"

	defaultListen  = "127.0.0.1:8000"
	defaultZone    = "UTC"
	defaultCron    = "*/5 * * * *"
	defaultDSN     = "datecalc-notes.db"
	defaultLevel   = "info"
	defaultMaxNote = 10240
)

// CacheConfig controls the memo cache of pure calculation results.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Size    int           `yaml:"size" json:"size"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// NotesConfig selects and sizes the note store.
type NotesConfig struct {
	// Driver is "memory" (default) or "sqlite".
	Driver       string `yaml:"driver" json:"driver"`
	// DSN is the sqlite database path; ignored by the memory driver.
	DSN          string `yaml:"dsn" json:"dsn"`
	MaxNotes     int    `yaml:"max_notes" json:"max_notes"`
	MaxNoteBytes int    `yaml:"max_note_bytes" json:"max_note_bytes"`
}

// HTTPConfig tunes the HTTP transport.
type HTTPConfig struct {
	RateLimitRPS    float64       `yaml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" json:"rate_limit_burst"`
	StreamHeartbeat time.Duration `yaml:"stream_heartbeat" json:"stream_heartbeat"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the HTTP transport.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Transport is "stdio" (default) or "http".
	Transport string `yaml:"transport" json:"transport"`

	// Listen is the HTTP listen address, used only by the http transport.
	Listen string `yaml:"listen" json:"listen"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// DefaultTimezone is the IANA zone used when a request names none.
	DefaultTimezone string `yaml:"default_timezone" json:"default_timezone"`

	// ZoneinfoDir, if set, is scanned for the supported-timezones listing.
	ZoneinfoDir string `yaml:"zoneinfo_dir,omitempty" json:"zoneinfo_dir,omitempty"`

	Cache CacheConfig `yaml:"cache" json:"cache"`
	Notes NotesConfig `yaml:"notes" json:"notes"`

	// MaintenanceCron is a cron-style schedule for housekeeping. Empty
	// disables it.
	MaintenanceCron string `yaml:"maintenance_cron" json:"maintenance_cron"`

	HTTP HTTPConfig `yaml:"http" json:"http"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Transport:       TransportStdio,
		Listen:          defaultListen,
		LogLevel:        defaultLevel,
		DefaultTimezone: defaultZone,
		Cache: CacheConfig{
			Enabled: true,
			Size:    1024,
			TTL:     10 * time.Minute,
		},
		Notes: NotesConfig{
			Driver:       DriverMemory,
			DSN:          defaultDSN,
			MaxNotes:     1000,
			MaxNoteBytes: defaultMaxNote,
		},
		MaintenanceCron: defaultCron,
		HTTP: HTTPConfig{
			RateLimitRPS:    10,
			RateLimitBurst:  20,
			StreamHeartbeat: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly. MaintenanceCron is left
// alone: empty is a valid setting.
func (c *Config) Normalize() {
	d := DefaultConfig()
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	if c.Transport == "" {
		c.Transport = d.Transport
	}
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = d.DefaultTimezone
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = d.Cache.Size
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = d.Cache.TTL
	}
	c.Notes.Driver = strings.ToLower(strings.TrimSpace(c.Notes.Driver))
	if c.Notes.Driver == "" {
		c.Notes.Driver = d.Notes.Driver
	}
	if c.Notes.DSN == "" {
		c.Notes.DSN = d.Notes.DSN
	}
	if c.Notes.MaxNotes <= 0 {
		c.Notes.MaxNotes = d.Notes.MaxNotes
	}
	if c.Notes.MaxNoteBytes <= 0 {
		c.Notes.MaxNoteBytes = d.Notes.MaxNoteBytes
	}
	if c.HTTP.RateLimitRPS <= 0 {
		c.HTTP.RateLimitRPS = d.HTTP.RateLimitRPS
	}
	if c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = d.HTTP.RateLimitBurst
	}
	if c.HTTP.StreamHeartbeat <= 0 {
		c.HTTP.StreamHeartbeat = d.HTTP.StreamHeartbeat
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = d.HTTP.RequestTimeout
	}
}

// Validate reports settings that would make the server fail later.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return errors.Errorf("unknown transport %q (want stdio or http)", c.Transport)
	}
	switch c.Notes.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return errors.Errorf("unknown notes driver %q (want memory or sqlite)", c.Notes.Driver)
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return errors.Wrapf(err, "invalid listen address %q", c.Listen)
	}
	// "Local" would tie results to the host setting; the engine rejects it.
	if c.DefaultTimezone == "Local" {
		return errors.Errorf("default timezone must be an IANA name, not %q", c.DefaultTimezone)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return errors.Wrapf(err, "unknown default timezone %q", c.DefaultTimezone)
	}
	if _, err := appLog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	return nil
}

// ApplyEnv overrides file settings from the process environment. getenv is
// usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("TRANSPORT_MODE"); v != "" {
		c.Transport = strings.ToLower(v)
	}
	host, port, err := net.SplitHostPort(c.Listen)
	if err != nil {
		host, port = "127.0.0.1", "8000"
	}
	if v := getenv("HTTP_HOST"); v != "" {
		host = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			port = v
		} else {
			appLog.Warn("ignoring non-numeric HTTP_PORT", "value", v)
		}
	}
	c.Listen = net.JoinHostPort(host, port)
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("DATECALC_DEFAULT_TIMEZONE"); v != "" {
		c.DefaultTimezone = v
	}
	if v := getenv("DATECALC_NOTES_DRIVER"); v != "" {
		c.Notes.Driver = strings.ToLower(v)
	}
	if v := getenv("DATECALC_NOTES_DSN"); v != "" {
		c.Notes.DSN = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - An empty path returns the defaults without touching disk.
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled over the defaults and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file in the same directory, then rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	tmp, err := os.CreateTemp(dir, ".datecalc-config-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp config")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp config")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync temp config")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp config")
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return errors.Wrap(err, "chmod temp config")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "rename config")
	}
	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
