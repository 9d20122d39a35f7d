package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// TodoistConfig holds credentials and endpoint for the task sink.
type TodoistConfig struct {
	// Token is the Todoist API token. If empty, the TODOIST_API_TOKEN
	// environment variable is consulted at load time.
	Token string `yaml:"token" json:"-"`
	// BaseURL overrides the Todoist REST endpoint; empty means production.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// SyncConfig holds the reconciliation rules owned by the deployment.
type SyncConfig struct {
	// Anchor is the keyword that marks the start of the comparable core title.
	Anchor string `yaml:"anchor" json:"anchor"`
	// Delimiters terminate the core title window.
	Delimiters []string `yaml:"delimiters" json:"delimiters"`
	// Exclude lists substrings (course/section codes) that disqualify an event.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// FallbackStart / FallbackEnd are "HH:MM" wall-clock times used for
	// date-only events with no reference-feed match.
	FallbackStart string `yaml:"fallback_start" json:"fallback_start"`
	FallbackEnd   string `yaml:"fallback_end" json:"fallback_end"`

	// HorizonDays / LookbackDays bound recurrence expansion around now.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days"`
	LookbackDays int `yaml:"lookback_days" json:"lookback_days"`
}

// StoreConfig selects the dedup store backend.
type StoreConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `yaml:"backend" json:"backend"`
	// Path is the identifier file or SQLite database path.
	Path string `yaml:"path" json:"path"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the status server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// PersonalICSURL is the primary calendar whose events become tasks.
	PersonalICSURL string `yaml:"personal_ics_url" json:"personal_ics_url"`
	// ReferenceICSURL is the authoritative schedule used to fill in missing
	// time-of-day for date-only personal events.
	ReferenceICSURL string `yaml:"reference_ics_url" json:"reference_ics_url"`

	Todoist TodoistConfig `yaml:"todoist" json:"todoist"`
	Sync    SyncConfig    `yaml:"sync" json:"sync"`
	Store   StoreConfig   `yaml:"store" json:"store"`

	// Schedule is a cron expression for daemon-mode periodic sync.
	Schedule string `yaml:"schedule" json:"schedule"`

	// Listen is the HTTP listen address for the status endpoint.
	Listen string `yaml:"listen" json:"listen"`

	// BasicAuth, if non-nil, protects all status endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// Timezone is the IANA zone used for date-only and fallback instants.
	Timezone string `yaml:"timezone" json:"timezone"`

	// CacheDir is the base directory for the ICS HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Todoist: TodoistConfig{},
		Sync: SyncConfig{
			Anchor:        "laboratoriemedicin",
			Delimiters:    []string{"sign:", "moment:"},
			Exclude:       []string{"BMA152", "[BMA052 HT24]", "[BMA201 VT25]"},
			FallbackStart: "23:00",
			FallbackEnd:   "23:59",
			HorizonDays:   60,
			LookbackDays:  7,
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    "./var/added_events.txt",
		},
		Schedule: "*/30 * * * *",
		Listen:   "127.0.0.1:8080",
		Timezone: "Europe/Stockholm",
		CacheDir: "./var/ics-cache",
		LogLevel: "info",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Todoist.Token == "" {
		c.Todoist.Token = os.Getenv("TODOIST_API_TOKEN")
	}
	if c.Sync.Anchor == "" {
		c.Sync.Anchor = def.Sync.Anchor
	}
	if c.Sync.Delimiters == nil {
		c.Sync.Delimiters = def.Sync.Delimiters
	}
	if c.Sync.Exclude == nil {
		c.Sync.Exclude = def.Sync.Exclude
	}
	if c.Sync.FallbackStart == "" {
		c.Sync.FallbackStart = def.Sync.FallbackStart
	}
	if c.Sync.FallbackEnd == "" {
		c.Sync.FallbackEnd = def.Sync.FallbackEnd
	}
	if c.Sync.HorizonDays <= 0 {
		c.Sync.HorizonDays = def.Sync.HorizonDays
	}
	if c.Sync.LookbackDays <= 0 {
		c.Sync.LookbackDays = def.Sync.LookbackDays
	}
	if c.Store.Backend == "" {
		c.Store.Backend = def.Store.Backend
	}
	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}
	if c.Schedule == "" {
		c.Schedule = def.Schedule
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate reports configuration that cannot produce a working sync.
func (c *Config) Validate() error {
	var missing []string
	if c.PersonalICSURL == "" {
		missing = append(missing, "personal_ics_url")
	}
	if c.ReferenceICSURL == "" {
		missing = append(missing, "reference_ics_url")
	}
	if c.Todoist.Token == "" {
		missing = append(missing, "todoist.token (or TODOIST_API_TOKEN)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if _, _, err := ParseClock(c.Sync.FallbackStart); err != nil {
		return fmt.Errorf("sync.fallback_start: %w", err)
	}
	if _, _, err := ParseClock(c.Sync.FallbackEnd); err != nil {
		return fmt.Errorf("sync.fallback_end: %w", err)
	}
	return nil
}

// ParseClock parses a "HH:MM" wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock value %q, want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600) and
// returned, so a first run leaves a template for the operator to fill in.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			cfg.Normalize()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration atomically (temp file + rename) with
// 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".todosync-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
