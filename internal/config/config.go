package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abelbrown/mentions/internal/fetch"
)

// Environment variables that override the file.
const (
	EnvBackendURL = "MENTIONS_BACKEND_URL"
	EnvAPIToken   = "MENTIONS_API_TOKEN"
	EnvPostLimit  = "MENTIONS_POST_LIMIT"
	EnvTimezone   = "MENTIONS_TIMEZONE"
	EnvLogLevel   = "MENTIONS_LOG_LEVEL"
)

// Config holds all mentions configuration
type Config struct {
	Backend   BackendConfig      `json:"backend"`
	Feeds     []fetch.FeedConfig `json:"feeds"`
	Dashboard DashboardConfig    `json:"dashboard"`
	UI        UIConfig           `json:"ui"`
	StorePath string             `json:"store_path,omitempty"`
}

// BackendConfig configures the posts API
type BackendConfig struct {
	URL            string `json:"url"`
	Token          string `json:"token,omitempty"`
	PostLimit      int    `json:"post_limit"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MinIntervalMs  int    `json:"min_interval_ms"`
}

// DashboardConfig tunes filtering and chart interaction
type DashboardConfig struct {
	PageSize        int    `json:"page_size"`
	DoubleClickMs   int    `json:"double_click_ms"`
	KeywordFallback bool   `json:"keyword_fallback"`
	Timezone        string `json:"timezone,omitempty"`
	RefreshMinutes  int    `json:"refresh_minutes"`
}

// UIConfig holds display settings
type UIConfig struct {
	VisibleDays int    `json:"visible_days"`
	ShowDebug   bool   `json:"show_debug"`
	LogLevel    string `json:"log_level"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:            "http://localhost:8000",
			PostLimit:      500,
			TimeoutSeconds: 15,
			MinIntervalMs:  250,
		},
		Dashboard: DashboardConfig{
			PageSize:       25,
			DoubleClickMs:  300,
			RefreshMinutes: 5,
		},
		UI: UIConfig{
			VisibleDays: 30,
			LogLevel:    "info",
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mentions/config.json"
	}
	return filepath.Join(home, ".mentions", "config.json")
}

// Load reads config from path, or ConfigPath when path is empty.
// A missing file yields defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.ApplyEnv()
	cfg.normalize()
	return cfg, nil
}

// Save writes config to path, or ConfigPath when path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// LoadEnvFile loads KEY=value pairs into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from MENTIONS_* environment variables.
// Malformed numbers are ignored.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		c.Backend.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIToken)); v != "" {
		c.Backend.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPostLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Backend.PostLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimezone)); v != "" {
		c.Dashboard.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.UI.LogLevel = v
	}
}

func (c *Config) normalize() {
	d := DefaultConfig()
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	if c.Backend.PostLimit <= 0 {
		c.Backend.PostLimit = d.Backend.PostLimit
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = d.Backend.TimeoutSeconds
	}
	if c.Backend.MinIntervalMs < 0 {
		c.Backend.MinIntervalMs = 0
	}
	if c.Dashboard.PageSize <= 0 {
		c.Dashboard.PageSize = d.Dashboard.PageSize
	}
	if c.Dashboard.DoubleClickMs <= 0 {
		c.Dashboard.DoubleClickMs = d.Dashboard.DoubleClickMs
	}
	if c.UI.VisibleDays <= 0 {
		c.UI.VisibleDays = d.UI.VisibleDays
	}
}

// Location resolves the dashboard timezone. Empty means local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Dashboard.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Dashboard.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Dashboard.Timezone, err)
	}
	return loc, nil
}

// DoubleClick returns the double-click window.
func (c *Config) DoubleClick() time.Duration {
	return time.Duration(c.Dashboard.DoubleClickMs) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// MinInterval returns the minimum spacing between backend requests.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Backend.MinIntervalMs) * time.Millisecond
}

// RefreshInterval returns how often the dashboard reloads. Zero disables it.
func (c *Config) RefreshInterval() time.Duration {
	if c.Dashboard.RefreshMinutes <= 0 {
		return 0
	}
	return time.Duration(c.Dashboard.RefreshMinutes) * time.Minute
}

// EnabledFeeds returns feeds with a name and URL.
func (c *Config) EnabledFeeds() []fetch.FeedConfig {
	var out []fetch.FeedConfig
	for _, f := range c.Feeds {
		if f.Name != "" && f.URL != "" {
			out = append(out, f)
		}
	}
	return out
}
