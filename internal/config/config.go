package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"cartelera/internal/filter"
	appLog "cartelera/internal/log"
)

// ControlsConfig names the ids of the listing page's filter controls.
type ControlsConfig struct {
	Select string `yaml:"select" json:"select"`
	Ini    string `yaml:"ini" json:"ini"`
	Fin    string `yaml:"fin" json:"fin"`
	Total  string `yaml:"total" json:"total"`
	CSS    string `yaml:"css" json:"css"`
}

// ICSConfig tunes the calendar export.
type ICSConfig struct {
	// ProdID is written as the calendar's PRODID.
	ProdID string `yaml:"prod_id" json:"prod_id"`
	// Timezone is written as X-WR-TIMEZONE. Empty means the top-level timezone.
	Timezone string `yaml:"timezone" json:"timezone"`
	// CalendarName is written as X-WR-CALNAME when set.
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`
}

// CaptureConfig holds the headless browser viewport and deadline.
type CaptureConfig struct {
	Width          int `yaml:"width" json:"width"`
	Height         int `yaml:"height" json:"height"`
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the preview server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the preview server.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone "today" and "now" are judged in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// SiteDir is the directory of the built site served as static files.
	SiteDir string `yaml:"site_dir" json:"site_dir"`

	// Page is the listing page, relative to SiteDir, or an http(s) URL.
	Page string `yaml:"page" json:"page"`

	// CacheDir keeps conditional-request metadata for remote pages.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// on which the server reloads and re-prunes the page.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DateInputSupport is what server-side renders assume about the
	// visitor's browser. Nil means supported.
	DateInputSupport *bool `yaml:"date_input_support,omitempty" json:"date_input_support,omitempty"`

	Controls ControlsConfig `yaml:"controls" json:"controls"`

	// RecurrenceHorizonDays bounds open-ended recurring sessions past the
	// last selectable date.
	RecurrenceHorizonDays int `yaml:"recurrence_horizon_days" json:"recurrence_horizon_days"`

	ICS     ICSConfig     `yaml:"ics" json:"ics"`
	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "Europe/Madrid"
	defaultSiteDir     = "./out"
	defaultPage        = "index.html"
	defaultCacheDir    = "./var/page-cache"
	defaultRefreshCron = "*/15 * * * *"
	defaultHorizonDays = 365
	defaultProdID      = "-//cartelera//agenda//ES"
	defaultWidth       = 1280
	defaultHeight      = 1600
	defaultTimeoutSec  = 30
	defaultLogLevel    = "info"
)

// DefaultControls are the ids the listing markup uses out of the box.
func DefaultControls() ControlsConfig {
	return ControlsConfig{
		Select: "categoria",
		Ini:    "ini",
		Fin:    "fin",
		Total:  "total",
		CSS:    "jscss",
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                defaultListen,
		Timezone:              defaultTimezone,
		SiteDir:               defaultSiteDir,
		Page:                  defaultPage,
		CacheDir:              defaultCacheDir,
		RefreshCron:           defaultRefreshCron,
		Controls:              DefaultControls(),
		RecurrenceHorizonDays: defaultHorizonDays,
		ICS: ICSConfig{
			ProdID: defaultProdID,
		},
		Capture: CaptureConfig{
			Width:          defaultWidth,
			Height:         defaultHeight,
			TimeoutSeconds: defaultTimeoutSec,
		},
		BasicAuth: nil,
		LogLevel:  defaultLogLevel,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.SiteDir == "" {
		c.SiteDir = defaultSiteDir
	}
	if c.Page == "" {
		c.Page = defaultPage
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}

	// Controls are filled id by id so a config may rename just one.
	def := DefaultControls()
	if c.Controls.Select == "" {
		c.Controls.Select = def.Select
	}
	if c.Controls.Ini == "" {
		c.Controls.Ini = def.Ini
	}
	if c.Controls.Fin == "" {
		c.Controls.Fin = def.Fin
	}
	if c.Controls.Total == "" {
		c.Controls.Total = def.Total
	}
	if c.Controls.CSS == "" {
		c.Controls.CSS = def.CSS
	}

	if c.RecurrenceHorizonDays <= 0 {
		c.RecurrenceHorizonDays = defaultHorizonDays
	}
	if c.ICS.ProdID == "" {
		c.ICS.ProdID = defaultProdID
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = defaultWidth
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = defaultHeight
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = defaultTimeoutSec
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = defaultLogLevel
	}
}

// FilterControls converts the configured ids for the filter layer.
func (c *Config) FilterControls() filter.Controls {
	return filter.Controls{
		Select: c.Controls.Select,
		Ini:    c.Controls.Ini,
		Fin:    c.Controls.Fin,
		Total:  c.Controls.Total,
		CSS:    c.Controls.CSS,
	}
}

// SupportsDateInput reports the date-input assumption for server renders.
func (c *Config) SupportsDateInput() bool {
	return c.DateInputSupport == nil || *c.DateInputSupport
}

// Location resolves Timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	return resolveLocationOrLocal(c.Timezone)
}

// ICSTimezone is the zone name written into exported calendars.
func (c *Config) ICSTimezone() string {
	if c.ICS.Timezone != "" {
		return c.ICS.Timezone
	}
	return c.Timezone
}

// CaptureTimeout is Capture.TimeoutSeconds as a duration.
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.Capture.TimeoutSeconds) * time.Second
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
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

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
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
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".cartelera-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
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

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
