package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// NOTE: The YAML file is the primary source. Environment variables
// (TEAMUP_*) are applied on top of it after loading, so container
// deployments can override individual keys without rewriting the file.

const (
	defaultListen         = "127.0.0.1:8080"
	defaultAPIBaseURL     = "http://localhost:3001/api"
	defaultTimezone       = "Europe/Paris"
	defaultRequestTimeout = 15
	defaultStatePath      = "/var/lib/teamup/sessions.yaml"
	defaultSweep          = "*/10 * * * *"
	defaultDraftTTL       = 60
	defaultLogLevel       = "info"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the web UI.
	Listen string `yaml:"listen" json:"listen" env:"TEAMUP_LISTEN"`

	// APIBaseURL is the root of the TeamUp REST API, e.g. "https://api.teamup.example/api".
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url" env:"TEAMUP_API_BASE_URL"`

	// Timezone is the IANA zone used to combine the wizard's separate
	// date and time fields into absolute timestamps (e.g. "Europe/Paris").
	Timezone string `yaml:"timezone" json:"timezone" env:"TEAMUP_TIMEZONE"`

	// RequestTimeoutSeconds bounds every call to the REST API.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" json:"request_timeout_seconds" env:"TEAMUP_REQUEST_TIMEOUT_SECONDS"`

	// StatePath is where browser sessions (user + token) are persisted so a
	// restart does not log everybody out.
	StatePath string `yaml:"state_path" json:"state_path" env:"TEAMUP_STATE_PATH"`

	// Sweep is a cron-style schedule for dropping idle drafts and
	// anonymous sessions.
	Sweep string `yaml:"sweep" json:"sweep" env:"TEAMUP_SWEEP"`

	// DraftTTLMinutes is how long an untouched draft survives.
	DraftTTLMinutes int `yaml:"draft_ttl_minutes" json:"draft_ttl_minutes" env:"TEAMUP_DRAFT_TTL_MINUTES"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level" env:"TEAMUP_LOG_LEVEL"`

	// CookieSecure marks the session cookie Secure (set behind TLS).
	CookieSecure bool `yaml:"cookie_secure" json:"cookie_secure" env:"TEAMUP_COOKIE_SECURE"`

	// BasicAuth optionally puts every page except /health behind HTTP
	// Basic Auth, e.g. for a staging deployment. Leave empty to disable.
	BasicAuth BasicAuth `yaml:"basic_auth" json:"basic_auth" envPrefix:"TEAMUP_BASIC_AUTH_"`
}

// BasicAuth holds HTTP Basic Auth credentials.
type BasicAuth struct {
	Username string `yaml:"username" json:"username" env:"USERNAME"`
	Password string `yaml:"password" json:"password" env:"PASSWORD"`
}

// Enabled reports whether both credentials are set.
func (b BasicAuth) Enabled() bool {
	return b.Username != "" && b.Password != ""
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                defaultListen,
		APIBaseURL:            defaultAPIBaseURL,
		Timezone:              defaultTimezone,
		RequestTimeoutSeconds: defaultRequestTimeout,
		StatePath:             defaultStatePath,
		Sweep:                 defaultSweep,
		DraftTTLMinutes:       defaultDraftTTL,
		LogLevel:              defaultLogLevel,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = defaultRequestTimeout
	}
	if c.StatePath == "" {
		c.StatePath = defaultStatePath
	}
	if c.Sweep == "" {
		c.Sweep = defaultSweep
	}
	if c.DraftTTLMinutes <= 0 {
		c.DraftTTLMinutes = defaultDraftTTL
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// RequestTimeout returns the API timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DraftTTL returns the draft idle lifetime as a duration.
func (c *Config) DraftTTL() time.Duration {
	return time.Duration(c.DraftTTLMinutes) * time.Minute
}

// Location resolves Timezone, falling back to time.Local when it is unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
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
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - In both cases TEAMUP_* environment variables are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		// First run: create default config file.
		cfg := DefaultConfig()
		if err := Save(path, cfg); err != nil {
			// Even if save fails, return cfg with error so caller can decide.
			return cfg, err
		}
		if err := applyEnv(cfg); err != nil {
			return nil, err
		}
		cfg.Normalize()
		return cfg, nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	return env.Parse(cfg)
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data next to path in a temp file and renames it
// over path, leaving the final file with 0600 permissions.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".teamup-*.tmp")
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
