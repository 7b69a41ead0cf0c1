package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/gateway"
	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/Nomadcxx/jellybridge/internal/paths"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. JELLYBRIDGE_SERVER_API_KEY.
const EnvPrefix = "JELLYBRIDGE"

type Config struct {
	Server     ServerConfig         `mapstructure:"server"`
	Jellyseerr RecommendationConfig `mapstructure:"jellyseerr"`
	Engine     EngineConfig         `mapstructure:"engine"`
	API        APIConfig            `mapstructure:"api"`
	Logging    LoggingConfig        `mapstructure:"logging"`
}

// ServerConfig points at the user's Emby or Jellyfin server. URL is the
// public address; LocalURL is an optional LAN address probed first.
type ServerConfig struct {
	Kind     string `mapstructure:"kind" json:"kind"`
	URL      string `mapstructure:"url" json:"url"`
	LocalURL string `mapstructure:"local_url" json:"localUrl,omitempty"`
	APIKey   string `mapstructure:"api_key" json:"apiKey"`
	ServerID string `mapstructure:"server_id" json:"serverId,omitempty"`
}

// ServerKind returns the dialect, defaulting to Jellyfin.
func (s ServerConfig) ServerKind() media.ServerKind {
	kind, ok := media.ParseServerKind(s.Kind)
	if !ok {
		return media.ServerJellyfin
	}
	return kind
}

// IsConfigured reports whether both the public URL and API key are present.
func (s ServerConfig) IsConfigured() bool {
	return strings.TrimSpace(s.URL) != "" && strings.TrimSpace(s.APIKey) != ""
}

// RecommendationConfig points at a Jellyseerr-style request service.
type RecommendationConfig struct {
	Enabled  bool   `mapstructure:"enabled" json:"enabled"`
	URL      string `mapstructure:"url" json:"url"`
	LocalURL string `mapstructure:"local_url" json:"localUrl,omitempty"`
	APIKey   string `mapstructure:"api_key" json:"apiKey"`
}

func (r RecommendationConfig) IsConfigured() bool {
	return r.Enabled && strings.TrimSpace(r.URL) != "" && strings.TrimSpace(r.APIKey) != ""
}

// Snapshot is the immutable pair of endpoint settings handed to every
// engine call. Copies never share state.
type Snapshot struct {
	Server     ServerConfig         `json:"server"`
	Jellyseerr RecommendationConfig `json:"jellyseerr"`
}

// Redacted returns a copy safe to show in UIs and logs.
func (s Snapshot) Redacted() Snapshot {
	if s.Server.APIKey != "" {
		s.Server.APIKey = redact(s.Server.APIKey)
	}
	if s.Jellyseerr.APIKey != "" {
		s.Jellyseerr.APIKey = redact(s.Jellyseerr.APIKey)
	}
	return s
}

func redact(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

type EngineConfig struct {
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	LookupTimeout    time.Duration `mapstructure:"lookup_timeout"`
	BatchTimeout     time.Duration `mapstructure:"batch_timeout"`
	MaxEnrichResults int           `mapstructure:"max_enrich_results"`
	MaxConcurrency   int           `mapstructure:"max_concurrency"`
}

type APIConfig struct {
	Addr           string   `mapstructure:"addr"`
	Token          string   `mapstructure:"token"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Kind: string(media.ServerJellyfin),
		},
		Jellyseerr: RecommendationConfig{
			Enabled: false,
		},
		Engine: DefaultEngineConfig(),
		API: APIConfig{
			Addr:           "127.0.0.1:8097",
			AllowedOrigins: []string{"chrome-extension://*", "moz-extension://*"},
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// DefaultEngineConfig returns the engine timeouts and limits.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ProbeTimeout:     3 * time.Second,
		RequestTimeout:   10 * time.Second,
		LookupTimeout:    5 * time.Second,
		BatchTimeout:     20 * time.Second,
		MaxEnrichResults: 5,
		MaxConcurrency:   5,
	}
}

// Load loads configuration from the default path or returns defaults
func Load() (*Config, error) {
	configPath, err := paths.ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configPath if it exists, applies JELLYBRIDGE_* environment
// overrides, and fills the rest from DefaultConfig.
func LoadFrom(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent
// from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.kind", cfg.Server.Kind)
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.local_url", cfg.Server.LocalURL)
	v.SetDefault("server.api_key", cfg.Server.APIKey)
	v.SetDefault("server.server_id", cfg.Server.ServerID)

	v.SetDefault("jellyseerr.enabled", cfg.Jellyseerr.Enabled)
	v.SetDefault("jellyseerr.url", cfg.Jellyseerr.URL)
	v.SetDefault("jellyseerr.local_url", cfg.Jellyseerr.LocalURL)
	v.SetDefault("jellyseerr.api_key", cfg.Jellyseerr.APIKey)

	v.SetDefault("engine.probe_timeout", cfg.Engine.ProbeTimeout)
	v.SetDefault("engine.request_timeout", cfg.Engine.RequestTimeout)
	v.SetDefault("engine.lookup_timeout", cfg.Engine.LookupTimeout)
	v.SetDefault("engine.batch_timeout", cfg.Engine.BatchTimeout)
	v.SetDefault("engine.max_enrich_results", cfg.Engine.MaxEnrichResults)
	v.SetDefault("engine.max_concurrency", cfg.Engine.MaxConcurrency)

	v.SetDefault("api.addr", cfg.API.Addr)
	v.SetDefault("api.token", cfg.API.Token)
	v.SetDefault("api.allowed_origins", cfg.API.AllowedOrigins)
	v.SetDefault("api.rate_limit_rps", cfg.API.RateLimitRPS)
	v.SetDefault("api.rate_limit_burst", cfg.API.RateLimitBurst)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", cfg.Logging.Compress)
}

// Snapshot returns the endpoint settings as an immutable value.
func (c *Config) Snapshot() Snapshot {
	return Snapshot{Server: c.Server, Jellyseerr: c.Jellyseerr}
}

// Validate reports malformed settings. Missing server credentials are not
// an error: the engine answers Unconfigured for them.
func (c *Config) Validate() error {
	errs := []error{c.Snapshot().Validate()}

	if c.Engine.MaxEnrichResults < 1 {
		errs = append(errs, &gateway.ConfigurationError{Field: "engine.max_enrich_results", Reason: "must be at least 1"})
	}
	if c.Engine.MaxConcurrency < 1 {
		errs = append(errs, &gateway.ConfigurationError{Field: "engine.max_concurrency", Reason: "must be at least 1"})
	}

	return errors.Join(errs...)
}

// Validate reports malformed endpoint settings.
func (s Snapshot) Validate() error {
	var errs []error

	if _, ok := media.ParseServerKind(s.Server.Kind); !ok {
		errs = append(errs, &gateway.ConfigurationError{Field: "server.kind", Reason: fmt.Sprintf("must be emby or jellyfin, got %q", s.Server.Kind)})
	}
	errs = append(errs, validateURL("server.url", s.Server.URL))
	errs = append(errs, validateURL("server.local_url", s.Server.LocalURL))
	errs = append(errs, validateURL("jellyseerr.url", s.Jellyseerr.URL))
	errs = append(errs, validateURL("jellyseerr.local_url", s.Jellyseerr.LocalURL))

	if s.Jellyseerr.Enabled && strings.TrimSpace(s.Jellyseerr.URL) == "" {
		errs = append(errs, gateway.Missing("jellyseerr.url"))
	}
	return errors.Join(errs...)
}

func validateURL(field, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &gateway.ConfigurationError{Field: field, Reason: fmt.Sprintf("%q is not an http(s) URL", raw)}
	}
	return nil
}

// Save saves configuration to the default path
func (c *Config) Save() error {
	configFile, err := paths.ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configFile)
}

func (c *Config) SaveTo(configFile string) error {
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}
	// 0600: the file holds API keys.
	return os.WriteFile(configFile, []byte(c.ToTOML()), 0600)
}

func (c *Config) ToTOML() string {
	return fmt.Sprintf(`# JellyBridge Configuration
# Generated by: jellybridge config init

# ============================================================================
# MEDIA SERVER (Emby or Jellyfin)
# url is the public address. local_url is optional: when set it is probed
# first and used while reachable.
# Get an API key from: Dashboard -> API Keys
# ============================================================================
[server]
kind = "%s"
url = "%s"
local_url = "%s"
api_key = "%s"
# Optional. Learned from /System/Info/Public when empty.
server_id = "%s"

# ============================================================================
# JELLYSEERR (optional)
# Search the wider catalog and submit requests for missing titles.
# Get API key from: Jellyseerr -> Settings -> General -> API Key
# ============================================================================
[jellyseerr]
enabled = %v
url = "%s"
local_url = "%s"
api_key = "%s"

# ============================================================================
# ENGINE
# ============================================================================
[engine]
probe_timeout = "%s"
request_timeout = "%s"
# Per-result deep-link lookup when enriching search results
lookup_timeout = "%s"
batch_timeout = "%s"
max_enrich_results = %d
max_concurrency = %d

# ============================================================================
# API (used by the browser extension)
# ============================================================================
[api]
addr = "%s"
# Optional shared secret sent as X-Bridge-Token
token = "%s"
allowed_origins = %s
rate_limit_rps = %.1f
rate_limit_burst = %d

# ============================================================================
# LOGGING
# ============================================================================
[logging]
level = "%s"
file = "%s"
max_size_mb = %d
max_backups = %d
max_age_days = %d
compress = %v
`,
		c.Server.Kind,
		c.Server.URL,
		c.Server.LocalURL,
		c.Server.APIKey,
		c.Server.ServerID,
		c.Jellyseerr.Enabled,
		c.Jellyseerr.URL,
		c.Jellyseerr.LocalURL,
		c.Jellyseerr.APIKey,
		c.Engine.ProbeTimeout,
		c.Engine.RequestTimeout,
		c.Engine.LookupTimeout,
		c.Engine.BatchTimeout,
		c.Engine.MaxEnrichResults,
		c.Engine.MaxConcurrency,
		c.API.Addr,
		c.API.Token,
		formatStringSlice(c.API.AllowedOrigins),
		c.API.RateLimitRPS,
		c.API.RateLimitBurst,
		c.Logging.Level,
		c.Logging.File,
		c.Logging.MaxSizeMB,
		c.Logging.MaxBackups,
		c.Logging.MaxAgeDays,
		c.Logging.Compress,
	)
}

func formatStringSlice(s []string) string {
	if len(s) == 0 {
		return "[]"
	}
	quoted := make([]string, len(s))
	for i, v := range s {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
