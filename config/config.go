// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artpar/relay/domain/scope"
)

// Config is the root configuration structure.
type Config struct {
	Mediator MediatorConfig `yaml:"mediator"`
	Cache    CacheConfig    `yaml:"cache"`
	Offline  OfflineConfig  `yaml:"offline"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// MediatorConfig is the root namespace for the dispatch engine.
type MediatorConfig struct {
	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig configures HTTP-backed request execution.
type HTTPConfig struct {
	// Endpoints maps contract identities to base URIs. Keys may be exact
	// identities ("Billing.GetInvoice"), namespace wildcards
	// ("Billing.*"), or the global wildcard ("*"). Keys are
	// case-sensitive; the most specific match wins.
	Endpoints map[string]string `yaml:"endpoints"`

	// Debug surfaces constructed messages and raw responses to the log.
	Debug bool `yaml:"debug"`

	// Timeout is the hard per-request deadline (default 20s).
	Timeout time.Duration `yaml:"timeout"`

	Direct DirectConfig `yaml:"direct"`
}

// DirectConfig configures named direct requests.
type DirectConfig struct {
	// BaseURL prefixes relative direct-request URLs.
	BaseURL string `yaml:"base_url"`

	Requests map[string]DirectRequestConfig `yaml:"requests"`
}

// DirectRequestConfig is one named direct-request target.
type DirectRequestConfig struct {
	URL    string `yaml:"url"`
	Method string `yaml:"method"` // default GET
}

// CacheConfig configures the cache pipeline stage.
type CacheConfig struct {
	Store             string        `yaml:"store"` // "memory" or "sqlite"
	DSN               string        `yaml:"dsn"`
	TTL               time.Duration `yaml:"ttl"`
	ServeStaleOnError bool          `yaml:"serve_stale_on_error"`
}

// OfflineConfig configures the offline queue stage.
type OfflineConfig struct {
	Enabled bool   `yaml:"enabled"`
	Store   string `yaml:"store"` // "memory" or "sqlite"
	DSN     string `yaml:"dsn"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies RELAY_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RELAY_HTTP_BASE_URL"); v != "" {
		if cfg.Mediator.HTTP.Endpoints == nil {
			cfg.Mediator.HTTP.Endpoints = make(map[string]string)
		}
		cfg.Mediator.HTTP.Endpoints["*"] = v
	}
	if v := os.Getenv("RELAY_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Mediator.HTTP.Timeout = d
		}
	}
	if v := os.Getenv("RELAY_HTTP_DEBUG"); v != "" {
		cfg.Mediator.HTTP.Debug = parseBool(v)
	}

	if v := os.Getenv("RELAY_CACHE_STORE"); v != "" {
		cfg.Cache.Store = v
	}
	if v := os.Getenv("RELAY_CACHE_DSN"); v != "" {
		cfg.Cache.DSN = v
	}
	if v := os.Getenv("RELAY_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}

	if v := os.Getenv("RELAY_OFFLINE_ENABLED"); v != "" {
		cfg.Offline.Enabled = parseBool(v)
	}
	if v := os.Getenv("RELAY_OFFLINE_STORE"); v != "" {
		cfg.Offline.Store = v
	}
	if v := os.Getenv("RELAY_OFFLINE_DSN"); v != "" {
		cfg.Offline.DSN = v
	}

	if v := os.Getenv("RELAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RELAY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("RELAY_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Mediator.HTTP.Timeout == 0 {
		cfg.Mediator.HTTP.Timeout = scope.DefaultTimeout
	}

	if cfg.Cache.Store == "" {
		cfg.Cache.Store = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}

	if cfg.Offline.Store == "" {
		cfg.Offline.Store = "memory"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// Validate checks the configuration for errors. It is exported so the CLI
// can validate a file without constructing an engine.
func Validate(cfg *Config) error {
	for key, uri := range cfg.Mediator.HTTP.Endpoints {
		if key == "" {
			return fmt.Errorf("mediator.http.endpoints: empty key")
		}
		u, err := url.Parse(uri)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("mediator.http.endpoints[%s]: %q is not an absolute URI", key, uri)
		}
	}

	for name, direct := range cfg.Mediator.HTTP.Direct.Requests {
		if direct.URL == "" {
			return fmt.Errorf("mediator.http.direct.requests[%s]: url is required", name)
		}
		if direct.Method != "" && !validMethods[strings.ToUpper(direct.Method)] {
			return fmt.Errorf("mediator.http.direct.requests[%s]: invalid method %q", name, direct.Method)
		}
	}

	validStores := map[string]bool{"memory": true, "sqlite": true}
	if !validStores[cfg.Cache.Store] {
		return fmt.Errorf("cache.store must be 'memory' or 'sqlite', got %q", cfg.Cache.Store)
	}
	if cfg.Cache.Store == "sqlite" && cfg.Cache.DSN == "" {
		return fmt.Errorf("cache.dsn is required when cache.store is 'sqlite'")
	}
	if !validStores[cfg.Offline.Store] {
		return fmt.Errorf("offline.store must be 'memory' or 'sqlite', got %q", cfg.Offline.Store)
	}
	if cfg.Offline.Enabled && cfg.Offline.Store == "sqlite" && cfg.Offline.DSN == "" {
		return fmt.Errorf("offline.dsn is required when offline.store is 'sqlite'")
	}

	return nil
}

// HTTPSettings converts the configuration into the immutable snapshot
// consulted per dispatch.
func (c *Config) HTTPSettings() scope.Settings {
	endpoints := make(map[string]string, len(c.Mediator.HTTP.Endpoints))
	for k, v := range c.Mediator.HTTP.Endpoints {
		endpoints[k] = v
	}

	direct := make(map[string]scope.DirectTarget, len(c.Mediator.HTTP.Direct.Requests))
	for name, d := range c.Mediator.HTTP.Direct.Requests {
		method := strings.ToUpper(d.Method)
		if method == "" {
			method = "GET"
		}
		direct[name] = scope.DirectTarget{URL: d.URL, Method: method}
	}

	return scope.Settings{
		Endpoints:     endpoints,
		Debug:         c.Mediator.HTTP.Debug,
		Timeout:       c.Mediator.HTTP.Timeout,
		Direct:        direct,
		DirectBaseURL: c.Mediator.HTTP.Direct.BaseURL,
	}
}
