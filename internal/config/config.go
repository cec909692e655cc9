// Package config handles runtime configuration: defaults, an optional
// YAML file overlay, and environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the flatdoc server and CLI.
type Config struct {
	// StorePath is the location of the JSON store file.
	StorePath string `yaml:"store_path"`
	// HTTPAddr is the listen address for the API server.
	HTTPAddr string `yaml:"http_addr"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// JWTSecret signs auth tokens (HS256). Override the default outside
	// of development.
	JWTSecret string `yaml:"jwt_secret"`
	// SessionTTL is the lifetime of newly created sessions.
	SessionTTL time.Duration `yaml:"session_ttl"`
	// LockTimeout bounds how long an operation waits for the store lock.
	LockTimeout time.Duration `yaml:"lock_timeout"`
	// LockPoll is the retry interval while waiting for the lock.
	LockPoll time.Duration `yaml:"lock_poll"`
	// GitBackups commits each backup snapshot to a git repository in
	// the store directory.
	GitBackups bool `yaml:"git_backups"`
	// RateLimit throttles API requests.
	RateLimit RateLimit `yaml:"rate_limit"`
}

// RateLimit configures the API token bucket.
type RateLimit struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// Default returns development defaults.
func Default() *Config {
	return &Config{
		StorePath:   "./data/store.json",
		HTTPAddr:    "localhost:8080",
		LogLevel:    "info",
		JWTSecret:   "dev-secret-change-me",
		SessionTTL:  30 * 24 * time.Hour,
		LockTimeout: 10 * time.Second,
		LockPoll:    100 * time.Millisecond,
		RateLimit:   RateLimit{RequestsPerMinute: 300, Burst: 50},
	}
}

// Load builds a Config from defaults, then the YAML file at path when
// one is given, then FLATDOC_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.overlayYAML(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// rawConfig mirrors Config with durations as strings, since YAML has
// no native duration scalar.
type rawConfig struct {
	StorePath   string    `yaml:"store_path"`
	HTTPAddr    string    `yaml:"http_addr"`
	LogLevel    string    `yaml:"log_level"`
	JWTSecret   string    `yaml:"jwt_secret"`
	SessionTTL  string    `yaml:"session_ttl"`
	LockTimeout string    `yaml:"lock_timeout"`
	LockPoll    string    `yaml:"lock_poll"`
	GitBackups  bool      `yaml:"git_backups"`
	RateLimit   RateLimit `yaml:"rate_limit"`
}

// overlayYAML applies the YAML document on top of the current values.
// Absent keys keep their defaults.
func (c *Config) overlayYAML(data []byte) error {
	raw := rawConfig{
		StorePath:   c.StorePath,
		HTTPAddr:    c.HTTPAddr,
		LogLevel:    c.LogLevel,
		JWTSecret:   c.JWTSecret,
		SessionTTL:  c.SessionTTL.String(),
		LockTimeout: c.LockTimeout.String(),
		LockPoll:    c.LockPoll.String(),
		GitBackups:  c.GitBackups,
		RateLimit:   c.RateLimit,
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	sessionTTL, err := time.ParseDuration(raw.SessionTTL)
	if err != nil {
		return fmt.Errorf("invalid session_ttl: %w", err)
	}
	lockTimeout, err := time.ParseDuration(raw.LockTimeout)
	if err != nil {
		return fmt.Errorf("invalid lock_timeout: %w", err)
	}
	lockPoll, err := time.ParseDuration(raw.LockPoll)
	if err != nil {
		return fmt.Errorf("invalid lock_poll: %w", err)
	}
	c.StorePath = raw.StorePath
	c.HTTPAddr = raw.HTTPAddr
	c.LogLevel = raw.LogLevel
	c.JWTSecret = raw.JWTSecret
	c.SessionTTL = sessionTTL
	c.LockTimeout = lockTimeout
	c.LockPoll = lockPoll
	c.GitBackups = raw.GitBackups
	c.RateLimit = raw.RateLimit
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FLATDOC_STORE"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("FLATDOC_HTTP"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("FLATDOC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("FLATDOC_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("FLATDOC_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FLATDOC_SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	if v := os.Getenv("FLATDOC_LOCK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FLATDOC_LOCK_TIMEOUT: %w", err)
		}
		c.LockTimeout = d
	}
	if v := os.Getenv("FLATDOC_LOCK_POLL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FLATDOC_LOCK_POLL: %w", err)
		}
		c.LockPoll = d
	}
	if v := os.Getenv("FLATDOC_GIT_BACKUPS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FLATDOC_GIT_BACKUPS: %w", err)
		}
		c.GitBackups = b
	}
	return nil
}
