// Package config provides configuration management for competencymap.
//
// Config file locations (priority order):
//  1. the --config flag (must exist)
//  2. $COMPETENCYMAP_CONFIG
//  3. ./competencymap.yaml
//  4. $XDG_CONFIG_HOME/competencymap/config.yaml
//  5. ~/.config/competencymap/config.yaml
//  6. /etc/competencymap/config.yaml
//
// Values from the file are overridden by COMPETENCYMAP_* environment
// variables so secrets and DSNs can stay out of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names a config file; ignored when the file is missing
	EnvConfigPath = "COMPETENCYMAP_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "competencymap.yaml"
	configDirName  = "competencymap"
)

// Environment variables that override file values
const (
	EnvDBDriver      = "COMPETENCYMAP_DB_DRIVER"
	EnvDBDSN         = "COMPETENCYMAP_DB_DSN"
	EnvAddr          = "COMPETENCYMAP_ADDR"
	EnvAuthSecret    = "COMPETENCYMAP_AUTH_SECRET"
	EnvRedisAddr     = "COMPETENCYMAP_REDIS_ADDR"
	EnvRedisPassword = "COMPETENCYMAP_REDIS_PASSWORD"
	EnvRedisDB       = "COMPETENCYMAP_REDIS_DB"
	EnvLogLevel      = "COMPETENCYMAP_LOG_LEVEL"
	EnvLang          = "COMPETENCYMAP_LANG"
)

// MinSecretLength is the shortest accepted auth secret
const MinSecretLength = 16

// Load reads the config file found by FindConfigPath, or returns defaults
// when there is none. A non-empty explicit path must exist.
func Load(explicit string) (*Config, string, error) {
	if explicit != "" {
		if !fileExists(explicit) {
			return nil, explicit, fmt.Errorf("config file %s not found", explicit)
		}
		return LoadFromPath(explicit)
	}

	path := FindConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// searchPaths lists the implicit config locations in priority order
func searchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		paths = append(paths, abs)
	} else {
		paths = append(paths, ConfigFileName)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, configDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", configDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", configDirName, "config.yaml"))
}

// FindConfigPath returns the first existing implicit config file, or ""
func FindConfigPath() string {
	for _, p := range searchPaths() {
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(10 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(30 * time.Second)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(60 * time.Second)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "./competencymap.db"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = Duration(5 * time.Minute)
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "competencymap:"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "competencymap"
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "competencymap_session"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = Duration(8 * time.Hour)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Lang == "" {
		c.Lang = "en"
	}
}

// applyEnv overrides values from COMPETENCYMAP_* environment variables
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBDriver); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(EnvDBDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvAuthSecret); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Enabled = true
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv(EnvRedisDB); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Cache.Redis.DB = db
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLang); v != "" {
		c.Lang = v
	}
}

// Validate checks the settings the HTTP server cannot run without
func (c *Config) Validate() error {
	var errs []error
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if len(c.Auth.Secret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("auth.secret must be at least %d bytes (set %s)", MinSecretLength, EnvAuthSecret))
	}
	if c.Cache.Enabled && c.Cache.Redis.Addr == "" {
		errs = append(errs, errors.New("cache.redis.addr is required when the cache is enabled"))
	}
	return errors.Join(errs...)
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	cache := "disabled"
	if c.Cache.Enabled {
		cache = fmt.Sprintf("redis %s (ttl %s)", c.Cache.Redis.Addr, c.Cache.TTL.Duration())
	}
	return fmt.Sprintf("Listen: %s, Database: %s, Cache: %s, Lang: %s",
		c.Server.Addr, c.Database.Driver, cache, c.Lang)
}
