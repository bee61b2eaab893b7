package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Server.Addr != ":3000" {
		t.Errorf("Server.Addr = %s, want :3000", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "./competencymap.db" {
		t.Errorf("Database.DSN = %s, want ./competencymap.db", cfg.Database.DSN)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by default")
	}
	if cfg.Cache.TTL.Duration() != 5*time.Minute {
		t.Errorf("Cache.TTL = %s, want 5m", cfg.Cache.TTL.Duration())
	}
	if cfg.Auth.CookieName != "competencymap_session" {
		t.Errorf("Auth.CookieName = %s", cfg.Auth.CookieName)
	}
	if cfg.Lang != "en" {
		t.Errorf("Lang = %s, want en", cfg.Lang)
	}
}

func TestPostgresHasNoDefaultDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "postgres"}}
	cfg.applyDefaults()

	if cfg.Database.DSN != "" {
		t.Errorf("postgres DSN should not default, got %s", cfg.Database.DSN)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDBDriver, "postgres")
	t.Setenv(EnvDBDSN, "postgres://host/db")
	t.Setenv(EnvAuthSecret, "0123456789abcdef")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvRedisDB, "2")
	t.Setenv(EnvLang, "it")

	cfg := DefaultConfig()
	cfg.applyEnv()

	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://host/db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Auth.Secret != "0123456789abcdef" {
		t.Errorf("Auth.Secret not overridden")
	}
	if !cfg.Cache.Enabled || cfg.Cache.Redis.Addr != "localhost:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Lang != "it" {
		t.Errorf("Lang = %s, want it", cfg.Lang)
	}
}

func TestValidate(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "auth.secret") {
			t.Errorf("expected auth.secret error, got %v", err)
		}
	})

	t.Run("cache without address", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Auth.Secret = "0123456789abcdef"
		cfg.Cache.Enabled = true
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "cache.redis.addr") {
			t.Errorf("expected cache error, got %v", err)
		}
	})

	t.Run("valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Auth.Secret = "0123456789abcdef"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error: %v", err)
		}
	})
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":8080"
	cfg.Cache.Enabled = true
	cfg.Cache.Redis.Addr = "redis:6379"
	cfg.Cache.TTL = Duration(time.Minute)
	cfg.Lang = "it"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}

	if loaded.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %s, want :8080", loaded.Server.Addr)
	}
	if !loaded.Cache.Enabled || loaded.Cache.Redis.Addr != "redis:6379" {
		t.Errorf("Cache = %+v", loaded.Cache)
	}
	if loaded.Cache.TTL.Duration() != time.Minute {
		t.Errorf("Cache.TTL = %s, want 1m", loaded.Cache.TTL.Duration())
	}
	if loaded.Lang != "it" {
		t.Errorf("Lang = %s, want it", loaded.Lang)
	}
}

func TestLoadFromPathInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("cache:\n  ttl: soon\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := LoadFromPath(configPath); err == nil {
		t.Error("expected parse error for invalid duration")
	}

	if _, _, err := LoadFromPath(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected read error for missing file")
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	found := FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should find config in working directory")
	}

	// Explicit path doesn't exist, should fall back
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	found = FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should fall back when env path doesn't exist")
	}

	// Existing explicit path wins
	explicit := filepath.Join(tmpDir, "explicit.yaml")
	if err := cfg.Save(explicit); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	t.Setenv(EnvConfigPath, explicit)
	if found := FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvConfigPath, "")

	if _, _, err := Load(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}

	explicit := filepath.Join(tmpDir, "custom.yaml")
	cfg := DefaultConfig()
	cfg.Server.Addr = ":9090"
	if err := cfg.Save(explicit); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := Load(explicit)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != explicit || loaded.Server.Addr != ":9090" {
		t.Errorf("Load() = %s %s, want %s :9090", path, loaded.Server.Addr, explicit)
	}
}

func TestSearchPathsOrder(t *testing.T) {
	t.Setenv(EnvConfigPath, "/srv/explicit.yaml")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	t.Setenv("HOME", "/home/u")

	paths := searchPaths()
	want := []string{
		"/srv/explicit.yaml",
		"", // working directory, checked by suffix below
		"/xdg/competencymap/config.yaml",
		"/home/u/.config/competencymap/config.yaml",
		"/etc/competencymap/config.yaml",
	}
	if len(paths) != len(want) {
		t.Fatalf("searchPaths() = %v", paths)
	}
	for i, p := range want {
		if i == 1 {
			if filepath.Base(paths[i]) != ConfigFileName {
				t.Errorf("paths[1] = %s, want %s in working directory", paths[i], ConfigFileName)
			}
			continue
		}
		if paths[i] != p {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], p)
		}
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}
