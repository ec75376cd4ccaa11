package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "HTTP_ADDR", "SQLITE_DATABASE", "SEED_DIR", "REDIS_ENABLED", "CACHE_TTL", "RATE_LIMIT_PER_WINDOW", "RATE_LIMIT_WINDOW", "RATE_LIMIT_WHITELIST"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.HTTPAddr != ":8080" || cfg.SQLiteDatabase != "subway.db" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RedisEnabled || cfg.CacheTTL != time.Hour || cfg.SeedDir != "" {
		t.Errorf("unexpected cache defaults: %+v", cfg)
	}
	if cfg.RateLimitPerWindow != 120 || cfg.RateLimitWindow != time.Minute || cfg.RateLimitWhitelist != nil {
		t.Errorf("unexpected rate limit defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("READ_TIMEOUT", "3s")
	t.Setenv("SQLITE_DATABASE", "/tmp/net.db")
	t.Setenv("SEED_DIR", "./seed")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("RATE_LIMIT_WHITELIST", " 10.0.0.1, ,127.0.0.1 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != slog.LevelWarn || cfg.HTTPAddr != ":9000" || cfg.ReadTimeout != 3*time.Second {
		t.Errorf("server overrides not applied: %+v", cfg)
	}
	if cfg.SQLiteDatabase != "/tmp/net.db" || cfg.SeedDir != "./seed" {
		t.Errorf("storage overrides not applied: %+v", cfg)
	}
	if !cfg.RedisEnabled || cfg.RedisDB != 2 {
		t.Errorf("redis overrides not applied: %+v", cfg)
	}
	if want := []string{"10.0.0.1", "127.0.0.1"}; !reflect.DeepEqual(cfg.RateLimitWhitelist, want) {
		t.Errorf("whitelist = %v, want %v", cfg.RateLimitWhitelist, want)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("READ_TIMEOUT", "soon")
	t.Setenv("REDIS_ENABLED", "maybe")
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ReadTimeout != 10*time.Second || cfg.RedisEnabled || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("malformed values should fall back to defaults: %+v", cfg)
	}
}

func TestLoadRejectsNonPositiveRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_WINDOW", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SUBWAY_TEST_FROM_FILE=file\nSUBWAY_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SUBWAY_TEST_PRESET", "env")
	t.Cleanup(func() { os.Unsetenv("SUBWAY_TEST_FROM_FILE") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("SUBWAY_TEST_FROM_FILE"); got != "file" {
		t.Errorf("SUBWAY_TEST_FROM_FILE = %q", got)
	}
	if got := os.Getenv("SUBWAY_TEST_PRESET"); got != "env" {
		t.Errorf("existing variable overridden: %q", got)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file: %v", err)
	}
}
