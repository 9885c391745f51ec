package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_HOST", "APP_PORT", "APP_LOG_LEVEL", "SNAPSHOT_FILE", "SEARCH_DEFAULT_DATE_START", "SEARCH_DEFAULT_DATE_END", "RABBITMQ_URL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:8000" {
		t.Fatalf("addr = %s", cfg.Addr())
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %s", cfg.LogLevel)
	}
	if cfg.Snapshot.Table != "events" || cfg.Queue.Queue != "events.changed" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	start, end, err := cfg.SearchWindow()
	if err != nil || start != nil || end != nil {
		t.Fatalf("expected no default window, got %v %v %v", start, end, err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_HOST", "0.0.0.0")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("SNAPSHOT_FILE", "testdata/events.json")
	t.Setenv("SEARCH_DEFAULT_DATE_START", "2023-01-01")
	t.Setenv("SEARCH_DEFAULT_DATE_END", "2024-01-01T00:00:00")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9090" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Snapshot.File != "testdata/events.json" {
		t.Fatalf("snapshot file = %q", cfg.Snapshot.File)
	}
	start, end, err := cfg.SearchWindow()
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if start.String() != "2023-01-01T00:00:00" || end.String() != "2024-01-01T00:00:00" {
		t.Fatalf("window = %s..%s", start, end)
	}
}

func TestInvalidPortFallsBack(t *testing.T) {
	t.Setenv("APP_PORT", "not-a-port")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenPort() != 8000 {
		t.Fatalf("port = %d", cfg.ListenPort())
	}
}

func TestInvalidSearchWindow(t *testing.T) {
	t.Setenv("SEARCH_DEFAULT_DATE_START", "01/01/2023")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed default date")
	}
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")
	t.Setenv("CACHE_ENABLED", "off")

	c := LoadCacheConfig()
	if !c.Methods["GET"] || !c.Methods["HEAD"] || len(c.Methods) != 2 {
		t.Fatalf("methods = %v", c.Methods)
	}
	if c.TTL != 30*time.Second {
		t.Fatalf("ttl = %s", c.TTL)
	}
	if c.Enabled {
		t.Fatal("cache should be disabled")
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()
	if c.Capacity != 1 {
		t.Fatalf("capacity = %d", c.Capacity)
	}
	if c.TTL != 10*time.Second {
		t.Fatalf("ttl = %s", c.TTL)
	}
}

func TestNewRedisClientWithoutAddress(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_HOST", "")
	if NewRedisClient() != nil {
		t.Fatal("expected nil client when redis is not configured")
	}
}

func TestCacheMethodsIgnoreUnsafe(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, post, PUT, delete")

	c := LoadCacheConfig()
	if !c.Methods["GET"] || len(c.Methods) != 1 {
		t.Fatalf("methods = %v", c.Methods)
	}
}
