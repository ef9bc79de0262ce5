package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "restocatalog_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("CACHE_TTL_SECONDS", "5")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.MongoDB.Database != "restocatalog_test" {
		t.Fatalf("database = %q", cfg.MongoDB.Database)
	}
	if cfg.MongoDB.RestaurantsCollection != "restaurants" || cfg.MongoDB.RatingsCollection != "ratings" {
		t.Fatalf("unexpected collection defaults: %+v", cfg.MongoDB)
	}
	if cfg.MongoDB.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v", cfg.MongoDB.Timeout)
	}
	if got := cfg.Redis.Addr(); got != "localhost:6379" {
		t.Fatalf("redis addr = %q", got)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != 5*time.Second || cfg.Cache.Prefix != "restaurants:" {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RPS != 10 || cfg.RateLimit.Burst != 20 {
		t.Fatalf("unexpected rate limit config: %+v", cfg.RateLimit)
	}
	if cfg.Log.Level != "info" || cfg.Log.Encoding != "json" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadConfig_MissingMongoURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("STORE_IN_MEMORY", "")

	_, err := LoadConfig()
	if !errors.Is(err, ErrMissingMongoURI) {
		t.Fatalf("expected ErrMissingMongoURI, got %v", err)
	}

	t.Setenv("STORE_IN_MEMORY", "true")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("in-memory mode should not need a URI: %v", err)
	}
	if !cfg.MongoDB.InMemory {
		t.Fatalf("InMemory not set")
	}
	if (RedisConfig{Port: "6379"}).Addr() != "" {
		t.Fatalf("Addr must be empty without host")
	}
}
