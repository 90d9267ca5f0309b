package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.ProviderMode != "auto" {
		t.Fatalf("ProviderMode = %q, want %q", cfg.ProviderMode, "auto")
	}
	if cfg.ProviderHTTPURL != "" {
		t.Fatalf("ProviderHTTPURL = %q, want empty default", cfg.ProviderHTTPURL)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Fatalf("CacheTTL = %v, want 30m", cfg.CacheTTL)
	}
}

func TestLoadUsesExplicitProviderURL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GENERATION_HTTP_URL", "http://localhost:7777/v1/complete")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProviderHTTPURL != "http://localhost:7777/v1/complete" {
		t.Fatalf("ProviderHTTPURL = %q, want explicit value", cfg.ProviderHTTPURL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("RAG_MIN_CONFIDENCE", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for out-of-range RAG_MIN_CONFIDENCE")
	}

	setCoreEnvEmpty(t)
	t.Setenv("APP_SESSION_MAX_IDLE", "1s")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for too-short APP_SESSION_MAX_IDLE")
	}

	setCoreEnvEmpty(t)
	t.Setenv("CACHE_MAX_SIZE", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for unparseable CACHE_MAX_SIZE")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_HEARTBEAT_INTERVAL",
		"APP_SESSION_MAX_IDLE",
		"APP_SESSION_RETENTION",
		"APP_JANITOR_INTERVAL",
		"GENERATION_PROVIDER_MODE",
		"GENERATION_HTTP_URL",
		"GENERATION_API_KEY",
		"GENERATION_MODEL",
		"GENERATION_CHEAP_MODEL",
		"GENERATION_TIMEOUT",
		"RAG_URL",
		"RAG_MIN_CONFIDENCE",
		"CACHE_TTL",
		"CACHE_MAX_SIZE",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
