package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the tutoring engine.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	HeartbeatInterval  time.Duration
	SessionMaxIdle     time.Duration
	SessionRetention   time.Duration
	JanitorInterval    time.Duration

	ProviderMode     string
	ProviderHTTPURL  string
	ProviderAPIKey   string
	DefaultModel     string
	CheapModel       string
	GenerationTimeout time.Duration

	RAGURL           string
	MinRAGConfidence float64

	CacheTTL     time.Duration
	CacheMaxSize int
	RedisAddr    string
	RedisPassword string
	RedisDB      int

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "tutorcore"),
		AllowAnyOrigin:    false,
		ProviderMode:      envOrDefault("GENERATION_PROVIDER_MODE", "auto"),
		ProviderHTTPURL:   stringsTrimSpace("GENERATION_HTTP_URL"),
		ProviderAPIKey:    stringsTrimSpace("GENERATION_API_KEY"),
		DefaultModel:      envOrDefault("GENERATION_MODEL", "tutor-large"),
		CheapModel:        envOrDefault("GENERATION_CHEAP_MODEL", "tutor-small"),
		RAGURL:            stringsTrimSpace("RAG_URL"),
		RedisAddr:         stringsTrimSpace("REDIS_ADDR"),
		RedisPassword:     stringsTrimSpace("REDIS_PASSWORD"),
		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:   15 * time.Second,
		HeartbeatInterval: 20 * time.Second,
		SessionMaxIdle:    10 * time.Minute,
		SessionRetention:  24 * time.Hour,
		JanitorInterval:   time.Minute,
		GenerationTimeout: 20 * time.Second,
		MinRAGConfidence:  0.6,
		CacheTTL:          30 * time.Minute,
		CacheMaxSize:      512,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HeartbeatInterval, err = durationFromEnv("APP_HEARTBEAT_INTERVAL", cfg.HeartbeatInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionMaxIdle, err = durationFromEnv("APP_SESSION_MAX_IDLE", cfg.SessionMaxIdle)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionRetention, err = durationFromEnv("APP_SESSION_RETENTION", cfg.SessionRetention)
	if err != nil {
		return Config{}, err
	}
	cfg.JanitorInterval, err = durationFromEnv("APP_JANITOR_INTERVAL", cfg.JanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.GenerationTimeout, err = durationFromEnv("GENERATION_TIMEOUT", cfg.GenerationTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CacheTTL, err = durationFromEnv("CACHE_TTL", cfg.CacheTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.CacheMaxSize, err = intFromEnv("CACHE_MAX_SIZE", cfg.CacheMaxSize)
	if err != nil {
		return Config{}, err
	}
	cfg.RedisDB, err = intFromEnv("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return Config{}, err
	}
	cfg.MinRAGConfidence, err = floatFromEnv("RAG_MIN_CONFIDENCE", cfg.MinRAGConfidence)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.HeartbeatInterval < time.Second {
		return Config{}, fmt.Errorf("APP_HEARTBEAT_INTERVAL must be at least 1s")
	}
	if cfg.SessionMaxIdle < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_MAX_IDLE must be at least 5s")
	}
	if cfg.SessionRetention < cfg.SessionMaxIdle {
		return Config{}, fmt.Errorf("APP_SESSION_RETENTION must not be shorter than APP_SESSION_MAX_IDLE")
	}
	if cfg.CacheMaxSize <= 0 {
		return Config{}, fmt.Errorf("CACHE_MAX_SIZE must be positive")
	}
	if cfg.MinRAGConfidence < 0 || cfg.MinRAGConfidence > 1 {
		return Config{}, fmt.Errorf("RAG_MIN_CONFIDENCE must be in [0,1]")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
