// Package provider bridges the tutoring engine and the external
// content-generation backend. The orchestrator depends only on the
// Provider interface; construction picks a concrete backend from config.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Params tunes a single completion call.
type Params struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Provider produces narration text for a prompt. Implementations surface
// failures through the sentinel errors below so callers can branch on them.
type Provider interface {
	Complete(ctx context.Context, prompt string, params Params) (string, error)
	Name() string
}

// Failure classes the orchestrator handles distinctly.
var (
	// ErrRateLimited means the backend shed the request; retry once on a
	// cheaper model before falling back.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrAuth means credentials are invalid; not retryable for the rest of
	// the process lifetime.
	ErrAuth = errors.New("provider authentication failed")
	// ErrTimeout means the call exceeded its deadline.
	ErrTimeout = errors.New("provider timeout")
)

// Config controls provider construction.
type Config struct {
	Mode         string
	HTTPURL      string
	APIKey       string
	DefaultModel string
	CheapModel   string
}

// New builds a provider from config. Mode "auto" prefers HTTP when a URL is
// configured and degrades to the deterministic offline generator otherwise.
func New(cfg Config) (Provider, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPProvider(cfg.HTTPURL, cfg.APIKey), nil
		}
		return NewOfflineProvider(), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("generation HTTP url is required for http mode")
		}
		return NewHTTPProvider(cfg.HTTPURL, cfg.APIKey), nil
	case "offline":
		return NewOfflineProvider(), nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider mode %q", cfg.Mode)
	}
}
