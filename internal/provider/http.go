package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lumenlearn/tutorcore/internal/reliability"
)

// HTTPProvider forwards completion requests to a generation HTTP endpoint.
type HTTPProvider struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPProvider(url, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		url:    strings.TrimSpace(url),
		apiKey: strings.TrimSpace(apiKey),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *HTTPProvider) Name() string { return "http" }

var errGenerationBackend = errors.New("generation backend error")

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type completionResponse struct {
	Text string `json:"text"`
}

func (p *HTTPProvider) Complete(ctx context.Context, prompt string, params Params) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:       params.Model,
		Prompt:      prompt,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	res, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if err := classifyStatus(res.StatusCode); err != nil {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", fmt.Errorf("%w: status %d: %s", err, res.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var obj completionResponse
	if err := json.Unmarshal(body, &obj); err == nil && strings.TrimSpace(obj.Text) != "" {
		return obj.Text, nil
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", errors.New("empty completion response")
	}
	return text, nil
}

func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAuth
	case code == http.StatusGatewayTimeout || code == http.StatusRequestTimeout:
		return ErrTimeout
	case reliability.IsRetryableHTTPStatus(code):
		// Transient backend failure, surfaced as retryable so the caller can
		// try once more on the cheap model.
		return fmt.Errorf("%w: backend unavailable", ErrTimeout)
	default:
		return errGenerationBackend
	}
}
