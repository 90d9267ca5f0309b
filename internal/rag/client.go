// Package rag is the client side of the answer-lookup collaborator. It is
// consulted for free-text student questions but never required: low
// confidence or any failure simply means the answer is ignored.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lumenlearn/tutorcore/internal/reliability"
)

// Answer is a retrieved supporting answer with its confidence score in [0,1].
type Answer struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Client looks up supporting answers for a question in a lesson's corpus.
type Client interface {
	Answer(ctx context.Context, question, lessonID string) (Answer, error)
}

// HTTPClient talks to the document-embedding search service.
type HTTPClient struct {
	url    string
	client *http.Client
}

func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{
		url: strings.TrimSpace(url),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type answerRequest struct {
	Question string `json:"question"`
	LessonID string `json:"lesson_id"`
}

// Answer retries once on retryable status codes with a short backoff; the
// lookup is advisory, so two attempts is the ceiling.
func (c *HTTPClient) Answer(ctx context.Context, question, lessonID string) (Answer, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Answer{}, ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt, 100*time.Millisecond, time.Second)):
			}
		}
		ans, retryable, err := c.answer(ctx, question, lessonID)
		if err == nil {
			return ans, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return Answer{}, lastErr
}

func (c *HTTPClient) answer(ctx context.Context, question, lessonID string) (Answer, bool, error) {
	payload, err := json.Marshal(answerRequest{Question: question, LessonID: lessonID})
	if err != nil {
		return Answer{}, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Answer{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return Answer{}, false, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Answer{}, reliability.IsRetryableHTTPStatus(res.StatusCode),
			fmt.Errorf("answer lookup status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Answer
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Answer{}, false, fmt.Errorf("decode answer: %w", err)
	}
	return out, false, nil
}

// StaticClient returns fixed answers keyed by question. Test and dev use.
type StaticClient struct {
	Answers map[string]Answer
}

func (c *StaticClient) Answer(_ context.Context, question, _ string) (Answer, error) {
	if a, ok := c.Answers[question]; ok {
		return a, nil
	}
	return Answer{}, nil
}
