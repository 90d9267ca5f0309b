package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockProvider returns canned completions and records calls. Used by tests
// and by local runs that want predictable output.
type MockProvider struct {
	mu        sync.Mutex
	calls     []Params
	responses []string
	errs      []error
	next      int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Enqueue schedules the next responses in order. When the queue is
// exhausted the provider echoes a summary of the prompt.
func (p *MockProvider) Enqueue(text string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, text)
	p.errs = append(p.errs, err)
}

func (p *MockProvider) Complete(_ context.Context, prompt string, params Params) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, params)
	if p.next < len(p.responses) {
		i := p.next
		p.next++
		if p.errs[i] != nil {
			return "", p.errs[i]
		}
		return p.responses[i], nil
	}
	head := prompt
	if len(head) > 60 {
		head = head[:60]
	}
	return fmt.Sprintf("Here is a short explanation. %s", strings.TrimSpace(head)), nil
}

func (p *MockProvider) Name() string { return "mock" }

// Calls returns a copy of the recorded call params.
func (p *MockProvider) Calls() []Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Params(nil), p.calls...)
}
