package provider

import (
	"context"
	"strings"
)

// OfflineProvider is the deterministic generator used when no backend is
// configured or the engine is running fully degraded. Same prompt, same
// output, no network.
type OfflineProvider struct{}

func NewOfflineProvider() *OfflineProvider {
	return &OfflineProvider{}
}

func (p *OfflineProvider) Name() string { return "offline" }

func (p *OfflineProvider) Complete(_ context.Context, prompt string, _ Params) (string, error) {
	topic := topicFromPrompt(prompt)
	var b strings.Builder
	b.WriteString("Let's walk through ")
	b.WriteString(topic)
	b.WriteString(" step by step. First, look at the main idea. ")
	b.WriteString("Then try to say it back in your own words. ")
	b.WriteString("When you're ready, we can try a practice question together.")
	return b.String(), nil
}

// topicFromPrompt pulls the lesson title out of a generation prompt, falling
// back to a generic phrasing when none is marked.
func topicFromPrompt(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "Lesson: "); ok && after != "" {
			return strings.TrimSpace(after)
		}
	}
	return "this topic"
}
