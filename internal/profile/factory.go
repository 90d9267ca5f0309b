package profile

import (
	"context"
	"strings"

	"github.com/lumenlearn/tutorcore/internal/emotion"
)

// NewStore creates a postgres-backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}

// Baseline blending weight: the new state moves the baseline by this fraction.
const baselineAlpha = 0.3

// BlendBaseline folds a freshly inferred state into the long-term baseline
// as an exponential moving average. The mood only flips once the new mood
// repeats (carried by the incoming state being non-neutral).
func BlendBaseline(b Baseline, st emotion.State) Baseline {
	out := b
	out.Confidence = int(float64(b.Confidence)*(1-baselineAlpha) + float64(st.Confidence)*baselineAlpha)
	out.Engagement = int(float64(b.Engagement)*(1-baselineAlpha) + float64(st.Engagement)*baselineAlpha)
	if st.Mood != emotion.MoodNeutral {
		out.Mood = st.Mood
	}
	return out
}
