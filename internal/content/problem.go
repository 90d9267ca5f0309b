package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Difficulty levels, ordered.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

var difficultyOrder = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}

// AdjustDifficulty applies the historical-success override: students below
// 30% success are always served easy problems, students above 80% get one
// level above the request.
func AdjustDifficulty(requested string, successRatio float64) string {
	if !validDifficulty(requested) {
		requested = DifficultyMedium
	}
	if successRatio < 0.3 {
		return DifficultyEasy
	}
	if successRatio > 0.8 {
		return bumpDifficulty(requested)
	}
	return requested
}

func validDifficulty(d string) bool {
	for _, x := range difficultyOrder {
		if x == d {
			return true
		}
	}
	return false
}

func bumpDifficulty(d string) string {
	for i, x := range difficultyOrder {
		if x == d {
			if i+1 < len(difficultyOrder) {
				return difficultyOrder[i+1]
			}
			return x
		}
	}
	return DifficultyMedium
}

var errNoProblemPayload = errors.New("no problem payload in completion")

// ParseProblem extracts the JSON problem object from provider output. The
// provider is asked for bare JSON but routinely wraps it in prose or code
// fences, so scan for the outermost object.
func ParseProblem(raw string) (*Problem, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, errNoProblemPayload
	}
	var p Problem
	if err := json.Unmarshal([]byte(raw[start:end+1]), &p); err != nil {
		return nil, fmt.Errorf("decode problem payload: %w", err)
	}
	if strings.TrimSpace(p.Question) == "" {
		return nil, errors.New("problem payload missing question")
	}
	if !validDifficulty(p.Difficulty) {
		p.Difficulty = DifficultyMedium
	}
	return &p, nil
}

// stripProblemJSON removes the embedded problem object so it does not end
// up read aloud as part of the narration.
func stripProblemJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}
	return strings.TrimSpace(raw[:start] + " " + raw[end+1:])
}

// SynthesizeProblem builds a minimal deterministic problem from lesson
// material when the provider output was malformed or unavailable.
func SynthesizeProblem(title string, keyPoints []string, difficulty string) *Problem {
	topic := strings.TrimSpace(title)
	if topic == "" {
		topic = "this topic"
	}
	p := &Problem{
		Difficulty: difficulty,
		Question:   fmt.Sprintf("In your own words, explain the main idea of %s.", topic),
		Answer:     fmt.Sprintf("Any answer that restates the main idea of %s.", topic),
	}
	if len(keyPoints) > 0 {
		p.Question = fmt.Sprintf("Explain what this means: %q", keyPoints[0])
		p.Hints = []string{"Think back to the slide we just covered."}
	}
	return p
}
