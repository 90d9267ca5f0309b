package content

import (
	"fmt"
	"strings"

	"github.com/lumenlearn/tutorcore/internal/emotion"
	"github.com/lumenlearn/tutorcore/internal/lesson"
)

// kindInstruction is the task line for each interaction kind. Problem and
// quiz kinds additionally ask for a JSON payload the post-processor extracts.
var kindInstruction = map[Kind]string{
	KindExplain:    "Explain the slide content clearly, building on the key points.",
	KindExample:    "Give one concrete worked example that illustrates the slide content.",
	KindHint:       "Give a gentle hint that nudges the student toward the answer without revealing it.",
	KindSocratic:   "Do not answer directly. Ask one guiding question that leads the student to reason it out.",
	KindSummary:    "Summarize the main ideas of the slide in a few short sentences.",
	KindSimplify:   "Re-explain the slide content in simpler words, as if to a younger student.",
	KindMotivate:   "Encourage the student warmly and remind them of their recent progress.",
	KindCheck:      "Ask one short question that checks whether the student understood the slide.",
	KindContinue:   "Briefly bridge from this slide to what comes next.",
	KindRepeat:     "Repeat the previous explanation using different words and a fresh angle.",
	KindMoreDetail: "Go one level deeper into the slide content with additional detail.",
	KindProblem: "Create one practice problem about the slide content. After the narration, output a JSON object " +
		`on its own line: {"question": "...", "answer": "...", "difficulty": "easy|medium|hard", "hints": ["..."]}.`,
	KindQuiz: "Create one quick quiz question about the slide content. After the narration, output a JSON object " +
		`on its own line: {"question": "...", "answer": "...", "difficulty": "easy|medium|hard", "hints": ["..."]}.`,
}

// BuildPrompt assembles the generation prompt. Emotional adaptations are
// appended last so they override the profile-derived defaults above them.
func BuildPrompt(req Request, lc lesson.Context, ragAnswer string) string {
	var b strings.Builder

	b.WriteString("You are a patient one-on-one tutor speaking aloud to a student. ")
	b.WriteString("Write plain spoken narration only. No markdown, no headings, no stage directions.\n\n")

	if lc.Title != "" {
		fmt.Fprintf(&b, "Lesson: %s\n", lc.Title)
	}
	if lc.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s (grade band %s)\n", lc.Subject, lc.GradeBand)
	}
	fmt.Fprintf(&b, "Slide %d: %s\n%s\n", req.Slide.Index, req.Slide.Title, req.Slide.Content)

	if len(lc.KeyPoints) > 0 {
		b.WriteString("Key points to cover:\n")
		for _, kp := range lc.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", kp)
		}
	}
	if len(lc.Misconceptions) > 0 {
		b.WriteString("Common misconceptions to watch for:\n")
		for _, m := range lc.Misconceptions {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	if ragAnswer != "" {
		fmt.Fprintf(&b, "Relevant reference material:\n%s\n", ragAnswer)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Task: %s\n", kindInstruction[req.Kind])
	if req.Question != "" {
		fmt.Fprintf(&b, "The student asked: %q\n", req.Question)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Student is in grade %d. ", req.Profile.Grade)
	b.WriteString(styleInstruction(req))
	if len(req.Profile.Weaknesses) > 0 {
		fmt.Fprintf(&b, "They have recently struggled with: %s. ", strings.Join(req.Profile.Weaknesses, ", "))
	}

	// Emotional overrides come last.
	switch req.State.Mood {
	case emotion.MoodFrustrated:
		b.WriteString("The student is frustrated. Slow down, use the simplest possible language, and reassure them before anything else.")
	case emotion.MoodConfused:
		b.WriteString("The student is confused. Re-explain from the beginning with a different approach and one small example.")
	case emotion.MoodTired:
		b.WriteString("The student is tired. Keep it short and light.")
	case emotion.MoodHappy:
		b.WriteString("The student is doing well. Keep the energy up and stretch them a little.")
	}

	return b.String()
}

func styleInstruction(req Request) string {
	s := req.Profile.Style
	best, weight := "visual", s.Visual
	if s.Auditory > weight {
		best, weight = "auditory", s.Auditory
	}
	if s.Kinesthetic > weight {
		best, weight = "kinesthetic", s.Kinesthetic
	}
	if s.Reading > weight {
		best = "reading"
	}
	switch best {
	case "auditory":
		return "They learn best by listening; use rhythm, repetition, and spoken mnemonics. "
	case "kinesthetic":
		return "They learn best by doing; relate the content to physical actions and hands-on examples. "
	case "reading":
		return "They learn best from structured text; spell out definitions and steps precisely. "
	default:
		return "They learn best visually; paint concrete mental pictures and describe diagrams in words. "
	}
}
