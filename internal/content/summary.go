package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/lumenlearn/tutorcore/internal/emotion"
	"github.com/lumenlearn/tutorcore/internal/profile"
)

// BuildParentReport summarizes recent progress for the parent channel.
// It is derived entirely from the profile and current state, so it never
// needs a model call.
func BuildParentReport(studentID, lessonID, lessonTitle string, p profile.StudentProfile, st emotion.State, now time.Time) ParentReport {
	ratio := p.SuccessRatio()

	var note string
	switch {
	case ratio >= 0.8:
		note = fmt.Sprintf("Working through %q with strong results.", lessonTitle)
	case ratio >= 0.5:
		note = fmt.Sprintf("Making steady progress on %q.", lessonTitle)
	default:
		note = fmt.Sprintf("Finding %q challenging right now; the tutor has simplified the pace.", lessonTitle)
	}

	switch st.Mood {
	case emotion.MoodFrustrated:
		note += " Showing signs of frustration, so explanations are being slowed down."
	case emotion.MoodConfused:
		note += " Asking clarifying questions; extra examples are being offered."
	case emotion.MoodTired:
		note += " Energy is dipping; a short break has been suggested."
	}

	if len(p.Weaknesses) > 0 {
		note += fmt.Sprintf(" A few minutes reviewing %s together would help.", strings.Join(p.Weaknesses, ", "))
	}

	return ParentReport{
		StudentID:    studentID,
		LessonID:     lessonID,
		Mood:         string(st.Mood),
		Interactions: p.InteractionCount,
		CorrectRate:  ratio,
		Note:         note,
		GeneratedAt:  now,
	}
}
