package content

import (
	"context"
	"strings"
	"testing"

	"github.com/lumenlearn/tutorcore/internal/emotion"
	"github.com/lumenlearn/tutorcore/internal/lesson"
	"github.com/lumenlearn/tutorcore/internal/profile"
	"github.com/lumenlearn/tutorcore/internal/provider"
	"github.com/lumenlearn/tutorcore/internal/rag"
)

// failingProvider fails every call with a fixed error.
type failingProvider struct {
	err   error
	calls int
}

func (p *failingProvider) Complete(context.Context, string, provider.Params) (string, error) {
	p.calls++
	return "", p.err
}

func (p *failingProvider) Name() string { return "failing" }

// capturingProvider records prompts and succeeds with fixed text.
type capturingProvider struct {
	prompts []string
	text    string
}

func (p *capturingProvider) Complete(_ context.Context, prompt string, _ provider.Params) (string, error) {
	p.prompts = append(p.prompts, prompt)
	return p.text, nil
}

func (p *capturingProvider) Name() string { return "capturing" }

func testRequest() Request {
	return Request{
		StudentID: "student-1",
		LessonID:  "lesson-1",
		Slide:     Slide{Index: 2, Title: "Halves", Content: "A half is one of two equal parts. We write it as 1/2."},
		Kind:      KindExplain,
		State:     emotion.State{Mood: emotion.MoodNeutral, Confidence: 70, Engagement: 70},
		Profile:   *profile.NewDefault("student-1"),
	}
}

func testLessons() *lesson.InMemoryStore {
	return lesson.NewInMemoryStore([]lesson.Context{{
		LessonID:  "lesson-1",
		Title:     "Intro to Fractions",
		Subject:   "math",
		GradeBand: "3-5",
		KeyPoints: []string{"a half is one of two equal parts"},
	}})
}

func TestGenerateFallbackWhenProviderAlwaysFails(t *testing.T) {
	fp := &failingProvider{err: context.DeadlineExceeded}
	o := NewOrchestrator(Options{Provider: fp, Lessons: testLessons(), CheapModel: "cheap"})

	s := o.Generate(context.Background(), testRequest())
	if !s.Fallback {
		t.Fatal("Generate() expected fallback script")
	}
	if s.Narration == "" {
		t.Fatal("Generate() fallback narration is empty")
	}
	if fp.calls != 2 {
		t.Fatalf("provider called %d times, want 2 (initial plus cheap retry)", fp.calls)
	}
}

func TestGenerateCheapRetryAfterTransientFailure(t *testing.T) {
	mp := provider.NewMockProvider()
	mp.Enqueue("", provider.ErrRateLimited)
	mp.Enqueue("A half is one of two equal parts. Remember that the two parts must be equal.", nil)

	o := NewOrchestrator(Options{
		Provider:     mp,
		Lessons:      testLessons(),
		DefaultModel: "full",
		CheapModel:   "cheap",
	})

	s := o.Generate(context.Background(), testRequest())
	if s.Fallback {
		t.Fatal("Generate() unexpected fallback after successful cheap retry")
	}
	if !s.ModelDowngraded {
		t.Fatal("Generate() expected ModelDowngraded on cheap retry")
	}
	calls := mp.Calls()
	if len(calls) != 2 {
		t.Fatalf("provider called %d times, want 2", len(calls))
	}
	if calls[0].Model != "full" || calls[1].Model != "cheap" {
		t.Fatalf("models = %q then %q, want full then cheap", calls[0].Model, calls[1].Model)
	}
}

func TestGenerateAuthFailureDegradesProcess(t *testing.T) {
	fp := &failingProvider{err: provider.ErrAuth}
	o := NewOrchestrator(Options{Provider: fp, Lessons: testLessons(), CheapModel: "cheap"})

	s := o.Generate(context.Background(), testRequest())
	if !s.Fallback {
		t.Fatal("Generate() expected fallback on auth failure")
	}
	if !o.Degraded() {
		t.Fatal("orchestrator not degraded after auth failure")
	}
	if fp.calls != 1 {
		t.Fatalf("provider called %d times, want 1 (no retry on auth)", fp.calls)
	}

	// Subsequent requests skip the provider entirely.
	req := testRequest()
	req.Kind = KindSummary
	o.Generate(context.Background(), req)
	if fp.calls != 1 {
		t.Fatalf("provider called %d times after degradation, want still 1", fp.calls)
	}
}

func TestGenerateBreakShortCircuit(t *testing.T) {
	fp := &failingProvider{err: provider.ErrTimeout}
	o := NewOrchestrator(Options{Provider: fp, Lessons: testLessons()})

	req := testRequest()
	req.State.NeedsBreak = true
	req.State.Mood = emotion.MoodTired

	s := o.Generate(context.Background(), req)
	if !s.BreakSuggested {
		t.Fatal("Generate() expected break script")
	}
	if fp.calls != 0 {
		t.Fatalf("provider called %d times during break, want 0", fp.calls)
	}

	// Explicitly continuing overrides the break.
	req.Kind = KindContinue
	s = o.Generate(context.Background(), req)
	if s.BreakSuggested {
		t.Fatal("Generate(continue) still returned break script")
	}
}

func TestGenerateCacheHit(t *testing.T) {
	cp := &capturingProvider{text: "A half is one of two equal parts. Remember the parts are equal."}
	o := NewOrchestrator(Options{Provider: cp, Lessons: testLessons()})

	first := o.Generate(context.Background(), testRequest())
	if first.Cached {
		t.Fatal("first Generate() unexpectedly cached")
	}

	req := testRequest()
	req.State.Mood = emotion.MoodFrustrated
	second := o.Generate(context.Background(), req)
	if !second.Cached {
		t.Fatal("second Generate() expected cache hit")
	}
	if len(cp.prompts) != 1 {
		t.Fatalf("provider called %d times, want 1", len(cp.prompts))
	}
	// Tone is re-derived for the current mood, not the cached one.
	if second.Tone != "reassuring" {
		t.Fatalf("cached script tone = %q, want reassuring", second.Tone)
	}
}

func TestGenerateQuestionsBypassCache(t *testing.T) {
	cp := &capturingProvider{text: "Because the two parts have to be the same size."}
	o := NewOrchestrator(Options{Provider: cp, Lessons: testLessons()})

	req := testRequest()
	req.Question = "why do the parts have to be equal?"
	o.Generate(context.Background(), req)
	o.Generate(context.Background(), req)
	if len(cp.prompts) != 2 {
		t.Fatalf("provider called %d times, want 2 (questions are not cached)", len(cp.prompts))
	}
}

func TestGenerateFallbackNotCached(t *testing.T) {
	fp := &failingProvider{err: provider.ErrTimeout}
	o := NewOrchestrator(Options{Provider: fp, Lessons: testLessons(), CheapModel: "cheap"})

	o.Generate(context.Background(), testRequest())
	callsAfterFirst := fp.calls

	s := o.Generate(context.Background(), testRequest())
	if s.Cached {
		t.Fatal("fallback script was served from cache")
	}
	if fp.calls == callsAfterFirst {
		t.Fatal("provider not re-tried on second request, fallback must not be cached")
	}
}

func TestGenerateProblemKind(t *testing.T) {
	mp := provider.NewMockProvider()
	mp.Enqueue(`Let's practice halves. {"question": "What is half of 6?", "answer": "3", "difficulty": "easy"} Take your time.`, nil)

	o := NewOrchestrator(Options{Provider: mp, Lessons: testLessons()})

	req := testRequest()
	req.Kind = KindProblem
	s := o.Generate(context.Background(), req)
	if s.Problem == nil {
		t.Fatal("Generate(problem) returned no problem")
	}
	if s.Problem.Question != "What is half of 6?" {
		t.Fatalf("problem question = %q", s.Problem.Question)
	}
	if strings.Contains(s.Narration, "{") {
		t.Fatalf("narration still contains JSON payload: %q", s.Narration)
	}
}

func TestGenerateProblemSynthesizedWhenPayloadMalformed(t *testing.T) {
	mp := provider.NewMockProvider()
	mp.Enqueue("Here is a problem with no payload at all.", nil)

	o := NewOrchestrator(Options{Provider: mp, Lessons: testLessons()})

	req := testRequest()
	req.Kind = KindQuiz
	s := o.Generate(context.Background(), req)
	if s.Problem == nil {
		t.Fatal("Generate(quiz) expected synthesized problem")
	}
	if s.Problem.Question == "" {
		t.Fatal("synthesized problem has empty question")
	}
}

func TestGenerateEmotionalOverrideInPrompt(t *testing.T) {
	cp := &capturingProvider{text: "Let's slow down and look at halves again."}
	o := NewOrchestrator(Options{Provider: cp, Lessons: testLessons()})

	req := testRequest()
	req.State.Mood = emotion.MoodFrustrated
	o.Generate(context.Background(), req)

	if len(cp.prompts) != 1 {
		t.Fatalf("provider called %d times, want 1", len(cp.prompts))
	}
	if !strings.Contains(cp.prompts[0], "frustrated") {
		t.Fatal("prompt missing frustration override")
	}
}

func TestGenerateRAGAnswerGatedByConfidence(t *testing.T) {
	cp := &capturingProvider{text: "The moon reflects sunlight."}
	static := &rag.StaticClient{Answers: map[string]rag.Answer{
		"why does the sun shine?":  {Text: "Fusion in the core releases energy.", Confidence: 0.9},
		"what is the moon made of": {Text: "wild guess", Confidence: 0.2},
	}}
	o := NewOrchestrator(Options{Provider: cp, Lessons: testLessons(), RAG: static})

	req := testRequest()
	req.Question = "why does the sun shine?"
	o.Generate(context.Background(), req)
	if !strings.Contains(cp.prompts[0], "Fusion in the core") {
		t.Fatal("high-confidence answer missing from prompt")
	}

	req.Question = "what is the moon made of"
	o.Generate(context.Background(), req)
	if strings.Contains(cp.prompts[1], "wild guess") {
		t.Fatal("low-confidence answer leaked into prompt")
	}
}

func TestGenerateParentReportCadence(t *testing.T) {
	cp := &capturingProvider{text: "A half is one of two equal parts."}
	profiles := profile.NewInMemoryStore()
	o := NewOrchestrator(Options{Provider: cp, Lessons: testLessons(), Profiles: profiles})

	kinds := []Kind{KindExplain, KindExample, KindSummary, KindMoreDetail, KindCheck}
	var last Script
	for i, k := range kinds {
		req := testRequest()
		req.Kind = k
		last = o.Generate(context.Background(), req)
		if i < len(kinds)-1 && last.ParentReport != nil {
			t.Fatalf("interaction %d attached a parent report early", i+1)
		}
	}
	if last.ParentReport == nil {
		t.Fatal("fifth interaction missing parent report")
	}
	if last.ParentReport.Interactions != 5 {
		t.Fatalf("parent report interactions = %d, want 5", last.ParentReport.Interactions)
	}
}

func TestGenerateParentReportOnWrongStreak(t *testing.T) {
	cp := &capturingProvider{text: "Let's try halves a different way."}
	profiles := profile.NewInMemoryStore()
	o := NewOrchestrator(Options{Provider: cp, Lessons: testLessons(), Profiles: profiles})

	req := testRequest()
	req.WrongStreak = 3
	s := o.Generate(context.Background(), req)
	if s.ParentReport == nil {
		t.Fatal("wrong streak of 3 should force a parent report")
	}

	p, err := profiles.Get(context.Background(), "student-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(p.Weaknesses) == 0 || p.Weaknesses[len(p.Weaknesses)-1] != "Halves" {
		t.Fatalf("weaknesses = %v, want slide title recorded", p.Weaknesses)
	}
}

func TestGenerateStopKind(t *testing.T) {
	fp := &failingProvider{err: provider.ErrTimeout}
	o := NewOrchestrator(Options{Provider: fp, Lessons: testLessons()})

	req := testRequest()
	req.Kind = KindStop
	s := o.Generate(context.Background(), req)
	if s.Narration == "" {
		t.Fatal("stop script has empty narration")
	}
	if fp.calls != 0 {
		t.Fatalf("provider called %d times for stop, want 0", fp.calls)
	}
}

func TestGenerateRecordsStrengthForConfidentStudent(t *testing.T) {
	profiles := profile.NewInMemoryStore()
	cp := &capturingProvider{text: "A half is one of two equal parts."}
	o := NewOrchestrator(Options{Provider: cp, Lessons: testLessons(), Profiles: profiles})

	req := testRequest()
	req.State.Mood = emotion.MoodHappy
	o.Generate(context.Background(), req)

	p, err := profiles.Get(context.Background(), "student-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(p.Strengths) != 1 || p.Strengths[0] != "Halves" {
		t.Fatalf("Strengths = %v, want [Halves]", p.Strengths)
	}

	// Repeating the same topic does not duplicate the entry.
	o.Generate(context.Background(), req)
	p, _ = profiles.Get(context.Background(), "student-1")
	if len(p.Strengths) != 1 {
		t.Fatalf("Strengths = %v after repeat, want a single entry", p.Strengths)
	}

	// A struggling student's topic lands in weaknesses, never strengths.
	req.State.Mood = emotion.MoodFrustrated
	req.WrongStreak = 3
	o.Generate(context.Background(), req)
	p, _ = profiles.Get(context.Background(), "student-1")
	if len(p.Strengths) != 1 {
		t.Fatalf("Strengths = %v, want unchanged", p.Strengths)
	}
	if len(p.Weaknesses) != 1 || p.Weaknesses[0] != "Halves" {
		t.Fatalf("Weaknesses = %v, want [Halves]", p.Weaknesses)
	}
}
