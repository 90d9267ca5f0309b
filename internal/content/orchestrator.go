package content

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lumenlearn/tutorcore/internal/achievement"
	"github.com/lumenlearn/tutorcore/internal/cache"
	"github.com/lumenlearn/tutorcore/internal/emotion"
	"github.com/lumenlearn/tutorcore/internal/lesson"
	"github.com/lumenlearn/tutorcore/internal/observability"
	"github.com/lumenlearn/tutorcore/internal/profile"
	"github.com/lumenlearn/tutorcore/internal/provider"
	"github.com/lumenlearn/tutorcore/internal/rag"
	"github.com/lumenlearn/tutorcore/internal/reliability"
)

const (
	defaultCallTimeout      = 20 * time.Second
	defaultMinRAGConfidence = 0.6

	// Every Nth interaction a parent report is attached to the script.
	parentReportEvery = 5

	// Wrong answers in a row before the failing topic lands in the
	// weaknesses list and a parent report is forced.
	weaknessStreak = 3
)

// Options wires an Orchestrator. Provider is the only required field; nil
// collaborators degrade to no-ops or in-memory defaults.
type Options struct {
	Provider     provider.Provider
	Lessons      lesson.Store
	Profiles     profile.Store
	RAG          rag.Client
	Cache        ScriptCache
	Achievements *achievement.Service
	Metrics      *observability.Metrics

	DefaultModel     string
	CheapModel       string
	CallTimeout      time.Duration
	MinRAGConfidence float64
}

// Orchestrator runs the generation pipeline: remap intent, consult the
// cache, build a personalized prompt, call the provider with retry and
// degradation, post-process, and update the student profile. Generate never
// returns an error; total failure yields a deterministic fallback script.
type Orchestrator struct {
	provider     provider.Provider
	lessons      lesson.Store
	profiles     profile.Store
	rag          rag.Client
	cache        ScriptCache
	achievements *achievement.Service
	metrics      *observability.Metrics

	defaultModel     string
	cheapModel       string
	callTimeout      time.Duration
	minRAGConfidence float64

	// Set on an auth failure; stays set for the process lifetime so a bad
	// key does not burn a timeout on every request.
	degraded atomic.Bool

	now func() time.Time
}

func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		provider:         opts.Provider,
		lessons:          opts.Lessons,
		profiles:         opts.Profiles,
		rag:              opts.RAG,
		cache:            opts.Cache,
		achievements:     opts.Achievements,
		metrics:          opts.Metrics,
		defaultModel:     opts.DefaultModel,
		cheapModel:       opts.CheapModel,
		callTimeout:      opts.CallTimeout,
		minRAGConfidence: opts.MinRAGConfidence,
		now:              func() time.Time { return time.Now().UTC() },
	}
	if o.lessons == nil {
		o.lessons = lesson.NewInMemoryStore(nil)
	}
	if o.profiles == nil {
		o.profiles = profile.NewInMemoryStore()
	}
	if o.cache == nil {
		o.cache = NewMemoryScriptCache(30*time.Minute, 512)
	}
	if o.callTimeout <= 0 {
		o.callTimeout = defaultCallTimeout
	}
	if o.minRAGConfidence <= 0 {
		o.minRAGConfidence = defaultMinRAGConfidence
	}
	return o
}

// Degraded reports whether the provider has been disabled for this process
// after an authentication failure.
func (o *Orchestrator) Degraded() bool { return o.degraded.Load() }

// CacheStats exposes the script cache counters for the operator endpoint.
func (o *Orchestrator) CacheStats(ctx context.Context) cache.Stats { return o.cache.Stats(ctx) }

// Generate produces a script for the request. It always returns a usable
// script: provider failures fall back to the deterministic template path.
func (o *Orchestrator) Generate(ctx context.Context, req Request) Script {
	start := o.now()
	defer func() {
		if o.metrics != nil {
			o.metrics.ObserveGenerationLatency(o.now().Sub(start))
		}
	}()

	// A forced break preempts everything except the student explicitly
	// moving on or signing off.
	if req.State.NeedsBreak && req.Kind != KindContinue && req.Kind != KindStop {
		if o.achievements != nil {
			o.achievements.Record(achievement.Event{
				Type:      achievement.EventBreakSuggested,
				StudentID: req.StudentID,
				At:        o.now(),
			})
		}
		o.countScript(KindStop, "break")
		return BreakScript(req.State)
	}

	kind := RemapKind(req.Kind, req.Question)
	if !kind.Valid() {
		kind = KindExplain
	}
	req.Kind = kind

	if kind == KindStop {
		o.countScript(kind, "template")
		return o.farewellScript(ctx, req)
	}

	// Free-text questions produce one-off answers; only question-free
	// requests hit the shared cache.
	cacheable := strings.TrimSpace(req.Question) == ""
	key := CacheKey(req.LessonID, req.Slide, req.Profile.Grade, kind)
	if cacheable {
		if s, ok := o.cache.Get(ctx, key); ok {
			o.countCache("hit")
			s.Cached = true
			s.Tone = ToneForMood(req.State.Mood)
			s.SuggestedNext = SuggestNext(kind, req.State.Mood, req.RecentKinds)
			o.finish(ctx, req, &s)
			o.countScript(kind, "cache")
			return s
		}
		o.countCache("miss")
	}

	lc := o.lessonContext(ctx, req.LessonID)
	ragAnswer := o.ragAnswer(ctx, req)

	prompt := BuildPrompt(req, lc, ragAnswer)
	raw, downgraded, err := o.callProvider(ctx, prompt)
	if err != nil {
		s := FallbackScript(kind, lc.Title, req.Slide, req.State)
		s.SuggestedNext = SuggestNext(kind, req.State.Mood, req.RecentKinds)
		o.finish(ctx, req, &s)
		o.countScript(kind, "fallback")
		return s
	}

	s := o.postprocess(req, lc, raw)
	s.ModelDowngraded = downgraded

	if cacheable {
		o.cache.Set(ctx, key, s)
	}
	o.finish(ctx, req, &s)
	o.countScript(kind, "provider")
	return s
}

func (o *Orchestrator) lessonContext(ctx context.Context, lessonID string) lesson.Context {
	stage := o.now()
	lc, err := o.lessons.Lookup(ctx, lessonID)
	o.observeStage("lesson", stage)
	if err != nil {
		log.Printf("lesson lookup failed for %s: %v", lessonID, err)
		return lesson.Context{LessonID: lessonID}
	}
	return lc
}

// ragAnswer consults the answer-lookup collaborator for free-text questions.
// Low confidence or any failure means no answer; generation proceeds without.
func (o *Orchestrator) ragAnswer(ctx context.Context, req Request) string {
	if o.rag == nil || strings.TrimSpace(req.Question) == "" {
		return ""
	}
	stage := o.now()
	ans, err := o.rag.Answer(ctx, req.Question, req.LessonID)
	o.observeStage("rag", stage)
	if err != nil {
		log.Printf("rag lookup failed: %v", err)
		return ""
	}
	if ans.Confidence < o.minRAGConfidence {
		return ""
	}
	return ans.Text
}

// callProvider performs the provider call with the failure policy: degraded
// mode skips the call outright, a transient failure earns one retry on the
// cheap model, and an auth failure degrades the process.
func (o *Orchestrator) callProvider(ctx context.Context, prompt string) (text string, downgraded bool, err error) {
	if o.provider == nil || o.degraded.Load() {
		return "", false, errors.New("provider unavailable")
	}

	stage := o.now()
	defer func() { o.observeStage("provider", stage) }()

	cctx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	text, err = o.provider.Complete(cctx, prompt, provider.Params{Model: o.defaultModel})
	if err == nil {
		return text, false, nil
	}
	o.countProviderError(err)

	switch {
	case errors.Is(err, provider.ErrAuth):
		if o.degraded.CompareAndSwap(false, true) {
			log.Printf("provider auth failed; degrading to offline scripts: %v", err)
		}
		return "", false, err
	case errors.Is(err, provider.ErrRateLimited), errors.Is(err, provider.ErrTimeout), reliability.IsTimeout(err):
		if o.cheapModel == "" {
			return "", false, err
		}
		rctx, rcancel := context.WithTimeout(ctx, o.callTimeout)
		defer rcancel()
		text, rerr := o.provider.Complete(rctx, prompt, provider.Params{Model: o.cheapModel})
		if rerr != nil {
			o.countProviderError(rerr)
			return "", false, rerr
		}
		return text, true, nil
	default:
		return "", false, err
	}
}

func (o *Orchestrator) postprocess(req Request, lc lesson.Context, raw string) Script {
	stage := o.now()
	defer func() { o.observeStage("postprocess", stage) }()

	var prob *Problem
	if req.Kind == KindProblem || req.Kind == KindQuiz {
		difficulty := AdjustDifficulty(DifficultyMedium, req.Profile.SuccessRatio())
		p, err := ParseProblem(raw)
		if err != nil {
			p = SynthesizeProblem(req.Slide.Title, lc.KeyPoints, difficulty)
		} else {
			p.Difficulty = AdjustDifficulty(p.Difficulty, req.Profile.SuccessRatio())
		}
		prob = p
		raw = stripProblemJSON(raw)
	}

	narration := CleanNarration(raw)
	return Script{
		Narration:       narration,
		DurationSeconds: EstimateDurationSeconds(narration, req.Profile.Grade),
		KeyPoints:       ExtractKeyPoints(narration, lc.KeyPoints),
		Examples:        ExtractExamples(narration),
		Tone:            ToneForMood(req.State.Mood),
		SuggestedNext:   SuggestNext(req.Kind, req.State.Mood, req.RecentKinds),
		Problem:         prob,
		GeneratedAt:     o.now(),
	}
}

// finish applies the per-request profile update, attaches a parent report
// when one is due, and notifies the achievement side-channel. Runs for
// every outcome, cache hits and fallbacks included.
func (o *Orchestrator) finish(ctx context.Context, req Request, s *Script) {
	if o.achievements != nil {
		o.achievements.Record(achievement.Event{
			Type:      achievement.EventScriptGenerated,
			StudentID: req.StudentID,
			At:        o.now(),
		})
	}

	p, err := o.profiles.Get(ctx, req.StudentID)
	if err != nil {
		log.Printf("profile load failed for %s: %v", req.StudentID, err)
		return
	}
	p.InteractionCount++
	p.Baseline = profile.BlendBaseline(p.Baseline, req.State)
	if req.WrongStreak >= weaknessStreak && req.Slide.Title != "" {
		p.Weaknesses = profile.AppendRolling(p.Weaknesses, req.Slide.Title)
	}
	if req.WrongStreak == 0 && req.State.Mood == emotion.MoodHappy && req.Slide.Title != "" {
		p.Strengths = profile.AppendRolling(p.Strengths, req.Slide.Title)
	}
	p.UpdatedAt = o.now()
	if err := o.profiles.Save(ctx, p); err != nil {
		log.Printf("profile save failed for %s: %v", req.StudentID, err)
	}

	if p.InteractionCount%parentReportEvery == 0 || req.WrongStreak >= weaknessStreak {
		lessonTitle := req.Slide.Title
		if lc, lerr := o.lessons.Lookup(ctx, req.LessonID); lerr == nil && lc.Title != "" {
			lessonTitle = lc.Title
		}
		r := BuildParentReport(req.StudentID, req.LessonID, lessonTitle, *p, req.State, o.now())
		s.ParentReport = &r
	}
}

func (o *Orchestrator) farewellScript(ctx context.Context, req Request) Script {
	narration := "Great work today. We'll pick this up right where we left off next time. See you soon."
	if req.State.Mood == emotion.MoodFrustrated || req.State.Mood == emotion.MoodConfused {
		narration = "That was a tough one, and you stuck with it. That matters more than getting everything right. See you next time."
	}
	s := Script{
		Narration:       narration,
		DurationSeconds: EstimateDurationSeconds(narration, req.Profile.Grade),
		Tone:            ToneForMood(req.State.Mood),
		SuggestedNext:   nil,
		GeneratedAt:     o.now(),
	}
	o.finish(ctx, req, &s)
	return s
}

func (o *Orchestrator) observeStage(stage string, since time.Time) {
	if o.metrics != nil {
		o.metrics.ObserveStage(stage, o.now().Sub(since))
	}
}

func (o *Orchestrator) countScript(kind Kind, source string) {
	if o.metrics != nil {
		o.metrics.ScriptsGenerated.WithLabelValues(string(kind), source).Inc()
	}
}

func (o *Orchestrator) countCache(result string) {
	if o.metrics != nil {
		o.metrics.CacheEvents.WithLabelValues(result).Inc()
	}
}

func (o *Orchestrator) countProviderError(err error) {
	if o.metrics == nil {
		return
	}
	code := "backend"
	switch {
	case errors.Is(err, provider.ErrAuth):
		code = "auth"
	case errors.Is(err, provider.ErrRateLimited):
		code = "rate_limited"
	case errors.Is(err, provider.ErrTimeout), reliability.IsTimeout(err):
		code = "timeout"
	}
	o.metrics.ProviderErrors.WithLabelValues(o.provider.Name(), code).Inc()
}
