package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlearn/tutorcore/internal/achievement"
	"github.com/lumenlearn/tutorcore/internal/emotion"
	"github.com/lumenlearn/tutorcore/internal/observability"
	"github.com/lumenlearn/tutorcore/internal/profile"
)

const (
	defaultHeartbeatInterval = 20 * time.Second
	defaultMaxIdle           = 10 * time.Minute
	defaultRetention         = 24 * time.Hour
)

// Handle is the manager's view of a student's transport. Heartbeat failure
// means the transport is dead and triggers a full disconnect.
type Handle interface {
	Heartbeat() error
}

// student is the per-student owner object. Its mutex serializes every
// mutation for that student; the heartbeat goroutine's lifetime is tied to
// cancelHeartbeat so teardown is a single cancel.
type student struct {
	mu sync.Mutex

	id              string
	connID          string
	handle          Handle
	cancelHeartbeat context.CancelFunc

	sessions map[string]*Session // keyed by lesson id

	connectedAt      time.Time
	voiceStatus      string
	recentText       string
	consecutiveWrong int
	lastState        emotion.State
}

// PresenceInfo is an operator-facing view of one connected student.
type PresenceInfo struct {
	StudentID      string    `json:"student_id"`
	ConnectionID   string    `json:"connection_id"`
	ConnectedAt    time.Time `json:"connected_at"`
	VoiceStatus    string    `json:"voice_status"`
	ActiveSessions int       `json:"active_sessions"`
}

// Options wires a Manager. Store is the only required field.
type Options struct {
	Store        Store
	Profiles     profile.Store
	Achievements *achievement.Service
	Metrics      *observability.Metrics

	HeartbeatInterval time.Duration
	MaxIdle           time.Duration
	Retention         time.Duration
}

// Manager is the presence registry. It owns connected students, their
// lesson sessions, heartbeat goroutines, and the generation epoch used to
// discard results that arrive after a disconnect.
type Manager struct {
	mu       sync.Mutex
	students map[string]*student
	epochs   map[string]uint64

	store        Store
	profiles     profile.Store
	achievements *achievement.Service
	metrics      *observability.Metrics

	heartbeatInterval time.Duration
	maxIdle           time.Duration
	retention         time.Duration

	now func() time.Time
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		students:          make(map[string]*student),
		epochs:            make(map[string]uint64),
		store:             opts.Store,
		profiles:          opts.Profiles,
		achievements:      opts.Achievements,
		metrics:           opts.Metrics,
		heartbeatInterval: opts.HeartbeatInterval,
		maxIdle:           opts.MaxIdle,
		retention:         opts.Retention,
		now:               func() time.Time { return time.Now().UTC() },
	}
	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.heartbeatInterval <= 0 {
		m.heartbeatInterval = defaultHeartbeatInterval
	}
	if m.maxIdle <= 0 {
		m.maxIdle = defaultMaxIdle
	}
	if m.retention <= 0 {
		m.retention = defaultRetention
	}
	return m
}

// Connect registers presence and starts the heartbeat. Idempotent per
// student: a reconnect cancels the previous heartbeat goroutine and
// replaces the handle instead of stacking a second timer.
func (m *Manager) Connect(studentID string, h Handle) string {
	connID := uuid.NewString()

	m.mu.Lock()
	st, ok := m.students[studentID]
	if !ok {
		st = &student{
			id:       studentID,
			sessions: make(map[string]*Session),
		}
		m.students[studentID] = st
	}
	m.mu.Unlock()

	st.mu.Lock()
	if st.cancelHeartbeat != nil {
		st.cancelHeartbeat()
	}
	hbCtx, cancel := context.WithCancel(context.Background())
	st.connID = connID
	st.handle = h
	st.cancelHeartbeat = cancel
	st.connectedAt = m.now()
	st.voiceStatus = "idle"
	st.mu.Unlock()

	if h != nil {
		go m.runHeartbeat(hbCtx, studentID, h)
	}
	m.countEvent("connect")
	return connID
}

func (m *Manager) runHeartbeat(ctx context.Context, studentID string, h Handle) {
	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.Heartbeat(); err != nil {
				log.Printf("heartbeat failed for %s, disconnecting: %v", studentID, err)
				m.Disconnect(studentID)
				return
			}
		}
	}
}

// JoinLesson returns the unique active session for (student, lesson),
// reactivating an inactive one or creating a new one as needed. The second
// return reports whether an existing session was resumed. Store failures
// degrade to an ephemeral session; the caller is never failed for them.
func (m *Manager) JoinLesson(ctx context.Context, studentID, lessonID string) (*Session, bool, error) {
	st, err := m.lookup(studentID)
	if err != nil {
		return nil, false, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	now := m.now()

	if sess, ok := st.sessions[lessonID]; ok {
		if sess.Status != StatusActive {
			m.gaugeSessions(1)
		}
		m.reactivateLocked(ctx, sess, now)
		return clone(sess), true, nil
	}

	if sess, ferr := m.store.FindActive(ctx, studentID, lessonID); ferr == nil {
		m.reactivateLocked(ctx, sess, now)
		st.sessions[lessonID] = sess
		m.gaugeSessions(1)
		return clone(sess), true, nil
	}

	sess := &Session{
		ID:             uuid.NewString(),
		StudentID:      studentID,
		LessonID:       lessonID,
		Status:         StatusActive,
		MessageCount:   1,
		StartedAt:      now,
		LastActivityAt: now,
	}
	created := true
	if cerr := m.store.Create(ctx, sess); cerr != nil {
		if errors.Is(cerr, ErrDuplicate) {
			// Lost the creation race; the winning record is authoritative.
			if winner, ferr := m.store.FindActive(ctx, studentID, lessonID); ferr == nil {
				m.reactivateLocked(ctx, winner, now)
				sess = winner
				created = false
			} else {
				sess.Ephemeral = true
			}
		} else {
			log.Printf("session persist failed for %s/%s, using ephemeral session: %v", studentID, lessonID, cerr)
			sess.Ephemeral = true
		}
	}
	st.sessions[lessonID] = sess
	if created {
		m.bumpSessionCount(ctx, studentID, now)
	}

	m.gaugeSessions(1)
	m.countEvent("join")
	if m.achievements != nil {
		m.achievements.Record(achievement.Event{
			Type:      achievement.EventSessionStarted,
			StudentID: studentID,
			At:        now,
		})
	}
	return clone(sess), false, nil
}

func (m *Manager) reactivateLocked(ctx context.Context, sess *Session, now time.Time) {
	sess.Status = StatusActive
	sess.CompletedAt = nil
	sess.LastActivityAt = now
	sess.MessageCount++
	m.persist(ctx, sess)
}

// RecordActivity updates last-activity, accumulates behavioral indicators,
// and re-infers the emotional state. Returns the new state. Per-student
// causal ordering holds: the state is updated under the student's lock
// before the call returns, so a following generation request reads it.
func (m *Manager) RecordActivity(ctx context.Context, studentID, kind string, correct *bool, latency time.Duration, text string) (emotion.State, error) {
	st, err := m.lookup(studentID)
	if err != nil {
		return emotion.State{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	now := m.now()

	var indicators []emotion.Indicator
	if correct != nil {
		if *correct {
			st.consecutiveWrong = 0
		} else {
			st.consecutiveWrong++
		}
		indicators = emotion.IndicatorsFromActivity(*correct, latency, st.consecutiveWrong)
	} else if latency > 30*time.Second {
		indicators = []emotion.Indicator{emotion.IndicatorSlowResponse}
	}
	if text != "" {
		st.recentText = text
	}
	switch kind {
	case "voice_start":
		st.voiceStatus = "speaking"
	case "voice_stop":
		st.voiceStatus = "idle"
	}

	minutes := int(now.Sub(st.connectedAt) / time.Minute)
	state := emotion.Infer(indicators, st.recentText, minutes)
	st.lastState = state

	for _, sess := range st.sessions {
		if sess.Status != StatusActive {
			continue
		}
		sess.LastActivityAt = now
		sess.MessageCount++
		if kind == "slide_change" {
			sess.SlideIndex++
		}
	}

	m.countEvent("activity")
	if m.achievements != nil {
		evt := achievement.Event{
			Type:      achievement.EventActivityRecorded,
			StudentID: studentID,
			At:        now,
		}
		if correct != nil {
			evt.Correct = *correct
		}
		m.achievements.Record(evt)
	}
	return state, nil
}

// State returns the last inferred emotional state, the current error
// streak, and the session length for a connected student.
func (m *Manager) State(studentID string) (emotion.State, int, int, error) {
	st, err := m.lookup(studentID)
	if err != nil {
		return emotion.State{}, 0, 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	minutes := int(m.now().Sub(st.connectedAt) / time.Minute)
	return st.lastState, st.consecutiveWrong, minutes, nil
}

// UpdateSlide records the student's current slide position.
func (m *Manager) UpdateSlide(studentID, lessonID string, slideIndex int) {
	st, err := m.lookup(studentID)
	if err != nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if sess, ok := st.sessions[lessonID]; ok {
		sess.SlideIndex = slideIndex
		sess.LastActivityAt = m.now()
	}
}

// Epoch returns the student's current generation epoch. A result computed
// under an older epoch must be dropped, not delivered.
func (m *Manager) Epoch(studentID string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epochs[studentID]
}

// Deliverable reports whether a result produced under the given epoch may
// still be dispatched. False after the student disconnected.
func (m *Manager) Deliverable(studentID string, epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, connected := m.students[studentID]
	return connected && m.epochs[studentID] == epoch
}

// Disconnect tears down everything tied to the student: presence entry,
// session records, heartbeat goroutine. Idempotent; a second call finds no
// entry and does nothing. In-flight generation results become discardable
// because the epoch advances before any resource is released.
func (m *Manager) Disconnect(studentID string) {
	m.mu.Lock()
	st, ok := m.students[studentID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.students, studentID)
	m.epochs[studentID]++
	m.mu.Unlock()

	st.mu.Lock()
	if st.cancelHeartbeat != nil {
		st.cancelHeartbeat()
		st.cancelHeartbeat = nil
	}
	now := m.now()
	ended := 0
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	for _, sess := range st.sessions {
		if sess.Status == StatusActive {
			ended++
		}
		sess.Status = StatusInactive
		sess.CompletedAt = &now
		sess.LastActivityAt = now
		m.persist(ctx, sess)
	}
	m.addLearningTime(ctx, studentID, now.Sub(st.connectedAt), now)
	cancel()
	st.handle = nil
	st.mu.Unlock()

	m.gaugeSessions(-ended)
	m.countEvent("disconnect")
	if m.achievements != nil && ended > 0 {
		m.achievements.Record(achievement.Event{
			Type:      achievement.EventSessionEnded,
			StudentID: studentID,
			At:        now,
		})
	}
}

// CleanupStaleSessions marks sessions inactive after maxIdle and
// hard-deletes inactive sessions older than the retention window.
func (m *Manager) CleanupStaleSessions(ctx context.Context, maxIdle time.Duration) {
	now := m.now()

	m.mu.Lock()
	students := make([]*student, 0, len(m.students))
	for _, st := range m.students {
		students = append(students, st)
	}
	m.mu.Unlock()

	staled := 0
	for _, st := range students {
		st.mu.Lock()
		for lessonID, sess := range st.sessions {
			if sess.Status == StatusActive && now.Sub(sess.LastActivityAt) > maxIdle {
				sess.Status = StatusInactive
				completed := now
				sess.CompletedAt = &completed
				m.persist(ctx, sess)
				staled++
			}
			if sess.Status == StatusInactive && now.Sub(sess.LastActivityAt) > m.retention {
				delete(st.sessions, lessonID)
			}
		}
		st.mu.Unlock()
	}
	m.gaugeSessions(-staled)
	if staled > 0 {
		m.countEvent("stale")
	}

	if n, err := m.store.DeleteIdleBefore(ctx, now.Add(-m.retention)); err != nil {
		log.Printf("session retention sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("session retention sweep deleted %d sessions", n)
	}
}

// StartJanitor runs the cleanup sweep until ctx is cancelled.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CleanupStaleSessions(ctx, m.maxIdle)
			}
		}
	}()
}

// ActiveCount is the number of active sessions across connected students.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	students := make([]*student, 0, len(m.students))
	for _, st := range m.students {
		students = append(students, st)
	}
	m.mu.Unlock()

	count := 0
	for _, st := range students {
		st.mu.Lock()
		for _, sess := range st.sessions {
			if sess.Status == StatusActive {
				count++
			}
		}
		st.mu.Unlock()
	}
	return count
}

// Snapshot returns clones of every session held by connected students.
func (m *Manager) Snapshot() []*Session {
	m.mu.Lock()
	students := make([]*student, 0, len(m.students))
	for _, st := range m.students {
		students = append(students, st)
	}
	m.mu.Unlock()

	var out []*Session
	for _, st := range students {
		st.mu.Lock()
		for _, sess := range st.sessions {
			out = append(out, clone(sess))
		}
		st.mu.Unlock()
	}
	return out
}

// Presence returns one entry per connected student.
func (m *Manager) Presence() []PresenceInfo {
	m.mu.Lock()
	students := make([]*student, 0, len(m.students))
	for _, st := range m.students {
		students = append(students, st)
	}
	m.mu.Unlock()

	out := make([]PresenceInfo, 0, len(students))
	for _, st := range students {
		st.mu.Lock()
		info := PresenceInfo{
			StudentID:    st.id,
			ConnectionID: st.connID,
			ConnectedAt:  st.connectedAt,
			VoiceStatus:  st.voiceStatus,
		}
		for _, sess := range st.sessions {
			if sess.Status == StatusActive {
				info.ActiveSessions++
			}
		}
		st.mu.Unlock()
		out = append(out, info)
	}
	return out
}

// Connected reports whether the student has a live presence entry.
func (m *Manager) Connected(studentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.students[studentID]
	return ok
}

func (m *Manager) lookup(studentID string) (*student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[studentID]
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

// bumpSessionCount adds a started session to the long-lived profile.
func (m *Manager) bumpSessionCount(ctx context.Context, studentID string, now time.Time) {
	if m.profiles == nil {
		return
	}
	p, err := m.profiles.Get(ctx, studentID)
	if err != nil {
		log.Printf("profile load failed for %s: %v", studentID, err)
		return
	}
	p.SessionCount++
	p.UpdatedAt = now
	if err := m.profiles.Save(ctx, p); err != nil {
		log.Printf("profile save failed for %s: %v", studentID, err)
	}
}

// addLearningTime folds the connection's elapsed time into the profile's
// cumulative learning time.
func (m *Manager) addLearningTime(ctx context.Context, studentID string, elapsed time.Duration, now time.Time) {
	if m.profiles == nil || elapsed <= 0 {
		return
	}
	p, err := m.profiles.Get(ctx, studentID)
	if err != nil {
		log.Printf("profile load failed for %s: %v", studentID, err)
		return
	}
	p.LearningTime += elapsed
	p.UpdatedAt = now
	if err := m.profiles.Save(ctx, p); err != nil {
		log.Printf("profile save failed for %s: %v", studentID, err)
	}
}

// persist saves a session unless it is ephemeral. Failures are logged and
// the session keeps working from memory.
func (m *Manager) persist(ctx context.Context, sess *Session) {
	if sess.Ephemeral {
		return
	}
	if err := m.store.Save(ctx, sess); err != nil {
		log.Printf("session save failed for %s: %v", sess.ID, err)
	}
}

func (m *Manager) gaugeSessions(delta int) {
	if m.metrics == nil || delta == 0 {
		return
	}
	m.metrics.ActiveSessions.Add(float64(delta))
}

func (m *Manager) countEvent(event string) {
	if m.metrics != nil {
		m.metrics.SessionEvents.WithLabelValues(event).Inc()
	}
}
