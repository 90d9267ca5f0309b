package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumenlearn/tutorcore/internal/content"
	"github.com/lumenlearn/tutorcore/internal/profile"
	"github.com/lumenlearn/tutorcore/internal/protocol"
	"github.com/lumenlearn/tutorcore/internal/session"
)

const recentKindWindow = 4

// wsHandle adapts a websocket connection to the session manager's Handle.
// WriteControl is safe to call concurrently with the writer goroutine.
type wsHandle struct {
	conn *websocket.Conn
}

func (h *wsHandle) Heartbeat() error {
	return h.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

func (s *Server) handleTutorWS(w http.ResponseWriter, r *http.Request) {
	studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))
	if studentID == "" {
		respondError(w, http.StatusBadRequest, "missing_student_id", "query parameter student_id is required")
		return
	}
	if s.orchestrator == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "orchestrator not configured")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.sessions.Connect(studentID, &wsHandle{conn: conn})
	defer s.sessions.Disconnect(studentID)
	s.countSession("ws_connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, 256)
	outbound := make(chan any, 256)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		s.runStudent(ctx, studentID, inbound, outbound)
	}()

	// A worker that returns on its own, after leave_lesson or a stale
	// result, must tear the whole connection down. Cancelling unblocks the
	// read loop's enqueue and closing the socket unblocks ReadMessage.
	go func() {
		<-workerDone
		cancel()
	}()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					s.countWriteError("write_json")
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.countMessage("outbound", string(t))
				}
			}
		}
	}()

	if s.achievements != nil {
		notifications, unsub := s.achievements.Subscribe(studentID)
		defer unsub()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case n, ok := <-notifications:
					if !ok {
						return
					}
					var msg any
					switch {
					case n.Badge != nil:
						msg = protocol.AchievementUnlocked{
							Type:    protocol.TypeAchievementUnlocked,
							BadgeID: n.Badge.ID,
							Name:    n.Badge.Name,
							Detail:  n.Badge.Detail,
						}
					case n.Kind == "break_reminder":
						msg = protocol.BreakReminder{
							Type:    protocol.TypeBreakReminder,
							Message: n.Message,
						}
					default:
						continue
					}
					s.send(ctx, outbound, msg)
				}
			}
		}()
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.send(ctx, outbound, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				Code:      "invalid_client_message",
				Source:    "gateway",
				Retryable: false,
				Detail:    err.Error(),
			})
			continue
		}
		if t, ok := messageTypeOf(parsed); ok {
			s.countMessage("inbound", string(t))
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	cancel()
	close(inbound)
	<-workerDone
	<-writerDone
	s.countSession("ws_disconnected")
}

// runStudent processes one student's inbound messages serially, which gives
// the per-student causal ordering the engine requires: an activity's state
// update always lands before the next interaction request reads it.
func (s *Server) runStudent(ctx context.Context, studentID string, inbound <-chan any, outbound chan<- any) {
	var lessonID string
	var recentKinds []content.Kind

	for {
		var msg any
		var ok bool
		select {
		case <-ctx.Done():
			return
		case msg, ok = <-inbound:
			if !ok {
				return
			}
		}

		switch m := msg.(type) {
		case protocol.JoinLesson:
			sess, resumed, err := s.sessions.JoinLesson(ctx, studentID, m.LessonID)
			if err != nil {
				s.send(ctx, outbound, protocol.ErrorEvent{
					Type:      protocol.TypeErrorEvent,
					Code:      "join_failed",
					Source:    "session",
					Retryable: true,
					Detail:    err.Error(),
				})
				continue
			}
			lessonID = m.LessonID
			s.send(ctx, outbound, protocol.Welcome{
				Type:      protocol.TypeWelcome,
				SessionID: sess.ID,
				LessonID:  sess.LessonID,
				Greeting:  s.greeting(ctx, studentID, resumed),
				Resumed:   resumed,
				Slide:     sess.SlideIndex,
			})

		case protocol.RecordActivity:
			state, err := s.sessions.RecordActivity(ctx, studentID, m.Kind, m.Correct, time.Duration(m.LatencyMs)*time.Millisecond, m.Text)
			if err != nil {
				continue
			}
			s.recordAnswer(ctx, studentID, m.Correct)
			s.send(ctx, outbound, protocol.EmotionalState{
				Type:       protocol.TypeEmotionalState,
				Mood:       string(state.Mood),
				Confidence: state.Confidence,
				Engagement: state.Engagement,
				NeedsBreak: state.NeedsBreak,
			})

		case protocol.InteractionRequest:
			state, streak, _, err := s.sessions.State(studentID)
			if err != nil {
				continue
			}
			prof, perr := s.profiles.Get(ctx, studentID)
			if perr != nil {
				prof = profile.NewDefault(studentID)
			}

			epoch := s.sessions.Epoch(studentID)
			script := s.orchestrator.Generate(ctx, content.Request{
				StudentID:   studentID,
				LessonID:    lessonID,
				Slide:       content.Slide{Index: m.Slide.Index, Title: m.Slide.Title, Content: m.Slide.Content},
				Kind:        content.Kind(m.Kind),
				Question:    m.Question,
				State:       state,
				Profile:     *prof,
				RecentKinds: recentKinds,
				WrongStreak: streak,
			})
			// The student may have disconnected while the provider was
			// working; a stale result is dropped, not dispatched.
			if !s.sessions.Deliverable(studentID, epoch) {
				return
			}

			payload, merr := json.Marshal(script)
			if merr != nil {
				continue
			}
			s.send(ctx, outbound, protocol.GeneratedScript{
				Type:    protocol.TypeGeneratedScript,
				Payload: payload,
			})
			if script.ParentReport != nil {
				if report, rerr := json.Marshal(script.ParentReport); rerr == nil {
					s.send(ctx, outbound, protocol.ParentSummary{
						Type:    protocol.TypeParentSummary,
						Payload: report,
					})
				}
			}

			recentKinds = append(recentKinds, content.Kind(m.Kind))
			if len(recentKinds) > recentKindWindow {
				recentKinds = recentKinds[len(recentKinds)-recentKindWindow:]
			}
			s.sessions.UpdateSlide(studentID, lessonID, m.Slide.Index)

		case protocol.LeaveLesson:
			s.sessions.Disconnect(studentID)
			return
		}
	}
}

// recordAnswer folds a graded activity into the long-lived profile.
func (s *Server) recordAnswer(ctx context.Context, studentID string, correct *bool) {
	if correct == nil {
		return
	}
	p, err := s.profiles.Get(ctx, studentID)
	if err != nil {
		return
	}
	p.AnswersTotal++
	if *correct {
		p.AnswersCorrect++
	}
	_ = s.profiles.Save(ctx, p)
}

func (s *Server) greeting(ctx context.Context, studentID string, resumed bool) string {
	if resumed {
		return "Welcome back! Let's pick up right where we left off."
	}
	if p, err := s.profiles.Get(ctx, studentID); err == nil && p.SessionCount > 0 {
		return "Good to see you again! Ready for today's lesson?"
	}
	return "Hi there! I'm your tutor for today. Let's get started."
}

// send queues a message without blocking the caller. Websocket writes stay
// single-threaded in the writer goroutine; a saturated queue drops.
func (s *Server) send(ctx context.Context, outbound chan<- any, msg any) {
	select {
	case <-ctx.Done():
	case outbound <- msg:
	default:
		s.countWriteError("queue_full")
	}
}

func (s *Server) countSession(event string) {
	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues(event).Inc()
	}
}

func (s *Server) countMessage(direction, msgType string) {
	if s.metrics != nil {
		s.metrics.WSMessages.WithLabelValues(direction, msgType).Inc()
	}
}

func (s *Server) countWriteError(cause string) {
	if s.metrics != nil {
		s.metrics.WSWriteErrors.WithLabelValues(cause).Inc()
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.JoinLesson:
		return m.Type, true
	case protocol.RecordActivity:
		return m.Type, true
	case protocol.InteractionRequest:
		return m.Type, true
	case protocol.LeaveLesson:
		return m.Type, true
	case protocol.Welcome:
		return m.Type, true
	case protocol.EmotionalState:
		return m.Type, true
	case protocol.GeneratedScript:
		return m.Type, true
	case protocol.AchievementUnlocked:
		return m.Type, true
	case protocol.BreakReminder:
		return m.Type, true
	case protocol.ParentSummary:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}

var _ session.Handle = (*wsHandle)(nil)
