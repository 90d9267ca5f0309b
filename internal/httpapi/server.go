// Package httpapi is the transport edge: chi REST routes for operators and
// the websocket gateway students connect through.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/lumenlearn/tutorcore/internal/achievement"
	"github.com/lumenlearn/tutorcore/internal/config"
	"github.com/lumenlearn/tutorcore/internal/content"
	"github.com/lumenlearn/tutorcore/internal/observability"
	"github.com/lumenlearn/tutorcore/internal/profile"
	"github.com/lumenlearn/tutorcore/internal/session"
)

type Server struct {
	cfg          config.Config
	sessions     *session.Manager
	orchestrator *content.Orchestrator
	profiles     profile.Store
	achievements *achievement.Service
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, orchestrator *content.Orchestrator, profiles profile.Store, achievements *achievement.Service, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		sessions:     sessions,
		orchestrator: orchestrator,
		profiles:     profiles,
		achievements: achievements,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only same-origin browser connections. Non-browser
				// clients omit Origin and are allowed through.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/tutor/ws", s.handleTutorWS)
	r.Get("/v1/sessions", s.handleListSessions)
	r.Post("/v1/sessions", s.handleCreateSession)
	r.Post("/v1/sessions/{studentID}/end", s.handleEndSessions)
	r.Get("/v1/students/{studentID}/profile", s.handleGetProfile)
	r.Get("/v1/students/{studentID}/badges", s.handleListBadges)
	r.Get("/v1/cache/stats", s.handleCacheStats)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"provider_degraded": s.orchestrator != nil && s.orchestrator.Degraded(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"active_sessions": s.sessions.ActiveCount(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"active":   s.sessions.ActiveCount(),
		"presence": s.sessions.Presence(),
		"sessions": s.sessions.Snapshot(),
	})
}

type createSessionRequest struct {
	StudentID string `json:"student_id"`
	LessonID  string `json:"lesson_id"`
}

// handleCreateSession joins a lesson on behalf of an already-connected
// student. Used by non-websocket clients and operator tooling.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.StudentID) == "" || strings.TrimSpace(req.LessonID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "student_id and lesson_id are required")
		return
	}

	sess, resumed, err := s.sessions.JoinLesson(r.Context(), req.StudentID, req.LessonID)
	if err != nil {
		respondError(w, http.StatusConflict, "not_connected", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"session": sess,
		"resumed": resumed,
	})
}

func (s *Server) handleEndSessions(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	if strings.TrimSpace(studentID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_student_id", "missing student id")
		return
	}
	if !s.sessions.Connected(studentID) {
		respondError(w, http.StatusNotFound, "student_not_connected", "no presence for student")
		return
	}
	s.sessions.Disconnect(studentID)
	respondJSON(w, http.StatusOK, map[string]any{"student_id": studentID, "status": "ended"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	p, err := s.profiles.Get(r.Context(), studentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "profile_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleListBadges(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	var badges []string
	if s.achievements != nil {
		badges = s.achievements.Badges(studentID)
	}
	respondJSON(w, http.StatusOK, map[string]any{"student_id": studentID, "badges": badges})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "orchestrator not configured")
		return
	}
	respondJSON(w, http.StatusOK, s.orchestrator.CacheStats(r.Context()))
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
