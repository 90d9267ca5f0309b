package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeJoinLesson         MessageType = "join_lesson"
	TypeRecordActivity     MessageType = "record_activity"
	TypeInteractionRequest MessageType = "interaction_request"
	TypeLeaveLesson        MessageType = "leave_lesson"

	TypeWelcome             MessageType = "welcome"
	TypeEmotionalState      MessageType = "emotional_state"
	TypeGeneratedScript     MessageType = "generated_script"
	TypeAchievementUnlocked MessageType = "achievement_unlocked"
	TypeBreakReminder       MessageType = "break_reminder"
	TypeParentSummary       MessageType = "parent_summary"
	TypeErrorEvent          MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// Slide identifies the slide an interaction is about.
type Slide struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type JoinLesson struct {
	Type     MessageType `json:"type"`
	LessonID string      `json:"lesson_id"`
}

type RecordActivity struct {
	Type      MessageType `json:"type"`
	Kind      string      `json:"kind"`
	Correct   *bool       `json:"correct,omitempty"`
	LatencyMs int64       `json:"latency_ms,omitempty"`
	Text      string      `json:"text,omitempty"`
}

type InteractionRequest struct {
	Type     MessageType `json:"type"`
	Kind     string      `json:"kind"`
	Slide    Slide       `json:"slide"`
	Question string      `json:"question,omitempty"`
}

type LeaveLesson struct {
	Type MessageType `json:"type"`
}

type Welcome struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	LessonID  string      `json:"lesson_id"`
	Greeting  string      `json:"greeting"`
	Resumed   bool        `json:"resumed"`
	Slide     int         `json:"slide"`
}

type EmotionalState struct {
	Type       MessageType `json:"type"`
	Mood       string      `json:"mood"`
	Confidence int         `json:"confidence"`
	Engagement int         `json:"engagement"`
	NeedsBreak bool        `json:"needs_break"`
}

type GeneratedScript struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type AchievementUnlocked struct {
	Type    MessageType `json:"type"`
	BadgeID string      `json:"badge_id"`
	Name    string      `json:"name"`
	Detail  string      `json:"detail"`
}

type BreakReminder struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

type ParentSummary struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes and validates one inbound client payload.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeJoinLesson:
		var msg JoinLesson
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.LessonID == "" {
			return nil, errors.New("invalid join_lesson")
		}
		return msg, nil
	case TypeRecordActivity:
		var msg RecordActivity
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Kind == "" {
			return nil, errors.New("invalid record_activity")
		}
		return msg, nil
	case TypeInteractionRequest:
		var msg InteractionRequest
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Kind == "" && msg.Question == "" {
			return nil, errors.New("invalid interaction_request")
		}
		return msg, nil
	case TypeLeaveLesson:
		var msg LeaveLesson
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
