package protocol

import (
	"errors"
	"testing"
)

func TestParseClientMessageJoinLesson(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"join_lesson","lesson_id":"l1"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	join, ok := msg.(JoinLesson)
	if !ok {
		t.Fatalf("message type = %T, want JoinLesson", msg)
	}
	if join.LessonID != "l1" {
		t.Fatalf("LessonID = %q, want l1", join.LessonID)
	}
}

func TestParseClientMessageRejectsMissingFields(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`{"type":"join_lesson"}`)); err == nil {
		t.Fatalf("join_lesson without lesson_id should fail")
	}
	if _, err := ParseClientMessage([]byte(`{"type":"record_activity"}`)); err == nil {
		t.Fatalf("record_activity without kind should fail")
	}
	if _, err := ParseClientMessage([]byte(`{"type":"interaction_request"}`)); err == nil {
		t.Fatalf("interaction_request without kind or question should fail")
	}
}

func TestParseClientMessageInteractionRequest(t *testing.T) {
	raw := []byte(`{"type":"interaction_request","kind":"explain","slide":{"index":2,"title":"Fractions","content":"A fraction is..."},"question":"why?"}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	req, ok := msg.(InteractionRequest)
	if !ok {
		t.Fatalf("message type = %T, want InteractionRequest", msg)
	}
	if req.Slide.Index != 2 || req.Slide.Title != "Fractions" {
		t.Fatalf("unexpected slide: %+v", req.Slide)
	}
	if req.Question != "why?" {
		t.Fatalf("Question = %q", req.Question)
	}
}

func TestParseClientMessageUnsupportedType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"mystery"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageInvalidJSON(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`{`)); err == nil {
		t.Fatalf("invalid JSON should fail")
	}
}
