package hermes

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubjectConversationSaved = "weave.conversation.saved"
	SubjectPatternsDetected  = "weave.patterns.detected"
	SubjectEntitiesExtracted = "weave.entities.extracted"

	// SubjectAll matches every Weave event.
	SubjectAll = "weave.>"
)

// Event is anything published on a Weave subject.
type Event interface {
	Subject() string
}

// Emitter is the publishing side the HTTP layer depends on.
type Emitter interface {
	Emit(ev Event)
}

// Discard drops every event. Used when NATS is not configured.
type Discard struct{}

func (Discard) Emit(Event) {}

type ConversationSaved struct {
	UserID         uuid.UUID `json:"user_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Title          string    `json:"title"`
	MessageCount   int       `json:"message_count"`
	Timestamp      time.Time `json:"timestamp"`
}

func (ConversationSaved) Subject() string { return SubjectConversationSaved }

type PatternsDetected struct {
	UserID     uuid.UUID `json:"user_id"`
	PatternIDs []string  `json:"pattern_ids"`
	Artifacts  int       `json:"artifacts"`
	Timestamp  time.Time `json:"timestamp"`
}

func (PatternsDetected) Subject() string { return SubjectPatternsDetected }

// EntitiesExtracted carries counts only; titles stay out of the event stream.
type EntitiesExtracted struct {
	UserID         uuid.UUID `json:"user_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Artifacts      int       `json:"artifacts"`
	Concepts       int       `json:"concepts"`
	Connections    int       `json:"connections"`
	Timestamp      time.Time `json:"timestamp"`
}

func (EntitiesExtracted) Subject() string { return SubjectEntitiesExtracted }
