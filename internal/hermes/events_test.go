package hermes

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEventSubjects(t *testing.T) {
	events := []Event{ConversationSaved{}, PatternsDetected{}, EntitiesExtracted{}}
	prefix := strings.TrimSuffix(SubjectAll, ">")

	seen := map[string]bool{}
	for _, ev := range events {
		subject := ev.Subject()
		if !strings.HasPrefix(subject, prefix) {
			t.Errorf("subject %q is not covered by %q", subject, SubjectAll)
		}
		if seen[subject] {
			t.Errorf("duplicate subject %q", subject)
		}
		seen[subject] = true
	}
}

func TestEntitiesExtractedPayload(t *testing.T) {
	ev := EntitiesExtracted{
		UserID:    uuid.MustParse("6f1c2f34-7f83-4a4e-9c36-0d4d9c1a2b3c"),
		Artifacts: 2,
		Concepts:  1,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["user_id"] != "6f1c2f34-7f83-4a4e-9c36-0d4d9c1a2b3c" {
		t.Errorf("unexpected user_id %v", got["user_id"])
	}
	if _, ok := got["conversation_id"]; ok {
		t.Error("expected empty conversation_id to be omitted")
	}
	if got["artifacts"] != float64(2) {
		t.Errorf("expected artifacts 2, got %v", got["artifacts"])
	}
}

func TestDiscard(t *testing.T) {
	var e Emitter = Discard{}
	e.Emit(ConversationSaved{})
}
