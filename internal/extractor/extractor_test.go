package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/weave/internal/anthropic"
	"github.com/MikeSquared-Agency/weave/internal/llm"
	"github.com/MikeSquared-Agency/weave/internal/transcript"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testModels = Models{Entity: "entity-model", Pattern: "pattern-model", Recommendation: "rec-model"}

func cannedGateway(reply string, calls *int, seen *llm.Request) llm.Gateway {
	return llm.GatewayFunc(func(_ context.Context, req llm.Request) (string, error) {
		if calls != nil {
			*calls++
		}
		if seen != nil {
			*seen = req
		}
		return reply, nil
	})
}

func dispossessedTranscript() transcript.Transcript {
	return transcript.Transcript{
		{Sender: transcript.SenderUser, Content: "I love The Dispossessed"},
		{Sender: transcript.SenderAssistant, Content: "Great choice..."},
	}
}

func TestExtractEntities_FiltersByConfidence(t *testing.T) {
	reply := `{
		"artifacts": [
			{"title": "The Dispossessed", "type": "book", "creator": "Ursula K. Le Guin", "year": 1974, "context": "anarchist moon colony", "confidence": 0.95},
			{"title": "The Left Hand of Darkness", "type": "book", "context": "maybe implied", "confidence": 0.5}
		],
		"concepts": [{"name": "anarchism", "confidence": 0.8}, {"name": "scarcity", "confidence": 0.3}],
		"user_stated_connections": [],
		"suggested_connections": [{"from": "The Dispossessed", "to": "anarchism", "relationship": "explores", "confidence": 0.9}]
	}`

	var seen llm.Request
	ext := New(cannedGateway(reply, nil, &seen), testModels, discardLogger())

	result, err := ext.ExtractEntities(context.Background(), dispossessedTranscript(), EntityOptions{MinConfidence: 0.7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(result.Artifacts))
	}
	a := result.Artifacts[0]
	if a.Title != "The Dispossessed" {
		t.Errorf("expected The Dispossessed, got %q", a.Title)
	}
	if a.Confidence != 0.95 {
		t.Errorf("expected confidence 0.95, got %f", a.Confidence)
	}
	if a.Year != 1974 {
		t.Errorf("expected year 1974, got %d", a.Year)
	}
	if len(result.Concepts) != 1 || result.Concepts[0].Name != "anarchism" {
		t.Errorf("expected only anarchism concept, got %+v", result.Concepts)
	}
	if len(result.SuggestedConnections) != 0 {
		t.Errorf("suggestions disabled but got %d", len(result.SuggestedConnections))
	}
	if result.UserStatedConnections == nil {
		t.Error("expected non-nil user_stated_connections")
	}

	if seen.Model != "entity-model" {
		t.Errorf("expected entity model, got %q", seen.Model)
	}
	if len(seen.Messages) != 1 || !strings.Contains(seen.Messages[0].Content, "User: I love The Dispossessed") {
		t.Error("expected formatted transcript in prompt")
	}
}

func TestExtractEntities_IncludeSuggestions(t *testing.T) {
	reply := `{"artifacts": [], "suggested_connections": [{"from": "a", "to": "b", "relationship": "echoes", "confidence": 0.8}]}`

	var seen llm.Request
	ext := New(cannedGateway(reply, nil, &seen), testModels, discardLogger())

	result, err := ext.ExtractEntities(context.Background(), dispossessedTranscript(), EntityOptions{IncludeSuggestions: true, MinConfidence: 0.7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.SuggestedConnections) != 1 {
		t.Errorf("expected 1 suggested connection, got %d", len(result.SuggestedConnections))
	}
	if !strings.Contains(seen.Messages[0].Content, "non-obvious links") {
		t.Error("expected suggestion instructions in prompt")
	}
}

func TestExtractEntities_NormalizesArtifacts(t *testing.T) {
	long := strings.Repeat("x", 200)
	reply := `{"artifacts": [
		{"title": "  Kind of Blue  ", "type": "vinyl record", "year": "1959", "context": "` + long + `", "confidence": 0.9},
		{"title": "   ", "type": "book", "confidence": 0.99}
	]}`

	ext := New(cannedGateway(reply, nil, nil), testModels, discardLogger())

	result, err := ext.ExtractEntities(context.Background(), dispossessedTranscript(), EntityOptions{MinConfidence: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Artifacts) != 1 {
		t.Fatalf("expected blank title to be dropped, got %d artifacts", len(result.Artifacts))
	}
	a := result.Artifacts[0]
	if a.Title != "Kind of Blue" {
		t.Errorf("expected trimmed title, got %q", a.Title)
	}
	if a.Type != TypeOther {
		t.Errorf("expected unknown type to become other, got %q", a.Type)
	}
	if a.Year != 1959 {
		t.Errorf("expected quoted year to decode, got %d", a.Year)
	}
	if n := len([]rune(a.Context)); n > maxContextRunes {
		t.Errorf("expected context capped at %d runes, got %d", maxContextRunes, n)
	}
}

func TestExtractEntities_MalformedOutput(t *testing.T) {
	ext := New(cannedGateway("I cannot help with that.", nil, nil), testModels, discardLogger())

	_, err := ext.ExtractEntities(context.Background(), dispossessedTranscript(), EntityOptions{MinConfidence: 0.7})
	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedOutputError, got %v", err)
	}
}

func TestExtractEntities_GatewayError(t *testing.T) {
	gw := llm.GatewayFunc(func(context.Context, llm.Request) (string, error) {
		return "", errors.New("connection refused")
	})
	ext := New(gw, testModels, discardLogger())

	_, err := ext.ExtractEntities(context.Background(), dispossessedTranscript(), EntityOptions{})
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
}

func TestExtractEntities_EmptyTranscript(t *testing.T) {
	calls := 0
	ext := New(cannedGateway("{}", &calls, nil), testModels, discardLogger())

	_, err := ext.ExtractEntities(context.Background(), transcript.Transcript{{Sender: transcript.SenderUser, Content: "  "}}, EntityOptions{})
	if !errors.Is(err, transcript.ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no LLM call, got %d", calls)
	}
}

func TestExtractEntities_ViaAnthropic(t *testing.T) {
	body := `{"artifacts":[{"title":"Walden","type":"book","context":"living deliberately","confidence":0.9}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "```json\n" + body + "\n```"},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	client := anthropic.NewClient("test-key", "test-model")
	client.SetBaseURL(server.URL)

	ext := New(client, testModels, discardLogger())
	result, err := ext.ExtractEntities(context.Background(), dispossessedTranscript(), EntityOptions{MinConfidence: 0.7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Artifacts) != 1 || result.Artifacts[0].Title != "Walden" {
		t.Errorf("expected Walden, got %+v", result.Artifacts)
	}
}

func storedCollection() []StoredArtifact {
	year := 1974
	return []StoredArtifact{
		{ID: uuid.New(), Title: "The Dispossessed", Type: "book", Creator: "Ursula K. Le Guin", Year: &year},
		{ID: uuid.New(), Title: "Walden", Type: "book", Creator: "Henry David Thoreau"},
		{ID: uuid.New(), Title: "Kind of Blue", Type: "album"},
	}
}

func TestDetectPatterns_RequiresMatches(t *testing.T) {
	stored := storedCollection()
	reply := `{"patterns": [
		{"pattern": "Drawn to voluntary simplicity", "description": "both", "artifacts": ["the dispossessed", "Walden"], "pattern_type": "thematic", "confidence": 0.8},
		{"pattern": "Loves jazz", "description": "one", "artifacts": ["Kind of Blue", "A Love Supreme"], "pattern_type": "medium", "confidence": 0.9},
		{"pattern": "Weak guess", "artifacts": ["Walden", "Kind of Blue"], "confidence": 0.2}
	]}`

	var seen llm.Request
	ext := New(cannedGateway(reply, nil, &seen), testModels, discardLogger())

	patterns, err := ext.DetectPatterns(context.Background(), stored, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(patterns))
	}
	p := patterns[0]
	if len(p.ArtifactIDs) != 2 || p.ArtifactIDs[0] != stored[0].ID || p.ArtifactIDs[1] != stored[1].ID {
		t.Errorf("unexpected artifact ids: %v", p.ArtifactIDs)
	}
	if p.ArtifactTitles[0] != "The Dispossessed" {
		t.Errorf("expected stored title casing, got %q", p.ArtifactTitles[0])
	}
	if !strings.HasPrefix(p.ID, "pattern-") {
		t.Errorf("unexpected id %q", p.ID)
	}

	if seen.Model != "pattern-model" {
		t.Errorf("expected pattern model, got %q", seen.Model)
	}
	if !strings.Contains(seen.Messages[0].Content, "- The Dispossessed (book, by Ursula K. Le Guin, 1974)") {
		t.Error("expected collection listing in prompt")
	}
}

func TestDetectPatterns_TooFewArtifacts(t *testing.T) {
	calls := 0
	ext := New(cannedGateway(`{"patterns": []}`, &calls, nil), testModels, discardLogger())

	_, err := ext.DetectPatterns(context.Background(), storedCollection()[:2], 0.6)
	if !errors.Is(err, ErrNotEnoughArtifacts) {
		t.Fatalf("expected ErrNotEnoughArtifacts, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no LLM call, got %d", calls)
	}
}

func TestDetectPatterns_Malformed(t *testing.T) {
	ext := New(cannedGateway("no patterns here", nil, nil), testModels, discardLogger())

	_, err := ext.DetectPatterns(context.Background(), storedCollection(), 0.6)
	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedOutputError, got %v", err)
	}
}

func TestExtractRecommendations(t *testing.T) {
	reply := `{"recommendations": [
		{"title": "The Left Hand of Darkness", "creator": "Ursula K. Le Guin", "type": "book", "reason": "more Le Guin", "confidence": 0.8},
		{"title": "Dune", "type": "novel", "reason": "desert planet", "confidence": 0.6},
		{"title": "Long shot", "type": "film", "reason": "eh", "confidence": 0.1}
	]}`

	var seen llm.Request
	ext := New(cannedGateway(reply, nil, &seen), testModels, discardLogger())

	recs, err := ext.ExtractRecommendations(context.Background(), dispossessedTranscript(), 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[1].Type != TypeOther {
		t.Errorf("expected unknown type normalized to other, got %q", recs[1].Type)
	}
	if seen.Model != "rec-model" {
		t.Errorf("expected recommendation model, got %q", seen.Model)
	}
	if seen.MaxTokens != recommendationMaxTokens {
		t.Errorf("expected %d max tokens, got %d", recommendationMaxTokens, seen.MaxTokens)
	}
}
