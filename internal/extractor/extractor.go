package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/weave/internal/llm"
	"github.com/MikeSquared-Agency/weave/internal/transcript"
)

// MinPatternArtifacts is the smallest collection worth sending for pattern detection.
const MinPatternArtifacts = 3

var (
	// ErrGateway wraps any failure of the LLM call itself.
	ErrGateway = errors.New("llm gateway")
	// ErrNotEnoughArtifacts is returned before any LLM call when the
	// collection is smaller than MinPatternArtifacts.
	ErrNotEnoughArtifacts = errors.New("not enough artifacts to detect patterns")
)

// Models selects the model and output budget per task.
type Models struct {
	Entity         string
	Pattern        string
	Recommendation string
}

const (
	entityMaxTokens         = 2048
	patternMaxTokens        = 2048
	recommendationMaxTokens = 1024
)

type Extractor struct {
	llm    llm.Gateway
	models Models
	logger *slog.Logger
}

func New(gateway llm.Gateway, models Models, logger *slog.Logger) *Extractor {
	return &Extractor{llm: gateway, models: models, logger: logger}
}

// ExtractEntities finds the artifacts, concepts and connections in a conversation.
func (e *Extractor) ExtractEntities(ctx context.Context, t transcript.Transcript, opts EntityOptions) (*Extraction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	e.logger.Info("extracting entities",
		"messages", len(t),
		"min_confidence", opts.MinConfidence,
		"include_suggestions", opts.IncludeSuggestions,
	)

	raw, err := e.complete(ctx, e.models.Entity, BuildEntityPrompt(t, opts.IncludeSuggestions), entityMaxTokens)
	if err != nil {
		return nil, err
	}

	resp, err := DecodeObject[entityResponse](raw)
	if err != nil {
		e.logger.Warn("failed to parse entity response", "error", err, "raw_len", len(raw))
		return nil, err
	}

	out := EmptyExtraction()
	for _, a := range FilterByConfidence(resp.Artifacts, opts.MinConfidence) {
		a.Title = strings.TrimSpace(a.Title)
		if a.Title == "" {
			continue
		}
		a.Type = normalizeArtifactType(a.Type)
		a.Context = transcript.Truncate(strings.TrimSpace(a.Context), maxContextRunes)
		out.Artifacts = append(out.Artifacts, a)
	}
	out.Concepts = FilterByConfidence(resp.Concepts, opts.MinConfidence)
	out.UserStatedConnections = FilterByConfidence(resp.UserStatedConnections, opts.MinConfidence)
	if opts.IncludeSuggestions {
		out.SuggestedConnections = FilterByConfidence(resp.SuggestedConnections, opts.MinConfidence)
	}

	e.logger.Info("entity extraction complete",
		"artifacts", len(out.Artifacts),
		"concepts", len(out.Concepts),
		"dropped_artifacts", len(resp.Artifacts)-len(out.Artifacts),
	)

	return out, nil
}

// DetectPatterns infers taste patterns across the user's stored artifacts.
func (e *Extractor) DetectPatterns(ctx context.Context, stored []StoredArtifact, minConfidence float64) ([]DetectedPattern, error) {
	if len(stored) < MinPatternArtifacts {
		return nil, ErrNotEnoughArtifacts
	}

	e.logger.Info("detecting patterns", "artifacts", len(stored), "min_confidence", minConfidence)

	raw, err := e.complete(ctx, e.models.Pattern, BuildPatternPrompt(stored), patternMaxTokens)
	if err != nil {
		return nil, err
	}

	resp, err := DecodeObject[patternResponse](raw)
	if err != nil {
		e.logger.Warn("failed to parse pattern response", "error", err, "raw_len", len(raw))
		return nil, err
	}

	patterns := resolvePatterns(resp.Patterns, stored, minConfidence)

	e.logger.Info("pattern detection complete",
		"candidates", len(resp.Patterns),
		"patterns", len(patterns),
	)

	return patterns, nil
}

// ExtractRecommendations suggests works the conversation points toward.
func (e *Extractor) ExtractRecommendations(ctx context.Context, t transcript.Transcript, minConfidence float64) ([]Recommendation, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	raw, err := e.complete(ctx, e.models.Recommendation, BuildRecommendationPrompt(t), recommendationMaxTokens)
	if err != nil {
		return nil, err
	}

	resp, err := DecodeObject[recommendationResponse](raw)
	if err != nil {
		e.logger.Warn("failed to parse recommendation response", "error", err, "raw_len", len(raw))
		return nil, err
	}

	out := make([]Recommendation, 0, len(resp.Recommendations))
	for _, r := range FilterByConfidence(resp.Recommendations, minConfidence) {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			continue
		}
		r.Type = normalizeArtifactType(r.Type)
		out = append(out, r)
	}

	e.logger.Info("recommendation extraction complete", "recommendations", len(out))

	return out, nil
}

func (e *Extractor) complete(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	raw, err := e.llm.Complete(ctx, llm.Request{
		Model:     model,
		System:    systemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGateway, err)
	}
	return raw, nil
}
