package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/weave/internal/extractor"
	"github.com/MikeSquared-Agency/weave/internal/hermes"
	"github.com/MikeSquared-Agency/weave/internal/transcript"
)

const notEnoughArtifactsMessage = "Need at least 3 artifacts to detect patterns. Save a few more and try again."

type entityOptions struct {
	IncludeSuggestions *bool    `json:"include_suggestions"`
	MinConfidence      *float64 `json:"min_confidence"`
}

type extractEntitiesRequest struct {
	Messages       transcript.Transcript `json:"messages"`
	ConversationID string                `json:"conversationId"`
	Options        *entityOptions        `json:"options"`
}

type extractEntitiesResponse struct {
	Success    bool                  `json:"success"`
	Extraction *extractor.Extraction `json:"extraction"`
}

type detectPatternsRequest struct {
	MinConfidence *float64 `json:"min_confidence"`
}

type detectPatternsResponse struct {
	Success  bool                        `json:"success"`
	Patterns []extractor.DetectedPattern `json:"patterns"`
	Message  string                      `json:"message,omitempty"`
}

type recommendationsRequest struct {
	Messages      transcript.Transcript `json:"messages"`
	MinConfidence *float64              `json:"min_confidence"`
}

type recommendationsResponse struct {
	Success         bool                       `json:"success"`
	Recommendations []extractor.Recommendation `json:"recommendations"`
}

// modelFailure reports whether err means the model gave nothing usable. The
// extraction routes answer those with an empty success.
func modelFailure(err error) bool {
	var malformed *extractor.MalformedOutputError
	return errors.As(err, &malformed) || errors.Is(err, extractor.ErrGateway)
}

// threshold picks the request override when it is a valid probability.
func threshold(override *float64, def float64) (float64, bool) {
	if override == nil {
		return def, true
	}
	if *override < 0 || *override > 1 {
		return 0, false
	}
	return *override, true
}

func (s *Server) extractEntities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx)
	log := s.logger.With("route", "extract-entities", "request_id", middleware.GetReqID(ctx))

	var req extractEntitiesRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if err := req.Messages.Validate(); err != nil {
		badRequest(w, "Messages are required")
		return
	}

	opts := extractor.EntityOptions{IncludeSuggestions: true, MinConfidence: s.thresholds.Entity}
	if req.Options != nil {
		if req.Options.IncludeSuggestions != nil {
			opts.IncludeSuggestions = *req.Options.IncludeSuggestions
		}
		minConf, ok := threshold(req.Options.MinConfidence, s.thresholds.Entity)
		if !ok {
			badRequest(w, "min_confidence must be between 0 and 1")
			return
		}
		opts.MinConfidence = minConf
	}

	extraction, err := s.extractor.ExtractEntities(ctx, req.Messages, opts)
	if modelFailure(err) {
		log.Warn("entity extraction degraded to empty result", "error", err)
		writeJSON(w, http.StatusOK, extractEntitiesResponse{Success: true, Extraction: extractor.EmptyExtraction()})
		return
	}
	if err != nil {
		log.Error("entity extraction failed", "error", err)
		internalError(w, "Failed to extract entities")
		return
	}

	s.events.Emit(hermes.EntitiesExtracted{
		UserID:         userID,
		ConversationID: req.ConversationID,
		Artifacts:      len(extraction.Artifacts),
		Concepts:       len(extraction.Concepts),
		Connections:    len(extraction.UserStatedConnections) + len(extraction.SuggestedConnections),
		Timestamp:      time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, extractEntitiesResponse{Success: true, Extraction: extraction})
}

func (s *Server) detectPatterns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx)
	log := s.logger.With("route", "detect-patterns", "request_id", middleware.GetReqID(ctx))

	var req detectPatternsRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	minConf, ok := threshold(req.MinConfidence, s.thresholds.Pattern)
	if !ok {
		badRequest(w, "min_confidence must be between 0 and 1")
		return
	}

	artifacts, err := s.store.ListArtifacts(ctx, userID)
	if err != nil {
		log.Error("failed to list artifacts", "error", err)
		internalError(w, "Failed to load artifacts")
		return
	}

	patterns, err := s.extractor.DetectPatterns(ctx, artifacts, minConf)
	switch {
	case errors.Is(err, extractor.ErrNotEnoughArtifacts):
		writeJSON(w, http.StatusOK, detectPatternsResponse{
			Success:  true,
			Patterns: []extractor.DetectedPattern{},
			Message:  notEnoughArtifactsMessage,
		})
		return
	case modelFailure(err):
		log.Warn("pattern detection degraded to empty result", "error", err)
		writeJSON(w, http.StatusOK, detectPatternsResponse{Success: true, Patterns: []extractor.DetectedPattern{}})
		return
	case err != nil:
		log.Error("pattern detection failed", "error", err)
		internalError(w, "Failed to detect patterns")
		return
	}

	if len(patterns) > 0 {
		ids := make([]string, len(patterns))
		for i, p := range patterns {
			ids[i] = p.ID
		}
		s.events.Emit(hermes.PatternsDetected{
			UserID:     userID,
			PatternIDs: ids,
			Artifacts:  len(artifacts),
			Timestamp:  time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, detectPatternsResponse{Success: true, Patterns: patterns})
}

func (s *Server) extractRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.logger.With("route", "extract-recommendations", "request_id", middleware.GetReqID(ctx))

	var req recommendationsRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if err := req.Messages.Validate(); err != nil {
		badRequest(w, "Messages are required")
		return
	}
	minConf, ok := threshold(req.MinConfidence, s.thresholds.Recommendation)
	if !ok {
		badRequest(w, "min_confidence must be between 0 and 1")
		return
	}

	recs, err := s.extractor.ExtractRecommendations(ctx, req.Messages, minConf)
	if modelFailure(err) {
		log.Warn("recommendations degraded to empty result", "error", err)
		writeJSON(w, http.StatusOK, recommendationsResponse{Success: true, Recommendations: []extractor.Recommendation{}})
		return
	}
	if err != nil {
		log.Error("recommendation extraction failed", "error", err)
		internalError(w, "Failed to extract recommendations")
		return
	}

	writeJSON(w, http.StatusOK, recommendationsResponse{Success: true, Recommendations: recs})
}
