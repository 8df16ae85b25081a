package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/weave/internal/companion"
	"github.com/MikeSquared-Agency/weave/internal/llm"
)

type chatRequest struct {
	Message     string           `json:"message"`
	Scrap       *companion.Scrap `json:"scrap"`
	ChatHistory []llm.Message    `json:"chatHistory"`
}

type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx)
	log := s.logger.With("route", "chat", "request_id", middleware.GetReqID(ctx))

	var req chatRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(w, "Message is required")
		return
	}

	// Only requests that would reach the model count against the quota.
	decision, err := s.limiter.Allow(ctx, userID.String())
	if err != nil {
		// Fail open when the limiter backend is down.
		log.Warn("rate limiter unavailable", "error", err)
	} else if !decision.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
		fail(w, http.StatusTooManyRequests, "Too many requests. Please wait a moment and try again.")
		return
	}

	scrapID := parseScrapID(req.Scrap)

	// A client that omits chatHistory gets the stored turns replayed.
	history := req.ChatHistory
	if history == nil {
		history, err = s.store.ChatHistory(ctx, userID, scrapID, companion.HistoryTurns)
		if err != nil {
			log.Warn("failed to load chat history", "error", err)
			history = nil
		}
	}

	reply, err := s.companion.Reply(ctx, companion.Request{
		Message: req.Message,
		Scrap:   req.Scrap,
		History: history,
	})
	if errors.Is(err, companion.ErrEmptyMessage) {
		badRequest(w, "Message is required")
		return
	}
	if err != nil {
		log.Error("chat failed", "error", err)
		internalError(w, "Failed to get a response")
		return
	}

	err = s.store.AppendChatHistory(ctx, userID, scrapID,
		llm.Message{Role: llm.RoleUser, Content: req.Message},
		llm.Message{Role: llm.RoleAssistant, Content: reply},
	)
	if err != nil {
		log.Warn("failed to save chat history", "error", err)
	}

	writeJSON(w, http.StatusOK, chatResponse{Success: true, Response: reply})
}

func parseScrapID(s *companion.Scrap) *uuid.UUID {
	if s == nil || s.ID == "" {
		return nil
	}
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return nil
	}
	return &id
}
